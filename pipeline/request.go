package pipeline

type Request struct {
	Text string `json:"text"`
	Tid  string `json:"tid"`
}
