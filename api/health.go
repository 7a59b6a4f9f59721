package api

import (
	"net/http"
)

// Health answers liveness probes. It reports whether the process accepts
// requests, not whether the analysis server behind it is reachable.
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("live"))
}
