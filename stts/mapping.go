// Package stts maps the coarse word classes of SMOR-style morphological
// analyses onto the fine-grained STTS tagset.
package stts

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
	"strings"
)

// Rule refines one coarse class: when every marker in Contains occurs in the
// analysis line, the rule's tags apply. A rule with no markers always matches,
// so it acts as the fallback for its class.
type Rule struct {
	Contains []string `yaml:"contains,omitempty"`
	Tag      string   `yaml:"tag"`
	Tag2     string   `yaml:"tag2,omitempty"`
}

// Mapping resolves coarse main classes to STTS tags. Verbs are refined from
// the analysis features (finiteness, auxiliary and modal lemmas), every other
// class through its rule list. A lookup yields up to two tags; pronoun
// classes keep both substitutive and attributive readings when morphology
// cannot decide.
type Mapping struct {
	rules       map[string][]Rule
	auxiliaries map[string]struct{}
	modals      map[string]struct{}
}

type mappingFile struct {
	Auxiliaries []string          `yaml:"auxiliaries"`
	Modals      []string          `yaml:"modals"`
	Classes     map[string][]Rule `yaml:"classes"`
}

// DefaultMapping returns the built-in STTS table.
func DefaultMapping() *Mapping {
	return buildMapping(
		[]string{"sein", "haben", "werden"},
		[]string{"dürfen", "können", "mögen", "müssen", "sollen", "wollen"},
		map[string][]Rule{
			"ADJ": {
				{Contains: []string{"<Pred>"}, Tag: "ADJD"},
				{Contains: []string{"<Adv>"}, Tag: "ADJD"},
				{Tag: "ADJA"},
			},
			"ADV":   {{Tag: "ADV"}},
			"ART":   {{Tag: "ART"}},
			"CARD":  {{Tag: "CARD"}},
			"CIRCP": {{Tag: "APZR"}},
			"CONJ": {
				{Contains: []string{"<Compar>"}, Tag: "KOKOM"},
				{Contains: []string{"<Sub>"}, Tag: "KOUS"},
				{Tag: "KON"},
			},
			"DEM":    {{Tag: "PDS", Tag2: "PDAT"}},
			"INDEF":  {{Tag: "PIS", Tag2: "PIAT"}},
			"INTJ":   {{Tag: "ITJ"}},
			"NN":     {{Tag: "NN"}},
			"NPROP":  {{Tag: "NE"}},
			"ORD":    {{Tag: "ADJA"}},
			"POSS":   {{Tag: "PPOSS", Tag2: "PPOSAT"}},
			"POSTP":  {{Tag: "APPO"}},
			"PPRO": {
				{Contains: []string{"<Refl>"}, Tag: "PRF"},
				{Tag: "PPER"},
			},
			"PREP":    {{Tag: "APPR"}},
			"PREPART": {{Tag: "APPRART"}},
			"PROADV":  {{Tag: "PROAV"}},
			"PTCL": {
				{Contains: []string{"<Ans>"}, Tag: "PTKANT"},
				{Contains: []string{"<Neg>"}, Tag: "PTKNEG"},
				{Contains: []string{"<zu>"}, Tag: "PTKZU"},
				{Contains: []string{"<Adj>"}, Tag: "PTKA"},
				{Tag: "PTKVZ"},
			},
			"PUNCT": {
				{Contains: []string{"<Comma>"}, Tag: "$,"},
				{Contains: []string{"<Norm>"}, Tag: "$."},
				{Tag: "$("},
			},
			"REL":    {{Tag: "PRELS", Tag2: "PRELAT"}},
			"SYMBOL": {{Tag: "XY"}},
			"TRUNC":  {{Tag: "TRUNC"}},
			"VPART":  {{Tag: "PTKVZ"}},
			"WADV":   {{Tag: "PWAV"}},
			"WPRO":   {{Tag: "PWS", Tag2: "PWAT"}},
		},
	)
}

// LoadMapping reads a YAML mapping file and replaces the built-in table.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tag mapping %s: %w", path, err)
	}
	var file mappingFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("tag mapping %s: %w", path, err)
	}
	if len(file.Classes) == 0 {
		return nil, fmt.Errorf("tag mapping %s defines no classes", path)
	}
	for class, rules := range file.Classes {
		for _, rule := range rules {
			if rule.Tag == "" {
				return nil, fmt.Errorf("tag mapping %s: class %s has a rule without a tag", path, class)
			}
		}
	}
	return buildMapping(file.Auxiliaries, file.Modals, file.Classes), nil
}

func buildMapping(auxiliaries []string, modals []string, classes map[string][]Rule) *Mapping {
	mapping := &Mapping{
		rules:       classes,
		auxiliaries: make(map[string]struct{}, len(auxiliaries)),
		modals:      make(map[string]struct{}, len(modals)),
	}
	for _, lemma := range auxiliaries {
		mapping.auxiliaries[lemma] = struct{}{}
	}
	for _, lemma := range modals {
		mapping.modals[lemma] = struct{}{}
	}
	return mapping
}

// ClassCount reports how many coarse classes the table covers.
func (mapping *Mapping) ClassCount() int {
	return len(mapping.rules)
}

// MapClass resolves one analysis line to STTS tags. The second tag is empty
// unless the class keeps two readings. Unknown classes map to nothing.
func (mapping *Mapping) MapClass(class string, line string) (string, string) {
	if class == "V" {
		return mapping.mapVerb(line)
	}
	for _, rule := range mapping.rules[class] {
		if containsAll(line, rule.Contains) {
			return rule.Tag, rule.Tag2
		}
	}
	return "", ""
}

// mapVerb picks the verb subclass from the lemma and the finiteness markers.
// The lemma is the analysis prefix before the first feature, which identifies
// auxiliaries and modals for simple verbs.
func (mapping *Mapping) mapVerb(line string) (string, string) {
	lemma := line
	if idx := strings.Index(line, "<"); idx >= 0 {
		lemma = line[:idx]
	}
	base := "VV"
	if _, ok := mapping.auxiliaries[lemma]; ok {
		base = "VA"
	} else if _, ok := mapping.modals[lemma]; ok {
		base = "VM"
	}

	switch {
	case strings.Contains(line, "<Inf>"):
		if base == "VV" && strings.Contains(line, "<zu>") {
			return "VVIZU", ""
		}
		return base + "INF", ""
	case strings.Contains(line, "<PPast>"):
		return base + "PP", ""
	case strings.Contains(line, "<Imp>"):
		return base + "IMP", ""
	default:
		return base + "FIN", ""
	}
}

func containsAll(line string, markers []string) bool {
	for _, marker := range markers {
		if !strings.Contains(line, marker) {
			return false
		}
	}
	return true
}
