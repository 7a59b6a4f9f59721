// Package features assembles the per-word feature lines consumed by the
// downstream POS tagger.
package features

import (
	"morphtext.com/mfx/morph"
	"morphtext.com/mfx/tagset"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// TagSlots is the fixed width of the candidate-tag field.
	TagSlots = 10
	// PadTag fills unused tag slots. It sorts after every real STTS tag,
	// so padding never displaces a real candidate.
	PadTag = "ZZZ"
)

// Extractor renders feature lines from the tag cache. It never writes the
// cache; the resolver has to populate entries for a word before its line is
// extracted.
type Extractor struct {
	cache *tagset.Cache
}

func NewExtractor(cache *tagset.Cache) *Extractor {
	return &Extractor{cache: cache}
}

// Line turns one input line into one tab-separated feature line: the word,
// its lowercased form, the case flag (uc/lc on the first rune), the
// alphanumeric flag (y when the first rune is a letter, digit, or hyphen,
// which keeps hyphenated compounds alphanumeric), exactly TagSlots sorted
// candidate tags, and the gold label when the input carries a second token.
// An empty input line maps to a bare newline.
func (extractor *Extractor) Line(input string) string {
	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return "\n"
	}
	word := tokens[0]

	first, _ := utf8.DecodeRuneInString(word)
	caseFlag := "lc"
	if unicode.IsUpper(first) {
		caseFlag = "uc"
	}
	alnumFlag := "n"
	if unicode.IsLetter(first) || unicode.IsDigit(first) || first == '-' {
		alnumFlag = "y"
	}

	fields := make([]string, 0, 4+TagSlots+1)
	fields = append(fields, word, strings.ToLower(word), caseFlag, alnumFlag)
	fields = append(fields, extractor.tagSlots(word)...)
	if len(tokens) > 1 {
		fields = append(fields, tokens[1])
	}
	return strings.Join(fields, "\t") + "\n"
}

// tagSlots unions the cached tags of the word and of all its spelling
// variants, sorted and fitted to exactly TagSlots entries.
func (extractor *Extractor) tagSlots(word string) []string {
	seen := make(map[string]struct{})
	for _, tag := range extractor.cache.Tags(word) {
		seen[tag] = struct{}{}
	}
	for _, variant := range morph.SpellingVariants(word) {
		for _, tag := range extractor.cache.Tags(variant) {
			seen[tag] = struct{}{}
		}
	}

	slots := make([]string, 0, len(seen))
	for tag := range seen {
		slots = append(slots, tag)
	}
	sort.Strings(slots)
	if len(slots) > TagSlots {
		slots = slots[:TagSlots]
	}
	for len(slots) < TagSlots {
		slots = append(slots, PadTag)
	}
	return slots
}
