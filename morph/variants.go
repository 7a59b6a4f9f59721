package morph

import (
	"strings"
)

// Spelling substitutions the analyzers may expect instead of the literal
// input: eszett and umlaut digraph conventions, both directions where the
// mapping is ambiguous.
var variantSubstitutions = [][2]string{
	{"ss", "ß"},
	{"ß", "ss"},
	{"ae", "ä"},
	{"oe", "ö"},
	{"ue", "ü"},
}

// SpellingVariants returns alternative spellings of word a German
// morphological analyzer might recognize. Every variant differs from the
// input in exactly one substituted span; variants are not deduplicated, the
// caller checks them against the cache.
func SpellingVariants(word string) []string {
	var variants []string

	// capitalized umlaut digraphs only count at the start of the word
	switch {
	case strings.HasPrefix(word, "Ae"):
		variants = append(variants, "Ä"+word[2:])
	case strings.HasPrefix(word, "Oe"):
		variants = append(variants, "Ö"+word[2:])
	case strings.HasPrefix(word, "Ue"):
		variants = append(variants, "Ü"+word[2:])
	}

	for _, substitution := range variantSubstitutions {
		from, to := substitution[0], substitution[1]
		offset := 0
		for {
			idx := strings.Index(word[offset:], from)
			if idx < 0 {
				break
			}
			idx += offset
			variants = append(variants, word[:idx]+to+word[idx+len(from):])
			offset = idx + len(from)
		}
	}
	return variants
}
