package morph

import (
	"morphtext.com/mfx/tagset"
)

// Backend is one of the interchangeable morphological analyzers. Analyze
// turns a query batch into the analyzer's raw output; Normalize folds that
// output back into the cache, keyed by the analyzer's own echo of each word.
// Close releases whatever the backend owns (for the persistent-service
// analyzer, the server process).
type Backend interface {
	Analyze(words []string) (string, error)
	Normalize(raw string, cache *tagset.Cache)
	Close() error
}

// Resolver runs the shared lookup protocol over a Backend: an uncached word
// is claimed together with its not-yet-cached spelling variants before the
// analyzer is queried, so every spelling is queried at most once per run.
type Resolver struct {
	backend Backend
	cache   *tagset.Cache
}

func NewResolver(backend Backend, cache *tagset.Cache) *Resolver {
	return &Resolver{backend: backend, cache: cache}
}

// Resolve ensures cache entries exist for all given words. Already cached
// words cost nothing; the rest are resolved with a single Analyze call
// covering them and their unseen spelling variants, in encounter order.
func (resolver *Resolver) Resolve(words ...string) error {
	var todo []string
	for _, word := range words {
		if resolver.cache.Has(word) {
			continue
		}
		group := append([]string{word}, SpellingVariants(word)...)
		todo = append(todo, resolver.cache.Claim(group...)...)
	}
	if len(todo) == 0 {
		return nil
	}
	raw, err := resolver.backend.Analyze(todo)
	if err != nil {
		return err
	}
	resolver.backend.Normalize(raw, resolver.cache)
	return nil
}
