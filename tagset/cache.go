package tagset

import (
	"sync"
)

// Cache maps a surface form to the set of POS tags the analyzers produced
// for it. A missing key means the word was never queried; a present key with
// an empty set means it was queried and no analysis was found. Tag sets only
// ever grow within a process run.
type Cache struct {
	mu      sync.Mutex
	entries map[string]map[string]struct{}
}

// The analyzers only partially analyze punctuation; these entries fill the
// gaps up front so punctuation never triggers a query.
var openingClosingPunct = []string{
	"(", ")", "{", "}", `"`, "'", "”", "“", "[", "]",
	"«", "»", "-", "‒", "–", "‘", "’", "/", "...", "--",
}

var sentenceFinalPunct = []string{".", ":", ";", "!", "?"}

func NewCache() *Cache {
	cache := &Cache{entries: make(map[string]map[string]struct{})}
	for _, punct := range openingClosingPunct {
		cache.Add(punct, "$(")
	}
	cache.Add(",", "$,")
	for _, punct := range sentenceFinalPunct {
		cache.Add(punct, "$.")
	}
	return cache
}

// Has reports whether the word has an entry, empty or not.
func (cache *Cache) Has(word string) bool {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	_, ok := cache.entries[word]
	return ok
}

// Add records a tag for the word, creating the entry when needed.
func (cache *Cache) Add(word string, tag string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	entry, ok := cache.entries[word]
	if !ok {
		entry = make(map[string]struct{})
		cache.entries[word] = entry
	}
	entry[tag] = struct{}{}
}

// Claim inserts an empty placeholder entry for every listed spelling that
// has no entry yet and returns the claimed spellings in argument order. The
// whole operation is atomic, so two callers racing on the same spelling
// never both claim it and the analyzer is queried at most once per spelling.
func (cache *Cache) Claim(spellings ...string) []string {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	var claimed []string
	for _, spelling := range spellings {
		if _, ok := cache.entries[spelling]; ok {
			continue
		}
		cache.entries[spelling] = make(map[string]struct{})
		claimed = append(claimed, spelling)
	}
	return claimed
}

// Tags returns a copy of the word's tag set, nil when the word has no entry.
func (cache *Cache) Tags(word string) []string {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	entry, ok := cache.entries[word]
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(entry))
	for tag := range entry {
		tags = append(tags, tag)
	}
	return tags
}
