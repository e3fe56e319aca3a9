package index

import "github.com/corey/gbsearch/internal/ports"

// KeywordIndex maps an exact keyword to the features indexed under it. One
// keyword may hold many features and one feature may sit under several
// keywords (systematic name and common name). Buckets keep duplicates.
//
// Lookups are exact; wildcard semantics live in SearchEngine. Not safe for
// concurrent mutation.
type KeywordIndex struct {
	buckets map[string][]ports.Feature
	keys    []string // insertion order of distinct keywords
}

// NewKeywordIndex returns an empty index.
func NewKeywordIndex() *KeywordIndex {
	return &KeywordIndex{buckets: make(map[string][]ports.Feature)}
}

// Add appends feature to keyword's bucket. An empty keyword is a no-op.
func (ki *KeywordIndex) Add(keyword string, feature ports.Feature) {
	if keyword == "" {
		return
	}
	bucket, ok := ki.buckets[keyword]
	if !ok {
		ki.keys = append(ki.keys, keyword)
	}
	ki.buckets[keyword] = append(bucket, feature)
}

// Keys returns every distinct keyword. Callers must not modify the slice.
func (ki *KeywordIndex) Keys() []string {
	return ki.keys
}

// FeaturesFor returns the bucket for exactly keyword, or nil.
func (ki *KeywordIndex) FeaturesFor(keyword string) []ports.Feature {
	return ki.buckets[keyword]
}

// Clear empties the index.
func (ki *KeywordIndex) Clear() {
	ki.buckets = make(map[string][]ports.Feature)
	ki.keys = nil
}

// Size is the number of distinct keywords, not of (keyword, feature) pairs.
func (ki *KeywordIndex) Size() int {
	return len(ki.keys)
}
