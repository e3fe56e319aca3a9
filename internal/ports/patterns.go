package ports

// KeywordScanner finds indexed keywords mentioned in free text using
// multi-pattern matching (Aho-Corasick). A single pass over the text finds all
// keywords simultaneously, regardless of how many keywords are in the set.
//
// The scanner must be rebuilt when the keyword set changes, which happens once
// per dataset load.
type KeywordScanner interface {
	// Scan returns the distinct keywords that occur in text as whole words,
	// compared case-insensitively. Returned keywords are spelled as they were
	// given to Rebuild. Returns nil if nothing matches.
	Scan(text string) []string

	// Rebuild replaces the entire keyword set. Empty keywords are ignored.
	Rebuild(keywords []string)
}
