package index

import (
	"regexp"
	"strings"
)

// Keywords are separated by whitespace, commas or semicolons; the latter two
// may have whitespace on either side.
var querySeparator = regexp.MustCompile(`\s*,\s*|\s*;\s*|\s+`)

// SplitQuery trims query and splits it into keyword terms. A blank query
// yields no keywords. Empty terms can still appear (e.g. "a,,b"); the engine
// skips them.
func SplitQuery(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	return querySeparator.Split(query, -1)
}
