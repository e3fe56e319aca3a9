package ahocorasick

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Mention scanner: find indexed gene names in free text in one pass
// Expectation: whole-word, case-insensitive, distinct, original spelling
// =============================================================================

func TestScanner_SingleKeyword(t *testing.T) {
	s := NewScanner([]string{"trkA"})
	assert.Equal(t, []string{"trkA"}, s.Scan("knockout of trkA reduced growth"))
}

func TestScanner_MultipleKeywords(t *testing.T) {
	s := NewScanner([]string{"trkA", "gvpA", "VNG1001G"})
	got := s.Scan("gvpA and VNG1001G, but also trkA.")
	assert.Equal(t, []string{"gvpA", "VNG1001G", "trkA"}, got, "order of first occurrence")
}

func TestScanner_WholeWordsOnly(t *testing.T) {
	s := NewScanner([]string{"gvpA", "gvpA2", "trk"})

	assert.Equal(t, []string{"gvpA2"}, s.Scan("gvpA2 is expressed"))
	assert.Nil(t, s.Scan("the trkA gene"), "trk is only a prefix of trkA")
	assert.Nil(t, s.Scan("xgvpA"))
	assert.Equal(t, []string{"gvpA"}, s.Scan("(gvpA)"))
	assert.Equal(t, []string{"trk"}, s.Scan("trk-dependent"))
}

func TestScanner_OverlappingKeywords(t *testing.T) {
	// Both the short and the long keyword are found when each stands alone.
	s := NewScanner([]string{"VNG1001", "VNG1001G"})
	got := s.Scan("VNG1001G then VNG1001")
	assert.ElementsMatch(t, []string{"VNG1001", "VNG1001G"}, got)
}

func TestScanner_CaseInsensitive(t *testing.T) {
	s := NewScanner([]string{"gvpA", "GVPA"})
	got := s.Scan("GvPa")
	assert.Equal(t, []string{"gvpA", "GVPA"}, got, "every spelling of a folded keyword")
}

func TestScanner_Distinct(t *testing.T) {
	s := NewScanner([]string{"trkA", "trkA"})
	assert.Equal(t, []string{"trkA"}, s.Scan("trkA trkA TRKA"))
}

func TestScanner_NoMatch(t *testing.T) {
	s := NewScanner([]string{"auth"})
	assert.Nil(t, s.Scan("hello world"))
	assert.Nil(t, s.Scan(""))
}

func TestScanner_Empty(t *testing.T) {
	s := NewScanner(nil)
	assert.Nil(t, s.Scan("anything"))
	assert.Equal(t, 0, s.KeywordCount())

	s.Rebuild([]string{"", ""})
	assert.Nil(t, s.Scan("anything"))
}

func TestScanner_Rebuild(t *testing.T) {
	s := NewScanner([]string{"trkA"})
	s.Rebuild([]string{"gvpA"})

	assert.Nil(t, s.Scan("trkA"), "old keywords no longer match")
	assert.Equal(t, []string{"gvpA"}, s.Scan("gvpA"))
	assert.Equal(t, 1, s.KeywordCount())
}

func TestScanner_ConcurrentScan(t *testing.T) {
	s := NewScanner([]string{"trkA", "gvpA"})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.Len(t, s.Scan("trkA gvpA"), 2)
			}
		}()
	}
	s.Rebuild([]string{"trkA", "gvpA"})
	wg.Wait()
}

func BenchmarkScan(b *testing.B) {
	// Target: 5000 keywords against 1KB of text.
	keywords := make([]string, 5000)
	for i := range keywords {
		keywords[i] = fmt.Sprintf("VNG%04dG", i)
	}
	s := NewScanner(keywords)
	text := strings.Repeat("expression of VNG0042G and VNG4999G rose sharply ", 20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Scan(text)
	}
}
