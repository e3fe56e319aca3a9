// Package wildcard compiles glob-style patterns into a small finite automaton
// and matches strings against it.
//
// A pattern is made of literal characters and the wildcard token '*', which
// matches zero or more arbitrary characters. "\*" is a literal '*' and "\\"
// is a literal '\'. Matching is case-insensitive unless CaseSensitive is given.
//
// The automaton encodes wildcard backtracking as graph edges instead of a
// search stack. A node bearing a '*' loops on itself through its default edge;
// every literal node after it carries a default back-edge to that loop node.
// When a literal continuation fails, the matcher follows the back-edge and
// retries the same character there, so matching stays linear in the input.
package wildcard

import (
	"strconv"
	"strings"
	"unicode"
)

// noNode marks an absent default edge.
const noNode int32 = -1

// edge is a labeled transition consumed by exactly one matching rune.
type edge struct {
	r  rune
	to int32
}

// node is a state. It accepts iff it has no labeled edges. def is the
// fallback when no labeled edge matches: itself (self-edge, consumes the rune),
// an earlier node (back-edge, retry without consuming) or noNode (fail).
//
// Accept-by-no-edges only holds because every Pattern is compiled from a
// single pattern string. Merging several patterns into one automaton, where
// one could be a prefix of another, would need a real accept flag.
type node struct {
	edges []edge
	def   int32
}

// Pattern is a compiled wildcard pattern. It is immutable after Compile and
// safe for concurrent use by multiple goroutines.
type Pattern struct {
	source        string
	caseSensitive bool
	nodes         []node // nodes[0] is the start node
}

// Option configures compilation.
type Option func(*Pattern)

// CaseSensitive disables case folding of both pattern and candidates.
func CaseSensitive() Option {
	return func(p *Pattern) { p.caseSensitive = true }
}

// WithCaseSensitive sets case sensitivity from a flag, for callers that read
// it from configuration.
func WithCaseSensitive(on bool) Option {
	return func(p *Pattern) { p.caseSensitive = on }
}

// Compile builds the automaton for pattern. It never fails: every string is a
// valid pattern. A trailing unescaped '\' has nothing to escape and is dropped.
func Compile(pattern string, opts ...Option) *Pattern {
	p := &Pattern{source: pattern}
	for _, opt := range opts {
		opt(p)
	}

	p.nodes = make([]node, 1, len(pattern)+1)
	p.nodes[0].def = noNode

	cur, back := int32(0), noNode
	escaped := false
	for _, r := range pattern {
		switch {
		case r == '\\' && !escaped:
			escaped = true
		case r == '*' && !escaped:
			back = cur
			p.nodes[cur].def = cur
		default:
			if !p.caseSensitive {
				r = unicode.ToLower(r)
			}
			next := int32(len(p.nodes))
			p.nodes = append(p.nodes, node{def: back})
			p.nodes[cur].edges = []edge{{r: r, to: next}}
			cur = next
			escaped = false
		}
	}
	return p
}

// String returns the source pattern.
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.source
}

// CaseSensitive reports whether the pattern was compiled case-sensitive.
func (p *Pattern) CaseSensitive() bool {
	return p != nil && p.caseSensitive
}

// NodeCount is the number of states in the automaton, the start node included.
func (p *Pattern) NodeCount() int {
	if p == nil {
		return 0
	}
	return len(p.nodes)
}

// HasWildcard reports whether the pattern contains an unescaped '*'.
func (p *Pattern) HasWildcard() bool {
	if p == nil {
		return false
	}
	for i := range p.nodes {
		if p.nodes[i].def == int32(i) {
			return true
		}
	}
	return false
}

// Dump renders the automaton one node per line, for debugging:
//
//	0 -a-> 1 default=-
//	1 -b-> 2 default=1 (self)
func (p *Pattern) Dump() string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	for i, n := range p.nodes {
		sb.WriteString(strconv.Itoa(i))
		for _, e := range n.edges {
			sb.WriteString(" -")
			sb.WriteRune(e.r)
			sb.WriteString("-> ")
			sb.WriteString(strconv.Itoa(int(e.to)))
		}
		switch {
		case n.def == noNode:
			sb.WriteString(" default=-")
		case n.def == int32(i):
			sb.WriteString(" default=" + strconv.Itoa(i) + " (self)")
		default:
			sb.WriteString(" default=" + strconv.Itoa(int(n.def)))
		}
		if len(n.edges) == 0 {
			sb.WriteString(" accept")
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
