package wildcard

import "unicode"

const dead int32 = -1

// Match reports whether candidate is accepted by the pattern. A nil Pattern
// matches nothing. Match never panics.
func (p *Pattern) Match(candidate string) bool {
	if p == nil || len(p.nodes) == 0 {
		return false
	}
	n := int32(0)
	for _, r := range candidate {
		if !p.caseSensitive {
			r = unicode.ToLower(r)
		}
		n = p.step(n, r)
		if n == dead {
			return false
		}
	}
	return len(p.nodes[n].edges) == 0
}

// MatchPtr is Match for an optional candidate. A nil candidate does not match.
func (p *Pattern) MatchPtr(candidate *string) bool {
	if candidate == nil {
		return false
	}
	return p.Match(*candidate)
}

// step follows the transition for r out of node n. A labeled edge wins; a
// self default edge consumes r in place; a back-edge moves to an earlier node
// and retries r there without consuming it.
//
// Back-edges always target a node whose default is a self-edge, so the loop
// runs at most twice per rune.
func (p *Pattern) step(n int32, r rune) int32 {
	for {
		nd := &p.nodes[n]
		for _, e := range nd.edges {
			if e.r == r {
				return e.to
			}
		}
		switch nd.def {
		case noNode:
			return dead
		case n:
			return n
		default:
			n = nd.def
		}
	}
}

// Match compiles pattern with opts and matches candidate against it. Use
// Compile directly when matching many candidates.
func Match(pattern, candidate string, opts ...Option) bool {
	return Compile(pattern, opts...).Match(candidate)
}
