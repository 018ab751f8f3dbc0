package radixtrie

import "sort"

// FuzzyQuery returns every stored key within edit distance dMax of q,
// plus any exact match (always emitted at distance 0 even when dMax
// is 0 — spec.md §4.2: "exact matches score 1.0 and are emitted even
// when fuzzy matching is requested").
//
// Results are ordered by descending score, ties broken by
// lexicographic order of the matched string.
//
// Implementation note (see DESIGN.md): spec.md describes the search
// as a DFS over a "PartialMatch frontier" with downshift/rightshift
// moves and a visited-set keyed by (node, query-suffix) to prevent
// re-expansion. That bookkeeping is needed when the same node can be
// reached by more than one gap path, which cannot happen in a strict
// tree with no shared sub-paths. Here the frontier is realized
// directly as a Levenshtein row carried one compressed edge at a time
// down the trie: row[j] is the edit distance between q[:j] and the
// path walked so far. A subtree is pruned the instant min(row) exceeds
// dMax, which is sound because every string in that subtree extends
// the current path and can therefore only have a distance greater
// than or equal to that minimum.
func (t *Tree) FuzzyQuery(q []rune, dMax int) []FuzzyResult {
	if dMax < 0 {
		dMax = 0
	}
	initial := make([]int, len(q)+1)
	for j := range initial {
		initial[j] = j
	}

	type hit struct {
		match    string
		distance int
		refs     []Ref
	}
	var hits []hit

	var walk func(n *node, path []rune, prevRow []int)
	walk = func(n *node, path []rune, prevRow []int) {
		row := prevRow
		p := path
		for _, r := range n.prefix {
			newRow := make([]int, len(q)+1)
			newRow[0] = row[0] + 1
			for j := 1; j <= len(q); j++ {
				cost := 1
				if q[j-1] == r {
					cost = 0
				}
				del := row[j] + 1    // gap-in-query: consume a trie char
				ins := newRow[j-1] + 1 // gap-in-trie: consume a query char
				sub := row[j-1] + cost // match or substitution
				newRow[j] = minInt(del, minInt(ins, sub))
			}
			row = newRow
			p = append(p, r)
		}

		if rowMin(row) > dMax {
			return // prune: every descendant only grows this distance
		}

		if len(n.refs) > 0 && row[len(q)] <= dMax {
			hits = append(hits, hit{
				match:    string(p),
				distance: row[len(q)],
				refs:     append([]Ref(nil), n.refs...),
			})
		}

		n.eachChild(func(c *node) {
			walk(c, append([]rune(nil), p...), row)
		})
	}

	walk(t.root, nil, initial)

	// Dedup by matched string, keeping the lowest-distance hit — the
	// same stored string can be reached only once per Insert, but a
	// taxon's canonical name and one of its synonyms can coincide
	// textually, which Build keeps as multiple refs on one node, not
	// multiple hits, so no dedup is actually required in practice;
	// guard against it anyway since FuzzyQuery is a public API.
	best := make(map[string]hit, len(hits))
	for _, h := range hits {
		if prev, ok := best[h.match]; !ok || h.distance < prev.distance {
			best[h.match] = h
		}
	}

	out := make([]FuzzyResult, 0, len(best))
	for _, h := range best {
		out = append(out, FuzzyResult{
			Match:    h.match,
			Distance: h.distance,
			Score:    score(h.distance, len(q), len([]rune(h.match))),
			Refs:     h.refs,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Match < out[j].Match
	})
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func rowMin(row []int) int {
	m := row[0]
	for _, v := range row[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
