// Package conflict implements the induced-subtree and conflict
// classification engine of spec.md §4.6: given a user-supplied query
// phylogeny Q and a reference tree R (ordinarily the chosen summary
// tree), it computes the induced subtrees Q′ and R′ over their shared
// leaf set and classifies every internal node of Q′ against R′.
// Grounded on original_source/otc/ws/conflictws.cpp and
// supertree_util.h/.cpp for the contraction and classification shape.
package conflict

import "github.com/opentreeoflife/taxacore/internal/taxonomy"

// treeView is the minimal index-based interface the induction and
// classification algorithms need. internal/synth.SynthTree and this
// package's own QueryTree both implement it, letting the same
// contraction code run over either the query tree or the reference
// tree.
type treeView interface {
	NumNodes() int32
	RootIdx() int32
	ParentIdx(i int32) (int32, bool)
	ChildIdx(i int32) []int32
	OttIDAt(i int32) (taxonomy.Id, bool)
	DepthAt(i int32) int32
	TravEnterAt(i int32) int64
	TravExitAt(i int32) int64
	LabelAt(i int32) string
}

// mrcaOf returns the deepest node that is an ancestor of (or equal to)
// every index in idxs, via the same traversal-interval technique used
// throughout the core.
func mrcaOf(v treeView, idxs []int32) int32 {
	ancestorOf := func(a, b int32) bool {
		return v.TravEnterAt(a) <= v.TravEnterAt(b) && v.TravExitAt(b) <= v.TravExitAt(a)
	}
	m := idxs[0]
	for _, cur := range idxs[1:] {
		if ancestorOf(m, cur) {
			continue
		}
		if ancestorOf(cur, m) {
			m = cur
			continue
		}
		x, y := m, cur
		for v.DepthAt(x) > v.DepthAt(y) {
			p, _ := v.ParentIdx(x)
			x = p
		}
		for v.DepthAt(y) > v.DepthAt(x) {
			p, _ := v.ParentIdx(y)
			y = p
		}
		for x != y {
			px, _ := v.ParentIdx(x)
			py, _ := v.ParentIdx(y)
			x, y = px, py
		}
		m = x
	}
	return m
}
