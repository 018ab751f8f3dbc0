package synth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// SynthTree is one immutable, loaded summary tree (spec.md §4.4). Its
// arena mirrors internal/taxonomy.Store's shape — a flat record slice
// plus integer indices and traversal intervals — so MRCA/ancestor
// tests reuse the same trick (SPEC_FULL.md §3).
type SynthTree struct {
	SynthID string

	arena []SynthNode
	root  int32

	idIndex     map[string]int32     // "ott<id>" / "mrca..." / source label -> arena index
	ottIndex    map[taxonomy.Id]int32
	brokenIndex map[taxonomy.Id]*BrokenTaxon
	contesting  map[taxonomy.Id][]ContestingEntry

	Intern *StudyNodeIntern
}

// NodeByArenaIdx returns the node at the given dense arena index.
func (t *SynthTree) NodeByArenaIdx(idx int32) *SynthNode { return &t.arena[idx] }

// NodeByID looks up a synth node by its id string ("ott123", "mrca1ott2",
// or a raw source-study label).
func (t *SynthTree) NodeByID(id string) (*SynthNode, bool) {
	idx, ok := t.idIndex[id]
	if !ok {
		return nil, false
	}
	return &t.arena[idx], true
}

// NodeByOttID looks up the synth node inherited from the given taxon,
// if any.
func (t *SynthTree) NodeByOttID(id taxonomy.Id) (*SynthNode, bool) {
	idx, ok := t.ottIndex[id]
	if !ok {
		return nil, false
	}
	return &t.arena[idx], true
}

// BrokenByOttID looks up the broken-taxon record for id, if any.
func (t *SynthTree) BrokenByOttID(id taxonomy.Id) (*BrokenTaxon, bool) {
	b, ok := t.brokenIndex[id]
	return b, ok
}

// ContestingByOttID returns the contesting-trees entries for a broken
// taxon id.
func (t *SynthTree) ContestingByOttID(id taxonomy.Id) []ContestingEntry {
	return t.contesting[id]
}

// Root returns the tree's root node.
func (t *SynthTree) Root() *SynthNode { return &t.arena[t.root] }

// NumNodes returns the arena size.
func (t *SynthTree) NumNodes() int32 { return int32(len(t.arena)) }

// RootIdx returns the root's dense arena index.
func (t *SynthTree) RootIdx() int32 { return t.root }

// ParentIdx returns idx's parent index, or false at the root. Exposed
// for internal/conflict's generic induced-tree contraction, which
// needs index-level parent/child access rather than the *SynthNode
// closures used elsewhere.
func (t *SynthTree) ParentIdx(idx int32) (int32, bool) {
	p := t.arena[idx].parent
	if p < 0 {
		return 0, false
	}
	return p, true
}

// ChildIdx returns idx's children's dense arena indices.
func (t *SynthTree) ChildIdx(idx int32) []int32 { return t.arena[idx].children }

// Parent returns n's parent, if any.
func (t *SynthTree) Parent(n *SynthNode) (*SynthNode, bool) {
	if n.parent < 0 {
		return nil, false
	}
	return &t.arena[n.parent], true
}

// Children returns a closure-based iterator over n's children, in the
// style of internal/taxonomy.Store.Children.
func (t *SynthTree) Children(n *SynthNode) func() (*SynthNode, bool) {
	i := 0
	return func() (*SynthNode, bool) {
		if i >= len(n.children) {
			return nil, false
		}
		c := &t.arena[n.children[i]]
		i++
		return c, true
	}
}

// Ancestor reports whether a is an ancestor of (or equal to) b,
// via the same nested-traversal-interval test as taxonomy.Taxon.
func Ancestor(a, b *SynthNode) bool {
	return a.TravEnter <= b.TravEnter && b.TravExit <= a.TravExit
}

// MRCA returns the most recent common ancestor of a and b within this
// tree, by depth-equalizing then walking both toward the root.
func (t *SynthTree) MRCA(a, b *SynthNode) *SynthNode {
	if Ancestor(a, b) {
		return a
	}
	if Ancestor(b, a) {
		return b
	}
	x, y := a, b
	for x.Depth > y.Depth {
		x = &t.arena[x.parent]
	}
	for y.Depth > x.Depth {
		y = &t.arena[y.parent]
	}
	for x.arenaIdx != y.arenaIdx {
		x = &t.arena[x.parent]
		y = &t.arena[y.parent]
	}
	return x
}

func ottIDFromLabel(label string) (taxonomy.Id, bool) {
	if !strings.HasPrefix(label, "ott") {
		return 0, false
	}
	rest := label[len("ott"):]
	if rest == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return taxonomy.Id(n), true
}

// buildFromNewick lowers a parsed Newick tree into the arena, assigns
// traversal intervals in the same pre-order scheme as
// taxonomy.Store.recomputeTraversal, and indexes every node by its id
// string and, when present, its ott id.
func (t *SynthTree) buildFromNewick(root *newickNode) error {
	var arena []SynthNode
	var lower func(n *newickNode, parent int32, depth int32) int32
	lower = func(n *newickNode, parent int32, depth int32) int32 {
		idx := int32(len(arena))
		node := SynthNode{ID: n.label, parent: parent, Depth: depth, arenaIdx: idx}
		if ottID, ok := ottIDFromLabel(n.label); ok {
			id := ottID
			node.OttID = &id
		}
		arena = append(arena, node)
		for _, c := range n.children {
			childIdx := lower(c, idx, depth+1)
			arena[idx].children = append(arena[idx].children, childIdx)
		}
		return idx
	}
	rootIdx := lower(root, -1, 0)
	t.arena = arena
	t.root = rootIdx

	t.idIndex = make(map[string]int32, len(arena))
	t.ottIndex = make(map[taxonomy.Id]int32)
	for i := range t.arena {
		n := &t.arena[i]
		if n.ID != "" {
			t.idIndex[n.ID] = int32(i)
		}
		if n.OttID != nil {
			t.ottIndex[*n.OttID] = int32(i)
		}
	}

	t.assignTraversal()
	t.computeTipsAndExtinction(nil)
	return nil
}

// assignTraversal walks the arena iteratively, assigning Euler-tour
// style (TravEnter, TravExit) pairs — identical technique to
// taxonomy.Store.recomputeTraversal, so MRCA reuses the same ancestor
// test.
func (t *SynthTree) assignTraversal() {
	type frame struct {
		idx      int32
		childPos int
	}
	counter := int64(0)
	stack := []frame{{idx: t.root}}
	t.arena[t.root].TravEnter = counter
	counter++
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := &t.arena[top.idx]
		if top.childPos < len(n.children) {
			childIdx := n.children[top.childPos]
			top.childPos++
			t.arena[childIdx].TravEnter = counter
			counter++
			stack = append(stack, frame{idx: childIdx})
			continue
		}
		n.TravExit = counter - 1
		stack = stack[:len(stack)-1]
	}
}

// computeTipsAndExtinction computes num_tips and extinct_mark
// bottom-up (spec.md §8 invariant 3) and the nearest-taxon pointer
// (SPEC_FULL.md §3 supplement). isExtinct reports whether a taxon is
// flagged extinct in the taxonomy; nil disables extinct-mark
// computation (tests that don't care about it can pass nil, leaving
// every leaf non-extinct).
func (t *SynthTree) computeTipsAndExtinction(isExtinct func(taxonomy.Id) bool) {
	var nearest func(idx int32) *taxonomy.Id
	var visit func(idx int32) (tips int, extinct bool)
	visit = func(idx int32) (int, bool) {
		n := &t.arena[idx]
		if len(n.children) == 0 {
			n.NumTips = 1
			if n.OttID != nil && isExtinct != nil {
				n.ExtinctMark = isExtinct(*n.OttID)
			}
			return n.NumTips, n.ExtinctMark
		}
		total := 0
		allExtinct := true
		for _, c := range n.children {
			ct, ce := visit(c)
			total += ct
			if !ce {
				allExtinct = false
			}
		}
		n.NumTips = total
		n.ExtinctMark = allExtinct
		return n.NumTips, n.ExtinctMark
	}
	visit(t.root)

	nearest = func(idx int32) *taxonomy.Id {
		n := &t.arena[idx]
		if n.OttID != nil {
			return n.OttID
		}
		if n.parent < 0 {
			return nil
		}
		return nearest(n.parent)
	}
	for i := range t.arena {
		n := &t.arena[i]
		if n.OttID != nil {
			n.NearestTaxonID = n.OttID
			continue
		}
		if n.parent >= 0 {
			n.NearestTaxonID = nearest(n.parent)
		}
	}
}

func (t *SynthTree) String() string {
	return fmt.Sprintf("SynthTree{id=%s, nodes=%d}", t.SynthID, len(t.arena))
}
