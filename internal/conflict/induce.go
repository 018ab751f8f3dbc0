package conflict

import "github.com/opentreeoflife/taxacore/internal/taxonomy"

// inducedNode is one node of a contracted (induced) tree: parent and
// children are indices into the same InducedTree, origIdx is the node
// this one corresponds to in the source treeView, and leafSet is the
// set of OttIds reachable as descendant leaves — precomputed bottom-up
// once during contraction since every classification step needs it.
type inducedNode struct {
	origIdx  int32
	parent   int32
	children []int32
	enter    int64
	exit     int64
	depth    int32
	leafSet  map[taxonomy.Id]bool
}

// InducedTree is the contraction of a treeView onto a chosen leaf set:
// MRCA-rooted, path-union, degree-2-suppressed (spec.md §4.6 steps
// 2–3). Leaves keep their original OttId; internal nodes carry the
// union of their descendants' OttIds.
type InducedTree struct {
	nodes []inducedNode
	root  int32
	// origToNew maps a source-tree original index to its InducedTree
	// index, for nodes that survived contraction.
	origToNew map[int32]int32
}

func (it *InducedTree) Root() int32                   { return it.root }
func (it *InducedTree) NumNodes() int                 { return len(it.nodes) }
func (it *InducedTree) Children(i int32) []int32      { return it.nodes[i].children }
func (it *InducedTree) Parent(i int32) (int32, bool)  { p := it.nodes[i].parent; return p, p >= 0 }
func (it *InducedTree) LeafSet(i int32) map[taxonomy.Id]bool { return it.nodes[i].leafSet }
func (it *InducedTree) IsLeaf(i int32) bool           { return len(it.nodes[i].children) == 0 }
func (it *InducedTree) Depth(i int32) int32           { return it.nodes[i].depth }
func (it *InducedTree) OrigIdx(i int32) int32         { return it.nodes[i].origIdx }

func (it *InducedTree) ancestorOf(a, b int32) bool {
	return it.nodes[a].enter <= it.nodes[b].enter && it.nodes[b].exit <= it.nodes[a].exit
}

// MRCA returns the deepest common ancestor, within this induced tree,
// of a set of its own node indices.
func (it *InducedTree) MRCA(idxs []int32) int32 {
	m := idxs[0]
	for _, cur := range idxs[1:] {
		if it.ancestorOf(m, cur) {
			continue
		}
		if it.ancestorOf(cur, m) {
			m = cur
			continue
		}
		x, y := m, cur
		for it.nodes[x].depth > it.nodes[y].depth {
			x = it.nodes[x].parent
		}
		for it.nodes[y].depth > it.nodes[x].depth {
			y = it.nodes[y].parent
		}
		for x != y {
			x = it.nodes[x].parent
			y = it.nodes[y].parent
		}
		m = x
	}
	return m
}

// induce builds the induced subtree of v restricted to the leaves
// whose OttId is in want (spec.md §4.6 steps 2–3: MRCA + path union,
// then degree-2 suppression other than the root).
func induce(v treeView, want map[taxonomy.Id]bool) *InducedTree {
	var leafOrig []int32
	for i := int32(0); i < v.NumNodes(); i++ {
		if _, hasChildren := interfaceHasChildren(v, i); hasChildren {
			continue
		}
		if id, ok := v.OttIDAt(i); ok && want[id] {
			leafOrig = append(leafOrig, i)
		}
	}
	if len(leafOrig) == 0 {
		return &InducedTree{origToNew: map[int32]int32{}}
	}

	mrcaOrig := mrcaOf(v, leafOrig)

	keep := map[int32]bool{mrcaOrig: true}
	for _, leaf := range leafOrig {
		for cur := leaf; cur != mrcaOrig; {
			keep[cur] = true
			p, ok := v.ParentIdx(cur)
			if !ok {
				break
			}
			cur = p
		}
	}

	// Build the uncontracted (but leaf-restricted) tree: for each kept
	// node, its induced children are the nearest kept descendants along
	// every original path.
	var nearestKeptChildren func(orig int32) []int32
	nearestKeptChildren = func(orig int32) []int32 {
		var out []int32
		var rec func(o int32)
		rec = func(o int32) {
			for _, c := range v.ChildIdx(o) {
				if keep[c] {
					out = append(out, c)
				} else {
					rec(c)
				}
			}
		}
		rec(orig)
		return out
	}

	type rawNode struct {
		origIdx  int32
		parent   int32
		children []int32
	}
	var raw []rawNode
	origToRaw := map[int32]int32{}
	var build func(orig int32, parentNew int32) int32
	build = func(orig int32, parentNew int32) int32 {
		newIdx := int32(len(raw))
		raw = append(raw, rawNode{origIdx: orig, parent: parentNew})
		origToRaw[orig] = newIdx
		if parentNew >= 0 {
			raw[parentNew].children = append(raw[parentNew].children, newIdx)
		}
		for _, c := range nearestKeptChildren(orig) {
			build(c, newIdx)
		}
		return newIdx
	}
	build(mrcaOrig, -1)

	// Suppress every degree-2 node other than the root (index 0).
	keepFinal := make([]bool, len(raw))
	for i := range raw {
		keepFinal[i] = i == 0 || len(raw[i].children) != 1
	}
	finalIdx := make([]int32, len(raw))
	it := &InducedTree{origToNew: map[int32]int32{}}
	for i := range raw {
		if !keepFinal[i] {
			finalIdx[i] = -1
			continue
		}
		parentFinal := int32(-1)
		if i != 0 {
			p := raw[i].parent
			for p != -1 && !keepFinal[p] {
				p = raw[p].parent
			}
			if p != -1 {
				parentFinal = finalIdx[p]
			}
		}
		newIdx := int32(len(it.nodes))
		it.nodes = append(it.nodes, inducedNode{origIdx: raw[i].origIdx, parent: parentFinal})
		it.origToNew[raw[i].origIdx] = newIdx
		if parentFinal >= 0 {
			it.nodes[parentFinal].children = append(it.nodes[parentFinal].children, newIdx)
		}
		finalIdx[i] = newIdx
	}
	it.root = 0

	it.assignDepthAndTraversal(v)
	it.computeLeafSets(v)
	return it
}

// interfaceHasChildren reports whether the source node at i has any
// children, i.e. is not a tip of the original (uncontracted) tree.
func interfaceHasChildren(v treeView, i int32) (int, bool) {
	c := v.ChildIdx(i)
	return len(c), len(c) > 0
}

func (it *InducedTree) assignDepthAndTraversal(v treeView) {
	type frame struct {
		idx      int32
		childPos int
	}
	counter := int64(0)
	var depth int32
	stack := []frame{{idx: it.root}}
	it.nodes[it.root].enter = counter
	it.nodes[it.root].depth = depth
	counter++
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := &it.nodes[top.idx]
		if top.childPos < len(n.children) {
			childIdx := n.children[top.childPos]
			top.childPos++
			it.nodes[childIdx].enter = counter
			it.nodes[childIdx].depth = n.depth + 1
			counter++
			stack = append(stack, frame{idx: childIdx})
			continue
		}
		n.exit = counter - 1
		stack = stack[:len(stack)-1]
	}
}

func (it *InducedTree) computeLeafSets(v treeView) {
	var visit func(i int32) map[taxonomy.Id]bool
	visit = func(i int32) map[taxonomy.Id]bool {
		n := &it.nodes[i]
		if len(n.children) == 0 {
			s := map[taxonomy.Id]bool{}
			if id, ok := v.OttIDAt(n.origIdx); ok {
				s[id] = true
			}
			n.leafSet = s
			return s
		}
		s := map[taxonomy.Id]bool{}
		for _, c := range n.children {
			for id := range visit(c) {
				s[id] = true
			}
		}
		n.leafSet = s
		return s
	}
	if len(it.nodes) > 0 {
		visit(it.root)
	}
}
