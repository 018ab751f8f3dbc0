package conflict

import (
	"strconv"
	"strings"

	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// queryNode is one node of a user-supplied phylogeny.
type queryNode struct {
	label    string
	ottID    *taxonomy.Id
	parent   int32
	children []int32
	depth    int32
	enter    int64
	exit     int64
}

// QueryTree is a parsed, traversal-indexed user-supplied phylogeny —
// the Q side of spec.md §4.6's induced-subtree comparison. Built the
// same way internal/synth.SynthTree lowers a Newick tree, but kept
// separate because a query tree carries no source-edge mappings,
// num_tips, or extinct marks.
type QueryTree struct {
	arena []queryNode
	root  int32
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

// ParseQueryTree parses newick text into a QueryTree. Tip labels of
// the shape "ott<digits>" are recognized as OttId-bearing leaves;
// anything else is carried as an unresolved label.
func ParseQueryTree(newick string) (*QueryTree, error) {
	topology, err := synth.ParseNewickTopology(newick)
	if err != nil {
		return nil, err
	}
	qt := &QueryTree{}
	var lower func(n *synth.NewickTopology, parent int32, depth int32) int32
	lower = func(n *synth.NewickTopology, parent int32, depth int32) int32 {
		idx := int32(len(qt.arena))
		node := queryNode{label: n.Label, parent: parent, depth: depth}
		if id, ok := ottIDFromLabel(n.Label); ok {
			v := id
			node.ottID = &v
		}
		qt.arena = append(qt.arena, node)
		for _, c := range n.Children {
			childIdx := lower(c, idx, depth+1)
			qt.arena[idx].children = append(qt.arena[idx].children, childIdx)
		}
		return idx
	}
	qt.root = lower(topology, -1, 0)
	qt.assignTraversal()
	return qt, nil
}

func (q *QueryTree) assignTraversal() {
	type frame struct {
		idx      int32
		childPos int
	}
	counter := int64(0)
	stack := []frame{{idx: q.root}}
	q.arena[q.root].enter = counter
	counter++
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := &q.arena[top.idx]
		if top.childPos < len(n.children) {
			childIdx := n.children[top.childPos]
			top.childPos++
			q.arena[childIdx].enter = counter
			counter++
			stack = append(stack, frame{idx: childIdx})
			continue
		}
		n.exit = counter - 1
		stack = stack[:len(stack)-1]
	}
}

// Leaves returns every tip's dense index.
func (q *QueryTree) Leaves() []int32 {
	var out []int32
	for i := range q.arena {
		if len(q.arena[i].children) == 0 {
			out = append(out, int32(i))
		}
	}
	return out
}

func (q *QueryTree) NumNodes() int32                    { return int32(len(q.arena)) }
func (q *QueryTree) RootIdx() int32                     { return q.root }
func (q *QueryTree) ParentIdx(i int32) (int32, bool)    { p := q.arena[i].parent; return p, p >= 0 }
func (q *QueryTree) ChildIdx(i int32) []int32           { return q.arena[i].children }
func (q *QueryTree) DepthAt(i int32) int32              { return q.arena[i].depth }
func (q *QueryTree) TravEnterAt(i int32) int64          { return q.arena[i].enter }
func (q *QueryTree) TravExitAt(i int32) int64           { return q.arena[i].exit }
func (q *QueryTree) LabelAt(i int32) string             { return q.arena[i].label }
func (q *QueryTree) OttIDAt(i int32) (taxonomy.Id, bool) {
	n := &q.arena[i]
	if n.ottID == nil {
		return 0, false
	}
	return *n.ottID, true
}
