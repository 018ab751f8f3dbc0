package conflict

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// ClassificationKind is the outcome of classifying one internal node
// of the query induced tree against the reference induced tree
// (spec.md §4.6 step 4).
type ClassificationKind uint8

const (
	SupportedBy ClassificationKind = iota
	PartialPathOf
	ResolvedBy
	ConflictsWith
	Terminal
)

func (k ClassificationKind) String() string {
	switch k {
	case SupportedBy:
		return "supported_by"
	case PartialPathOf:
		return "partial_path_of"
	case ResolvedBy:
		return "resolved_by"
	case ConflictsWith:
		return "conflicts_with"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Classification is the verdict for one Q′ node.
type Classification struct {
	QueryNode   int32 // the Q′ node index this verdict is for
	QueryNodeID string
	Kind        ClassificationKind
	WitnessID   string   // the single R′ witness node id, for every kind but conflicts_with
	Conflicting []string // the deepest conflicting R′ witness ids, for conflicts_with only
}

// Classify implements spec.md §4.6 step 4 over an already-induced
// query tree q (view qView) and reference tree r (view rView): for
// every internal Q′ node, find the deepest R′ node whose leaf set
// covers it and classify the relationship:
//
//   - the "deepest covering node" w is the MRCA, within R′, of the R′
//     leaves corresponding to C(v);
//   - if some child of w has a leaf set that partially (not wholly, not
//     emptily) intersects C(v), that is the conflict signature —
//     classify conflicts_with, witness the deepest such children;
//   - otherwise, if C(v) = D(w), classify supported_by (or resolved_by
//     when v is a polytomy that a descendant witness shows R resolves),
//     subject to injectivity onto w;
//   - otherwise C(v) ⊊ D(w): classify partial_path_of.
//
// Monotypic Q′ nodes (single child) copy their child's classification.
// Grounded on original_source/otc/ws/conflictws.cpp's contract; this
// MRCA-and-partial-child formulation is the concrete realization
// chosen here for the abstract rule in spec.md §4.6.
func Classify(q *InducedTree, qView treeView, r *InducedTree, rView treeView) []Classification {
	if q.NumNodes() == 0 || r.NumNodes() == 0 {
		return nil
	}

	rLeafByOtt := map[taxonomy.Id]int32{}
	for i := 0; i < r.NumNodes(); i++ {
		idx := int32(i)
		if !r.IsLeaf(idx) {
			continue
		}
		for id := range r.LeafSet(idx) {
			rLeafByOtt[id] = idx
		}
	}
	leavesFor := func(cSet map[taxonomy.Id]bool) []int32 {
		var out []int32
		for _, id := range maps.Keys(cSet) {
			if idx, ok := rLeafByOtt[id]; ok {
				out = append(out, idx)
			}
		}
		return out
	}

	witnessOf := map[int32]int32{} // q-node idx -> r-node idx it resolved against

	var out []Classification
	var visit func(v int32) *Classification
	visit = func(v int32) *Classification {
		if q.IsLeaf(v) {
			// Terminal: a fake tip — this position was internal in the
			// original query tree (only one of its lineages survived
			// induction).
			if len(qView.ChildIdx(q.OrigIdx(v))) > 0 {
				if leaves := leavesFor(q.LeafSet(v)); len(leaves) > 0 {
					w := r.MRCA(leaves)
					c := Classification{QueryNode: v, QueryNodeID: qView.LabelAt(q.OrigIdx(v)), Kind: Terminal, WitnessID: rView.LabelAt(r.OrigIdx(w))}
					out = append(out, c)
					return &c
				}
			}
			return nil
		}

		children := q.Children(v)
		var childVerdicts []*Classification
		for _, c := range children {
			childVerdicts = append(childVerdicts, visit(c))
		}

		// Monotypic node: copy the single child's verdict.
		if len(children) == 1 {
			if childVerdicts[0] == nil {
				return nil
			}
			copied := *childVerdicts[0]
			copied.QueryNode = v
			copied.QueryNodeID = qView.LabelAt(q.OrigIdx(v))
			out = append(out, copied)
			return &copied
		}

		cSet := q.LeafSet(v)
		leaves := leavesFor(cSet)
		if len(leaves) == 0 {
			return nil
		}
		w := r.MRCA(leaves)
		witnessOf[v] = w
		dSet := r.LeafSet(w)

		// Conflict signature: a child of w whose leaf set partially (not
		// wholly, not emptily) intersects C(v).
		var conflicting []int32
		deepestDepth := int32(-1)
		for _, wc := range r.Children(w) {
			inter := intersectCount(r.LeafSet(wc), cSet)
			full := len(r.LeafSet(wc))
			if inter == 0 || inter == full {
				continue
			}
			d := r.Depth(wc)
			switch {
			case d > deepestDepth:
				conflicting = []int32{wc}
				deepestDepth = d
			case d == deepestDepth:
				conflicting = append(conflicting, wc)
			}
		}
		if len(conflicting) > 0 {
			ids := make([]string, 0, len(conflicting))
			for _, wc := range conflicting {
				ids = append(ids, rView.LabelAt(r.OrigIdx(wc)))
			}
			slices.Sort(ids)
			c := Classification{QueryNode: v, QueryNodeID: qView.LabelAt(q.OrigIdx(v)), Kind: ConflictsWith, Conflicting: ids}
			out = append(out, c)
			return &c
		}

		if setsEqual(cSet, dSet) {
			kind := SupportedBy
			if len(children) > 2 {
				for _, c := range children {
					if cw, ok := witnessOf[c]; ok && cw != w && r.ancestorOf(w, cw) {
						kind = ResolvedBy
						break
					}
				}
			}
			c := Classification{QueryNode: v, QueryNodeID: qView.LabelAt(q.OrigIdx(v)), Kind: kind, WitnessID: rView.LabelAt(r.OrigIdx(w))}
			out = append(out, c)
			return &c
		}

		// C(v) ⊊ D(w): clean nesting, no partial child — compatible extra
		// resolution in R relative to Q.
		c := Classification{QueryNode: v, QueryNodeID: qView.LabelAt(q.OrigIdx(v)), Kind: PartialPathOf, WitnessID: rView.LabelAt(r.OrigIdx(w))}
		out = append(out, c)
		return &c
	}
	visit(q.Root())

	// Injectivity: a w claimed by more than one supported_by node is
	// downgraded to partial_path_of for every claimant but one (spec.md
	// §4.6 step 4, "the map is bijective onto other supporting nodes").
	seen := map[int32]bool{}
	for i := range out {
		if out[i].Kind != SupportedBy {
			continue
		}
		w := findWByLabel(r, rView, out[i].WitnessID)
		if w < 0 {
			continue
		}
		if seen[w] {
			out[i].Kind = PartialPathOf
			continue
		}
		seen[w] = true
	}
	return out
}

func findWByLabel(r *InducedTree, rView treeView, label string) int32 {
	for i := 0; i < r.NumNodes(); i++ {
		if rView.LabelAt(r.OrigIdx(int32(i))) == label {
			return int32(i)
		}
	}
	return -1
}

func intersectCount(a, b map[taxonomy.Id]bool) int {
	n := 0
	for id := range a {
		if b[id] {
			n++
		}
	}
	return n
}

func setsEqual(a, b map[taxonomy.Id]bool) bool {
	return maps.Equal(a, b)
}
