package conflict

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// cacheKey identifies one induced-subtree comparison for the LRU
// cache (spec.md §5: conflict analysis is the most CPU-bound facade
// operation).
type cacheKey struct {
	queryNewick string
	synthID     string
}

// Engine runs induced-subtree/conflict analysis against a chosen
// reference tree, caching the induced-tree pair per (query, synth id).
type Engine struct {
	taxa  *taxonomy.Store
	cache *lru.Cache[cacheKey, *Result]
}

// Result bundles the two induced trees and the per-node
// classification of Q′.
type Result struct {
	Query           *InducedTree
	Reference       *InducedTree
	Classifications []Classification
}

// NewEngine builds a conflict engine backed by an LRU of the given
// size.
func NewEngine(taxa *taxonomy.Store, cacheSize int) (*Engine, error) {
	cache, err := lru.New[cacheKey, *Result](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{taxa: taxa, cache: cache}, nil
}

// Analyze runs spec.md §4.6's full pipeline: parse and preprocess the
// query tree, compute the induced query and reference subtrees, and
// classify every internal query node.
func (e *Engine) Analyze(queryNewick string, ref *synth.SynthTree) (*Result, error) {
	key := cacheKey{queryNewick: queryNewick, synthID: ref.SynthID}
	if cached, ok := e.cache.Get(key); ok {
		return cached, nil
	}

	qt, err := ParseQueryTree(queryNewick)
	if err != nil {
		return nil, coreerr.Newf(coreerr.BadRequest, "conflict: parsing query tree: %v", err)
	}
	if err := e.preprocessQueryTips(qt); err != nil {
		return nil, err
	}

	want := map[taxonomy.Id]bool{}
	for _, leaf := range qt.Leaves() {
		if id, ok := qt.OttIDAt(leaf); ok {
			want[id] = true
		}
	}

	refView := synthView{ref}
	rInduced := induce(refView, want)

	// Drop query leaves whose image is not a tip of R′ (spec.md §4.6
	// step 2's last clause): keep only ids present as leaves of R′.
	rLeaves := map[taxonomy.Id]bool{}
	for i := 0; i < rInduced.NumNodes(); i++ {
		idx := int32(i)
		if rInduced.IsLeaf(idx) {
			for id := range rInduced.LeafSet(idx) {
				rLeaves[id] = true
			}
		}
	}
	for id := range want {
		if !rLeaves[id] {
			delete(want, id)
		}
	}

	qInduced := induce(qt, want)
	// Rebuild R′ restricted to the final tip set, in case dropping
	// non-R′-tip leaves changed it.
	rInduced = induce(refView, want)

	classifications := Classify(qInduced, qt, rInduced, refView)

	result := &Result{Query: qInduced, Reference: rInduced, Classifications: classifications}
	e.cache.Add(key, result)
	return result, nil
}

// preprocessQueryTips applies spec.md §4.6's query preprocessing: drop
// tips with no OttId (failing if fewer than 3 survive), and drop tips
// whose id maps to another tip's ancestor in the taxonomy ("ancestral
// leaves"). Both steps operate on the OttId set only — the tree
// structure itself is left intact; leaves this step would drop simply
// never enter `want` in Analyze and so never survive induction.
func (e *Engine) preprocessQueryTips(qt *QueryTree) error {
	leaves := qt.Leaves()
	var withID []taxonomy.Id
	idxByID := map[taxonomy.Id]int32{}
	for _, leaf := range leaves {
		if id, ok := qt.OttIDAt(leaf); ok {
			withID = append(withID, id)
			idxByID[id] = leaf
		}
	}
	if len(withID) < 3 {
		return coreerr.Newf(coreerr.BadRequest, "conflict: query tree has only %d OttId-bearing tips, need >= 3", len(withID))
	}

	ancestral := map[taxonomy.Id]bool{}
	for _, a := range withID {
		ta, ok := e.taxa.LookupByID(a)
		if !ok {
			continue
		}
		for _, b := range withID {
			if a == b {
				continue
			}
			tb, ok := e.taxa.LookupByID(b)
			if !ok {
				continue
			}
			if ta.Ancestor(tb) {
				ancestral[a] = true
				break
			}
		}
	}
	for id := range ancestral {
		leaf := idxByID[id]
		qt.arena[leaf].ottID = nil
	}
	return nil
}
