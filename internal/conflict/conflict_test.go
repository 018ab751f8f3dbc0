package conflict

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

func buildS6Taxonomy(t *testing.T) *taxonomy.Store {
	t.Helper()
	s := taxonomy.NewStore(0, 0)
	require.NoError(t, s.AddTaxon(1, 0, "Life", taxonomy.RankNoRank, nil, 0))
	require.NoError(t, s.AddTaxon(2, 1, "A", taxonomy.RankSpecies, nil, 0))
	require.NoError(t, s.AddTaxon(3, 1, "B", taxonomy.RankSpecies, nil, 0))
	require.NoError(t, s.AddTaxon(4, 1, "C", taxonomy.RankSpecies, nil, 0))
	require.NoError(t, s.AddTaxon(5, 1, "D", taxonomy.RankSpecies, nil, 0))
	return s
}

func buildS6Reference(t *testing.T) *synth.SynthTree {
	t.Helper()
	store := synth.NewStore()
	// R = ((A,C),(B,D))
	tree, err := store.RegisterSummary(synth.RegisterInput{
		SynthID:  "synth-1.0",
		TreeFile: []byte(`((ott2:1,ott4:1):1,(ott3:1,ott5:1):1)ott1;`),
	})
	require.NoError(t, err)
	return tree
}

// S6 — Conflict classification. Q = ((A,B),(C,D)); R = ((A,C),(B,D))
// with all four tips sharing OttIds. The internal Q-node {A,B}
// receives conflicts_with with witness the R-node {A,C}; the root of Q
// is supported_by the root of R (both cover {A,B,C,D}).
func TestConflictClassificationS6(t *testing.T) {
	taxa := buildS6Taxonomy(t)
	ref := buildS6Reference(t)
	engine, err := NewEngine(taxa, 8)
	require.NoError(t, err)

	result, err := engine.Analyze(`((ott2:1,ott3:1):1,(ott4:1,ott5:1):1);`, ref)
	require.NoError(t, err)
	require.NotEmpty(t, result.Classifications)

	var nodeAB, root *Classification
	for i := range result.Classifications {
		c := &result.Classifications[i]
		switch leafSetLabels(result.Query, c.QueryNode) {
		case "ott2,ott3":
			nodeAB = c
		case "ott2,ott3,ott4,ott5":
			root = c
		}
	}

	require.NotNil(t, nodeAB, "expected a classification for the {A,B} node")
	require.Equal(t, ConflictsWith, nodeAB.Kind)

	require.NotNil(t, root, "expected a classification for the Q root")
	require.Equal(t, SupportedBy, root.Kind)
}

// leafSetLabels renders a Q′ node's descendant OttId leaf set as a
// sorted, comma-joined "ott<id>" string for easy test comparison.
func leafSetLabels(q *InducedTree, idx int32) string {
	ls := q.LeafSet(idx)
	ids := make([]int, 0, len(ls))
	for id := range ls {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("ott%d", id)
	}
	return strings.Join(parts, ",")
}

// Invariant 7: classification is exhaustive — every internal node of
// Q′ receives exactly one classification.
func TestClassificationIsExhaustive(t *testing.T) {
	taxa := buildS6Taxonomy(t)
	ref := buildS6Reference(t)
	engine, err := NewEngine(taxa, 8)
	require.NoError(t, err)

	result, err := engine.Analyze(`((ott2:1,ott3:1):1,(ott4:1,ott5:1):1);`, ref)
	require.NoError(t, err)

	internalCount := 0
	for i := 0; i < result.Query.NumNodes(); i++ {
		if !result.Query.IsLeaf(int32(i)) {
			internalCount++
		}
	}
	require.Equal(t, internalCount, len(result.Classifications))
}

func TestPreprocessingRejectsTooFewTips(t *testing.T) {
	taxa := buildS6Taxonomy(t)
	ref := buildS6Reference(t)
	engine, err := NewEngine(taxa, 8)
	require.NoError(t, err)

	_, err = engine.Analyze(`(ott2:1,ott3:1);`, ref)
	require.Error(t, err)
}

func TestPreprocessingDropsAncestralLeaves(t *testing.T) {
	taxa := taxonomy.NewStore(0, 0)
	require.NoError(t, taxa.AddTaxon(1, 0, "Life", taxonomy.RankNoRank, nil, 0))
	require.NoError(t, taxa.AddTaxon(2, 1, "Mammalia", taxonomy.RankClass, nil, 0))
	require.NoError(t, taxa.AddTaxon(3, 2, "Homo", taxonomy.RankGenus, nil, 0))
	require.NoError(t, taxa.AddTaxon(4, 2, "Pan", taxonomy.RankGenus, nil, 0))
	require.NoError(t, taxa.AddTaxon(5, 2, "Mus", taxonomy.RankGenus, nil, 0))

	qt, err := ParseQueryTree(`((ott3:1,ott4:1):1,(ott2:1,ott5:1):1);`)
	require.NoError(t, err)

	engine, err := NewEngine(taxa, 8)
	require.NoError(t, err)
	require.NoError(t, engine.preprocessQueryTips(qt))

	// ott2 (Mammalia) is an ancestor of ott3 (Homo) and ott4 (Pan) among
	// the query tips, so it is dropped from consideration.
	for _, leaf := range qt.Leaves() {
		if id, ok := qt.OttIDAt(leaf); ok {
			require.NotEqual(t, taxonomy.Id(2), id)
		}
	}
}
