package context

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

func buildTestTaxonomy(t *testing.T) *taxonomy.Store {
	t.Helper()
	s := taxonomy.NewStore(0, 0)
	require.NoError(t, s.AddTaxon(1, 0, "Life", taxonomy.RankNoRank, nil, 0))
	require.NoError(t, s.AddTaxon(2, 1, "Animalia", taxonomy.RankKingdom, nil, 0))
	require.NoError(t, s.AddTaxon(3, 1, "Fungi", taxonomy.RankKingdom, nil, 0))
	require.NoError(t, s.AddTaxon(4, 1, "Archaeplastida", taxonomy.RankKingdom, nil, 0))
	require.NoError(t, s.AddTaxon(5, 1, "Bacteria", taxonomy.RankKingdom, nil, 0))
	require.NoError(t, s.AddTaxon(6, 2, "Aves", taxonomy.RankClass, nil, 0))
	require.NoError(t, s.AddTaxon(7, 2, "Mammalia", taxonomy.RankClass, nil, 0))
	require.NoError(t, s.AddTaxon(8, 4, "Magnoliophyta", taxonomy.RankPhylum, nil, 0))
	require.NoError(t, s.AddTaxon(100, 7, "Homo", taxonomy.RankGenus, nil, 0))
	require.NoError(t, s.AddTaxon(101, 6, "Corvus", taxonomy.RankGenus, nil, 0))
	return s
}

// Invariant 8: least_inclusive([]) = "All life".
func TestLeastInclusiveEmpty(t *testing.T) {
	s := buildTestTaxonomy(t)
	cat := NewCatalog(s)
	require.NoError(t, cat.InitNomCodeBoundaries())
	ctx := cat.LeastInclusive(nil)
	require.Equal(t, "All life", ctx.Name)
}

func TestLeastInclusiveWalksToAnchor(t *testing.T) {
	s := buildTestTaxonomy(t)
	cat := NewCatalog(s)
	require.NoError(t, cat.InitNomCodeBoundaries())

	homo, _ := s.LookupByID(100)
	ctx := cat.LeastInclusive([]*taxonomy.Taxon{homo})
	require.Equal(t, "Mammals", ctx.Name)
}

func TestCodeForTraversal(t *testing.T) {
	s := buildTestTaxonomy(t)
	cat := NewCatalog(s)
	require.NoError(t, cat.InitNomCodeBoundaries())

	homo, _ := s.LookupByID(100)
	require.Equal(t, ICZN, cat.CodeForTraversal(homo.TravEnter))

	fungi, _ := s.LookupByID(3)
	require.Equal(t, ICN, cat.CodeForTraversal(fungi.TravEnter))
}

func TestBoundaryDetectionDisabledOnRootMismatch(t *testing.T) {
	s := taxonomy.NewStore(0, 0)
	require.NoError(t, s.AddTaxon(1, 0, "Not Life", taxonomy.RankNoRank, nil, 0))
	cat := NewCatalog(s)
	require.NoError(t, cat.InitNomCodeBoundaries())
	require.Equal(t, Undefined, cat.CodeForTraversal(0))
}

func TestBoundaryDetectionFailsOnAnchorNameMismatch(t *testing.T) {
	s := taxonomy.NewStore(0, 0)
	require.NoError(t, s.AddTaxon(1, 0, "Life", taxonomy.RankNoRank, nil, 0))
	require.NoError(t, s.AddTaxon(2, 1, "NotAnimalia", taxonomy.RankKingdom, nil, 0))
	cat := NewCatalog(s)
	require.Error(t, cat.InitNomCodeBoundaries())
}

func TestInferContext(t *testing.T) {
	s := buildTestTaxonomy(t)
	cat := NewCatalog(s)
	require.NoError(t, cat.InitNomCodeBoundaries())

	ctx, ambiguous := cat.InferContext([]string{"Homo", "Corvus"})
	require.Empty(t, ambiguous)
	require.Equal(t, "Animals", ctx.Name)
}
