package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

func buildTaxonomy(t *testing.T) *taxonomy.Store {
	t.Helper()
	s := taxonomy.NewStore(0, 0)
	require.NoError(t, s.AddTaxon(1, 0, "Life", taxonomy.RankNoRank, nil, 0))
	require.NoError(t, s.AddTaxon(2, 1, "Mammalia", taxonomy.RankClass, nil, 0))
	require.NoError(t, s.AddTaxon(3, 2, "Homo", taxonomy.RankGenus, nil, 0))
	require.NoError(t, s.AddTaxon(4, 2, "Pan", taxonomy.RankGenus, nil, 0))
	require.NoError(t, s.AddTaxon(5, 2, "Mus", taxonomy.RankGenus, nil, 0))
	s.RecordForward(77, 3)
	return s
}

func buildSynthTree(t *testing.T) *synth.SynthTree {
	t.Helper()
	store := synth.NewStore()
	broken := []byte(`{"ott2": {"mrca": "mrca1ott2", "attachment_points": []}}`)
	tree, err := store.RegisterSummary(synth.RegisterInput{
		SynthID:        "synth-1.0",
		TreeFile:       []byte(`((ott3:1,ott4:1)mrca1ott2:1,ott5:1)ott1;`),
		BrokenTaxaJSON: broken,
	})
	require.NoError(t, err)
	return tree
}

func TestParseOttID(t *testing.T) {
	id, ok, overflow := ParseOttID("ott123")
	require.True(t, ok)
	require.False(t, overflow)
	require.Equal(t, taxonomy.Id(123), id)

	_, ok, _ = ParseOttID("notanid")
	require.False(t, ok)

	_, ok, overflow = ParseOttID("ott" + stringOfDigits(30))
	require.True(t, ok)
	require.True(t, overflow)
}

func stringOfDigits(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '1'
	}
	return string(b)
}

func TestParseMrcaID(t *testing.T) {
	a, b, ok := ParseMrcaID("mrcaott3ott4")
	require.True(t, ok)
	require.Equal(t, taxonomy.Id(3), a)
	require.Equal(t, taxonomy.Id(4), b)

	_, _, ok = ParseMrcaID("ott3")
	require.False(t, ok)
}

// S2 — Forwarded id.
func TestResolveOttIDForwarded(t *testing.T) {
	taxa := buildTaxonomy(t)
	tree := buildSynthTree(t)
	r := New(taxa, tree)

	res := r.ResolveOttID("ott77")
	require.Equal(t, StatusFound, res.Status)
	require.Equal(t, taxonomy.Id(77), res.ForwardedFrom)
	require.Equal(t, taxonomy.Id(3), res.ID)
	require.Equal(t, "ott3", res.Node.ID)
}

// S3 — Broken taxon resolution.
func TestResolveOttIDBroken(t *testing.T) {
	taxa := taxonomy.NewStore(0, 0)
	require.NoError(t, taxa.AddTaxon(1, 0, "Life", taxonomy.RankNoRank, nil, 0))
	require.NoError(t, taxa.AddTaxon(2, 1, "Mammalia", taxonomy.RankClass, nil, 0))
	require.NoError(t, taxa.AddTaxon(3, 2, "Homo", taxonomy.RankGenus, nil, 0))
	require.NoError(t, taxa.AddTaxon(4, 2, "Pan", taxonomy.RankGenus, nil, 0))
	require.NoError(t, taxa.AddTaxon(5, 2, "Mus", taxonomy.RankGenus, nil, 0))
	tree := buildSynthTree(t)
	r := New(taxa, tree)

	res := r.ResolveOttID("ott2")
	require.Equal(t, StatusBroken, res.Status)
	require.NotNil(t, res.MRCA)
	require.Equal(t, "mrca1ott2", res.MRCA.ID)

	mrcaRes := r.ResolveMrcaID(2, 3)
	require.Nil(t, mrcaRes.MRCA) // one side is Broken, not Found: no mrca per spec
}

func TestResolveOttIDPruned(t *testing.T) {
	taxa := taxonomy.NewStore(0, 0)
	require.NoError(t, taxa.AddTaxon(1, 0, "Life", taxonomy.RankNoRank, nil, 0))
	require.NoError(t, taxa.AddTaxon(99, 1, "Ghost", taxonomy.RankGenus, nil, 0))
	tree := buildSynthTree(t)
	r := New(taxa, tree)

	res := r.ResolveOttID("ott99")
	require.Equal(t, StatusPruned, res.Status)
}

func TestResolveOttIDInvalid(t *testing.T) {
	taxa := buildTaxonomy(t)
	tree := buildSynthTree(t)
	r := New(taxa, tree)

	res := r.ResolveOttID("ott99999")
	require.Equal(t, StatusInvalidID, res.Status)
}

func TestResolveDispatch(t *testing.T) {
	taxa := buildTaxonomy(t)
	tree := buildSynthTree(t)
	r := New(taxa, tree)

	ott, mrca, noMatch := r.Resolve("ott3")
	require.NotNil(t, ott)
	require.Nil(t, mrca)
	require.Nil(t, noMatch)

	ott, mrca, noMatch = r.Resolve("mrcaott3ott4")
	require.Nil(t, ott)
	require.NotNil(t, mrca)
	require.Nil(t, noMatch)

	ott, mrca, noMatch = r.Resolve("garbage")
	require.Nil(t, ott)
	require.Nil(t, mrca)
	require.NotNil(t, noMatch)
}

func TestFindNodesForIDsRejectsMixedBatchWithoutFilter(t *testing.T) {
	taxa := buildTaxonomy(t)
	tree := buildSynthTree(t)
	r := New(taxa, tree)

	_, err := r.FindNodesForIDs([]taxonomy.Id{3, 2}, FilterReason{})
	require.Error(t, err)
}

func TestFindNodesForIDsPartitionsWithFilter(t *testing.T) {
	taxa := buildTaxonomy(t)
	tree := buildSynthTree(t)
	r := New(taxa, tree)

	result, err := r.FindNodesForIDs([]taxonomy.Id{3, 2}, FilterReason{AllowBroken: true})
	require.NoError(t, err)
	require.Contains(t, result.Resolved, taxonomy.Id(3))
	require.Contains(t, result.Broken, taxonomy.Id(2))
}
