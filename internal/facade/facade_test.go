package facade

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentreeoflife/taxacore/internal/coreconfig"
	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// testFixture bundles a small taxonomy and one registered synth tree:
//
//	taxonomy: life(1) -> animalia(2) -> mammalia(6) -> {homo_sapiens(7), pan_troglodytes(8)}
//	          life(1) -> fungi(3), archaeplastida(4), bacteria(5)
//	          life(1) -> animalia(2) -> mammalia(6) -> broken_taxon(9) (present in the
//	          taxonomy but absent from the synth tree, recorded as broken)
//	synth tree "synth-1.0": (ott7,ott8)ott6; with ott9 broken to mrca ott6
const testNewick = `(ott7:1,ott8:1)ott6;`

func buildTestCore(t *testing.T) *Core {
	t.Helper()

	taxa := taxonomy.NewStore(0, 0)
	require.NoError(t, taxa.AddTaxon(1, 0, "life", taxonomy.RankNoRank, nil, 0))
	require.NoError(t, taxa.AddTaxon(2, 1, "animalia", taxonomy.RankKingdom, nil, 0))
	require.NoError(t, taxa.AddTaxon(3, 1, "fungi", taxonomy.RankKingdom, nil, 0))
	require.NoError(t, taxa.AddTaxon(4, 1, "archaeplastida", taxonomy.RankKingdom, nil, 0))
	require.NoError(t, taxa.AddTaxon(5, 1, "bacteria", taxonomy.RankKingdom, nil, 0))
	require.NoError(t, taxa.AddTaxon(6, 2, "mammalia", taxonomy.RankNoRank, nil, 0))
	require.NoError(t, taxa.AddTaxon(7, 6, "Homo sapiens", taxonomy.RankSpecies, nil, 0))
	require.NoError(t, taxa.AddTaxon(8, 6, "Pan troglodytes", taxonomy.RankSpecies, nil, 0))
	require.NoError(t, taxa.AddTaxon(9, 6, "Broken taxon", taxonomy.RankSpecies, nil, 0))

	synths := synth.NewStore()
	_, err := synths.RegisterSummary(synth.RegisterInput{
		SynthID:        "synth-1.0",
		TreeFile:       []byte(testNewick),
		BrokenTaxaJSON: []byte(`{"ott9":{"mrca":"ott6","attachment_points":[]}}`),
		AnnotationsJSON: []byte(`{"nodes":{"ott6":{"supported_by":{"study1":"node1"}},"ott7":{"terminal":{"study1":"node2"}}}}`),
	})
	require.NoError(t, err)

	core, err := NewCore(taxa, synths, coreconfig.Limits{NewickSubtreeTips: 1000, ArgusonSubtreeTips: 1000}, 8)
	require.NoError(t, err)
	return core
}

func TestAboutReportsRootAndSourceStudies(t *testing.T) {
	core := buildTestCore(t)
	about, err := core.About("")
	require.NoError(t, err)
	require.Equal(t, "synth-1.0", about.SynthID)
	require.Equal(t, "ott6", about.RootNodeID)
	require.Equal(t, 2, about.RootNumTips)
	require.Equal(t, 1, about.NumSourceStudies)
}

func TestTaxonomyAboutReportsRoot(t *testing.T) {
	core := buildTestCore(t)
	about, err := core.TaxonomyAbout()
	require.NoError(t, err)
	require.Equal(t, "life", about.RootName)
}

func TestTaxonomyFlagsZeroInitializesEveryFlag(t *testing.T) {
	core := buildTestCore(t)
	counts, err := core.TaxonomyFlags()
	require.NoError(t, err)
	require.Len(t, counts, len(taxonomy.AllFlagNames()))
	for _, name := range taxonomy.AllFlagNames() {
		require.Contains(t, counts, name)
	}
}

func TestNodeInfoResolvesOttBackedNode(t *testing.T) {
	core := buildTestCore(t)
	info, err := core.NodeInfo(NodeInfoRequest{NodeID: "ott7"})
	require.NoError(t, err)
	require.False(t, info.Broken)
	require.Equal(t, 1, info.NumTips)
	require.NotNil(t, info.Taxon)
	require.Equal(t, "Homo sapiens", info.Taxon.Name)
	require.Len(t, info.Terminal, 1)
}

func TestNodeInfoReportsBrokenStandIn(t *testing.T) {
	core := buildTestCore(t)
	info, err := core.NodeInfo(NodeInfoRequest{NodeID: "ott9"})
	require.NoError(t, err)
	require.True(t, info.Broken)
	require.Equal(t, "ott6", info.BrokenMRCAID)
}

func TestNodeInfoIncludesLineage(t *testing.T) {
	core := buildTestCore(t)
	info, err := core.NodeInfo(NodeInfoRequest{NodeID: "ott7", IncludeLineage: true})
	require.NoError(t, err)
	var names []string
	for _, block := range info.Lineage {
		names = append(names, block.Name)
	}
	require.Equal(t, []string{"mammalia", "animalia", "life"}, names)
}

func TestSubtreeNewickHonorsLabelFormat(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.Subtree(SubtreeRequest{NodeID: "ott6", Format: FormatNewick, Label: LabelNameOnly})
	require.NoError(t, err)
	require.Contains(t, result.Newick, "'Homo sapiens'")
	require.Contains(t, result.Newick, "'Pan troglodytes'")
	require.Contains(t, result.SupportingStudies, "study1")
}

func TestSubtreeArgusonIncludesNumTips(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.Subtree(SubtreeRequest{NodeID: "ott6", Format: FormatArguson})
	require.NoError(t, err)
	require.Equal(t, 2, result.Arguson.NumTips)
	require.Len(t, result.Arguson.Children, 2)
}

func TestSubtreeRejectsOversizeRequest(t *testing.T) {
	core := buildTestCore(t)
	core.Limits.NewickSubtreeTips = 1
	_, err := core.Subtree(SubtreeRequest{NodeID: "ott6", Format: FormatNewick})
	require.Error(t, err)
}
