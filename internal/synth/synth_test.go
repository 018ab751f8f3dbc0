package synth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

const s1Newick = `((ott3:1,ott4:1)mrca1ott2:1,ott5:1)ott1;`

func TestParseNewickAndTraversal(t *testing.T) {
	root, err := parseNewick(s1Newick)
	require.NoError(t, err)
	require.Equal(t, "ott1", root.label)
	require.Len(t, root.children, 2)
}

func TestRegisterSummaryBuildsIDIndex(t *testing.T) {
	store := NewStore()
	tree, err := store.RegisterSummary(RegisterInput{
		SynthID:  "synth-1.2",
		TreeFile: []byte(s1Newick),
	})
	require.NoError(t, err)

	got, ok := tree.NodeByID("ott1")
	require.True(t, ok)
	require.Equal(t, tree.Root(), got)

	n3, ok := tree.NodeByOttID(3)
	require.True(t, ok)
	require.Equal(t, "ott3", n3.ID)

	mrcaNode, ok := tree.NodeByID("mrca1ott2")
	require.True(t, ok)
	require.Equal(t, 2, mrcaNode.NumTips)
}

// Invariant 3: num_tips and extinct_mark are computed bottom-up.
func TestNumTipsAndExtinctMarkInvariant(t *testing.T) {
	store := NewStore()
	extinct := map[taxonomy.Id]bool{4: true, 5: true} // ott4, ott5 extinct; ott3 extant
	tree, err := store.RegisterSummary(RegisterInput{
		SynthID:   "synth-1.0",
		TreeFile:  []byte(s1Newick),
		IsExtinct: func(id taxonomy.Id) bool { return extinct[id] },
	})
	require.NoError(t, err)

	root := tree.Root()
	require.Equal(t, 3, root.NumTips)
	require.False(t, root.ExtinctMark) // ott3 extant child keeps the whole tree non-extinct

	mrca, ok := tree.NodeByID("mrca1ott2")
	require.True(t, ok)
	require.False(t, mrca.ExtinctMark) // one extant (ott3), one extinct (ott4) child

	ott5, ok := tree.NodeByID("ott5")
	require.True(t, ok)
	require.True(t, ott5.ExtinctMark)
}

func TestNearestTaxonPointer(t *testing.T) {
	store := NewStore()
	tree, err := store.RegisterSummary(RegisterInput{
		SynthID:  "synth-1.0",
		TreeFile: []byte(s1Newick),
	})
	require.NoError(t, err)

	mrca, ok := tree.NodeByID("mrca1ott2")
	require.True(t, ok)
	require.NotNil(t, mrca.NearestTaxonID) // the mrca node's parent is the taxon-backed root ott1
	require.Equal(t, taxonomy.Id(1), *mrca.NearestTaxonID)

	ott3, ok := tree.NodeByID("ott3")
	require.True(t, ok)
	require.NotNil(t, ott3.NearestTaxonID)
	require.Equal(t, taxonomy.Id(3), *ott3.NearestTaxonID)
}

func TestMRCAWithinSynthTree(t *testing.T) {
	store := NewStore()
	tree, err := store.RegisterSummary(RegisterInput{
		SynthID:  "synth-1.0",
		TreeFile: []byte(s1Newick),
	})
	require.NoError(t, err)

	n3, _ := tree.NodeByID("ott3")
	n4, _ := tree.NodeByID("ott4")
	n5, _ := tree.NodeByID("ott5")

	m := tree.MRCA(n3, n4)
	require.Equal(t, "mrca1ott2", m.ID)

	m2 := tree.MRCA(n3, n5)
	require.Equal(t, tree.Root(), m2)
}

func TestApplyAnnotations(t *testing.T) {
	store := NewStore()
	annotations := []byte(`{
		"nodes": {
			"ott3": {
				"supported_by": {"ot_1000": "node3"},
				"conflicts_with": {"ot_1001": ["node9", "node10"]}
			}
		}
	}`)
	tree, err := store.RegisterSummary(RegisterInput{
		SynthID:         "synth-1.0",
		TreeFile:        []byte(s1Newick),
		AnnotationsJSON: annotations,
	})
	require.NoError(t, err)

	n3, _ := tree.NodeByID("ott3")
	ref, ok := n3.SupportedBy()
	require.True(t, ok)
	key, ok := tree.Intern.Lookup(ref)
	require.True(t, ok)
	require.Equal(t, StudyNodeKey{StudyID: "ot_1000", NodeID: "node3"}, key)

	require.Len(t, n3.ConflictsWith(), 2)
	require.False(t, n3.WasUncontested)
}

func TestApplyBrokenTaxaAndContesting(t *testing.T) {
	store := NewStore()
	broken := []byte(`{"ott2": {"mrca": "mrca1ott2", "attachment_points": [{"parent": "mrca1ott2", "children": ["ott3", "ott4"]}]}}`)
	contesting := []byte(`{"ott2": [{"source_tree_id": "tree9", "attachment_points": [{"parent": "ott1", "children": ["ott3"]}]}]}`)
	tree, err := store.RegisterSummary(RegisterInput{
		SynthID:        "synth-1.0",
		TreeFile:       []byte(s1Newick),
		BrokenTaxaJSON: broken,
		ContestingJSON: contesting,
	})
	require.NoError(t, err)

	b, ok := tree.BrokenByOttID(2)
	require.True(t, ok)
	require.Equal(t, "mrca1ott2", b.MRCANodeID)
	require.Len(t, b.Attachment, 1)

	c := tree.ContestingByOttID(2)
	require.Len(t, c, 1)
	require.Equal(t, "tree9", c[0].SourceTreeID)
}

func TestDefaultSynthID(t *testing.T) {
	store := NewStore()
	_, err := store.RegisterSummary(RegisterInput{SynthID: "synth-1.2", TreeFile: []byte(s1Newick)})
	require.NoError(t, err)
	_, err = store.RegisterSummary(RegisterInput{SynthID: "synth-1.10", TreeFile: []byte(s1Newick)})
	require.NoError(t, err)
	_, err = store.RegisterSummary(RegisterInput{SynthID: "synth-1.9", TreeFile: []byte(s1Newick)})
	require.NoError(t, err)

	def, ok := store.DefaultSynthID()
	require.True(t, ok)
	require.Equal(t, "synth-1.10", def) // integer, not lexicographic string, comparison
}

func TestParseNewickQuotedLabel(t *testing.T) {
	root, err := parseNewick(`('Homo sapiens':1,Pan_troglodytes:1)mrca1ott2;`)
	require.NoError(t, err)
	require.Len(t, root.children, 2)
	require.Equal(t, "Homo sapiens", root.children[0].label)
	require.Equal(t, "Pan troglodytes", root.children[1].label)
}
