package facade

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInducedSubtreeOfTwoTipsIsMrcaRooted(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.InducedSubtree(InducedSubtreeRequest{NodeIDs: []string{"ott7", "ott8"}})
	require.NoError(t, err)
	require.Contains(t, result.Newick, "ott7")
	require.Contains(t, result.Newick, "ott8")
	require.Contains(t, result.Newick, "ott6")
	require.Contains(t, result.SupportingStudies, "study1")
}

func TestInducedSubtreeRecordsBrokenSeedAsStandIn(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.InducedSubtree(InducedSubtreeRequest{NodeIDs: []string{"ott7", "ott9"}})
	require.NoError(t, err)
	require.Equal(t, "ott6", result.Broken["ott9"])
}

func TestInducedSubtreeRejectsEmptyRequest(t *testing.T) {
	core := buildTestCore(t)
	_, err := core.InducedSubtree(InducedSubtreeRequest{})
	require.Error(t, err)
}
