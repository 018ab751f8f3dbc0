package facade

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMrcaOfTwoTipsIsTheirParent(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.Mrca(MrcaRequest{NodeIDs: []string{"ott7", "ott8"}})
	require.NoError(t, err)
	require.Equal(t, "ott6", result.MRCANodeID)
	require.Equal(t, 2, result.NumTips)
}

func TestMrcaRejectsEmptyRequest(t *testing.T) {
	core := buildTestCore(t)
	_, err := core.Mrca(MrcaRequest{})
	require.Error(t, err)
}

func TestMrcaExcludedAncestorChainStopsAtExclusion(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.Mrca(MrcaRequest{
		NodeIDs:         []string{"ott7", "ott8"},
		ExcludedNodeIDs: []string{"ott6"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ott6"}, result.ExcludedAncestorChain)
}

func TestMrcaSoftExcludeToleratesUnresolvedExclusion(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.Mrca(MrcaRequest{
		NodeIDs:         []string{"ott7", "ott8"},
		ExcludedNodeIDs: []string{"ott999999"},
		SoftExclude:     true,
	})
	require.NoError(t, err)
	require.Nil(t, result.ExcludedAncestorChain)
}
