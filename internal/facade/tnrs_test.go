package facade

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchNamesExactHitReturnsTaxon(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.MatchNames(MatchNamesRequest{Names: []string{"Homo sapiens"}})
	require.NoError(t, err)
	matches := result.Matches["Homo sapiens"]
	require.NotEmpty(t, matches)
	require.Equal(t, "Homo sapiens", matches[0].Taxon.Name)
	require.False(t, matches[0].IsApproximateMatch)
}

func TestMatchNamesFallsBackToFuzzyOnTypo(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.MatchNames(MatchNamesRequest{
		Names:                 []string{"Homo sapien"},
		DoApproximateMatching: true,
	})
	require.NoError(t, err)
	matches := result.Matches["Homo sapien"]
	require.NotEmpty(t, matches)
	require.True(t, matches[0].IsApproximateMatch)
}

func TestMatchNamesWithoutApproximateFlagReturnsNoTypoHit(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.MatchNames(MatchNamesRequest{Names: []string{"Homo sapien"}})
	require.NoError(t, err)
	require.Empty(t, result.Matches["Homo sapien"])
}

func TestMatchNamesUnknownContextFails(t *testing.T) {
	core := buildTestCore(t)
	_, err := core.MatchNames(MatchNamesRequest{Names: []string{"Homo sapiens"}, ContextName: "Nonexistent Context"})
	require.Error(t, err)
}

func TestAutocompleteNameDedupesAcrossTiers(t *testing.T) {
	core := buildTestCore(t)
	items, err := core.AutocompleteName("Homo", "", false)
	require.NoError(t, err)
	seen := map[int64]int{}
	for _, item := range items {
		seen[item.OttID]++
	}
	for id, count := range seen {
		require.Equalf(t, 1, count, "ott id %d appeared %d times", id, count)
	}
}

func TestContextsReturnsNonEmptyGroupIndex(t *testing.T) {
	core := buildTestCore(t)
	groups := core.Contexts()
	require.NotEmpty(t, groups)
}

func TestInferContextResolvesToLeastInclusiveContext(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.InferContext([]string{"Homo sapiens", "Pan troglodytes"})
	require.NoError(t, err)
	require.NotEmpty(t, result.ContextName)
	require.Empty(t, result.AmbiguousNames)
}

func TestInferContextReportsAmbiguousNames(t *testing.T) {
	core := buildTestCore(t)
	result, err := core.InferContext([]string{"Homo sapiens", "Nonexistent Species"})
	require.NoError(t, err)
	require.Contains(t, result.AmbiguousNames, "Nonexistent Species")
}
