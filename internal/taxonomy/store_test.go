package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildS1(t *testing.T) *Store {
	t.Helper()
	s := NewStore(0, 0)
	require.NoError(t, s.AddTaxon(1, 0, "Life", RankNoRank, nil, 0))
	require.NoError(t, s.AddTaxon(2, 1, "Mammalia", RankClass, nil, 0))
	require.NoError(t, s.AddTaxon(3, 2, "Homo", RankGenus, nil, 0))
	require.NoError(t, s.AddTaxon(4, 2, "Pan", RankGenus, nil, 0))
	require.NoError(t, s.AddTaxon(5, 2, "Mus", RankGenus, nil, 0))
	require.NoError(t, s.AddTaxon(6, 1, "Aves", RankClass, nil, 0))
	return s
}

// S1 — MRCA in a four-tip tree.
func TestMRCA_S1(t *testing.T) {
	s := buildS1(t)
	homo, _ := s.LookupByID(3)
	pan, _ := s.LookupByID(4)
	mus, _ := s.LookupByID(5)
	aves, _ := s.LookupByID(6)
	mammalia, _ := s.LookupByID(2)
	life, _ := s.LookupByID(1)

	require.Equal(t, mammalia.Id, s.MRCAOf([]*Taxon{homo, pan, mus}).Id)
	require.Equal(t, life.Id, s.MRCA(homo, aves).Id)
}

// Invariant 1: ancestor(A,B) iff trav_enter/trav_exit nesting.
func TestAncestorInvariant(t *testing.T) {
	s := buildS1(t)
	life, _ := s.LookupByID(1)
	mammalia, _ := s.LookupByID(2)
	homo, _ := s.LookupByID(3)
	aves, _ := s.LookupByID(6)

	require.True(t, life.Ancestor(mammalia))
	require.True(t, life.Ancestor(homo))
	require.True(t, mammalia.Ancestor(homo))
	require.False(t, mammalia.Ancestor(aves))
	require.False(t, homo.Ancestor(mammalia))
}

// Invariant 2: MRCA via traversal equals MRCA via parent-walk.
func TestMRCAAgreesWithParentWalk(t *testing.T) {
	s := buildS1(t)
	homo, _ := s.LookupByID(3)
	aves, _ := s.LookupByID(6)

	viaTrav := s.MRCA(homo, aves)

	// naive parent-walk reference implementation
	ancestorsOf := func(t *Taxon) map[Id]bool {
		set := map[Id]bool{t.Id: true}
		it := s.Ancestors(t)
		for a, ok := it(); ok; a, ok = it() {
			set[a.Id] = true
		}
		return set
	}
	homoAncestors := ancestorsOf(homo)
	it := s.Ancestors(aves)
	var viaWalk *Taxon
	cur := aves
	for {
		if homoAncestors[cur.Id] {
			viaWalk = cur
			break
		}
		next, ok := it()
		if !ok {
			break
		}
		cur = next
	}
	require.NotNil(t, viaWalk)
	require.Equal(t, viaWalk.Id, viaTrav.Id)
}

func TestLookupHomonyms(t *testing.T) {
	s := NewStore(0, 0)
	require.NoError(t, s.AddTaxon(1, 0, "Life", RankNoRank, nil, 0))
	require.NoError(t, s.AddTaxon(2, 1, "Aus", RankGenus, nil, 0))
	require.NoError(t, s.AddTaxon(3, 1, "Aus", RankGenus, nil, 0))

	_, ok := s.LookupByName("aus")
	require.False(t, ok, "non-unique name must not resolve via LookupByName")

	homs := s.LookupHomonyms("AUS")
	require.Len(t, homs, 2)
}

func TestUnforwardID(t *testing.T) {
	s := buildS1(t)
	s.RecordForward(77, 3)

	id, ok := s.UnforwardID(77)
	require.True(t, ok)
	require.Equal(t, Id(3), id)

	_, ok = s.UnforwardID(999)
	require.False(t, ok)

	id, ok = s.UnforwardID(3)
	require.True(t, ok)
	require.Equal(t, Id(3), id)
}

func TestDescendantsPreOrder(t *testing.T) {
	s := buildS1(t)
	life, _ := s.LookupByID(1)
	it := s.Descendants(life)
	var seen []Id
	for d, ok := it(); ok; d, ok = it() {
		seen = append(seen, d.Id)
	}
	require.Len(t, seen, 5)
	require.Equal(t, Id(2), seen[0], "pre-order must visit Mammalia before its children")
}

func TestInheritedFlags(t *testing.T) {
	s := NewStore(0, 0)
	require.NoError(t, s.AddTaxon(1, 0, "Life", RankNoRank, nil, FlagExtinct))
	require.NoError(t, s.AddTaxon(2, 1, "Dodoidea", RankFamily, nil, 0))

	child, _ := s.LookupByID(2)
	require.True(t, child.Flags.Has(FlagExtinctInherited), "child must inherit extinct flag from ancestor")
}
