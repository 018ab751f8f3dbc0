package taxonomy

import (
	"fmt"
	"sort"

	"github.com/opentreeoflife/taxacore/internal/strutil"
)

// record is the arena-owned representation of a Taxon: the Taxon
// value itself plus the tree-structural edges, expressed as arena
// indices rather than pointers (spec.md §9 "Aliasing graphs with
// ownership").
type record struct {
	taxon    Taxon
	parent   int32 // -1 for the root
	children []int32
}

// Store is the taxonomy: a single arena of taxon records plus the
// index maps spec.md §4.1 requires. It is built once at startup and
// thereafter mutated only through AddTaxon, always under the caller's
// write gate (internal/gate) — the Store itself does no locking.
type Store struct {
	arena []record
	root  int32

	idIndex      map[Id]int32
	nameIndex    map[string]int32   // normalized canonical name -> arena idx, only when unique
	homonymIndex map[string][]int32 // normalized canonical name -> arena idxs, when non-unique
	forward      map[Id]Id          // append-only id-forwarding table

	tnrsSuppressMask  Flag
	synthSuppressMask Flag
}

// NewStore creates an empty store whose eventual root is installed by
// the first call to AddTaxon with a zero ParentId.
func NewStore(tnrsSuppressMask, synthSuppressMask Flag) *Store {
	return &Store{
		root:              -1,
		idIndex:           make(map[Id]int32),
		nameIndex:         make(map[string]int32),
		homonymIndex:      make(map[string][]int32),
		forward:           make(map[Id]Id),
		tnrsSuppressMask:  tnrsSuppressMask,
		synthSuppressMask: synthSuppressMask,
	}
}

func normalizeName(name string) string {
	return string(strutil.NormalizeKey(name))
}

// TaxonByArenaIdx returns the taxon at the given dense arena index,
// for callers (internal/radixtrie.Ref, internal/facade's tnrs
// operations) that hold an arena-index back-reference rather than an
// Id.
func (s *Store) TaxonByArenaIdx(idx int32) *Taxon {
	return &s.arena[idx].taxon
}

// LookupByID is O(1) average, backed by a hash map.
func (s *Store) LookupByID(id Id) (*Taxon, bool) {
	idx, ok := s.idIndex[id]
	if !ok {
		return nil, false
	}
	return &s.arena[idx].taxon, true
}

// LookupByName resolves a canonical, non-unique-free name. If the name
// is a homonym (non-unique), it fails and the caller must use
// LookupHomonyms instead.
func (s *Store) LookupByName(name string) (*Taxon, bool) {
	key := normalizeName(name)
	idx, ok := s.nameIndex[key]
	if !ok {
		return nil, false
	}
	return &s.arena[idx].taxon, true
}

// LookupHomonyms returns every taxon sharing a non-unique canonical
// name.
func (s *Store) LookupHomonyms(name string) []*Taxon {
	key := normalizeName(name)
	idxs := s.homonymIndex[key]
	out := make([]*Taxon, len(idxs))
	for i, idx := range idxs {
		out[i] = &s.arena[idx].taxon
	}
	return out
}

// UnforwardID returns the current id for a historically-valid id: id
// itself if it is currently valid, otherwise the result of consulting
// the append-only forward table, otherwise false.
func (s *Store) UnforwardID(id Id) (Id, bool) {
	if _, ok := s.idIndex[id]; ok {
		return id, true
	}
	if fwd, ok := s.forward[id]; ok {
		if _, ok := s.idIndex[fwd]; ok {
			return fwd, true
		}
	}
	return 0, false
}

// RecordForward appends an entry to the id-forwarding table. The table
// is append-only: a later call for the same old id overwrites the
// target (the table always reflects the taxon's current identity),
// but the mapping never shrinks.
func (s *Store) RecordForward(oldID, newID Id) {
	s.forward[oldID] = newID
}

// Root returns the taxonomy root, or false if the store is empty.
func (s *Store) Root() (*Taxon, bool) {
	if s.root < 0 {
		return nil, false
	}
	return &s.arena[s.root].taxon, true
}

// Parent returns t's parent, or false if t is the root.
func (s *Store) Parent(t *Taxon) (*Taxon, bool) {
	r := &s.arena[t.arenaIdx]
	if r.parent < 0 {
		return nil, false
	}
	return &s.arena[r.parent].taxon, true
}

// Ancestors returns a closure that yields t's ancestors from parent up
// to the root, one per call, matching the teacher's synchronous
// Next()-style iterators rather than a channel.
func (s *Store) Ancestors(t *Taxon) func() (*Taxon, bool) {
	cur := s.arena[t.arenaIdx].parent
	return func() (*Taxon, bool) {
		if cur < 0 {
			return nil, false
		}
		tx := &s.arena[cur].taxon
		cur = s.arena[cur].parent
		return tx, true
	}
}

// Children returns a closure yielding t's immediate children in
// ascending Id order (sortedInsertChild keeps them sorted).
func (s *Store) Children(t *Taxon) func() (*Taxon, bool) {
	kids := s.arena[t.arenaIdx].children
	i := 0
	return func() (*Taxon, bool) {
		if i >= len(kids) {
			return nil, false
		}
		tx := &s.arena[kids[i]].taxon
		i++
		return tx, true
	}
}

// Descendants returns a closure yielding every descendant of t in
// pre-order, t itself excluded.
func (s *Store) Descendants(t *Taxon) func() (*Taxon, bool) {
	stack := append([]int32(nil), s.arena[t.arenaIdx].children...)
	// reverse so we pop in original child order
	for i, j := 0, len(stack)-1; i < j; i, j = i+1, j-1 {
		stack[i], stack[j] = stack[j], stack[i]
	}
	return func() (*Taxon, bool) {
		if len(stack) == 0 {
			return nil, false
		}
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		kids := s.arena[idx].children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
		return &s.arena[idx].taxon, true
	}
}

// MRCA computes the most recent common ancestor of a and b. When one
// is an ancestor of the other, the traversal-interval test answers in
// O(1); otherwise both are walked up their parent chains, which is
// O(depth), not O(1).
func (s *Store) MRCA(a, b *Taxon) *Taxon {
	if a.Ancestor(b) {
		return a
	}
	if b.Ancestor(a) {
		return b
	}
	// Bring the deeper node up to the other's depth, then walk both up
	// together until they meet, which is the LCA.
	x, y := a, b
	for x.Depth > y.Depth {
		p, _ := s.Parent(x)
		x = p
	}
	for y.Depth > x.Depth {
		p, _ := s.Parent(y)
		y = p
	}
	for x.arenaIdx != y.arenaIdx {
		px, _ := s.Parent(x)
		py, _ := s.Parent(y)
		x, y = px, py
	}
	return x
}

// MRCAOf computes the MRCA of a non-empty slice of taxa.
func (s *Store) MRCAOf(taxa []*Taxon) *Taxon {
	if len(taxa) == 0 {
		return nil
	}
	m := taxa[0]
	for _, t := range taxa[1:] {
		m = s.MRCA(m, t)
	}
	return m
}

// IsSuppressedFromTNRS tests t's flags against the configured TNRS
// suppression mask.
func (s *Store) IsSuppressedFromTNRS(t *Taxon) bool {
	return t.Flags.HasAny(s.tnrsSuppressMask)
}

// IsSuppressedFromSynth tests t's flags against the configured synth
// suppression mask.
func (s *Store) IsSuppressedFromSynth(t *Taxon) bool {
	return t.Flags.HasAny(s.synthSuppressMask)
}

// SynthSuppressMask returns the flag mask synth-tree filtering tests
// against (spec.md §6 about's "filtered_flags").
func (s *Store) SynthSuppressMask() Flag { return s.synthSuppressMask }

// SourceLookup resolves a taxon by a foreign-database cross-reference,
// for prefixes in {ncbi, gbif, worms, if, irmng}.
func (s *Store) SourceLookup(prefix, foreignID string) (*Taxon, error) {
	switch prefix {
	case "ncbi", "gbif", "worms", "if", "irmng":
	default:
		return nil, fmt.Errorf("taxonomy: unknown source prefix %q", prefix)
	}
	for i := range s.arena {
		for _, ref := range s.arena[i].taxon.Sources {
			if ref.Prefix == prefix && ref.ForeignID == foreignID {
				return &s.arena[i].taxon, nil
			}
		}
	}
	return nil, fmt.Errorf("taxonomy: no taxon with %s:%s", prefix, foreignID)
}

// Len returns the number of live taxa in the arena.
func (s *Store) Len() int {
	return len(s.arena)
}

// AllTaxa returns a closure yielding every taxon in arena order
// (stable across calls since the arena is append-only).
func (s *Store) AllTaxa() func() (*Taxon, bool) {
	i := 0
	return func() (*Taxon, bool) {
		if i >= len(s.arena) {
			return nil, false
		}
		t := &s.arena[i].taxon
		i++
		return t, true
	}
}

// sortedInsertChild inserts childIdx into the parent's children slice,
// keeping children sorted by Id so that renumbering (recomputeTraversal)
// produces a deterministic traversal order.
func (s *Store) sortedInsertChild(parentIdx, childIdx int32) {
	kids := s.arena[parentIdx].children
	pos := sort.Search(len(kids), func(i int) bool {
		return s.arena[kids[i]].taxon.Id >= s.arena[childIdx].taxon.Id
	})
	kids = append(kids, 0)
	copy(kids[pos+1:], kids[pos:])
	kids[pos] = childIdx
	s.arena[parentIdx].children = kids
}
