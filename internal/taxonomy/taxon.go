package taxonomy

// Id is the stable integer taxon identifier in the OTT id space.
// spec.md §3 leaves the width as an implementation choice ("may or may
// not fit in 32 bits") and asks the implementation to pin one width;
// this module pins int64 throughout.
type Id int64

// Rank is the enumerated taxonomic rank, "no rank" included.
type Rank uint8

const (
	RankNoRank Rank = iota
	RankDomain
	RankKingdom
	RankPhylum
	RankClass
	RankOrder
	RankFamily
	RankTribe
	RankGenus
	RankSpecies
	RankSubspecies
)

var rankNames = [...]string{
	RankNoRank:    "no rank",
	RankDomain:    "domain",
	RankKingdom:   "kingdom",
	RankPhylum:    "phylum",
	RankClass:     "class",
	RankOrder:     "order",
	RankFamily:    "family",
	RankTribe:     "tribe",
	RankGenus:     "genus",
	RankSpecies:   "species",
	RankSubspecies: "subspecies",
}

func (r Rank) String() string {
	if int(r) < len(rankNames) {
		return rankNames[r]
	}
	return "no rank"
}

// Synonym is a junior synonym owned by its accepted taxon's synonym
// list (spec.md §3).
type Synonym struct {
	Name     string
	Source   string
	Accepted Id
}

// SourceRef is one cross-reference into an external nomenclatural
// database (ncbi, gbif, worms, indexfungorum, irmng).
type SourceRef struct {
	Prefix    string
	ForeignID string
}

// Taxon is one node of the taxonomy tree, addressed externally by Id
// and internally by a small arena index (see Store).
type Taxon struct {
	Id         Id
	Name       string // canonical, non-unique
	UniqueName string // canonical + disambiguation when a homonym exists
	Rank       Rank
	Flags      Flag
	Sources    []SourceRef
	Synonyms   []Synonym

	TravEnter int64
	TravExit  int64
	Depth     int32

	arenaIdx int32
}

// ArenaIdx returns t's dense arena index, for callers outside the
// package that need a stable handle shorter than an Id (e.g. the
// trie's back-references, spec.md §9 "Trie node sharing").
func (t *Taxon) ArenaIdx() int32 { return t.arenaIdx }

// Ancestor reports whether t is an ancestor of (or equal to) other,
// using the traversal-interval test from spec.md §8 invariant 1.
func (t *Taxon) Ancestor(other *Taxon) bool {
	return t.TravEnter <= other.TravEnter && other.TravExit <= t.TravExit
}
