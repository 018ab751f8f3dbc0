package synth

import (
	"strconv"
	"strings"
	"sync"

	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// Store is the registry of loaded summary trees, keyed by synth id
// (e.g. "synth-1.2"). Trees are loaded once at startup and are
// immutable thereafter (spec.md §4.4, §5); Store guards its own
// id -> tree map with an RWMutex.
type Store struct {
	mu    sync.RWMutex
	trees map[string]*SynthTree
}

// NewStore returns an empty synth-tree registry.
func NewStore() *Store {
	return &Store{trees: make(map[string]*SynthTree)}
}

// RegisterInput bundles the on-disk layout of spec.md §6: a directory
// containing a labelled Newick tree, its broken-taxa table, the
// annotations file, and the contesting-trees table.
type RegisterInput struct {
	SynthID         string
	TreeFile        []byte
	AnnotationsJSON []byte
	BrokenTaxaJSON  []byte
	ContestingJSON  []byte
	// IsExtinct reports whether a taxon is flagged extinct in the
	// taxonomy, used to seed leaf extinct marks. May be nil.
	IsExtinct func(taxonomy.Id) bool
}

// RegisterSummary loads one summary tree: parses the Newick file,
// assigns traversal indices, decodes annotations into per-node
// source-edge mappings via the interning table, decodes broken-taxa
// and contesting-trees into their side tables, and computes num_tips
// and extinct marks bottom-up. Grounded on
// original_source/otc/ws/tolws.cpp and trees_to_serve.cpp's summary
// load sequence.
func (s *Store) RegisterSummary(in RegisterInput) (*SynthTree, error) {
	root, err := parseNewick(string(in.TreeFile))
	if err != nil {
		return nil, coreerr.Newf(coreerr.BadRequest, "synth: parsing %s: %v", in.SynthID, err)
	}

	t := &SynthTree{
		SynthID:     in.SynthID,
		brokenIndex: make(map[taxonomy.Id]*BrokenTaxon),
		contesting:  make(map[taxonomy.Id][]ContestingEntry),
		Intern:      newStudyNodeIntern(),
	}
	if err := t.buildFromNewick(root); err != nil {
		return nil, err
	}
	if in.IsExtinct != nil {
		t.computeTipsAndExtinction(in.IsExtinct)
	}
	if err := t.applyAnnotations(in.AnnotationsJSON); err != nil {
		return nil, coreerr.Newf(coreerr.BadRequest, "synth: annotations for %s: %v", in.SynthID, err)
	}
	if err := t.applyBrokenTaxa(in.BrokenTaxaJSON); err != nil {
		return nil, coreerr.Newf(coreerr.BadRequest, "synth: broken taxa for %s: %v", in.SynthID, err)
	}
	if err := t.applyContesting(in.ContestingJSON); err != nil {
		return nil, coreerr.Newf(coreerr.BadRequest, "synth: contesting trees for %s: %v", in.SynthID, err)
	}

	s.mu.Lock()
	s.trees[in.SynthID] = t
	s.mu.Unlock()
	return t, nil
}

// SummaryTree returns the tree registered under synthID, if any.
func (s *Store) SummaryTree(synthID string) (*SynthTree, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trees[synthID]
	return t, ok
}

// DefaultSynthID returns the loaded synth id with the highest semantic
// version, comparing dot-separated components lexicographically as
// integers (spec.md §4.4). IDs that share a non-numeric prefix (e.g.
// "synth-1.2") are compared on their trailing dotted-numeric suffix;
// ids with no such suffix sort below those that have one.
func (s *Store) DefaultSynthID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best string
	var bestVer []int
	var haveBest bool
	for id := range s.trees {
		ver, ok := parseSemVerSuffix(id)
		if !haveBest {
			best, bestVer, haveBest = id, ver, true
			continue
		}
		if !ok {
			continue
		}
		if compareVersions(ver, bestVer) > 0 {
			best, bestVer = id, ver
		}
	}
	return best, haveBest
}

// Len reports how many trees are registered.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trees)
}

// IDs returns every registered synth id.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.trees))
	for id := range s.trees {
		ids = append(ids, id)
	}
	return ids
}

// parseSemVerSuffix splits id on '.' and parses each component as an
// integer (spec.md §4.4: "split on '.' and compare lexicographically
// as integers"). A non-numeric prefix before the first dotted
// component (e.g. "synth-1.2") is tolerated by taking only the
// trailing run of digits of that first component.
func parseSemVerSuffix(id string) ([]int, bool) {
	parts := strings.Split(id, ".")
	ver := make([]int, 0, len(parts))
	for i, p := range parts {
		if i == 0 {
			if idx := strings.LastIndexAny(p, "-_ "); idx >= 0 {
				p = p[idx+1:]
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		ver = append(ver, n)
	}
	return ver, len(ver) > 0
}

func compareVersions(a, b []int) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
