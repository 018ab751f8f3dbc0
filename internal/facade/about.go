package facade

import (
	"go.uber.org/zap"

	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// AboutResult is the response of the `about` operation (spec.md §6).
type AboutResult struct {
	SynthID         string
	NumSourceTrees  int
	NumSourceStudies int
	TaxonomyVersion string
	FilteredFlags   []string
	RootNodeID      string
	RootOttID       *int64
	RootNumTips     int
}

// About implements spec.md §6's `about` operation: report the chosen
// synth tree's identity and root, defaulting to the registry's
// highest-semantic-version tree when synthID is empty.
func (c *Core) About(synthID string) (*AboutResult, error) {
	reqID := requestID()
	log := c.logRequest("about", reqID, zap.String("synth_id", synthID))

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	tree, err := c.treeFor(synthID)
	if err != nil {
		log.Warn("about: no tree available", zap.Error(err))
		return nil, err
	}

	root := tree.Root()
	studies := map[string]bool{}
	for i := int32(0); i < tree.NumNodes(); i++ {
		for _, ref := range allRefs(tree.NodeByArenaIdx(i)) {
			if key, ok := tree.Intern.Lookup(ref); ok {
				studies[key.StudyID] = true
			}
		}
	}

	out := &AboutResult{
		SynthID:          tree.SynthID,
		NumSourceTrees:   1, // a SynthTree is itself one source tree; multi-study composition is tracked via studies below
		NumSourceStudies: len(studies),
		RootNodeID:       root.ID,
		RootNumTips:      root.NumTips,
	}
	if root.OttID != nil {
		v := int64(*root.OttID)
		out.RootOttID = &v
	}
	if rootTaxon, ok := c.Taxa.Root(); ok {
		out.TaxonomyVersion = rootTaxon.UniqueName
	}
	out.FilteredFlags = c.Taxa.SynthSuppressMask().Names()
	return out, nil
}

// TaxonomyAboutResult is the response of `taxonomy/about`.
type TaxonomyAboutResult struct {
	Version  string
	RootName string
}

// TaxonomyAbout implements spec.md §6's `taxonomy/about`.
func (c *Core) TaxonomyAbout() (*TaxonomyAboutResult, error) {
	reqID := requestID()
	log := c.logRequest("taxonomy/about", reqID)

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	root, ok := c.Taxa.Root()
	if !ok {
		log.Warn("taxonomy/about: empty taxonomy")
		return nil, coreerr.New(coreerr.Internal, "taxonomy has no root")
	}
	return &TaxonomyAboutResult{Version: root.UniqueName, RootName: root.Name}, nil
}

// TaxonomyFlags implements spec.md §6's `taxonomy/flags`: a flag name
// -> taxon count map, zero-initialized for every defined flag so an
// unused flag still appears with count 0 rather than being absent.
func (c *Core) TaxonomyFlags() (map[string]int, error) {
	reqID := requestID()
	log := c.logRequest("taxonomy/flags", reqID)

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	counts := map[string]int{}
	for _, name := range taxonomy.AllFlagNames() {
		counts[name] = 0
	}
	next := c.Taxa.AllTaxa()
	for t, ok := next(); ok; t, ok = next() {
		for _, name := range t.Flags.Names() {
			counts[name]++
		}
	}
	log.Info("taxonomy/flags: counted", zap.Int("distinct_flags", len(counts)))
	return counts, nil
}
