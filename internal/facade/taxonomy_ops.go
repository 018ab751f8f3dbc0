package facade

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// TaxonInfoRequest is the input of spec.md §6's `taxonomy/taxon_info`.
// Exactly one of OttID/SourceID should be set.
type TaxonInfoRequest struct {
	OttID    int64
	SourceID string // "prefix:foreign_id", e.g. "ncbi:9606"

	IncludeLineage            bool
	IncludeChildren           bool
	IncludeTerminalDescendants bool
}

// TaxonInfoResult is the response of `taxonomy/taxon_info`.
type TaxonInfoResult struct {
	Taxon *TaxonBlock

	Lineage             []*TaxonBlock // root-ward order, set only when requested
	Children            []*TaxonBlock
	TerminalDescendants []*TaxonBlock // leaves only, set only when requested
}

// TaxonInfo implements `taxonomy/taxon_info`: look the taxon up by
// either ott id or a foreign-database cross-reference, then attach
// whichever of lineage/children/terminal-descendants were requested.
func (c *Core) TaxonInfo(req TaxonInfoRequest) (*TaxonInfoResult, error) {
	reqID := requestID()
	log := c.logRequest("taxonomy/taxon_info", reqID, zap.Int64("ott_id", req.OttID), zap.String("source_id", req.SourceID))

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	t, err := c.lookupTaxon(req.OttID, req.SourceID)
	if err != nil {
		log.Warn("taxonomy/taxon_info: lookup failed", zap.Error(err))
		return nil, err
	}

	out := &TaxonInfoResult{Taxon: taxonBlock(t)}

	if req.IncludeLineage {
		next := c.Taxa.Ancestors(t)
		for anc, ok := next(); ok; anc, ok = next() {
			out.Lineage = append(out.Lineage, taxonBlock(anc))
		}
	}
	if req.IncludeChildren {
		next := c.Taxa.Children(t)
		for kid, ok := next(); ok; kid, ok = next() {
			out.Children = append(out.Children, taxonBlock(kid))
		}
	}
	if req.IncludeTerminalDescendants {
		next := c.Taxa.Descendants(t)
		for d, ok := next(); ok; d, ok = next() {
			isLeaf := true
			kids := c.Taxa.Children(d)
			if _, hasKid := kids(); hasKid {
				isLeaf = false
			}
			if isLeaf {
				out.TerminalDescendants = append(out.TerminalDescendants, taxonBlock(d))
			}
		}
	}

	log.Info("taxonomy/taxon_info: resolved", zap.Int64("ott_id", int64(t.Id)))
	return out, nil
}

func (c *Core) lookupTaxon(ottID int64, sourceID string) (*taxonomy.Taxon, error) {
	if sourceID != "" {
		prefix, foreignID, ok := strings.Cut(sourceID, ":")
		if !ok {
			return nil, coreerr.New(coreerr.BadRequest, "source_id must be \"prefix:foreign_id\"")
		}
		t, err := c.Taxa.SourceLookup(prefix, foreignID)
		if err != nil {
			return nil, coreerr.New(coreerr.NotFound, err.Error())
		}
		return t, nil
	}
	t, ok := c.Taxa.LookupByID(taxonomy.Id(ottID))
	if !ok {
		return nil, coreerr.ErrInvalidOttID(ottID)
	}
	return t, nil
}

// TaxonomyMrca implements spec.md §6's `taxonomy/mrca`: the taxonomy
// tree's MRCA (not a synth tree's) of a set of ott ids.
func (c *Core) TaxonomyMrca(ottIDs []int64) (*TaxonBlock, error) {
	reqID := requestID()
	log := c.logRequest("taxonomy/mrca", reqID, zap.Int("num_ids", len(ottIDs)))

	if len(ottIDs) == 0 {
		return nil, coreerr.New(coreerr.BadRequest, "taxonomy/mrca: ott_ids must be non-empty")
	}

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	taxa := make([]*taxonomy.Taxon, 0, len(ottIDs))
	for _, id := range ottIDs {
		t, ok := c.Taxa.LookupByID(taxonomy.Id(id))
		if !ok {
			log.Warn("taxonomy/mrca: unknown ott id", zap.Int64("ott_id", id))
			return nil, coreerr.ErrInvalidOttID(id)
		}
		taxa = append(taxa, t)
	}

	mrca := c.Taxa.MRCAOf(taxa)
	log.Info("taxonomy/mrca: resolved", zap.Int64("mrca_ott_id", int64(mrca.Id)))
	return taxonBlock(mrca), nil
}

// TaxonomySubtreeRequest is the input of spec.md §6's
// `taxonomy/subtree`.
type TaxonomySubtreeRequest struct {
	OttID    int64
	SourceID string
	Label    LabelFormat
}

// TaxonomySubtree implements `taxonomy/subtree`: render the taxonomy
// tree itself (as opposed to a synth tree) rooted at the requested
// taxon, as newick.
func (c *Core) TaxonomySubtree(req TaxonomySubtreeRequest) (string, error) {
	reqID := requestID()
	log := c.logRequest("taxonomy/subtree", reqID, zap.Int64("ott_id", req.OttID), zap.String("source_id", req.SourceID))

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	t, err := c.lookupTaxon(req.OttID, req.SourceID)
	if err != nil {
		log.Warn("taxonomy/subtree: lookup failed", zap.Error(err))
		return "", err
	}

	var sb strings.Builder
	writeTaxonomyNewick(&sb, c.Taxa, t, req.Label)
	sb.WriteString(";")
	log.Info("taxonomy/subtree: resolved", zap.Int64("ott_id", int64(t.Id)))
	return sb.String(), nil
}

func writeTaxonomyNewick(sb *strings.Builder, taxa *taxonomy.Store, t *taxonomy.Taxon, label LabelFormat) {
	next := taxa.Children(t)
	var kids []*taxonomy.Taxon
	for kid, ok := next(); ok; kid, ok = next() {
		kids = append(kids, kid)
	}
	if len(kids) > 0 {
		sb.WriteString("(")
		for i, kid := range kids {
			if i > 0 {
				sb.WriteString(",")
			}
			writeTaxonomyNewick(sb, taxa, kid, label)
		}
		sb.WriteString(")")
	}
	sb.WriteString(formatLabel(label, "ott"+strconv.FormatInt(int64(t.Id), 10), t.Name))
}
