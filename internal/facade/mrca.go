package facade

import (
	"go.uber.org/zap"

	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/synth"
)

// MrcaRequest is the input of spec.md §6's `mrca` operation.
type MrcaRequest struct {
	NodeIDs         []string
	ExcludedNodeIDs []string
	SoftExclude     bool
	SynthID         string
}

// MrcaResult is the response of `mrca`.
type MrcaResult struct {
	SynthID      string
	MRCANodeID   string
	NumTips      int
	Taxon        *TaxonBlock
	NearestTaxon *TaxonBlock

	// ExcludedAncestorChain holds the node-id chain from the mrca up to
	// (and including) the closest excluded ancestor, set only when
	// ExcludedNodeIDs was non-empty and one of them actually is an
	// ancestor of the mrca.
	ExcludedAncestorChain []string
}

// Mrca implements spec.md §6's `mrca`: resolve every node id, fold
// them to a single most-recent-common-ancestor via the synth tree's
// O(1)-per-step traversal-interval MRCA, then report the taxon and
// nearest-taxon blocks for that node.
func (c *Core) Mrca(req MrcaRequest) (*MrcaResult, error) {
	reqID := requestID()
	log := c.logRequest("mrca", reqID, zap.Int("num_nodes", len(req.NodeIDs)))

	if len(req.NodeIDs) == 0 {
		return nil, coreerr.New(coreerr.BadRequest, "mrca: node_ids must be non-empty")
	}

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	resolver, tree, err := c.resolverFor(req.SynthID)
	if err != nil {
		log.Warn("mrca: resolver setup failed", zap.Error(err))
		return nil, err
	}

	nodes := make([]*synth.SynthNode, 0, len(req.NodeIDs))
	for _, id := range req.NodeIDs {
		n, rerr := singleNode(resolver, id)
		if rerr != nil {
			log.Warn("mrca: resolution failed", zap.String("node_id", id), zap.Error(rerr))
			return nil, rerr
		}
		nodes = append(nodes, n)
	}

	mrca := nodes[0]
	for _, n := range nodes[1:] {
		mrca = tree.MRCA(mrca, n)
	}

	out := &MrcaResult{SynthID: tree.SynthID, MRCANodeID: mrca.ID, NumTips: mrca.NumTips}
	if mrca.OttID != nil {
		if t, ok := c.Taxa.LookupByID(*mrca.OttID); ok {
			out.Taxon = taxonBlock(t)
		}
	}
	if mrca.NearestTaxonID != nil {
		if t, ok := c.Taxa.LookupByID(*mrca.NearestTaxonID); ok {
			out.NearestTaxon = taxonBlock(t)
		}
	}

	if len(req.ExcludedNodeIDs) > 0 {
		excluded := map[string]bool{}
		for _, id := range req.ExcludedNodeIDs {
			n, rerr := singleNode(resolver, id)
			if rerr != nil {
				if req.SoftExclude {
					continue
				}
				log.Warn("mrca: excluded id resolution failed", zap.String("node_id", id), zap.Error(rerr))
				return nil, rerr
			}
			excluded[n.ID] = true
		}
		chain := []string{mrca.ID}
		cur := mrca
		for {
			if excluded[cur.ID] {
				out.ExcludedAncestorChain = chain
				break
			}
			parent, ok := tree.Parent(cur)
			if !ok {
				break
			}
			chain = append(chain, parent.ID)
			cur = parent
		}
	}

	log.Info("mrca: resolved", zap.String("mrca_node_id", out.MRCANodeID))
	return out, nil
}
