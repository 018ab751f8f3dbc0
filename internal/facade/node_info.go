package facade

import (
	"go.uber.org/zap"

	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/resolve"
	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// TaxonBlock is the taxon-identity block several operations embed.
type TaxonBlock struct {
	OttID      int64
	Name       string
	UniqueName string
	Rank       string
	Flags      []string
}

func taxonBlock(t *taxonomy.Taxon) *TaxonBlock {
	if t == nil {
		return nil
	}
	return &TaxonBlock{
		OttID:      int64(t.Id),
		Name:       t.Name,
		UniqueName: t.UniqueName,
		Rank:       t.Rank.String(),
		Flags:      t.Flags.Names(),
	}
}

// NodeInfoRequest is the input of `node_info` (spec.md §6) for a
// single node id. The operation row also allows a node_ids[] or
// source_id batch form; that shape is exposed as
// (*resolve.Resolver).FindNodesForIDs directly rather than duplicated
// here, since the per-id reason-map contract is already that
// function's job.
type NodeInfoRequest struct {
	NodeID         string
	SynthID        string
	IncludeLineage bool
}

// NodeInfoResult is the per-node blob of spec.md §6's `node_info`.
type NodeInfoResult struct {
	NodeID        string
	NumTips       int
	ForwardedFrom int64 // 0 when no forwarding was applied
	Broken        bool
	BrokenMRCAID  string
	Taxon         *TaxonBlock
	NearestTaxon  *TaxonBlock

	SupportedBy    []synth.StudyNodeKey
	PartialPathOf  []synth.StudyNodeKey
	Resolves       []synth.StudyNodeKey
	Terminal       []synth.StudyNodeKey
	ConflictsWith  []synth.StudyNodeKey

	Lineage []*TaxonBlock // set only when IncludeLineage, root-ward order
}

// NodeInfo implements spec.md §6's `node_info`: resolve node_id
// against the chosen synth tree (recording forwarding and broken
// status per S2/S3) and report its mapping blocks and, optionally,
// its ancestor lineage.
func (c *Core) NodeInfo(req NodeInfoRequest) (*NodeInfoResult, error) {
	reqID := requestID()
	log := c.logRequest("node_info", reqID, zap.String("node_id", req.NodeID))

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	resolver, tree, err := c.resolverFor(req.SynthID)
	if err != nil {
		log.Warn("node_info: resolver setup failed", zap.Error(err))
		return nil, err
	}

	ott, mrca, noMatch := resolver.Resolve(req.NodeID)
	out := &NodeInfoResult{NodeID: req.NodeID}
	var node *synth.SynthNode

	switch {
	case ott != nil:
		if ott.ForwardedFrom != 0 {
			out.ForwardedFrom = int64(ott.ForwardedFrom)
		}
		n, derr := nodeInfoFromOtt(*ott, out)
		if derr != nil {
			log.Warn("node_info: resolution failed", zap.Error(derr))
			return nil, derr
		}
		node = n
	case mrca != nil:
		if mrca.MRCA == nil {
			return nil, coreerr.Newf(coreerr.BadRequest, "node_info: mrca id %q did not resolve on both sides", req.NodeID)
		}
		node = mrca.MRCA
	case noMatch != nil:
		return nil, coreerr.ErrNotFound(noMatch.NodeID)
	}

	out.NumTips = node.NumTips
	if node.OttID != nil {
		if t, ok := c.Taxa.LookupByID(*node.OttID); ok {
			out.Taxon = taxonBlock(t)
		}
	}
	if node.NearestTaxonID != nil {
		if t, ok := c.Taxa.LookupByID(*node.NearestTaxonID); ok {
			out.NearestTaxon = taxonBlock(t)
		}
	}

	lookupKeys := func(refs []uint32) []synth.StudyNodeKey {
		var keys []synth.StudyNodeKey
		for _, ref := range refs {
			if key, ok := tree.Intern.Lookup(ref); ok {
				keys = append(keys, key)
			}
		}
		return keys
	}
	if ref, ok := node.SupportedBy(); ok {
		out.SupportedBy = lookupKeys([]uint32{ref})
	}
	if ref, ok := node.PartialPathOf(); ok {
		out.PartialPathOf = lookupKeys([]uint32{ref})
	}
	if ref, ok := node.Resolves(); ok {
		out.Resolves = lookupKeys([]uint32{ref})
	}
	if ref, ok := node.Terminal(); ok {
		out.Terminal = lookupKeys([]uint32{ref})
	}
	out.ConflictsWith = lookupKeys(node.ConflictsWith())

	if req.IncludeLineage && node.OttID != nil {
		if t, ok := c.Taxa.LookupByID(*node.OttID); ok {
			next := c.Taxa.Ancestors(t)
			for anc, ok := next(); ok; anc, ok = next() {
				out.Lineage = append(out.Lineage, taxonBlock(anc))
			}
		}
	}

	log.Info("node_info: resolved", zap.Int("num_tips", out.NumTips), zap.Bool("broken", out.Broken))
	return out, nil
}

// nodeInfoFromOtt applies spec.md §7's error mapping for the
// short-circuiting statuses and, for S3's broken case, records the
// broken reason/MRCA stand-in on out before returning the stand-in
// node as data.
func nodeInfoFromOtt(lookup resolve.OttLookup, out *NodeInfoResult) (*synth.SynthNode, error) {
	switch lookup.Status {
	case resolve.StatusFound:
		return lookup.Node, nil
	case resolve.StatusBroken:
		out.Broken = true
		if lookup.MRCA != nil {
			out.BrokenMRCAID = lookup.MRCA.ID
		}
		return lookup.MRCA, nil
	case resolve.StatusPruned:
		return nil, coreerr.ErrPrunedOttID(int64(lookup.ID))
	case resolve.StatusInvalidID:
		return nil, coreerr.ErrInvalidOttID(int64(lookup.ID))
	default:
		return nil, coreerr.ErrUnknownID()
	}
}
