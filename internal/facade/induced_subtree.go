package facade

import (
	"strings"

	"go.uber.org/zap"

	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/resolve"
	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// InducedSubtreeRequest is the input of spec.md §6's `induced_subtree`.
type InducedSubtreeRequest struct {
	NodeIDs []string
	Label   LabelFormat
	SynthID string
}

// InducedSubtreeResult is the response of `induced_subtree`.
type InducedSubtreeResult struct {
	Newick            string
	SupportingStudies []string
	// Broken maps a requested node id that resolved to its synth MRCA
	// stand-in (spec.md §7 S3) to that stand-in's node id.
	Broken map[string]string
}

// InducedSubtree implements spec.md §6's `induced_subtree`: resolve
// every seed node id, contract the synth tree onto the MRCA-rooted
// union of the paths from each seed to that MRCA (suppressing
// degree-2 internal nodes other than the root, the same two-step
// contraction internal/conflict's induce() uses for ott-id leaf sets,
// generalized here to arbitrary resolved seed nodes since
// induced_subtree's seeds are node ids, not necessarily taxon-backed
// tips), then renders the contraction as newick.
func (c *Core) InducedSubtree(req InducedSubtreeRequest) (*InducedSubtreeResult, error) {
	reqID := requestID()
	log := c.logRequest("induced_subtree", reqID, zap.Int("num_nodes", len(req.NodeIDs)))

	if len(req.NodeIDs) == 0 {
		return nil, coreerr.New(coreerr.BadRequest, "induced_subtree: node_ids must be non-empty")
	}

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	resolver, tree, err := c.resolverFor(req.SynthID)
	if err != nil {
		log.Warn("induced_subtree: resolver setup failed", zap.Error(err))
		return nil, err
	}

	out := &InducedSubtreeResult{Broken: map[string]string{}}
	seeds := make([]*synth.SynthNode, 0, len(req.NodeIDs))
	for _, id := range req.NodeIDs {
		ott, mrca, noMatch := resolver.Resolve(id)
		switch {
		case ott != nil:
			switch ott.Status {
			case resolve.StatusFound:
				seeds = append(seeds, ott.Node)
			case resolve.StatusBroken:
				if ott.MRCA != nil {
					out.Broken[id] = ott.MRCA.ID
					seeds = append(seeds, ott.MRCA)
				}
			case resolve.StatusPruned:
				return nil, coreerr.ErrPrunedOttID(int64(ott.ID))
			case resolve.StatusInvalidID:
				return nil, coreerr.ErrInvalidOttID(int64(ott.ID))
			default:
				return nil, coreerr.ErrUnknownID()
			}
		case mrca != nil:
			if mrca.MRCA == nil {
				return nil, coreerr.Newf(coreerr.BadRequest, "induced_subtree: node id %q did not resolve on both sides", id)
			}
			seeds = append(seeds, mrca.MRCA)
		default:
			return nil, coreerr.ErrNotFound(noMatch.NodeID)
		}
	}

	studies := map[string]bool{}
	collect := func(n *synth.SynthNode) {
		for _, ref := range allRefs(n) {
			if key, ok := tree.Intern.Lookup(ref); ok {
				studies[key.StudyID] = true
			}
		}
	}

	root := buildContraction(tree, seeds)
	var sb strings.Builder
	writeContraction(&sb, root, req.Label, c.Taxa, collect)
	sb.WriteString(";")
	out.Newick = sb.String()
	for s := range studies {
		out.SupportingStudies = append(out.SupportingStudies, s)
	}

	log.Info("induced_subtree: resolved", zap.Int("num_seeds", len(seeds)))
	return out, nil
}

// contractedNode is one node of the path-union, degree-2-suppressed
// contraction of a SynthTree onto a seed set.
type contractedNode struct {
	node     *synth.SynthNode
	children []*contractedNode
}

// buildContraction marks every node on the path from each seed up to
// the seeds' overall MRCA (inclusive), then rebuilds the kept nodes
// into a tree — contiguous by construction, since "kept" is exactly
// every node between a seed and the MRCA. A kept node whose only kept
// child is a single node (degree 2, not a branch point) is then
// spliced out, leaving only the MRCA, branch points, and leaf seeds;
// a non-root seed with exactly one kept child is spliced out like any
// other degree-2 node.
func buildContraction(tree *synth.SynthTree, seeds []*synth.SynthNode) *contractedNode {
	mrca := seeds[0]
	for _, s := range seeds[1:] {
		mrca = tree.MRCA(mrca, s)
	}

	keep := map[int32]bool{mrca.ArenaIdx(): true}
	for _, s := range seeds {
		for n := s; n.ArenaIdx() != mrca.ArenaIdx(); {
			keep[n.ArenaIdx()] = true
			p, ok := tree.Parent(n)
			if !ok {
				break
			}
			n = p
		}
	}

	var build func(n *synth.SynthNode) *contractedNode
	build = func(n *synth.SynthNode) *contractedNode {
		out := &contractedNode{node: n}
		next := tree.Children(n)
		for c, ok := next(); ok; c, ok = next() {
			if keep[c.ArenaIdx()] {
				out.children = append(out.children, build(c))
			}
		}
		return out
	}
	raw := build(mrca)
	return suppressDegreeTwo(raw, true)
}

// suppressDegreeTwo collapses a node with exactly one child into that
// child, unless it is the contraction's root (root is always kept so
// the result is never empty, matching a single-seed request).
func suppressDegreeTwo(n *contractedNode, isRoot bool) *contractedNode {
	for i, c := range n.children {
		n.children[i] = suppressDegreeTwo(c, false)
	}
	if !isRoot && len(n.children) == 1 {
		return n.children[0]
	}
	return n
}

// writeContraction renders a contracted tree as newick, visiting every
// surviving node for supporting-study collection.
func writeContraction(sb *strings.Builder, n *contractedNode, label LabelFormat, taxa *taxonomy.Store, visit func(*synth.SynthNode)) {
	visit(n.node)
	if len(n.children) > 0 {
		sb.WriteString("(")
		for i, c := range n.children {
			if i > 0 {
				sb.WriteString(",")
			}
			writeContraction(sb, c, label, taxa, visit)
		}
		sb.WriteString(")")
	}
	sb.WriteString(formatLabel(label, n.node.ID, taxonNameFor(taxa, n.node)))
}
