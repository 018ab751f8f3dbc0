package facade

import (
	"strings"

	"go.uber.org/zap"

	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// SubtreeFormat is the output shape requested by the `subtree`
// operation (spec.md §6: format ∈ {newick, arguson}).
type SubtreeFormat uint8

const (
	FormatNewick SubtreeFormat = iota
	FormatArguson
)

func (f SubtreeFormat) String() string {
	if f == FormatArguson {
		return "arguson"
	}
	return "newick"
}

// SubtreeRequest is the input of the `subtree` facade operation.
type SubtreeRequest struct {
	NodeID               string
	SynthID              string
	Format               SubtreeFormat
	Label                LabelFormat
	HeightLimit          int // 0 means unlimited
	IncludeAllNodeLabels bool
}

// ArgusonNode is the nested shape for format=arguson (spec.md §6);
// Children is nil for a leaf or a node cut off by HeightLimit.
type ArgusonNode struct {
	ID       string
	OttID    *int64
	NumTips  int
	Children []*ArgusonNode
}

// SubtreeResult bundles the requested representation with the two
// cross-cutting blocks every subtree-shaped response carries: which
// source studies informed any node in the walked subtree, and the
// encoded-study-node keys any per-node mapping referenced.
type SubtreeResult struct {
	Newick            string
	Arguson           *ArgusonNode
	SupportingStudies []string
	SourceIDMap       map[uint32]synth.StudyNodeKey
}

// Subtree implements spec.md §6's `subtree` operation: resolve
// node_id against the chosen synth tree, check its tip count against
// the configured limit for the requested format before walking (so a
// too-large request fails before any traversal starts, per spec.md
// §5's cancellation model), then render newick or arguson.
func (c *Core) Subtree(req SubtreeRequest) (*SubtreeResult, error) {
	reqID := requestID()
	log := c.logRequest("subtree", reqID, zap.String("node_id", req.NodeID), zap.String("format", req.Format.String()))

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	resolver, tree, err := c.resolverFor(req.SynthID)
	if err != nil {
		log.Warn("subtree: resolver setup failed", zap.Error(err))
		return nil, err
	}

	node, err := singleNode(resolver, req.NodeID)
	if err != nil {
		log.Warn("subtree: resolution failed", zap.Error(err))
		return nil, err
	}

	limit := c.Limits.NewickSubtreeTips
	if req.Format == FormatArguson {
		limit = c.Limits.ArgusonSubtreeTips
	}
	if node.NumTips > limit {
		return nil, coreerr.ErrTooLarge(req.Format.String(), limit)
	}

	result := &SubtreeResult{SourceIDMap: map[uint32]synth.StudyNodeKey{}}
	studies := map[string]bool{}
	collect := func(n *synth.SynthNode) {
		for _, ref := range allRefs(n) {
			if key, ok := tree.Intern.Lookup(ref); ok {
				result.SourceIDMap[ref] = key
				studies[key.StudyID] = true
			}
		}
	}

	switch req.Format {
	case FormatArguson:
		result.Arguson = buildArguson(tree, node, req, 0, collect)
	default:
		var sb strings.Builder
		writeNewick(&sb, tree, node, req, 0, c.Taxa, collect)
		sb.WriteString(";")
		result.Newick = sb.String()
	}

	for s := range studies {
		result.SupportingStudies = append(result.SupportingStudies, s)
	}
	log.Info("subtree: resolved", zap.Int("num_tips", node.NumTips))
	return result, nil
}

// allRefs returns every study-node ref a node's mappings carry, across
// all mapping kinds.
func allRefs(n *synth.SynthNode) []uint32 {
	var out []uint32
	if ref, ok := n.SupportedBy(); ok {
		out = append(out, ref)
	}
	if ref, ok := n.PartialPathOf(); ok {
		out = append(out, ref)
	}
	if ref, ok := n.Resolves(); ok {
		out = append(out, ref)
	}
	if ref, ok := n.Terminal(); ok {
		out = append(out, ref)
	}
	out = append(out, n.ConflictsWith()...)
	return out
}

func childrenOf(tree *synth.SynthTree, n *synth.SynthNode) []*synth.SynthNode {
	var out []*synth.SynthNode
	next := tree.Children(n)
	for c, ok := next(); ok; c, ok = next() {
		out = append(out, c)
	}
	return out
}

// writeNewick renders n and its descendants, honoring HeightLimit
// (beyond which a subtree is truncated to its cut-point label) and
// IncludeAllNodeLabels (spec.md §6: internal labels are otherwise
// ott<id> only when an OttId is present, omitted otherwise — this
// module always has an id string to fall back to, so internal nodes
// past the tip level get a label only when explicitly requested).
func writeNewick(sb *strings.Builder, tree *synth.SynthTree, n *synth.SynthNode, req SubtreeRequest, depth int, taxa *taxonomy.Store, visit func(*synth.SynthNode)) {
	visit(n)
	kids := childrenOf(tree, n)
	atLimit := req.HeightLimit > 0 && depth >= req.HeightLimit

	if len(kids) > 0 && !atLimit {
		sb.WriteString("(")
		for i, c := range kids {
			if i > 0 {
				sb.WriteString(",")
			}
			writeNewick(sb, tree, c, req, depth+1, taxa, visit)
		}
		sb.WriteString(")")
	}

	if len(kids) == 0 || req.IncludeAllNodeLabels || atLimit {
		sb.WriteString(formatLabel(req.Label, n.ID, taxonNameFor(taxa, n)))
	}
}

// taxonNameFor returns the taxon's canonical name backing n, if any.
func taxonNameFor(taxa *taxonomy.Store, n *synth.SynthNode) string {
	if n.OttID == nil {
		return ""
	}
	t, ok := taxa.LookupByID(*n.OttID)
	if !ok {
		return ""
	}
	return t.Name
}

func buildArguson(tree *synth.SynthTree, n *synth.SynthNode, req SubtreeRequest, depth int, visit func(*synth.SynthNode)) *ArgusonNode {
	visit(n)
	out := &ArgusonNode{ID: n.ID, NumTips: n.NumTips}
	if n.OttID != nil {
		v := int64(*n.OttID)
		out.OttID = &v
	}
	if req.HeightLimit > 0 && depth >= req.HeightLimit {
		return out
	}
	for _, c := range childrenOf(tree, n) {
		out.Children = append(out.Children, buildArguson(tree, c, req, depth+1, visit))
	}
	return out
}
