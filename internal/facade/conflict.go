package facade

import (
	"strings"

	"go.uber.org/zap"

	"github.com/opentreeoflife/taxacore/internal/resolve"
	"github.com/opentreeoflife/taxacore/internal/synth"
)

// ConflictStatusRequest is the input of spec.md §6's
// `conflict/conflict-status`. Tree1 is the query tree, given either as
// a registered synth tree id (Tree1SynthID) or inline newick
// (Tree1Newick); Tree2 is always the registered synth tree the query
// is compared against.
type ConflictStatusRequest struct {
	Tree1SynthID string
	Tree1Newick  string
	Tree2SynthID string
}

// ConflictNodeStatus is the verdict for one query-tree node.
type ConflictNodeStatus struct {
	NodeID      string
	Status      string
	WitnessID   string
	WitnessName string
	Conflicting []string
}

// ConflictStatusResult is the response of `conflict/conflict-status`:
// a node-id -> verdict map, per spec.md §6.
type ConflictStatusResult struct {
	Statuses map[string]ConflictNodeStatus
}

// ConflictStatus implements spec.md §6's `conflict/conflict-status`:
// run the induced-subtree/conflict classification pipeline
// (internal/conflict) between the query tree and the chosen
// reference synth tree, and report each query node's verdict keyed by
// its node id.
func (c *Core) ConflictStatus(req ConflictStatusRequest) (*ConflictStatusResult, error) {
	reqID := requestID()
	log := c.logRequest("conflict/conflict-status", reqID, zap.String("tree2_synth_id", req.Tree2SynthID))

	c.Gate.RLock()
	defer c.Gate.RUnlock()

	ref, err := c.treeFor(req.Tree2SynthID)
	if err != nil {
		log.Warn("conflict/conflict-status: reference tree lookup failed", zap.Error(err))
		return nil, err
	}

	queryNewick := req.Tree1Newick
	if queryNewick == "" {
		queryTree, err := c.treeFor(req.Tree1SynthID)
		if err != nil {
			log.Warn("conflict/conflict-status: query tree lookup failed", zap.Error(err))
			return nil, err
		}
		queryNewick = renderPlainNewick(queryTree)
	}

	result, err := c.Conflict.Analyze(queryNewick, ref)
	if err != nil {
		log.Warn("conflict/conflict-status: analysis failed", zap.Error(err))
		return nil, err
	}

	out := &ConflictStatusResult{Statuses: map[string]ConflictNodeStatus{}}
	for _, verdict := range result.Classifications {
		status := ConflictNodeStatus{
			NodeID:      verdict.QueryNodeID,
			Status:      verdict.Kind.String(),
			WitnessID:   verdict.WitnessID,
			Conflicting: verdict.Conflicting,
		}
		status.WitnessName = c.witnessName(verdict.WitnessID)
		out.Statuses[verdict.QueryNodeID] = status
	}

	log.Info("conflict/conflict-status: resolved", zap.Int("num_nodes", len(out.Statuses)))
	return out, nil
}

// witnessName resolves an R′ witness node id to its backing taxon's
// canonical name, when the id is ott-backed; empty otherwise (an mrca
// stand-in or a bare source-study label has no taxon name).
func (c *Core) witnessName(witnessID string) string {
	id, ok, overflow := resolve.ParseOttID(witnessID)
	if !ok || overflow {
		return ""
	}
	t, ok := c.Taxa.LookupByID(id)
	if !ok {
		return ""
	}
	return t.Name
}

// renderPlainNewick renders an entire registered synth tree as
// ott-id-labeled newick, the shape internal/conflict.ParseQueryTree
// expects when the query side of a conflict-status request is itself
// a registered tree rather than inline newick.
func renderPlainNewick(tree *synth.SynthTree) string {
	var sb strings.Builder
	var write func(n *synth.SynthNode)
	write = func(n *synth.SynthNode) {
		next := tree.Children(n)
		var kids []*synth.SynthNode
		for kid, ok := next(); ok; kid, ok = next() {
			kids = append(kids, kid)
		}
		if len(kids) > 0 {
			sb.WriteString("(")
			for i, kid := range kids {
				if i > 0 {
					sb.WriteString(",")
				}
				write(kid)
			}
			sb.WriteString(")")
		}
		sb.WriteString(n.ID)
	}
	write(tree.Root())
	sb.WriteString(";")
	return sb.String()
}
