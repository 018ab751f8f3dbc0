// Package resolve implements the node-name resolver of spec.md §4.5:
// parsing the two recognized node-id shapes ("ott<digits>" and
// "mrcaott<digits>ott<digits>"), id forwarding, and broken/pruned
// classification against a chosen synth tree. Grounded on
// original_source/otc/ws/find_node.h and find_node.cpp.
package resolve

import (
	"regexp"
	"strconv"

	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

var (
	ottPattern  = regexp.MustCompile(`^ott(\d+)$`)
	mrcaPattern = regexp.MustCompile(`^mrcaott(\d+)ott(\d+)$`)
)

// Status is the outcome tag of resolving one ott id.
type Status uint8

const (
	StatusBadID Status = iota
	StatusInvalidID
	StatusPruned
	StatusBroken
	StatusFound
)

// OttLookup is the result of resolving one "ott<digits>" id against a
// taxonomy and a chosen synth tree.
type OttLookup struct {
	Status        Status
	ID            taxonomy.Id // the id resolved to, after any forwarding
	ForwardedFrom taxonomy.Id // non-zero iff forwarding was applied
	Node          *synth.SynthNode
	MRCA          *synth.SynthNode // set when Status == StatusBroken
}

// MrcaLookup is the result of resolving "mrcaott<digits>ott<digits>".
type MrcaLookup struct {
	First  OttLookup
	Second OttLookup
	MRCA   *synth.SynthNode // nil unless both sides are StatusFound
}

// NoMatch reports that a node-id string matched neither recognized
// shape.
type NoMatch struct{ NodeID string }

// maxOttIDDigits bounds parseable id width; the configured taxonomy's
// actual max id is a tighter check performed by the taxonomy lookup
// itself, but an absurdly long digit run is rejected before even
// attempting int64 parsing (spec.md §4.5 rule 1, "digits overflow").
const maxOttIDDigits = 18

// ParseOttID recognizes the "ott<digits>" shape without resolving it.
// ok is false for anything that does not match the shape at all (use
// NoMatch in that case); a match with too many digits returns ok=true,
// overflow=true.
func ParseOttID(nodeID string) (id taxonomy.Id, ok bool, overflow bool) {
	m := ottPattern.FindStringSubmatch(nodeID)
	if m == nil {
		return 0, false, false
	}
	if len(m[1]) > maxOttIDDigits {
		return 0, true, true
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, true, true
	}
	return taxonomy.Id(n), true, false
}

// ParseMrcaID recognizes the "mrcaott<digits>ott<digits>" shape.
func ParseMrcaID(nodeID string) (first, second taxonomy.Id, ok bool) {
	m := mrcaPattern.FindStringSubmatch(nodeID)
	if m == nil {
		return 0, 0, false
	}
	a, err1 := strconv.ParseInt(m[1], 10, 64)
	b, err2 := strconv.ParseInt(m[2], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return taxonomy.Id(a), taxonomy.Id(b), true
}

// Resolver ties a taxonomy store to a chosen synth tree for node-id
// resolution.
type Resolver struct {
	taxa  *taxonomy.Store
	synth *synth.SynthTree
}

// New builds a resolver over the given taxonomy and synth tree.
func New(taxa *taxonomy.Store, tree *synth.SynthTree) *Resolver {
	return &Resolver{taxa: taxa, synth: tree}
}

// ResolveOttID applies spec.md §4.5's resolution rules in order: parse,
// forward, map-to-synth, broken-check.
func (r *Resolver) ResolveOttID(nodeID string) OttLookup {
	id, matched, overflow := ParseOttID(nodeID)
	if !matched {
		return OttLookup{Status: StatusBadID}
	}
	if overflow {
		return OttLookup{Status: StatusBadID}
	}

	current := id
	var forwardedFrom taxonomy.Id
	if _, ok := r.taxa.LookupByID(id); !ok {
		fwd, ok := r.taxa.UnforwardID(id)
		if !ok {
			return OttLookup{Status: StatusInvalidID, ID: id}
		}
		current = fwd
		forwardedFrom = id
	}

	node, foundInSynth := r.synth.NodeByOttID(current)
	if foundInSynth {
		return OttLookup{Status: StatusFound, ID: current, ForwardedFrom: forwardedFrom, Node: node}
	}

	broken, isBroken := r.synth.BrokenByOttID(current)
	if !isBroken {
		return OttLookup{Status: StatusPruned, ID: current, ForwardedFrom: forwardedFrom}
	}
	mrcaNode, _ := r.synth.NodeByID(broken.MRCANodeID)
	return OttLookup{Status: StatusBroken, ID: current, ForwardedFrom: forwardedFrom, MRCA: mrcaNode}
}

// ResolveMrcaID resolves "mrcaott<digits>ott<digits>": each side via
// ResolveOttID, then the synth-tree MRCA of both, set only when both
// sides are StatusFound (spec.md §4.5).
func (r *Resolver) ResolveMrcaID(first, second taxonomy.Id) MrcaLookup {
	firstRes := r.ResolveOttID("ott" + strconv.FormatInt(int64(first), 10))
	secondRes := r.ResolveOttID("ott" + strconv.FormatInt(int64(second), 10))
	out := MrcaLookup{First: firstRes, Second: secondRes}
	if firstRes.Status == StatusFound && secondRes.Status == StatusFound {
		out.MRCA = r.synth.MRCA(firstRes.Node, secondRes.Node)
	}
	return out
}

// Resolve dispatches a raw node-id string to ResolveOttID,
// ResolveMrcaID, or reports NoMatch.
func (r *Resolver) Resolve(nodeID string) (ott *OttLookup, mrca *MrcaLookup, noMatch *NoMatch) {
	if _, matched, _ := ParseOttID(nodeID); matched {
		res := r.ResolveOttID(nodeID)
		return &res, nil, nil
	}
	if first, second, matched := ParseMrcaID(nodeID); matched {
		res := r.ResolveMrcaID(first, second)
		return nil, &res, nil
	}
	return nil, nil, &NoMatch{NodeID: nodeID}
}

// FilterReason is the caller-configured set of lookup statuses that
// find_nodes_for_ids tolerates in a batch without failing it outright.
type FilterReason struct {
	AllowPruned  bool
	AllowBroken  bool
	AllowInvalid bool
}

// BatchResult partitions a find_nodes_for_ids call (spec.md §4.5):
// Resolved holds nodes found outright; Broken maps an id to its synth
// MRCA stand-in; Filtered maps an id to the coreerr.Reason explaining
// why it was excluded.
type BatchResult struct {
	Resolved map[taxonomy.Id]*synth.SynthNode
	Broken   map[taxonomy.Id]*synth.SynthNode
	Filtered map[taxonomy.Id]coreerr.Reason
}

// FindNodesForIDs resolves every id in ids, partitioning the results.
// The batch as a whole is rejected (error returned, no partial result)
// unless every unresolved id's reason is allowed by filter.
func (r *Resolver) FindNodesForIDs(ids []taxonomy.Id, filter FilterReason) (*BatchResult, error) {
	result := &BatchResult{
		Resolved: make(map[taxonomy.Id]*synth.SynthNode),
		Broken:   make(map[taxonomy.Id]*synth.SynthNode),
		Filtered: make(map[taxonomy.Id]coreerr.Reason),
	}
	for _, id := range ids {
		res := r.ResolveOttID("ott" + strconv.FormatInt(int64(id), 10))
		switch res.Status {
		case StatusFound:
			result.Resolved[id] = res.Node
		case StatusBroken:
			if !filter.AllowBroken {
				return nil, coreerr.New(coreerr.Broken, "id is broken in the selected synthesis").WithDetail("ott_id", int64(id))
			}
			result.Broken[id] = res.MRCA
			result.Filtered[id] = coreerr.Broken
		case StatusPruned:
			if !filter.AllowPruned {
				return nil, coreerr.ErrPrunedOttID(int64(id))
			}
			result.Filtered[id] = coreerr.PrunedOttID
		case StatusInvalidID:
			if !filter.AllowInvalid {
				return nil, coreerr.ErrInvalidOttID(int64(id))
			}
			result.Filtered[id] = coreerr.InvalidOttID
		case StatusBadID:
			return nil, coreerr.ErrUnknownID()
		}
	}
	return result, nil
}
