package facade

import (
	"github.com/opentreeoflife/taxacore/internal/coreerr"
	"github.com/opentreeoflife/taxacore/internal/resolve"
	"github.com/opentreeoflife/taxacore/internal/synth"
)

// singleNode resolves one node-id string against resolver to a synth
// node, applying spec.md §7's error mapping for the statuses that
// short-circuit to a structured error. A broken id is not an error
// here: it resolves to its synth MRCA stand-in, per spec.md §7
// ("returned as data unless the caller explicitly sets
// fail-on-broken" — none of the read-only operations wired in this
// package expose that flag).
func singleNode(resolver *resolve.Resolver, nodeID string) (*synth.SynthNode, error) {
	ott, mrca, noMatch := resolver.Resolve(nodeID)
	switch {
	case ott != nil:
		return nodeFromOttLookup(*ott)
	case mrca != nil:
		if mrca.MRCA == nil {
			return nil, coreerr.Newf(coreerr.BadRequest, "node id %q: mrca did not resolve on both sides", nodeID)
		}
		return mrca.MRCA, nil
	default:
		return nil, coreerr.ErrNotFound(noMatch.NodeID)
	}
}

func nodeFromOttLookup(lookup resolve.OttLookup) (*synth.SynthNode, error) {
	switch lookup.Status {
	case resolve.StatusFound:
		return lookup.Node, nil
	case resolve.StatusBroken:
		return lookup.MRCA, nil
	case resolve.StatusPruned:
		return nil, coreerr.ErrPrunedOttID(int64(lookup.ID))
	case resolve.StatusInvalidID:
		return nil, coreerr.ErrInvalidOttID(int64(lookup.ID))
	default:
		return nil, coreerr.ErrUnknownID()
	}
}
