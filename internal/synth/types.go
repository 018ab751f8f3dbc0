// Package synth implements the synth-tree store of spec.md §4.4: the
// rooted summary tree(s) produced by synthesis, each node carrying
// source-edge mappings back to the studies that informed it, plus the
// broken-taxon and contesting-trees side tables. Grounded on
// original_source/otc/ws/tolws.h, tolws.cpp, trees_to_serve.h/.cpp.
package synth

import "github.com/opentreeoflife/taxacore/internal/taxonomy"

// MappingKind is the kind tag of one source-edge mapping.
// supported_by/partial_path_of/resolves/terminal are single-valued per
// source study; conflicts_with is multi-valued (spec.md §3, §9 Open
// Questions).
type MappingKind uint8

const (
	SupportedBy MappingKind = iota
	ConflictsWith
	PartialPathOf
	Resolves
	Terminal
)

// Mapping is one (kind, interned-study-node-index) pair, kept in a
// flat per-node vector per spec.md §9 "Source-edge mappings": minimal
// memory, trivial to (de)serialize, with typed accessors layered on
// top.
type Mapping struct {
	Kind MappingKind
	Ref  uint32 // index into the tree's StudyNodeIntern table
}

// SynthNode is one node of a summary tree.
type SynthNode struct {
	// ID is one of: "ott<id>" (inherited from a taxon), "mrca<id1>ott<id2>"
	// (synthesized), or a source-study node label.
	ID             string
	OttID          *taxonomy.Id // non-nil when this node is taxon-backed
	NumTips        int
	ExtinctMark    bool
	WasUncontested bool
	Mappings       []Mapping

	TravEnter int64
	TravExit  int64
	Depth     int32

	// NearestTaxonID is the taxon reached by walking up from this node
	// until a taxon-backed ancestor is found (SPEC_FULL.md §3
	// supplement from original_source/otc/ws/tolws.h).
	NearestTaxonID *taxonomy.Id

	arenaIdx int32
	parent   int32
	children []int32
}

// SupportedBy returns the single supported_by study-node ref, if any.
func (n *SynthNode) SupportedBy() (uint32, bool) { return n.singleValued(SupportedBy) }

// PartialPathOf returns the single partial_path_of study-node ref, if
// any.
func (n *SynthNode) PartialPathOf() (uint32, bool) { return n.singleValued(PartialPathOf) }

// Resolves returns the single resolves study-node ref, if any.
func (n *SynthNode) Resolves() (uint32, bool) { return n.singleValued(Resolves) }

// Terminal returns the single terminal study-node ref, if any.
func (n *SynthNode) Terminal() (uint32, bool) { return n.singleValued(Terminal) }

// ConflictsWith returns every conflicts_with study-node ref.
func (n *SynthNode) ConflictsWith() []uint32 {
	var out []uint32
	for _, m := range n.Mappings {
		if m.Kind == ConflictsWith {
			out = append(out, m.Ref)
		}
	}
	return out
}

// ArenaIdx returns n's dense arena index, for callers building their
// own contraction over index sets (e.g. internal/facade's
// induced_subtree, which seeds from arbitrary resolved nodes rather
// than an ott-id leaf set).
func (n *SynthNode) ArenaIdx() int32 { return n.arenaIdx }

func (n *SynthNode) singleValued(kind MappingKind) (uint32, bool) {
	for _, m := range n.Mappings {
		if m.Kind == kind {
			return m.Ref, true
		}
	}
	return 0, false
}

// AttachmentPoint is one (parent-node-name, child-node-names) pair
// describing where a broken taxon's pieces reattach.
type AttachmentPoint struct {
	ParentNodeName string
	ChildNodeNames []string
}

// BrokenTaxon records that an OttId's monophyletic group was not
// recovered as a connected subtree in this synthesis.
type BrokenTaxon struct {
	OttID      taxonomy.Id
	MRCANodeID string
	Attachment []AttachmentPoint
}

// ContestingEntry is one source tree's attempt at a broken taxon's
// attachment.
type ContestingEntry struct {
	SourceTreeID string
	Attachment   []AttachmentPoint
}
