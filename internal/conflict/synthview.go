package conflict

import (
	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// synthView adapts *synth.SynthTree to treeView.
type synthView struct{ t *synth.SynthTree }

func (s synthView) NumNodes() int32         { return s.t.NumNodes() }
func (s synthView) RootIdx() int32          { return s.t.RootIdx() }
func (s synthView) ParentIdx(i int32) (int32, bool) { return s.t.ParentIdx(i) }
func (s synthView) ChildIdx(i int32) []int32 { return s.t.ChildIdx(i) }
func (s synthView) DepthAt(i int32) int32    { return s.t.NodeByArenaIdx(i).Depth }
func (s synthView) TravEnterAt(i int32) int64 { return s.t.NodeByArenaIdx(i).TravEnter }
func (s synthView) TravExitAt(i int32) int64  { return s.t.NodeByArenaIdx(i).TravExit }
func (s synthView) LabelAt(i int32) string    { return s.t.NodeByArenaIdx(i).ID }
func (s synthView) OttIDAt(i int32) (taxonomy.Id, bool) {
	n := s.t.NodeByArenaIdx(i)
	if n.OttID == nil {
		return 0, false
	}
	return *n.OttID, true
}
