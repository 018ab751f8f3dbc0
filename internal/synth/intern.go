package synth

// StudyNodeKey is the (study-id, node-id) pair a source-edge mapping
// points at, e.g. study "ot_1000" node "node3".
type StudyNodeKey struct {
	StudyID string
	NodeID  string
}

// StudyNodeIntern is a dense index over StudyNodeKey, so a Mapping can
// store a uint32 instead of repeating two strings per edge. Mutated
// only during register_summary, single-threaded (spec.md §5 "Shared
// resources").
type StudyNodeIntern struct {
	keys []StudyNodeKey
	ids  map[StudyNodeKey]uint32
}

func newStudyNodeIntern() *StudyNodeIntern {
	return &StudyNodeIntern{ids: make(map[StudyNodeKey]uint32)}
}

// Intern returns the dense index for key, assigning one if this is the
// first time key has been seen.
func (t *StudyNodeIntern) Intern(key StudyNodeKey) uint32 {
	if idx, ok := t.ids[key]; ok {
		return idx
	}
	idx := uint32(len(t.keys))
	t.keys = append(t.keys, key)
	t.ids[key] = idx
	return idx
}

// Lookup reverses Intern.
func (t *StudyNodeIntern) Lookup(idx uint32) (StudyNodeKey, bool) {
	if int(idx) >= len(t.keys) {
		return StudyNodeKey{}, false
	}
	return t.keys[idx], true
}

// Len reports the number of distinct study-node keys interned so far.
func (t *StudyNodeIntern) Len() int { return len(t.keys) }
