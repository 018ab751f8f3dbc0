package synth

import "encoding/json"

// annotationsFile is the decoded shape of annotated_supertree/annotations.json
// (spec.md §6 on-disk layout): per-node source-edge mappings keyed by
// study id.
type annotationsFile struct {
	Nodes map[string]nodeAnnotation `json:"nodes"`
}

type nodeAnnotation struct {
	SupportedBy   map[string]string   `json:"supported_by"`
	ConflictsWith map[string][]string `json:"conflicts_with"`
	PartialPathOf map[string]string   `json:"partial_path_of"`
	Resolves      map[string]string   `json:"resolves"`
	Terminal      map[string]string   `json:"terminal"`
}

// applyAnnotations decodes raw annotations JSON and, for every node it
// names, interns each (study-id, node-id) pair and appends the
// corresponding Mapping to that SynthNode — single-threaded, during
// register_summary only (spec.md §5).
func (t *SynthTree) applyAnnotations(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	var doc annotationsFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for nodeID, ann := range doc.Nodes {
		idx, ok := t.idIndex[nodeID]
		if !ok {
			continue // annotation for a node not present in this tree: ignore
		}
		node := &t.arena[idx]
		addSingle := func(kind MappingKind, m map[string]string) {
			for studyID, srcNodeID := range m {
				ref := t.Intern.Intern(StudyNodeKey{StudyID: studyID, NodeID: srcNodeID})
				node.Mappings = append(node.Mappings, Mapping{Kind: kind, Ref: ref})
			}
		}
		addSingle(SupportedBy, ann.SupportedBy)
		addSingle(PartialPathOf, ann.PartialPathOf)
		addSingle(Resolves, ann.Resolves)
		addSingle(Terminal, ann.Terminal)
		for studyID, srcNodeIDs := range ann.ConflictsWith {
			for _, srcNodeID := range srcNodeIDs {
				ref := t.Intern.Intern(StudyNodeKey{StudyID: studyID, NodeID: srcNodeID})
				node.Mappings = append(node.Mappings, Mapping{Kind: ConflictsWith, Ref: ref})
			}
		}
		node.WasUncontested = len(ann.ConflictsWith) == 0 && (len(ann.SupportedBy) > 0 || len(ann.Terminal) > 0)
	}
	return nil
}
