package synth

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// brokenTaxaFile is the decoded shape of labelled_supertree/broken_taxa.json:
// ott id string -> (mrca node id in this synth tree, attachment points).
type brokenTaxaFile map[string]brokenEntry

type brokenEntry struct {
	MRCA       string            `json:"mrca"`
	Attachment []attachmentEntry `json:"attachment_points"`
}

type attachmentEntry struct {
	Parent   string   `json:"parent"`
	Children []string `json:"children"`
}

// contestingFile is the decoded shape of subproblems/contesting-trees.json:
// broken-taxon id string -> list of (source tree id, attachment points).
type contestingFile map[string][]contestingEntryJSON

type contestingEntryJSON struct {
	SourceTreeID string            `json:"source_tree_id"`
	Attachment   []attachmentEntry `json:"attachment_points"`
}

func parseOttIDKey(key string) (taxonomy.Id, bool) {
	key = strings.TrimPrefix(key, "ott")
	n, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, false
	}
	return taxonomy.Id(n), true
}

func toAttachmentPoints(raw []attachmentEntry) []AttachmentPoint {
	out := make([]AttachmentPoint, 0, len(raw))
	for _, a := range raw {
		out = append(out, AttachmentPoint{ParentNodeName: a.Parent, ChildNodeNames: a.Children})
	}
	return out
}

// applyBrokenTaxa decodes broken_taxa.json into the tree's broken-taxon
// side table.
func (t *SynthTree) applyBrokenTaxa(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	var doc brokenTaxaFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for key, entry := range doc {
		id, ok := parseOttIDKey(key)
		if !ok {
			continue
		}
		t.brokenIndex[id] = &BrokenTaxon{
			OttID:      id,
			MRCANodeID: entry.MRCA,
			Attachment: toAttachmentPoints(entry.Attachment),
		}
	}
	return nil
}

// applyContesting decodes contesting-trees.json into the tree's
// contesting-trees table.
func (t *SynthTree) applyContesting(raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	var doc contestingFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for key, entries := range doc {
		id, ok := parseOttIDKey(key)
		if !ok {
			continue
		}
		for _, e := range entries {
			t.contesting[id] = append(t.contesting[id], ContestingEntry{
				SourceTreeID: e.SourceTreeID,
				Attachment:   toAttachmentPoints(e.Attachment),
			})
		}
	}
	return nil
}
