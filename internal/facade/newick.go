package facade

import "strings"

// LabelFormat is one of spec.md §6's three newick label conventions.
type LabelFormat uint8

const (
	LabelIDOnly LabelFormat = iota
	LabelNameOnly
	LabelNameAndID
)

// needsQuoting reports whether name contains a character that forces
// the single-quote escaping rule (spec.md §6: "wrap in single quotes
// and double embedded quotes if the name contains any of
// ( ) , : ; whitespace").
func needsQuoting(name string) bool {
	return strings.ContainsAny(name, "(),: ;\t\n")
}

// escapeNewickLabel applies spec.md §6's node-name escaping rule.
func escapeNewickLabel(name string) string {
	if !needsQuoting(name) {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// formatLabel renders one node's label per the requested format. id is
// always present (an ott<n> or source-study id string); name is empty
// for nodes with no associated taxon name, in which case id-only
// formatting is used even when name-and-id was requested, per spec.md
// §6 ("unsupported internal-node labels are ott<id>... otherwise the
// id-string").
func formatLabel(format LabelFormat, id, name string) string {
	switch format {
	case LabelNameOnly:
		if name != "" {
			return escapeNewickLabel(name)
		}
		return id
	case LabelNameAndID:
		if name != "" {
			return escapeNewickLabel(name) + "_" + id
		}
		return id
	default:
		return id
	}
}
