package taxonomy

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// rankByName inverts rankNames for taxonomy.tsv's rank column, which
// spells ranks out as lowercase words.
var rankByName = func() map[string]Rank {
	m := make(map[string]Rank, len(rankNames))
	for r, name := range rankNames {
		m[name] = Rank(r)
	}
	return m
}()

// LoadFromDir builds a Store from an on-disk taxonomy directory in
// the OTT layout: a pipe-delimited taxonomy.tsv (uid|parent_uid|name|
// rank|sourceinfo|uniqname|flags) and an optional synonyms.tsv
// (uid|name|type|sourceinfo). Rows must appear in an order where a
// taxon's parent has already been seen — true of every released OTT
// dump, which lists the root first and walks outward breadth-first.
func LoadFromDir(dir string, tnrsSuppressMask, synthSuppressMask Flag) (*Store, error) {
	s := NewStore(tnrsSuppressMask, synthSuppressMask)

	f, err := os.Open(filepath.Join(dir, "taxonomy.tsv"))
	if err != nil {
		return nil, fmt.Errorf("taxonomy: opening taxonomy.tsv: %w", err)
	}
	defer f.Close()

	if err := loadTaxonomyRows(s, f); err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}

	if synFile, err := os.Open(filepath.Join(dir, "synonyms.tsv")); err == nil {
		defer synFile.Close()
		if err := loadSynonymRows(s, synFile); err != nil {
			return nil, fmt.Errorf("taxonomy: synonyms.tsv: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("taxonomy: opening synonyms.tsv: %w", err)
	}

	return s, nil
}

func loadTaxonomyRows(s *Store, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 && strings.HasPrefix(line, "uid") {
			continue // header row
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := splitTaxonomyRow(line)
		if len(cols) < 6 {
			return fmt.Errorf("taxonomy.tsv line %d: expected at least 6 columns, got %d", lineNo, len(cols))
		}

		uid, err := strconv.ParseInt(strings.TrimSpace(cols[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("taxonomy.tsv line %d: bad uid %q: %w", lineNo, cols[0], err)
		}
		var parentID Id
		if p := strings.TrimSpace(cols[1]); p != "" {
			pid, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return fmt.Errorf("taxonomy.tsv line %d: bad parent_uid %q: %w", lineNo, cols[1], err)
			}
			parentID = Id(pid)
		}
		name := strings.TrimSpace(cols[2])
		rank := rankByName[strings.TrimSpace(cols[3])]
		sources := parseSourceInfo(cols[4])
		var flags Flag
		if len(cols) > 6 {
			flags = parseFlagColumn(cols[6])
		}

		if err := s.AddTaxon(Id(uid), parentID, name, rank, sources, flags); err != nil {
			return fmt.Errorf("taxonomy.tsv line %d: %w", lineNo, err)
		}
	}
	return sc.Err()
}

// splitTaxonomyRow splits an OTT "\t|\t"-delimited row, tolerating a
// trailing bare "|" column some dumps carry.
func splitTaxonomyRow(line string) []string {
	parts := strings.Split(line, "\t|\t")
	if len(parts) > 0 {
		parts[len(parts)-1] = strings.TrimSuffix(parts[len(parts)-1], "\t|")
	}
	return parts
}

// parseSourceInfo parses a comma-separated "prefix:foreign_id,..."
// cross-reference column.
func parseSourceInfo(col string) []SourceRef {
	col = strings.TrimSpace(col)
	if col == "" {
		return nil
	}
	var out []SourceRef
	for _, entry := range strings.Split(col, ",") {
		prefix, id, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		out = append(out, SourceRef{Prefix: prefix, ForeignID: id})
	}
	return out
}

var flagColumnNames = map[string]Flag{
	"not_otu":            FlagNotOTU,
	"environmental":      FlagEnvironmental,
	"viral":              FlagViral,
	"hidden":             FlagHidden,
	"extinct":            FlagExtinct,
	"incertae_sedis":     FlagIncertaeSedis,
	"unplaced":           FlagUnplaced,
	"major_rank_conflict": FlagMajorRankConflict,
	"infraspecific":      FlagInfraspecific,
	"hybrid":             FlagHybrid,
	"sibling_higher":     FlagSiblingHigher,
	"barren":             FlagBarren,
	"merged":             FlagMerged,
	"was_container":      FlagWasContainer,
	"inconsistent":       FlagInconsistent,
	"unclassified":       FlagUnclassified,
	"forced_visible":     FlagForcedVisible,
	"edited":             FlagEdited,
	"tattered":           FlagTattered,
}

// parseFlagColumn parses the comma-separated direct-flag names in
// taxonomy.tsv's flags column; "_inherited" flags are never written
// here since they are recomputed from ancestors at load time.
func parseFlagColumn(col string) Flag {
	var out Flag
	for _, name := range strings.Split(col, ",") {
		name = strings.TrimSpace(name)
		if bit, ok := flagColumnNames[name]; ok {
			out |= bit
		}
	}
	return out
}

func loadSynonymRows(s *Store, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 && strings.HasPrefix(line, "uid") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := splitTaxonomyRow(line)
		if len(cols) < 2 {
			continue
		}
		uid, err := strconv.ParseInt(strings.TrimSpace(cols[0]), 10, 64)
		if err != nil {
			return fmt.Errorf("synonyms.tsv line %d: bad uid %q: %w", lineNo, cols[0], err)
		}
		name := strings.TrimSpace(cols[1])
		source := ""
		if len(cols) > 3 {
			source = strings.TrimSpace(cols[3])
		}
		t, ok := s.LookupByID(Id(uid))
		if !ok {
			continue // a synonym of a taxon this dump doesn't carry
		}
		t.Synonyms = append(t.Synonyms, Synonym{Name: name, Source: source, Accepted: t.Id})
	}
	return sc.Err()
}
