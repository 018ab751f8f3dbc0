package synth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// DirLayout names the files RegisterDir reads under one synth tree's
// directory, matching spec.md §6's on-disk layout: a labelled
// supertree, its broken-taxa table, the annotations file, and the
// contesting-trees table. Any field left blank falls back to the
// conventional filename.
type DirLayout struct {
	TreeFile        string // default "labelled_supertree/labelled_supertree.tre"
	BrokenTaxaFile  string // default "labelled_supertree/broken_taxa.json"
	AnnotationsFile string // default "annotated_supertree/annotations.json"
	ContestingFile  string // default "subproblems/contesting-trees.json"
}

func (l DirLayout) withDefaults() DirLayout {
	if l.TreeFile == "" {
		l.TreeFile = filepath.Join("labelled_supertree", "labelled_supertree.tre")
	}
	if l.BrokenTaxaFile == "" {
		l.BrokenTaxaFile = filepath.Join("labelled_supertree", "broken_taxa.json")
	}
	if l.AnnotationsFile == "" {
		l.AnnotationsFile = filepath.Join("annotated_supertree", "annotations.json")
	}
	if l.ContestingFile == "" {
		l.ContestingFile = filepath.Join("subproblems", "contesting-trees.json")
	}
	return l
}

// RegisterDir reads one synth tree's on-disk directory and registers
// it under synthID, tolerating missing side-table files (a dump built
// before contesting-trees.json existed, for instance) but requiring
// the tree file itself.
func (s *Store) RegisterDir(synthID, dir string, layout DirLayout, isExtinct func(taxonomy.Id) bool) (*SynthTree, error) {
	layout = layout.withDefaults()

	treeFile, err := os.ReadFile(filepath.Join(dir, layout.TreeFile))
	if err != nil {
		return nil, fmt.Errorf("synth: reading tree file for %s: %w", synthID, err)
	}

	in := RegisterInput{
		SynthID:   synthID,
		TreeFile:  treeFile,
		IsExtinct: isExtinct,
	}
	in.BrokenTaxaJSON, err = readOptional(filepath.Join(dir, layout.BrokenTaxaFile))
	if err != nil {
		return nil, fmt.Errorf("synth: reading broken-taxa file for %s: %w", synthID, err)
	}
	in.AnnotationsJSON, err = readOptional(filepath.Join(dir, layout.AnnotationsFile))
	if err != nil {
		return nil, fmt.Errorf("synth: reading annotations file for %s: %w", synthID, err)
	}
	in.ContestingJSON, err = readOptional(filepath.Join(dir, layout.ContestingFile))
	if err != nil {
		return nil, fmt.Errorf("synth: reading contesting-trees file for %s: %w", synthID, err)
	}

	return s.RegisterSummary(in)
}

func readOptional(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}
