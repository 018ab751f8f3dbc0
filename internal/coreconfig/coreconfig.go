// Package coreconfig is the static startup configuration for a
// taxacore process: where the taxonomy and synth-tree directories
// live on disk, the TNRS/synth suppression flag masks, and the
// per-format subtree tip limits. Loading it is the one piece of
// "process-level configuration" spec.md treats as an external
// collaborator's job in production, but something has to build the
// CoreContext in tests and in the cmd/taxacore debug harness, and that
// bootstrap path is configured the same way the rest of the corpus
// configures its entrypoints.
package coreconfig

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

// Config is the root configuration struct, yaml-tagged for viper the
// way turahe-go-restfull/config.Config is.
type Config struct {
	Taxonomy   Taxonomy   `yaml:"taxonomy"`
	SynthTrees []SynthDir `yaml:"synthTrees"`
	Limits     Limits     `yaml:"limits"`
	Log        Log        `yaml:"log"`
}

// Taxonomy points at the on-disk taxonomy dump and the suppression
// masks spec.md §4.1 requires (is_suppressed_from_tnrs /
// is_suppressed_from_synth test against these).
type Taxonomy struct {
	Dir                string `yaml:"dir"`
	TNRSSuppressMask   uint32 `yaml:"tnrsSuppressMask"`
	SynthSuppressMask  uint32 `yaml:"synthSuppressMask"`
	ExpectedRootOttID  int64  `yaml:"expectedRootOttId"`
	ExpectedRootName   string `yaml:"expectedRootName"`
}

// SynthDir is one summary-tree's on-disk directory, matching the
// layout in spec.md §6: config, labelled_supertree/, annotated_supertree/,
// subproblems/.
type SynthDir struct {
	SynthID             string `yaml:"synthId"`
	Dir                 string `yaml:"dir"`
	LabelledSupertree   string `yaml:"labelledSupertree"`
	BrokenTaxa          string `yaml:"brokenTaxa"`
	Annotations         string `yaml:"annotations"`
	ContestingTrees     string `yaml:"contestingTrees"`
}

// Limits carries the default tip caps from spec.md §5.
type Limits struct {
	NewickSubtreeTips  int `yaml:"newickSubtreeTips"`
	ArgusonSubtreeTips int `yaml:"argusonSubtreeTips"`
}

// Log is the logging sub-config, following turahe-go-restfull's
// config.Log shape (trimmed to the fields this module actually uses).
type Log struct {
	Level string `yaml:"level"`
}

// DefaultLimits matches the defaults named in spec.md §5.
func DefaultLimits() Limits {
	return Limits{NewickSubtreeTips: 100_000, ArgusonSubtreeTips: 25_000}
}

// DefaultMasks returns the suppression masks used when no config
// overrides them: not_otu|environmental|viral|hidden|unplaced|was_container
// for TNRS, and not_otu|environmental|viral|hidden|unplaced|merged|
// inconsistent|unclassified for synth, matching the flag set in
// spec.md §3.
func DefaultMasks() (tnrs uint32, synth uint32) {
	tnrs = taxonomy.FlagNotOTU | taxonomy.FlagEnvironmental | taxonomy.FlagViral |
		taxonomy.FlagHidden | taxonomy.FlagUnplaced | taxonomy.FlagWasContainer
	synth = taxonomy.FlagNotOTU | taxonomy.FlagEnvironmental | taxonomy.FlagViral |
		taxonomy.FlagHidden | taxonomy.FlagUnplaced | taxonomy.FlagMerged |
		taxonomy.FlagInconsistent | taxonomy.FlagUnclassified
	return
}

// Load reads a YAML config file at path using viper, filling in
// documented defaults for anything the file omits.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	tnrsMask, synthMask := DefaultMasks()
	v.SetDefault("limits.newickSubtreeTips", 100_000)
	v.SetDefault("limits.argusonSubtreeTips", 25_000)
	v.SetDefault("taxonomy.tnrsSuppressMask", tnrsMask)
	v.SetDefault("taxonomy.synthSuppressMask", synthMask)
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("coreconfig: reading %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("coreconfig: decoding %s: %w", path, err)
	}
	return &cfg, nil
}
