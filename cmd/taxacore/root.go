package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opentreeoflife/taxacore/internal/coreconfig"
	"github.com/opentreeoflife/taxacore/internal/corelog"
	"github.com/opentreeoflife/taxacore/internal/facade"
	"github.com/opentreeoflife/taxacore/internal/synth"
	"github.com/opentreeoflife/taxacore/internal/taxonomy"
)

const defaultConfigFile = "config.yaml"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "taxacore",
	Short: "load a taxonomy + synth-tree directory and query it",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Usage()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default is %s)", defaultConfigFile))
}

// loadCore reads the configured taxonomy and every configured synth
// tree directory, then wires them into one facade.Core the way
// cmd/taxacore's subcommands share setup.
func loadCore() (*facade.Core, *coreconfig.Config, error) {
	path := configFile
	if path == "" {
		path = defaultConfigFile
	}
	cfg, err := coreconfig.Load(path)
	if err != nil {
		return nil, nil, err
	}

	log := corelog.Init(cfg.Log.Level)

	log.Info("loading taxonomy", zap.String("dir", cfg.Taxonomy.Dir))
	taxa, err := taxonomy.LoadFromDir(cfg.Taxonomy.Dir, taxonomy.Flag(cfg.Taxonomy.TNRSSuppressMask), taxonomy.Flag(cfg.Taxonomy.SynthSuppressMask))
	if err != nil {
		return nil, nil, fmt.Errorf("loading taxonomy: %w", err)
	}

	synths := synth.NewStore()
	isExtinct := func(id taxonomy.Id) bool {
		t, ok := taxa.LookupByID(id)
		return ok && t.Flags.HasAny(taxonomy.FlagExtinct|taxonomy.FlagExtinctInherited)
	}
	for _, sd := range cfg.SynthTrees {
		log.Info("loading synth tree", zap.String("synth_id", sd.SynthID), zap.String("dir", sd.Dir))
		layout := synth.DirLayout{
			TreeFile:        sd.LabelledSupertree,
			BrokenTaxaFile:  sd.BrokenTaxa,
			AnnotationsFile: sd.Annotations,
			ContestingFile:  sd.ContestingTrees,
		}
		if _, err := synths.RegisterDir(sd.SynthID, sd.Dir, layout, isExtinct); err != nil {
			return nil, nil, fmt.Errorf("loading synth tree %s: %w", sd.SynthID, err)
		}
	}

	core, err := facade.NewCore(taxa, synths, cfg.Limits, 256)
	if err != nil {
		return nil, nil, fmt.Errorf("wiring core: %w", err)
	}
	return core, cfg, nil
}
