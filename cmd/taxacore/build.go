package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opentreeoflife/taxacore/internal/facade"
)

func init() {
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "load the configured taxonomy and synth trees, then print an about block",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, cfg, err := loadCore()
		if err != nil {
			return err
		}

		taxonomyAbout, err := core.TaxonomyAbout()
		if err != nil {
			return err
		}
		fmt.Printf("taxonomy: %s (root %q)\n", taxonomyAbout.Version, taxonomyAbout.RootName)

		for _, sd := range cfg.SynthTrees {
			about, err := core.About(sd.SynthID)
			if err != nil {
				return fmt.Errorf("about %s: %w", sd.SynthID, err)
			}
			printAbout(about)
		}
		if len(cfg.SynthTrees) == 0 {
			about, err := core.About("")
			if err != nil {
				return err
			}
			printAbout(about)
		}
		return nil
	},
}

func printAbout(about *facade.AboutResult) {
	fmt.Printf("synth %s: root=%s num_tips=%d num_source_studies=%d\n",
		about.SynthID, about.RootNodeID, about.RootNumTips, about.NumSourceStudies)
}
