package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opentreeoflife/taxacore/internal/facade"
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(
		nodeInfoCmd,
		subtreeCmd,
		mrcaCmd,
		matchNamesCmd,
		taxonInfoCmd,
	)
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "run one facade operation against the configured taxonomy and synth trees",
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

var nodeInfoCmd = &cobra.Command{
	Use:   "node-info",
	Short: "run node_info for one node id",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, _, err := loadCore()
		if err != nil {
			return err
		}
		nodeID, _ := cmd.Flags().GetString("node-id")
		synthID, _ := cmd.Flags().GetString("synth-id")
		lineage, _ := cmd.Flags().GetBool("lineage")
		result, err := core.NodeInfo(facade.NodeInfoRequest{NodeID: nodeID, SynthID: synthID, IncludeLineage: lineage})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var subtreeCmd = &cobra.Command{
	Use:   "subtree",
	Short: "run subtree for one node id",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, _, err := loadCore()
		if err != nil {
			return err
		}
		nodeID, _ := cmd.Flags().GetString("node-id")
		synthID, _ := cmd.Flags().GetString("synth-id")
		format, _ := cmd.Flags().GetString("format")
		label, _ := cmd.Flags().GetString("label")

		req := facade.SubtreeRequest{NodeID: nodeID, SynthID: synthID, Label: parseLabel(label)}
		switch format {
		case "arguson":
			req.Format = facade.FormatArguson
		default:
			req.Format = facade.FormatNewick
		}
		result, err := core.Subtree(req)
		if err != nil {
			return err
		}
		if req.Format == facade.FormatNewick {
			fmt.Println(result.Newick)
			return nil
		}
		return printJSON(result.Arguson)
	},
}

var mrcaCmd = &cobra.Command{
	Use:   "mrca",
	Short: "run mrca over a comma-separated list of node ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, _, err := loadCore()
		if err != nil {
			return err
		}
		nodeIDs, _ := cmd.Flags().GetString("node-ids")
		synthID, _ := cmd.Flags().GetString("synth-id")
		result, err := core.Mrca(facade.MrcaRequest{NodeIDs: splitCSV(nodeIDs), SynthID: synthID})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var matchNamesCmd = &cobra.Command{
	Use:   "match-names",
	Short: "run tnrs/match_names over a comma-separated list of names",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, _, err := loadCore()
		if err != nil {
			return err
		}
		names, _ := cmd.Flags().GetString("names")
		context, _ := cmd.Flags().GetString("context")
		approx, _ := cmd.Flags().GetBool("approximate")
		result, err := core.MatchNames(facade.MatchNamesRequest{
			Names:                 splitCSV(names),
			ContextName:            context,
			DoApproximateMatching: approx,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var taxonInfoCmd = &cobra.Command{
	Use:   "taxon-info",
	Short: "run taxonomy/taxon_info for one ott id",
	RunE: func(cmd *cobra.Command, args []string) error {
		core, _, err := loadCore()
		if err != nil {
			return err
		}
		ottID, _ := cmd.Flags().GetInt64("ott-id")
		lineage, _ := cmd.Flags().GetBool("lineage")
		children, _ := cmd.Flags().GetBool("children")
		result, err := core.TaxonInfo(facade.TaxonInfoRequest{
			OttID:           ottID,
			IncludeLineage:  lineage,
			IncludeChildren: children,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	nodeInfoCmd.Flags().String("node-id", "", "node id, e.g. ott123 or mrcaott1ott2")
	nodeInfoCmd.Flags().String("synth-id", "", "synth tree id (default: highest version)")
	nodeInfoCmd.Flags().Bool("lineage", false, "include the node's taxonomic lineage")

	subtreeCmd.Flags().String("node-id", "", "node id")
	subtreeCmd.Flags().String("synth-id", "", "synth tree id")
	subtreeCmd.Flags().String("format", "newick", "newick|arguson")
	subtreeCmd.Flags().String("label", "name-and-id", "id-only|name-only|name-and-id")

	mrcaCmd.Flags().String("node-ids", "", "comma-separated node ids")
	mrcaCmd.Flags().String("synth-id", "", "synth tree id")

	matchNamesCmd.Flags().String("names", "", "comma-separated names")
	matchNamesCmd.Flags().String("context", "", "context name to narrow the search")
	matchNamesCmd.Flags().Bool("approximate", false, "fall back to fuzzy matching")

	taxonInfoCmd.Flags().Int64("ott-id", 0, "ott id")
	taxonInfoCmd.Flags().Bool("lineage", false, "include lineage")
	taxonInfoCmd.Flags().Bool("children", false, "include immediate children")
}

func parseLabel(s string) facade.LabelFormat {
	switch s {
	case "id-only":
		return facade.LabelIDOnly
	case "name-only":
		return facade.LabelNameOnly
	default:
		return facade.LabelNameAndID
	}
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}
