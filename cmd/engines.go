package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/annobench/internal/engine"
)

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List the configured engine catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := engine.DefaultCatalog()
		if cfg.Engines.Catalog != "" {
			var err error
			cat, err = engine.LoadCatalog(cfg.Engines.Catalog)
			if err != nil {
				return err
			}
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tPROVIDER\tMODEL")
		for _, spec := range cat.Engines {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", spec.ID, spec.Provider, spec.Model)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(enginesCmd)
}
