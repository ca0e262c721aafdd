package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"faithatlas/internal/tools/constellation"
)

func newConstellationCmd(e *env) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "constellation",
		Short: "Cluster the cross-link graph and write it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := e.loadCatalog()
			if err != nil {
				return err
			}

			g, err := constellation.Export(catalog, outPath)
			if err != nil {
				return fmt.Errorf("export constellation: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote constellation to %s (%d clusters, %d pages, %d links)\n",
				outPath, g.Totals.Clusters, g.Totals.Pages, g.Totals.Links)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "static/constellation.json", "path to write constellation JSON")
	return cmd
}
