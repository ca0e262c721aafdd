package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"faithatlas/internal/app"
)

func newBuildCmd(e *env) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render every page into a static site",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("out") {
				e.cfg.OutputDir = outDir
			}

			if err := app.CheckOutputDir(e.cfg.OutputDir, e.cfg.ContentDir); err != nil {
				return err
			}

			ctx := cmd.Context()
			st, _, closeStore, err := e.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			renderer, err := e.renderer()
			if err != nil {
				return err
			}

			result, err := app.Build(ctx, st, renderer, e.cfg.OutputDir, e.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d pages to %s\n", result.Pages, result.OutputDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "public", "output directory")
	return cmd
}
