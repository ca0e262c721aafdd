package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"faithatlas/internal/content"
)

func newCheckCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate page links and resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := e.loadCatalog()
			if err != nil {
				return err
			}

			problems := content.Validate(catalog)
			out := cmd.OutOrStdout()
			for _, p := range problems {
				fmt.Fprintln(out, p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problems in %d pages", len(problems), catalog.Len())
			}
			fmt.Fprintf(out, "%d pages ok\n", catalog.Len())
			return nil
		},
	}
}
