package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"faithatlas/internal/app"
)

func newSeedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace the pages stored in DATABASE_URL with the content files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.DSN == "" {
				return errors.New("seed requires DATABASE_URL or MYSQL_DSN")
			}

			catalog, err := e.loadCatalog()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			st, db, err := app.OpenSQLStore(ctx, e.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := st.Seed(ctx, catalog); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d pages\n", catalog.Len())
			return nil
		},
	}
}
