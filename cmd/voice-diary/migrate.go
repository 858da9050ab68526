package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/go-voice-diary/internal/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			database, err := db.New(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer database.Close()

			applied, err := database.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			logger.WithField("count", len(applied)).Info("migrations complete")
			for _, v := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}
