package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justestif/go-voice-diary/internal/db"
	"github.com/justestif/go-voice-diary/internal/diary"
	"github.com/justestif/go-voice-diary/internal/emotion"
	"github.com/justestif/go-voice-diary/internal/metrics"
)

func newRefreshCmd() *cobra.Command {
	var userID, from, to string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Recompute stored daily emotion summaries for a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			database, err := db.New(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer database.Close()

			svc := diary.New(diary.StoresFromDB(database),
				diary.WithLogger(logger),
				diary.WithMetrics(metrics.NewManager()),
				diary.WithClassifier(emotion.NewClassifier(cfg.Thresholds.Emotion())),
				diary.WithLocation(loc),
				diary.WithConcurrency(cfg.Diary.RefreshConcurrency),
			)

			start, err := svc.ParseDate(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end := start
			if to != "" {
				if end, err = svc.ParseDate(to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}

			outcomes, err := svc.RefreshRange(cmd.Context(), userID, start, end)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, o := range outcomes {
				line := struct {
					diary.RefreshOutcome
					Error string `json:"error,omitempty"`
				}{RefreshOutcome: o}
				if o.Err != nil && !errors.Is(o.Err, diary.ErrNoEmotionData) {
					line.Error = o.Err.Error()
				}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD), defaults to --from")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
