package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/justestif/go-voice-diary/internal/config"
	"github.com/justestif/go-voice-diary/internal/emotion"
)

func newClassifyCmd() *cobra.Command {
	var v emotion.VAD
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify an arousal/valence/dominance reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !v.Finite() {
				return errors.New("arousal, valence and dominance must be finite")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c := emotion.NewClassifier(cfg.Thresholds.Emotion())
			e := c.Classify(v)
			a := c.Assess(v)

			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(struct {
					Emotion    emotion.Emotion    `json:"emotion"`
					Assessment emotion.Assessment `json:"assessment"`
				}{e, a})
			}

			fmt.Fprintf(out, "%s %s (%s)\n", e.Glyph(), e, e.LocalizedName())
			if a.Significant {
				fmt.Fprintf(out, "significant: %s (%s)\n", a.Emotion, a.Description)
			} else {
				fmt.Fprintln(out, "not significant")
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&v.Arousal, "arousal", 0, "arousal (1.0-5.0)")
	cmd.Flags().Float64Var(&v.Valence, "valence", 0, "valence (1.0-5.0)")
	cmd.Flags().Float64Var(&v.Dominance, "dominance", 0, "dominance (1.0-5.0)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("arousal")
	_ = cmd.MarkFlagRequired("valence")
	_ = cmd.MarkFlagRequired("dominance")
	return cmd
}

func newAggregateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate FILE",
		Short: "Aggregate a JSON array of analysis results into a daily summary",
		Long:  "Aggregate a JSON array of analysis results into a daily summary. Use - to read stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			var results []emotion.AnalysisResult
			if err := json.NewDecoder(r).Decode(&results); err != nil {
				return fmt.Errorf("decoding analysis results: %w", err)
			}

			summary, ok := emotion.Aggregate(results)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no data")
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
}
