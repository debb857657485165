package commands

import (
	"fmt"
	"time"

	"github.com/sdpower/token-savings-go/internal/logstore"
	"github.com/sdpower/token-savings-go/internal/tracker"
	"github.com/sdpower/token-savings-go/internal/types"
	"github.com/spf13/cobra"
)

func newRecordCommand(g *globalOptions) *cobra.Command {
	var (
		file           string
		summary        string
		originalTokens int
		summaryTokens  int
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a summarization in the savings log",
		Long: `Record one summarization. Token counts are estimated from the source
and summary files, or given directly with --original-tokens and --summary-tokens.`,
		Example: `  tokensavings record --file main.go --summary main.go.summary
  tokensavings record --file main.go --original-tokens 1000 --summary-tokens 200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := g.resolve(cmd)
			if err != nil {
				return err
			}

			writer := logstore.NewWriter(env.cfg.LogFilePath, env.cfg.DedupCacheCapacity)

			var o types.UsageObservation
			if cmd.Flags().Changed("original-tokens") || cmd.Flags().Changed("summary-tokens") {
				if originalTokens < 0 || summaryTokens < 0 {
					return types.ValidationError{Field: "tokens", Message: "token counts must not be negative"}
				}
				o = types.UsageObservation{
					Timestamp:      time.Now().In(env.location).Truncate(time.Second),
					FilePath:       file,
					OriginalTokens: originalTokens,
					SummaryTokens:  summaryTokens,
				}
				if _, err := writer.Append(o); err != nil {
					return fmt.Errorf("failed to record summary: %w", err)
				}
			} else {
				if summary == "" {
					return types.ValidationError{Field: "summary", Message: "--summary or token counts are required"}
				}
				o, err = tracker.New(tracker.EstimateTokenizer{}, writer, env.location).TrackFiles(file, summary)
				if err != nil {
					return fmt.Errorf("failed to record summary: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s: %d -> %d tokens (%d saved per read)\n",
				o.FilePath, o.OriginalTokens, o.SummaryTokens, o.Savings())
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Source file that was summarized")
	cmd.Flags().StringVar(&summary, "summary", "", "File containing the summary")
	cmd.Flags().IntVar(&originalTokens, "original-tokens", 0, "Token count of the source file")
	cmd.Flags().IntVar(&summaryTokens, "summary-tokens", 0, "Token count of the summary")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
