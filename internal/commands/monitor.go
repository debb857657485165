package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/sdpower/token-savings-go/internal/monitor"
	"github.com/sdpower/token-savings-go/internal/types"
	"github.com/spf13/cobra"
)

func newMonitorCommand(g *globalOptions) *cobra.Command {
	var (
		interval   int
		continuous bool
		window     dateWindow
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Monitor token savings in real-time",
		Long:  `Monitor the savings log with a live dashboard that reloads it on every refresh.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval < 1 {
				return types.ValidationError{Field: "interval", Message: fmt.Sprintf("must be at least 1 second, got %d", interval)}
			}

			env, err := g.resolve(cmd)
			if err != nil {
				return err
			}

			mon := monitor.New(monitor.Options{
				LogPath: env.cfg.LogFilePath,
				Source: func(ctx context.Context) (types.SavingsReport, error) {
					return env.loadReport(ctx, window)
				},
				Interval:   time.Duration(interval) * time.Second,
				NoColor:    env.noColor,
				Continuous: continuous,
				Output:     cmd.OutOrStdout(),
			})

			if err := mon.Start(cmd.Context()); err != nil {
				return fmt.Errorf("failed to start monitor: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&interval, "interval", 5, "Update interval in seconds")
	cmd.Flags().BoolVar(&continuous, "continuous", true, "Run continuously")
	window.register(cmd)

	return cmd
}
