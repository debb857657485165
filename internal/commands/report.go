package commands

import (
	"fmt"

	"github.com/sdpower/token-savings-go/internal/output"
	"github.com/sdpower/token-savings-go/internal/types"
	"github.com/spf13/cobra"
)

func newReportCommand(g *globalOptions) *cobra.Command {
	var (
		granularity string
		scenarios   []int
		window      dateWindow
		flags       reportFlags
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the full savings report",
		Long: `Generate the savings report at the chosen granularity.
With --scenarios the cumulative per-file report is repeated once for each
assumed number of reads per file.`,
		Example: `  tokensavings report
  tokensavings report --granularity overall --format json
  tokensavings report --scenarios 3,5,10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			gran, err := output.ParseGranularity(granularity)
			if err != nil {
				return err
			}

			env, err := g.resolve(cmd)
			if err != nil {
				return err
			}

			if len(scenarios) > 0 {
				return env.renderScenarios(cmd, window, scenarios, flags)
			}

			report, err := env.loadReport(cmd.Context(), window)
			if err != nil {
				return err
			}
			return env.render(cmd, report, gran, flags)
		},
	}

	cmd.Flags().StringVarP(&granularity, "granularity", "g", "all", "Sections to show (files, daily, overall, projection, all)")
	cmd.Flags().IntSliceVar(&scenarios, "scenarios", nil, "Reads-per-file values to compare (e.g. 3,5,10)")
	window.register(cmd)
	flags.register(cmd, true)
	return cmd
}

// renderScenarios renders the per-file report once per reads-per-file value.
func (env *environment) renderScenarios(cmd *cobra.Command, window dateWindow, scenarios []int, flags reportFlags) error {
	reports := make([]types.SavingsReport, 0, len(scenarios))
	for _, reads := range scenarios {
		cfg := *env.cfg
		cfg.ReadsPerFile = reads
		if err := cfg.Validate(); err != nil {
			return err
		}

		scenario := environment{cfg: &cfg, location: env.location, noColor: env.noColor}
		report, err := scenario.loadReport(cmd.Context(), window)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	formatter := output.NewFormatter(output.FormatterOptions{
		Format:      flags.format,
		Granularity: output.GranularityFiles,
		NoColor:     env.noColor,
	})

	if flags.format == "json" {
		out, err := formatter.FormatJSON(reports)
		if err != nil {
			return fmt.Errorf("failed to format report: %w", err)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}

	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		out, err := formatter.FormatSavingsReport(report)
		if err != nil {
			return fmt.Errorf("failed to format report: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
	}
	return nil
}
