package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sdpower/token-savings-go/internal/calculator"
	"github.com/sdpower/token-savings-go/internal/config"
	"github.com/sdpower/token-savings-go/internal/loader"
	"github.com/sdpower/token-savings-go/internal/logger"
	"github.com/sdpower/token-savings-go/internal/output"
	"github.com/sdpower/token-savings-go/internal/types"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath   string
	logFile      string
	readsPerFile int
	rate         float64
	workingDays  int
	model        string
	timezone     string
	debug        bool
	noColor      bool
}

func (g *globalOptions) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "Path to config file (default: user config dir/tokensavings/config.toml)")
	flags.StringVar(&g.logFile, "log-file", "", "Path to the savings log (default: token_savings.log)")
	flags.IntVar(&g.readsPerFile, "reads-per-file", calculator.DefaultReadsPerFile, "Assumed reads of each file")
	flags.Float64Var(&g.rate, "rate", calculator.DefaultRatePerMillion, "USD per million tokens")
	flags.IntVar(&g.workingDays, "working-days", calculator.DefaultWorkingDays, "Working days per month for projections")
	flags.StringVar(&g.model, "model", "", "Model whose input price sets the rate (e.g. claude-3-opus)")
	flags.StringVarP(&g.timezone, "timezone", "z", "", "Timezone of the log timestamps (e.g. UTC, Asia/Tokyo). Default: system timezone")
	flags.BoolVar(&g.debug, "debug", false, "Show debug information")
	flags.BoolVar(&g.noColor, "no-color", false, "Disable colored output")
}

// environment is the resolved configuration a command runs with.
type environment struct {
	cfg      *config.Config
	location *time.Location
	noColor  bool
}

// resolve layers changed flags over the loaded configuration.
func (g *globalOptions) resolve(cmd *cobra.Command) (*environment, error) {
	return g.resolveFrom(cmd, g.configPath)
}

func (g *globalOptions) resolveFrom(cmd *cobra.Command, configPath string) (*environment, error) {
	logger.SetDebug(g.debug)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-file") {
		cfg.LogFilePath = g.logFile
	}
	if flags.Changed("reads-per-file") {
		cfg.ReadsPerFile = g.readsPerFile
	}
	if flags.Changed("rate") {
		cfg.SetRate(g.rate)
	}
	if flags.Changed("working-days") {
		cfg.WorkingDaysPerMonth = g.workingDays
	}
	if flags.Changed("model") {
		cfg.Model = g.model
	}
	if flags.Changed("timezone") {
		cfg.Timezone = g.timezone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &environment{
		cfg:      cfg,
		location: loc,
		noColor:  g.noColor || !isTerminal(cmd.OutOrStdout()),
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// dateWindow limits which log days a report covers.
type dateWindow struct {
	since string
	until string
	days  int
}

func (w *dateWindow) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&w.since, "since", "s", "", "Filter from date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&w.until, "until", "u", "", "Filter until date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&w.days, "days", 0, "Only include summaries from the last N*24 hours")
}

func (w dateWindow) apply(l *loader.Loader, now time.Time) error {
	for _, d := range []struct{ field, value string }{{"since", w.since}, {"until", w.until}} {
		if d.value == "" {
			continue
		}
		if _, err := time.Parse(types.DateLayout, d.value); err != nil {
			return types.ValidationError{Field: d.field, Message: fmt.Sprintf("invalid date %q, use YYYY-MM-DD", d.value)}
		}
	}
	if w.days < 0 {
		return types.ValidationError{Field: "days", Message: fmt.Sprintf("must not be negative, got %d", w.days)}
	}

	l.SetDateRange(w.since, w.until)
	if w.days > 0 && w.since == "" {
		l.SetLastDays(w.days, now)
	}
	return nil
}

// loadReport reads the savings log and computes every report granularity.
// A missing log is reported as an empty dataset.
func (env *environment) loadReport(ctx context.Context, window dateWindow) (types.SavingsReport, error) {
	dataLoader := loader.New()
	dataLoader.SetTimezone(env.location)
	if err := window.apply(dataLoader, time.Now()); err != nil {
		return types.SavingsReport{}, err
	}

	set, err := dataLoader.LoadFromPath(ctx, env.cfg.LogFilePath)
	if err != nil {
		if !errors.Is(err, types.ErrLogMissing) {
			return types.SavingsReport{}, fmt.Errorf("failed to load savings log: %w", err)
		}
		logger.Debug("no savings log found, reporting empty data", "path", env.cfg.LogFilePath)
	}

	opts, err := env.cfg.CalculatorOptions()
	if err != nil {
		return types.SavingsReport{}, err
	}
	calc, err := calculator.New(opts)
	if err != nil {
		return types.SavingsReport{}, err
	}
	return calc.BuildReport(set)
}

// reportFlags are the rendering flags of the report commands.
type reportFlags struct {
	format string
	chart  bool
}

func (r *reportFlags) register(cmd *cobra.Command, withChart bool) {
	cmd.Flags().StringVarP(&r.format, "format", "f", "text", "Output format (text, table, json)")
	if withChart {
		cmd.Flags().BoolVar(&r.chart, "chart", false, "Plot tokens saved per day")
	}
}

func (r reportFlags) validate() error {
	switch r.format {
	case "text", "table", "json":
		return nil
	default:
		return types.ValidationError{Field: "format", Message: fmt.Sprintf("unknown format %q", r.format)}
	}
}

func (env *environment) render(cmd *cobra.Command, report types.SavingsReport, g output.Granularity, flags reportFlags) error {
	formatter := output.NewFormatter(output.FormatterOptions{
		Format:      flags.format,
		Granularity: g,
		NoColor:     env.noColor,
		Chart:       flags.chart,
	})

	out, err := formatter.FormatSavingsReport(report)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// newGranularityCommand builds a command that renders one granularity of the
// savings report.
func newGranularityCommand(g *globalOptions, use, short, long string, granularity output.Granularity) *cobra.Command {
	var (
		window dateWindow
		flags  reportFlags
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			env, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			report, err := env.loadReport(cmd.Context(), window)
			if err != nil {
				return err
			}
			return env.render(cmd, report, granularity, flags)
		},
	}

	window.register(cmd)
	flags.register(cmd, granularity == output.GranularityDaily)
	return cmd
}
