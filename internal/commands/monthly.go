package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sdpower/token-savings-go/internal/output"
	"github.com/sdpower/token-savings-go/internal/types"
	"github.com/spf13/cobra"
)

func newMonthlyCommand(g *globalOptions) *cobra.Command {
	var (
		month  string
		window dateWindow
		flags  reportFlags
	)

	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Project monthly savings",
		Long: `Project savings over a working month from the average observed day.
With --month the projection uses only the days of that month.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			if month != "" {
				since, until, err := monthRange(month)
				if err != nil {
					return err
				}
				window.since, window.until = since, until
			}

			env, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			report, err := env.loadReport(cmd.Context(), window)
			if err != nil {
				return err
			}
			return env.render(cmd, report, output.GranularityProjection, flags)
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to project from (YYYY-MM)")
	window.register(cmd)
	flags.register(cmd, false)
	return cmd
}

// monthRange returns the first and last date of a YYYY-MM month.
func monthRange(month string) (string, string, error) {
	invalid := func(msg string) error {
		return types.ValidationError{Field: "month", Message: msg}
	}

	parts := strings.Split(month, "-")
	if len(parts) != 2 {
		return "", "", invalid("invalid month format, use YYYY-MM")
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", "", invalid(fmt.Sprintf("invalid year: %v", err))
	}

	monthNum, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", invalid(fmt.Sprintf("invalid month: %v", err))
	}

	if monthNum < 1 || monthNum > 12 {
		return "", "", invalid("month must be between 1 and 12")
	}

	start := time.Date(year, time.Month(monthNum), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start.Format(types.DateLayout), end.Format(types.DateLayout), nil
}
