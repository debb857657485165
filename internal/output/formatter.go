package output

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/sdpower/token-savings-go/internal/types"
)

// Granularity selects which sections of a savings report are rendered.
type Granularity string

const (
	GranularityFiles      Granularity = "files"
	GranularityDaily      Granularity = "daily"
	GranularityOverall    Granularity = "overall"
	GranularityProjection Granularity = "projection"
	GranularityAll        Granularity = "all"
)

// ParseGranularity validates a user-supplied granularity name.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(s)); g {
	case GranularityFiles, GranularityDaily, GranularityOverall, GranularityProjection, GranularityAll:
		return g, nil
	case "":
		return GranularityAll, nil
	default:
		return "", types.ValidationError{Field: "granularity", Message: fmt.Sprintf("unknown granularity %q", s)}
	}
}

type Formatter struct {
	options FormatterOptions
}

type FormatterOptions struct {
	Format      string // "text", "table", "json"
	Granularity Granularity
	NoColor     bool
	Chart       bool
	ChartWidth  int
	ChartHeight int
}

func NewFormatter(opts FormatterOptions) *Formatter {
	if opts.Granularity == "" {
		opts.Granularity = GranularityAll
	}
	if opts.ChartWidth == 0 {
		opts.ChartWidth = 60
	}
	if opts.ChartHeight == 0 {
		opts.ChartHeight = 10
	}
	return &Formatter{options: opts}
}

// FormatSavingsReport renders report. Output depends only on the report and
// the formatter options.
func (f *Formatter) FormatSavingsReport(report types.SavingsReport) (string, error) {
	switch f.options.Format {
	case "json":
		return f.FormatJSON(report)
	case "table":
		return f.formatTables(report), nil
	default:
		return f.formatText(report), nil
	}
}

func (f *Formatter) FormatJSON(data interface{}) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (f *Formatter) wants(g Granularity) bool {
	return f.options.Granularity == GranularityAll || f.options.Granularity == g
}

func (f *Formatter) formatText(report types.SavingsReport) string {
	var sections []string
	if f.wants(GranularityFiles) {
		sections = append(sections, f.formatFilesText(report))
	}
	if f.wants(GranularityDaily) {
		sections = append(sections, f.formatDailyText(report))
		if f.options.Chart {
			sections = append(sections, RenderDailyChart(report.Days, f.options.ChartWidth, f.options.ChartHeight)+"\n")
		}
	}
	if f.wants(GranularityOverall) {
		sections = append(sections, f.formatOverallText(report))
	}
	if f.wants(GranularityProjection) {
		sections = append(sections, f.formatProjectionText(report))
	}
	return strings.Join(sections, "\n")
}

func (f *Formatter) title(s string) string {
	underline := strings.Repeat("=", len([]rune(s)))
	if f.options.NoColor {
		return s + "\n" + underline + "\n"
	}
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	return style.Render(s) + "\n" + underline + "\n"
}

func (f *Formatter) formatFilesText(report types.SavingsReport) string {
	var b strings.Builder
	m := report.Cumulative.Metrics

	b.WriteString(f.title("Token Usage Analysis Report"))
	fmt.Fprintf(&b, "Files Analyzed: %d\n", report.Cumulative.FilesAnalyzed)
	fmt.Fprintf(&b, "Assumed Reads Per File: %d\n", report.ReadsPerFile)
	b.WriteString("\nTraditional Approach (No Summaries):\n")
	fmt.Fprintf(&b, "- Total Tokens: %s\n", formatInt(m.TraditionalTokens))
	fmt.Fprintf(&b, "- Estimated Cost: %s\n", formatUSD(m.TraditionalCostUSD))
	b.WriteString("\nWith Summaries Approach:\n")
	fmt.Fprintf(&b, "- Total Tokens: %s\n", formatInt(m.AmortizedTokens))
	fmt.Fprintf(&b, "- Estimated Cost: %s\n", formatUSD(m.AmortizedCostUSD))
	b.WriteString("\nSavings Analysis:\n")
	fmt.Fprintf(&b, "- Tokens Saved: %s\n", formatInt(m.TokensSaved))
	fmt.Fprintf(&b, "- Savings Percentage: %s\n", formatPercent(m.SavingsPercentage))
	fmt.Fprintf(&b, "- Estimated Cost Savings: %s\n", formatUSD(m.CostSavingsUSD))

	if len(report.Files) == 0 {
		return b.String()
	}

	b.WriteString("\nFile Details:\n")
	for _, file := range report.Files {
		latest := file.Latest
		fmt.Fprintf(&b, "\n%s:\n", file.FilePath)
		fmt.Fprintf(&b, "- Original Size: %s tokens\n", formatInt(latest.Observation.OriginalTokens))
		fmt.Fprintf(&b, "- Summary Size: %s tokens\n", formatInt(latest.Observation.SummaryTokens))
		fmt.Fprintf(&b, "- Savings Per Read: %s tokens\n", formatInt(latest.SavingsPerRead))
		fmt.Fprintf(&b, "- Breaks Even After: %s\n", formatBreakEven(file.BreakEven))
		fmt.Fprintf(&b, "- Times Summarized: %d\n", file.Interactions)
	}
	return b.String()
}

func (f *Formatter) formatDailyText(report types.SavingsReport) string {
	var b strings.Builder
	b.WriteString(f.title("Daily Savings Report"))

	if len(report.Days) == 0 {
		b.WriteString("No usage data found for the specified period.\n")
		return b.String()
	}

	for _, day := range report.Days {
		m := day.Metrics
		fmt.Fprintf(&b, "\n%s Summary:\n%s\n", day.Date, strings.Repeat("=", 50))
		fmt.Fprintf(&b, "Total Files Processed: %d\n", day.FilesProcessed)
		fmt.Fprintf(&b, "Total Interactions: %d\n", day.Interactions)
		fmt.Fprintf(&b, "Total Original Tokens: %s\n", formatInt(m.OriginalTokens))
		fmt.Fprintf(&b, "Total Summary Tokens: %s\n", formatInt(m.SummaryTokens))
		fmt.Fprintf(&b, "Total Token Savings: %s\n", formatInt(m.TokensSaved))
		fmt.Fprintf(&b, "Savings Percentage: %s\n", formatPercent(m.SavingsPercentage))
		fmt.Fprintf(&b, "Estimated Cost Savings: %s\n", formatUSD(m.CostSavingsUSD))

		b.WriteString("\nDetailed Breakdown:\n-----------------\n")
		for _, entry := range day.Entries {
			o := entry.Observation
			fmt.Fprintf(&b, "%s - %s\n", o.Timestamp.Format("15:04:05"), o.FilePath)
			fmt.Fprintf(&b, "  Original: %s tokens\n", formatInt(o.OriginalTokens))
			fmt.Fprintf(&b, "  Summary: %s tokens\n", formatInt(o.SummaryTokens))
			fmt.Fprintf(&b, "  Savings: %s tokens\n", formatInt(entry.SavingsPerRead))
		}
	}
	return b.String()
}

func (f *Formatter) formatOverallText(report types.SavingsReport) string {
	var b strings.Builder
	o := report.Overall
	m := o.Metrics

	b.WriteString(f.title("Overall Statistics"))
	fmt.Fprintf(&b, "Total Days: %d\n", o.Days)
	fmt.Fprintf(&b, "Files Analyzed: %d\n", o.FilesAnalyzed)
	fmt.Fprintf(&b, "Total Interactions: %d\n", o.Interactions)
	fmt.Fprintf(&b, "Total Original Tokens: %s\n", formatInt(m.OriginalTokens))
	fmt.Fprintf(&b, "Total Summary Tokens: %s\n", formatInt(m.SummaryTokens))
	fmt.Fprintf(&b, "Total Token Savings: %s\n", formatInt(m.TokensSaved))
	fmt.Fprintf(&b, "Savings Percentage: %s\n", formatPercent(m.SavingsPercentage))
	fmt.Fprintf(&b, "Total Cost Savings: %s\n", formatUSD(m.CostSavingsUSD))
	fmt.Fprintf(&b, "Assumptions: %d reads per file at %s per million tokens\n", report.ReadsPerFile, formatUSD(report.RatePerMillion))
	if report.SkippedBlocks > 0 {
		fmt.Fprintf(&b, "Skipped Log Entries: %d\n", report.SkippedBlocks)
	}
	return b.String()
}

func (f *Formatter) formatProjectionText(report types.SavingsReport) string {
	var b strings.Builder
	p := report.Projection
	if p == nil {
		b.WriteString(f.title("Monthly Projection"))
		b.WriteString("No data available for projection.\n")
		return b.String()
	}

	b.WriteString(f.title(fmt.Sprintf("Monthly Projection (%d working days)", p.WorkingDays)))
	fmt.Fprintf(&b, "Days Observed: %d\n", p.DaysObserved)
	fmt.Fprintf(&b, "Average Daily Token Savings: %s\n", formatTokens(p.AvgTokensSaved))
	fmt.Fprintf(&b, "Average Daily Cost Savings: %s\n", formatUSD(p.AvgCostSavingsUSD))
	fmt.Fprintf(&b, "Average Savings Percentage: %s\n", formatPercent(p.AvgSavingsPercentage))
	fmt.Fprintf(&b, "Projected Monthly Original Tokens: %s\n", formatTokens(p.MonthlyOriginalTokens))
	fmt.Fprintf(&b, "Projected Monthly Summary Tokens: %s\n", formatTokens(p.MonthlySummaryTokens))
	fmt.Fprintf(&b, "Projected Monthly Token Savings: %s\n", formatTokens(p.MonthlyTokensSaved))
	fmt.Fprintf(&b, "Projected Monthly Cost Savings: %s\n", formatUSD(p.MonthlyCostSavingsUSD))
	return b.String()
}

func formatInt(n int) string {
	return humanize.Comma(int64(n))
}

func formatTokens(x float64) string {
	return humanize.Comma(int64(math.Round(x)))
}

func formatUSD(x float64) string {
	if x < 0 {
		return fmt.Sprintf("-$%.2f", -x)
	}
	return fmt.Sprintf("$%.2f", x)
}

func formatPercent(x float64) string {
	return fmt.Sprintf("%.1f%%", x)
}

func formatBreakEven(reads *float64) string {
	if reads == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f reads", *reads)
}
