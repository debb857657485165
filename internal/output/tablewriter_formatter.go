package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/sdpower/token-savings-go/internal/types"
)

// TableWriterFormatter uses tablewriter for better table formatting
type TableWriterFormatter struct {
	noColor bool
}

func NewTableWriterFormatter(noColor bool) *TableWriterFormatter {
	return &TableWriterFormatter{noColor: noColor}
}

func (f *Formatter) formatTables(report types.SavingsReport) string {
	tables := NewTableWriterFormatter(f.options.NoColor)

	var sections []string
	if f.wants(GranularityFiles) {
		sections = append(sections, tables.FormatFilesReport(report))
	}
	if f.wants(GranularityDaily) {
		sections = append(sections, tables.FormatDailyReport(report))
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

func (f *TableWriterFormatter) newTable(buf *bytes.Buffer) *tablewriter.Table {
	return tablewriter.NewTable(buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignRight},
			},
		}),
		tablewriter.WithHeaderAutoFormat(tw.Off), // keep header case
	)
}

// FormatFilesReport renders one row per file at its latest size.
func (f *TableWriterFormatter) FormatFilesReport(report types.SavingsReport) string {
	var output strings.Builder
	output.WriteString(f.banner(fmt.Sprintf("Token Savings by File (%d reads per file)", report.ReadsPerFile)))

	if len(report.Files) == 0 {
		output.WriteString("No usage data found for the specified period.\n")
		return output.String()
	}

	var buf bytes.Buffer
	table := f.newTable(&buf)
	table.Header([]string{
		"File\n",
		"Times\nSummarized",
		"Original\nTokens",
		"Summary\nTokens",
		"Savings\nPer Read",
		"Break-even\nReads",
		"Tokens\nSaved",
		"Savings\n(USD)",
	})

	for _, file := range report.Files {
		table.Append([]string{
			file.FilePath,
			fmt.Sprintf("%d", file.Interactions),
			formatInt(file.Latest.Observation.OriginalTokens),
			formatInt(file.Latest.Observation.SummaryTokens),
			formatInt(file.Latest.SavingsPerRead),
			formatBreakEvenCell(file.BreakEven),
			formatInt(file.Metrics.TokensSaved),
			formatUSD(file.Metrics.CostSavingsUSD),
		})
	}

	m := report.Cumulative.Metrics
	table.Footer([]string{
		"Total",
		"",
		formatInt(m.OriginalTokens),
		formatInt(m.SummaryTokens),
		formatInt(m.SavingsPerRead),
		"",
		formatInt(m.TokensSaved),
		formatUSD(m.CostSavingsUSD),
	})

	table.Render()
	output.WriteString(f.colorize(buf.String()))
	return output.String()
}

// FormatDailyReport renders one row per calendar day with a total footer.
func (f *TableWriterFormatter) FormatDailyReport(report types.SavingsReport) string {
	var output strings.Builder
	output.WriteString(f.banner("Token Savings Report - Daily"))

	if len(report.Days) == 0 {
		output.WriteString("No usage data found for the specified period.\n")
		return output.String()
	}

	var buf bytes.Buffer
	table := f.newTable(&buf)
	table.Header([]string{
		"Date\n",
		"Files\n",
		"Interactions\n",
		"Original\nTokens",
		"Summary\nTokens",
		"Tokens\nSaved",
		"Savings\n(%)",
		"Savings\n(USD)",
	})

	for _, day := range report.Days {
		// Format date as YYYY\nMM-DD
		dateParts := strings.Split(day.Date, "-")
		formattedDate := day.Date
		if len(dateParts) == 3 {
			formattedDate = fmt.Sprintf("%s\n%s-%s", dateParts[0], dateParts[1], dateParts[2])
		}

		m := day.Metrics
		table.Append([]string{
			formattedDate,
			fmt.Sprintf("%d", day.FilesProcessed),
			fmt.Sprintf("%d", day.Interactions),
			formatInt(m.OriginalTokens),
			formatInt(m.SummaryTokens),
			formatInt(m.TokensSaved),
			formatPercent(m.SavingsPercentage),
			formatUSD(m.CostSavingsUSD),
		})
	}

	o := report.Overall
	table.Footer([]string{
		"Total",
		fmt.Sprintf("%d", o.FilesAnalyzed),
		fmt.Sprintf("%d", o.Interactions),
		formatInt(o.Metrics.OriginalTokens),
		formatInt(o.Metrics.SummaryTokens),
		formatInt(o.Metrics.TokensSaved),
		formatPercent(o.Metrics.SavingsPercentage),
		formatUSD(o.Metrics.CostSavingsUSD),
	})

	table.Render()
	output.WriteString(f.colorize(buf.String()))
	return output.String()
}

func (f *TableWriterFormatter) banner(title string) string {
	width := len([]rune(title)) + 4
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(" ╭" + strings.Repeat("─", width) + "╮\n")
	b.WriteString(" │" + strings.Repeat(" ", width) + "│\n")
	b.WriteString(" │  " + title + "  │\n")
	b.WriteString(" │" + strings.Repeat(" ", width) + "│\n")
	b.WriteString(" ╰" + strings.Repeat("─", width) + "╯\n\n")
	return b.String()
}

// colorize paints borders gray, header rows cyan and the Total row yellow.
func (f *TableWriterFormatter) colorize(tableOutput string) string {
	if f.noColor {
		return tableOutput
	}

	gray := "\033[90m"
	cyan := "\033[36m"
	yellow := "\033[33m"
	reset := "\033[0m"

	lines := strings.Split(tableOutput, "\n")
	var coloredOutput strings.Builder

	for i, line := range lines {
		if line == "" {
			if i < len(lines)-1 {
				coloredOutput.WriteString("\n")
			}
			continue
		}

		if strings.HasPrefix(line, "┌") || strings.HasPrefix(line, "├") || strings.HasPrefix(line, "└") {
			coloredOutput.WriteString(gray + line + reset)
		} else if strings.Contains(line, "│") {
			parts := strings.Split(line, "│")
			for j, part := range parts {
				if j > 0 {
					coloredOutput.WriteString(gray + "│" + reset)
				}
				switch {
				case i <= 2 && strings.TrimSpace(part) != "":
					coloredOutput.WriteString(cyan + part + reset)
				case strings.Contains(strings.ToLower(line), "total") && strings.TrimSpace(part) != "":
					coloredOutput.WriteString(yellow + part + reset)
				default:
					coloredOutput.WriteString(part)
				}
			}
		} else {
			coloredOutput.WriteString(line)
		}

		if i < len(lines)-1 {
			coloredOutput.WriteString("\n")
		}
	}
	return coloredOutput.String()
}

func formatBreakEvenCell(reads *float64) string {
	if reads == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *reads)
}
