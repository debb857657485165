package monitor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-isatty"
	"github.com/sdpower/token-savings-go/internal/logger"
	"github.com/sdpower/token-savings-go/internal/types"
)

// Source produces a fresh savings report. The monitor calls it on every
// refresh, so each view reflects the log as it is on disk at that moment.
type Source func(ctx context.Context) (types.SavingsReport, error)

type Monitor struct {
	options Options
}

type Options struct {
	LogPath    string
	Source     Source
	Interval   time.Duration
	NoColor    bool
	Continuous bool
	Output     io.Writer
}

type model struct {
	options    Options
	lastUpdate time.Time
	report     *types.SavingsReport
	width      int
	err        error
}

type tickMsg time.Time

type updateDataMsg struct {
	report types.SavingsReport
	err    error
}

// Colors at 0% and 100% savings; percentages in between are blended.
const (
	lowSavingsColor  = "#e74c3c"
	highSavingsColor = "#2ecc71"
)

func New(opts Options) *Monitor {
	if opts.Interval == 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Monitor{
		options: opts,
	}
}

// Start runs the live dashboard when continuous mode is requested and stdout
// is a terminal. Otherwise it prints a single snapshot.
func (m *Monitor) Start(ctx context.Context) error {
	if m.options.Source == nil {
		return fmt.Errorf("monitor has no report source")
	}
	if m.options.Continuous {
		if isTerminal() {
			return m.startTUI(ctx)
		}
		logger.Warn("stdout is not a terminal, printing a single snapshot")
	}
	return m.runOnce(ctx)
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (m *Monitor) startTUI(ctx context.Context) error {
	p := tea.NewProgram(
		initialModel(m.options),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	return err
}

func (m *Monitor) runOnce(ctx context.Context) error {
	report, err := m.options.Source(ctx)
	if err != nil {
		return fmt.Errorf("failed to load savings: %w", err)
	}

	mdl := initialModel(m.options)
	mdl.report = &report
	_, err = fmt.Fprintln(m.options.Output, mdl.summary())
	return err
}

func initialModel(opts Options) model {
	return model{
		options:    opts,
		lastUpdate: time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.options.Interval),
		m.updateData(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, m.updateData()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.lastUpdate = time.Time(msg)
		return m, tea.Batch(
			tickCmd(m.options.Interval),
			m.updateData(),
		)

	case updateDataMsg:
		m.err = msg.err
		if msg.err == nil {
			report := msg.report
			m.report = &report
		}
	}

	return m, nil
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress 'q' to quit, 'r' to retry", m.err)
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	if m.options.NoColor {
		headerStyle = lipgloss.NewStyle()
	}

	content := headerStyle.Render("Token Savings Monitor")
	content += "\n\n"

	summaryStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(1).
		MarginBottom(1)

	if m.options.NoColor {
		summaryStyle = lipgloss.NewStyle()
	}

	content += summaryStyle.Render(m.summary())
	content += "\n\n"
	content += m.recentDays()

	content += "\n\nPress 'q' to quit, 'r' to refresh"
	return content
}

// summary renders the headline numbers. Before the first load it reports
// that data is pending.
func (m model) summary() string {
	if m.report == nil {
		return "Loading savings log..."
	}

	r := m.report
	c := r.Cumulative.Metrics
	lines := []string{
		fmt.Sprintf("Log: %s", m.options.LogPath),
		fmt.Sprintf("Files Tracked: %d", r.Cumulative.FilesAnalyzed),
		fmt.Sprintf("Summaries Logged: %d", r.Overall.Interactions),
		fmt.Sprintf("Tokens Saved (%d reads/file): %s", r.ReadsPerFile, humanize.Comma(int64(c.TokensSaved))),
		fmt.Sprintf("Cost Saved: $%.2f", c.CostSavingsUSD),
		fmt.Sprintf("Savings: %s", m.savingsBar(c.SavingsPercentage, 30)),
	}
	if r.Projection != nil {
		lines = append(lines, fmt.Sprintf("Monthly Projection: %s tokens ($%.2f)",
			humanize.Comma(int64(r.Projection.MonthlyTokensSaved)), r.Projection.MonthlyCostSavingsUSD))
	}
	if r.SkippedBlocks > 0 {
		lines = append(lines, fmt.Sprintf("Skipped Entries: %d", r.SkippedBlocks))
	}
	lines = append(lines, fmt.Sprintf("Last Update: %s", m.lastUpdate.Format("15:04:05")))
	return strings.Join(lines, "\n")
}

func (m model) recentDays() string {
	if m.report == nil || len(m.report.Days) == 0 {
		return "No activity yet."
	}

	days := m.report.Days
	if len(days) > 5 {
		days = days[len(days)-5:]
	}

	var b strings.Builder
	b.WriteString("Recent Days:\n")
	for _, d := range days {
		fmt.Fprintf(&b, "%s - %d files - %s tokens saved - $%.2f\n",
			d.Date,
			d.FilesProcessed,
			humanize.Comma(int64(d.Metrics.TokensSaved)),
			d.Metrics.CostSavingsUSD,
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m model) savingsBar(percent float64, width int) string {
	ratio := clamp(percent/100, 0, 1)
	filled := int(ratio * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	label := fmt.Sprintf("%.1f%%", percent)

	if m.options.NoColor {
		return fmt.Sprintf("[%s] %s", bar, label)
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(savingsColor(percent)))
	return fmt.Sprintf("[%s] %s", style.Render(bar), style.Render(label))
}

// savingsColor blends from red at 0% to green at 100% savings.
func savingsColor(percent float64) string {
	low, _ := colorful.Hex(lowSavingsColor)
	high, _ := colorful.Hex(highSavingsColor)
	return low.BlendLab(high, clamp(percent/100, 0, 1)).Clamped().Hex()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (m model) updateData() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		report, err := m.options.Source(ctx)
		return updateDataMsg{report: report, err: err}
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
