package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sdpower/token-savings-go/internal/codec"
	"github.com/sdpower/token-savings-go/internal/types"
)

const (
	DefaultReadsPerFile   = 5
	DefaultRatePerMillion = 15.0
	DefaultWorkingDays    = 22
)

// Options parameterizes every savings formula.
type Options struct {
	ReadsPerFile   int
	RatePerMillion float64
	WorkingDays    int
}

// DefaultOptions returns the stock assumptions: five reads per file,
// $15 per million tokens and a 22-day working month.
func DefaultOptions() Options {
	return Options{
		ReadsPerFile:   DefaultReadsPerFile,
		RatePerMillion: DefaultRatePerMillion,
		WorkingDays:    DefaultWorkingDays,
	}
}

func (o Options) validate() error {
	if o.ReadsPerFile < 1 {
		return types.ValidationError{Field: "reads_per_file", Message: fmt.Sprintf("must be at least 1, got %d", o.ReadsPerFile)}
	}
	if o.RatePerMillion < 0 {
		return types.ValidationError{Field: "rate_per_million_usd", Message: fmt.Sprintf("must not be negative, got %g", o.RatePerMillion)}
	}
	if o.WorkingDays < 1 {
		return types.ValidationError{Field: "working_days_per_month", Message: fmt.Sprintf("must be at least 1, got %d", o.WorkingDays)}
	}
	return nil
}

// Calculator derives savings metrics from aggregates. It performs no I/O.
type Calculator struct {
	opts Options
}

// New validates opts. Out-of-range values are rejected, never clamped.
func New(opts Options) (*Calculator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Calculator{opts: opts}, nil
}

func (c *Calculator) Options() Options {
	return c.opts
}

// PerEntity applies the amortized-read model to one entity:
//
//	traditional = original * reads
//	amortized   = original + summary * (reads - 1)
//	saved       = traditional - amortized
func PerEntity(original, summary, readsPerFile int, ratePerMillion float64) (types.SavingsMetrics, error) {
	if readsPerFile < 1 {
		return types.SavingsMetrics{}, types.ValidationError{Field: "reads_per_file", Message: fmt.Sprintf("must be at least 1, got %d", readsPerFile)}
	}

	traditional := original * readsPerFile
	amortized := original + summary*(readsPerFile-1)
	saved := traditional - amortized

	m := types.SavingsMetrics{
		OriginalTokens:     original,
		SummaryTokens:      summary,
		SavingsPerRead:     original - summary,
		TraditionalTokens:  traditional,
		AmortizedTokens:    amortized,
		TokensSaved:        saved,
		CostSavingsUSD:     usd(saved, ratePerMillion),
		TraditionalCostUSD: usd(traditional, ratePerMillion),
		AmortizedCostUSD:   usd(amortized, ratePerMillion),
	}
	if traditional != 0 {
		m.SavingsPercentage = float64(saved) / float64(traditional) * 100
	}
	return m, nil
}

func usd(tokens int, ratePerMillion float64) float64 {
	return float64(tokens) * ratePerMillion / 1_000_000
}

func (c *Calculator) perEntity(original, summary int) types.SavingsMetrics {
	// options were validated in New
	m, _ := PerEntity(original, summary, c.opts.ReadsPerFile, c.opts.RatePerMillion)
	return m
}

// Daily computes one day's metrics from its totals.
func (c *Calculator) Daily(day *types.DailyAggregate) types.DailyStats {
	entries := make([]types.EntryStats, 0, len(day.Observations))
	for _, o := range day.Observations {
		entries = append(entries, types.EntryStats{Observation: o, SavingsPerRead: o.Savings()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Observation.Timestamp.Before(entries[j].Observation.Timestamp)
	})

	return types.DailyStats{
		Date:           day.Date,
		FilesProcessed: len(day.Files),
		Interactions:   len(day.Observations),
		Entries:        entries,
		Metrics:        c.perEntity(day.TotalOriginal, day.TotalSummary),
	}
}

// File computes metrics for a file's latest observation.
func (c *Calculator) File(file *types.FileAggregate) types.FileStats {
	latest := file.Latest
	stats := types.FileStats{
		FilePath:     file.FilePath,
		Interactions: len(file.Observations),
		Latest:       types.EntryStats{Observation: latest, SavingsPerRead: latest.Savings()},
		Metrics:      c.perEntity(latest.OriginalTokens, latest.SummaryTokens),
	}
	if reads, err := codec.BreakEven(latest.OriginalTokens, latest.SummaryTokens); err == nil {
		stats.BreakEven = &reads
	}
	return stats
}

// Days returns daily stats sorted by date.
func (c *Calculator) Days(set *types.AggregateSet) []types.DailyStats {
	dates := make([]string, 0, len(set.Days))
	for date := range set.Days {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	days := make([]types.DailyStats, 0, len(dates))
	for _, date := range dates {
		days = append(days, c.Daily(set.Days[date]))
	}
	return days
}

// Files returns per-file stats sorted by path.
func (c *Calculator) Files(set *types.AggregateSet) []types.FileStats {
	paths := make([]string, 0, len(set.Files))
	for path := range set.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	files := make([]types.FileStats, 0, len(paths))
	for _, path := range paths {
		files = append(files, c.File(set.Files[path]))
	}
	return files
}

// Overall sums every observation of every day.
func (c *Calculator) Overall(set *types.AggregateSet) types.OverallStats {
	var original, summary int
	for _, day := range set.Days {
		original += day.TotalOriginal
		summary += day.TotalSummary
	}
	return types.OverallStats{
		Days:          len(set.Days),
		FilesAnalyzed: len(set.Files),
		Interactions:  set.Observations,
		Metrics:       c.perEntity(original, summary),
	}
}

// Cumulative counts each file once, at its latest size.
func (c *Calculator) Cumulative(set *types.AggregateSet) types.CumulativeStats {
	var original, summary int
	for _, file := range set.Files {
		original += file.Latest.OriginalTokens
		summary += file.Latest.SummaryTokens
	}
	return types.CumulativeStats{
		FilesAnalyzed: len(set.Files),
		Metrics:       c.perEntity(original, summary),
	}
}

// MonthlyProjection averages each metric over the supplied days and scales
// it to the configured working month. It returns types.ErrNoData when days
// is empty.
func (c *Calculator) MonthlyProjection(days []types.DailyStats) (types.Projection, error) {
	return MonthlyProjection(days, c.opts.WorkingDays)
}

// MonthlyProjection is the standalone form of Calculator.MonthlyProjection.
func MonthlyProjection(days []types.DailyStats, workingDays int) (types.Projection, error) {
	if workingDays < 1 {
		return types.Projection{}, types.ValidationError{Field: "working_days_per_month", Message: fmt.Sprintf("must be at least 1, got %d", workingDays)}
	}
	if len(days) == 0 {
		return types.Projection{}, types.ErrNoData
	}

	var original, summary, saved, pct, cost float64
	for _, d := range days {
		original += float64(d.Metrics.OriginalTokens)
		summary += float64(d.Metrics.SummaryTokens)
		saved += float64(d.Metrics.TokensSaved)
		pct += d.Metrics.SavingsPercentage
		cost += d.Metrics.CostSavingsUSD
	}

	n := float64(len(days))
	p := types.Projection{
		DaysObserved:         len(days),
		WorkingDays:          workingDays,
		AvgOriginalTokens:    original / n,
		AvgSummaryTokens:     summary / n,
		AvgTokensSaved:       saved / n,
		AvgSavingsPercentage: pct / n,
		AvgCostSavingsUSD:    cost / n,
	}
	scale := float64(workingDays)
	p.MonthlyOriginalTokens = p.AvgOriginalTokens * scale
	p.MonthlySummaryTokens = p.AvgSummaryTokens * scale
	p.MonthlyTokensSaved = p.AvgTokensSaved * scale
	p.MonthlyCostSavingsUSD = p.AvgCostSavingsUSD * scale
	return p, nil
}

// BuildReport computes every granularity in one pass. The projection is
// left nil when there are no days to project from.
func (c *Calculator) BuildReport(set *types.AggregateSet) (types.SavingsReport, error) {
	if set == nil {
		set = types.NewAggregateSet()
	}

	report := types.SavingsReport{
		ReadsPerFile:   c.opts.ReadsPerFile,
		RatePerMillion: c.opts.RatePerMillion,
		SkippedBlocks:  set.SkippedBlocks,
		Files:          c.Files(set),
		Days:           c.Days(set),
		Overall:        c.Overall(set),
		Cumulative:     c.Cumulative(set),
	}

	projection, err := c.MonthlyProjection(report.Days)
	switch {
	case err == nil:
		report.Projection = &projection
	case errors.Is(err, types.ErrNoData):
	default:
		return types.SavingsReport{}, err
	}
	return report, nil
}
