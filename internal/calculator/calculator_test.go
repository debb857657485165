package calculator

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sdpower/token-savings-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obs(ts, path string, original, summary int) types.UsageObservation {
	t, err := time.ParseInLocation(types.TimestampLayout, ts, time.UTC)
	if err != nil {
		panic(err)
	}
	return types.UsageObservation{Timestamp: t, FilePath: path, OriginalTokens: original, SummaryTokens: summary}
}

// buildSet aggregates observations the way the loader does.
func buildSet(observations ...types.UsageObservation) *types.AggregateSet {
	set := types.NewAggregateSet()
	for _, o := range observations {
		set.Observations++
		day, ok := set.Days[o.DateKey()]
		if !ok {
			day = &types.DailyAggregate{Date: o.DateKey(), Files: map[string]bool{}}
			set.Days[o.DateKey()] = day
		}
		day.Files[o.FilePath] = true
		day.Observations = append(day.Observations, o)
		day.TotalOriginal += o.OriginalTokens
		day.TotalSummary += o.SummaryTokens

		file, ok := set.Files[o.FilePath]
		if !ok {
			file = &types.FileAggregate{FilePath: o.FilePath, Latest: o}
			set.Files[o.FilePath] = file
		} else if !o.Timestamp.Before(file.Latest.Timestamp) {
			file.Latest = o
		}
		file.Observations = append(file.Observations, o)
	}
	return set
}

func mustNew(t *testing.T, opts Options) *Calculator {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestPerEntity(t *testing.T) {
	m, err := PerEntity(1000, 200, 5, 15)
	require.NoError(t, err)

	assert.Equal(t, 5000, m.TraditionalTokens)
	assert.Equal(t, 1800, m.AmortizedTokens)
	assert.Equal(t, 3200, m.TokensSaved)
	assert.Equal(t, 800, m.SavingsPerRead)
	assert.InDelta(t, 64.0, m.SavingsPercentage, 1e-9)
	assert.InDelta(t, 0.048, m.CostSavingsUSD, 1e-12)
	assert.InDelta(t, 0.075, m.TraditionalCostUSD, 1e-12)
	assert.InDelta(t, 0.027, m.AmortizedCostUSD, 1e-12)
}

func TestPerEntity_EdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		original int
		summary  int
		reads    int
		saved    int
		pct      float64
	}{
		{"zero tokens", 0, 0, 5, 0, 0},
		{"single read saves nothing", 1000, 200, 1, 0, 0},
		{"summary larger than source", 100, 150, 5, -200, -40},
		{"ten reads", 1000, 100, 10, 8100, 81},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := PerEntity(tt.original, tt.summary, tt.reads, 15)
			require.NoError(t, err)
			assert.Equal(t, tt.saved, m.TokensSaved)
			assert.InDelta(t, tt.pct, m.SavingsPercentage, 1e-9)
			assert.LessOrEqual(t, m.SavingsPercentage, 100.0)
		})
	}
}

func TestPerEntity_InvalidReads(t *testing.T) {
	for _, reads := range []int{0, -3} {
		_, err := PerEntity(1000, 200, reads, 15)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrInvalidConfig))
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		field string
	}{
		{"reads", Options{ReadsPerFile: 0, RatePerMillion: 15, WorkingDays: 22}, "reads_per_file"},
		{"rate", Options{ReadsPerFile: 5, RatePerMillion: -1, WorkingDays: 22}, "rate_per_million_usd"},
		{"working days", Options{ReadsPerFile: 5, RatePerMillion: 15, WorkingDays: 0}, "working_days_per_month"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.opts)
			assert.Nil(t, c)
			require.ErrorIs(t, err, types.ErrInvalidConfig)

			var verr types.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDaily(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	set := buildSet(
		obs("2024-03-01 11:00:00", "a.py", 1000, 200),
		obs("2024-03-01 09:00:00", "b.py", 500, 100),
		obs("2024-03-01 12:00:00", "a.py", 1000, 200),
	)

	d := c.Daily(set.Days["2024-03-01"])
	assert.Equal(t, "2024-03-01", d.Date)
	assert.Equal(t, 2, d.FilesProcessed)
	assert.Equal(t, 3, d.Interactions)
	assert.Equal(t, 2500, d.Metrics.OriginalTokens)
	assert.Equal(t, 500, d.Metrics.SummaryTokens)
	assert.Equal(t, 2500*5-(2500+500*4), d.Metrics.TokensSaved)

	require.Len(t, d.Entries, 3)
	assert.Equal(t, "b.py", d.Entries[0].Observation.FilePath)
	assert.Equal(t, 400, d.Entries[0].SavingsPerRead)
}

func TestFile_BreakEven(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	set := buildSet(
		obs("2024-03-01 09:00:00", "a.py", 1000, 200),
		obs("2024-03-01 09:00:00", "tiny.md", 50, 60),
	)

	files := c.Files(set)
	require.Len(t, files, 2)

	assert.Equal(t, "a.py", files[0].FilePath)
	require.NotNil(t, files[0].BreakEven)
	assert.InDelta(t, 1.25, *files[0].BreakEven, 1e-9)

	assert.Equal(t, "tiny.md", files[1].FilePath)
	assert.Nil(t, files[1].BreakEven)
	assert.Equal(t, -10, files[1].Latest.SavingsPerRead)
}

func TestCumulative_UsesLatestPerFile(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	set := buildSet(
		obs("2024-03-01 09:00:00", "a.py", 5000, 500),
		obs("2024-03-02 09:00:00", "a.py", 1000, 200),
		obs("2024-03-02 10:00:00", "b.py", 1000, 200),
	)

	cum := c.Cumulative(set)
	assert.Equal(t, 2, cum.FilesAnalyzed)
	assert.Equal(t, 2000, cum.Metrics.OriginalTokens)
	assert.Equal(t, 6400, cum.Metrics.TokensSaved)

	overall := c.Overall(set)
	assert.Equal(t, 2, overall.Days)
	assert.Equal(t, 3, overall.Interactions)
	assert.Equal(t, 7000, overall.Metrics.OriginalTokens)
}

func TestMonthlyProjection_NoData(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	_, err := c.MonthlyProjection(nil)
	assert.ErrorIs(t, err, types.ErrNoData)
}

func TestMonthlyProjection_WorkingDaysReproducesSum(t *testing.T) {
	c := mustNew(t, DefaultOptions())

	var observations []types.UsageObservation
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultWorkingDays; i++ {
		ts := start.AddDate(0, 0, i).Format(types.TimestampLayout)
		observations = append(observations, obs(ts, fmt.Sprintf("f%d.go", i), 1000+37*i, 100+i))
	}
	days := c.Days(buildSet(observations...))
	require.Len(t, days, DefaultWorkingDays)

	var sumSaved int
	var sumCost float64
	for _, d := range days {
		sumSaved += d.Metrics.TokensSaved
		sumCost += d.Metrics.CostSavingsUSD
	}

	p, err := c.MonthlyProjection(days)
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkingDays, p.DaysObserved)
	assert.InDelta(t, float64(sumSaved), p.MonthlyTokensSaved, 1e-6)
	assert.InDelta(t, sumCost, p.MonthlyCostSavingsUSD, 1e-9)
}

func TestMonthlyProjection_Scales(t *testing.T) {
	c := mustNew(t, Options{ReadsPerFile: 5, RatePerMillion: 15, WorkingDays: 20})
	days := c.Days(buildSet(
		obs("2024-03-01 09:00:00", "a.py", 1000, 200),
		obs("2024-03-02 09:00:00", "b.py", 2000, 400),
	))

	p, err := c.MonthlyProjection(days)
	require.NoError(t, err)
	assert.InDelta(t, 4800, p.AvgTokensSaved, 1e-9)
	assert.InDelta(t, 96000, p.MonthlyTokensSaved, 1e-9)
	assert.InDelta(t, 64, p.AvgSavingsPercentage, 1e-9)
}

func TestMonthlyProjection_InvalidWorkingDays(t *testing.T) {
	_, err := MonthlyProjection([]types.DailyStats{{}}, 0)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestBuildReport_Empty(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	report, err := c.BuildReport(types.NewAggregateSet())
	require.NoError(t, err)

	assert.Nil(t, report.Projection)
	assert.Empty(t, report.Files)
	assert.Empty(t, report.Days)
	assert.Equal(t, 0, report.Overall.FilesAnalyzed)
	assert.Equal(t, 0, report.Cumulative.Metrics.TokensSaved)
	assert.Equal(t, 0.0, report.Cumulative.Metrics.SavingsPercentage)
}

func TestBuildReport_Populated(t *testing.T) {
	c := mustNew(t, DefaultOptions())
	set := buildSet(obs("2024-03-01 09:00:00", "a.py", 1000, 200))
	set.SkippedBlocks = 2

	report, err := c.BuildReport(set)
	require.NoError(t, err)
	require.NotNil(t, report.Projection)
	assert.Equal(t, 2, report.SkippedBlocks)
	assert.Equal(t, 5, report.ReadsPerFile)
	assert.Equal(t, 3200, report.Cumulative.Metrics.TokensSaved)
	assert.InDelta(t, 3200*22, report.Projection.MonthlyTokensSaved, 1e-9)
}
