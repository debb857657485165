package types

// SavingsMetrics holds the derived savings figures for one entity
// (a file, a day, or a whole dataset).
type SavingsMetrics struct {
	OriginalTokens     int     `json:"original_tokens"`
	SummaryTokens      int     `json:"summary_tokens"`
	SavingsPerRead     int     `json:"savings_per_read"`
	TraditionalTokens  int     `json:"traditional_tokens"`
	AmortizedTokens    int     `json:"amortized_tokens"`
	TokensSaved        int     `json:"tokens_saved"`
	SavingsPercentage  float64 `json:"savings_percentage"`
	CostSavingsUSD     float64 `json:"cost_savings_usd"`
	TraditionalCostUSD float64 `json:"traditional_cost_usd"`
	AmortizedCostUSD   float64 `json:"amortized_cost_usd"`
}

// EntryStats is one observation together with its per-read savings.
type EntryStats struct {
	Observation    UsageObservation `json:"observation"`
	SavingsPerRead int              `json:"savings_per_read"`
}

// FileStats describes the latest known sizes of a file.
type FileStats struct {
	FilePath     string         `json:"file_path"`
	Interactions int            `json:"interactions"`
	Latest       EntryStats     `json:"latest"`
	BreakEven    *float64       `json:"break_even_reads,omitempty"` // nil when undefined
	Metrics      SavingsMetrics `json:"metrics"`
}

// DailyStats describes one calendar day.
type DailyStats struct {
	Date           string         `json:"date"`
	FilesProcessed int            `json:"files_processed"`
	Interactions   int            `json:"interactions"`
	Entries        []EntryStats   `json:"entries"` // sorted by time of day
	Metrics        SavingsMetrics `json:"metrics"`
}

// OverallStats sums every day in the dataset.
type OverallStats struct {
	Days          int            `json:"days"`
	FilesAnalyzed int            `json:"files_analyzed"`
	Interactions  int            `json:"interactions"`
	Metrics       SavingsMetrics `json:"metrics"`
}

// CumulativeStats uses the latest observation of each file.
type CumulativeStats struct {
	FilesAnalyzed int            `json:"files_analyzed"`
	Metrics       SavingsMetrics `json:"metrics"`
}

// Projection extrapolates the average observed day to a working month.
type Projection struct {
	DaysObserved          int     `json:"days_observed"`
	WorkingDays           int     `json:"working_days"`
	AvgOriginalTokens     float64 `json:"avg_original_tokens"`
	AvgSummaryTokens      float64 `json:"avg_summary_tokens"`
	AvgTokensSaved        float64 `json:"avg_tokens_saved"`
	AvgSavingsPercentage  float64 `json:"avg_savings_percentage"`
	AvgCostSavingsUSD     float64 `json:"avg_cost_savings_usd"`
	MonthlyOriginalTokens float64 `json:"monthly_original_tokens"`
	MonthlySummaryTokens  float64 `json:"monthly_summary_tokens"`
	MonthlyTokensSaved    float64 `json:"monthly_tokens_saved"`
	MonthlyCostSavingsUSD float64 `json:"monthly_cost_savings_usd"`
}

// SavingsReport bundles every granularity the renderer can show.
// Projection is nil when there was no data to project from.
type SavingsReport struct {
	ReadsPerFile   int             `json:"reads_per_file"`
	RatePerMillion float64         `json:"rate_per_million_usd"`
	SkippedBlocks  int             `json:"skipped_blocks"`
	Files          []FileStats     `json:"files"`
	Days           []DailyStats    `json:"days"`
	Overall        OverallStats    `json:"overall"`
	Cumulative     CumulativeStats `json:"cumulative"`
	Projection     *Projection     `json:"projection,omitempty"`
}
