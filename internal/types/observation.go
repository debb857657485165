package types

import (
	"time"
)

// TimestampLayout is the second-precision layout used in the savings log.
const TimestampLayout = "2006-01-02 15:04:05"

// DateLayout is the calendar-date key used for daily grouping.
const DateLayout = "2006-01-02"

// UsageObservation is one completed summarization event.
type UsageObservation struct {
	Timestamp      time.Time `json:"timestamp"`
	FilePath       string    `json:"file_path"`
	OriginalTokens int       `json:"original_tokens"`
	SummaryTokens  int       `json:"summary_tokens"`
}

// Savings returns the per-read token difference. It may be zero or negative
// when a summary is as large as its source.
func (o UsageObservation) Savings() int {
	return o.OriginalTokens - o.SummaryTokens
}

// DateKey returns the calendar date of the observation in its own location.
func (o UsageObservation) DateKey() string {
	return o.Timestamp.Format(DateLayout)
}

// DailyAggregate groups the observations that share a calendar date.
type DailyAggregate struct {
	Date          string             `json:"date"`
	Files         map[string]bool    `json:"files"`
	Observations  []UsageObservation `json:"observations"` // log order
	TotalOriginal int                `json:"total_original"`
	TotalSummary  int                `json:"total_summary"`
}

// FileAggregate groups the observations recorded for one file path.
type FileAggregate struct {
	FilePath     string             `json:"file_path"`
	Latest       UsageObservation   `json:"latest"`
	Observations []UsageObservation `json:"observations"` // log order
}

// AggregateSet is the in-memory reconstruction of a whole savings log.
type AggregateSet struct {
	Days          map[string]*DailyAggregate `json:"days"`
	Files         map[string]*FileAggregate  `json:"files"`
	Observations  int                        `json:"observations"`
	SkippedBlocks int                        `json:"skipped_blocks"`
}

// NewAggregateSet returns an empty set ready for use.
func NewAggregateSet() *AggregateSet {
	return &AggregateSet{
		Days:  make(map[string]*DailyAggregate),
		Files: make(map[string]*FileAggregate),
	}
}

// IsEmpty reports whether no observation was aggregated.
func (s *AggregateSet) IsEmpty() bool {
	return s == nil || s.Observations == 0
}
