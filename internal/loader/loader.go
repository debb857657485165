package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sdpower/token-savings-go/internal/codec"
	"github.com/sdpower/token-savings-go/internal/logger"
	"github.com/sdpower/token-savings-go/internal/types"
)

// Loader reads a savings log and rebuilds per-day and per-file aggregates.
type Loader struct {
	timezone *time.Location
	since    string // YYYY-MM-DD, inclusive
	until    string // YYYY-MM-DD, inclusive
	cutoff   time.Time
}

func New() *Loader {
	return &Loader{
		timezone: time.Local,
	}
}

// SetTimezone sets the location the log's naive timestamps are read in.
func (l *Loader) SetTimezone(timezone *time.Location) {
	if timezone != nil {
		l.timezone = timezone
	}
}

// SetDateRange keeps only observations whose date falls in [since, until].
// Either bound may be empty.
func (l *Loader) SetDateRange(since, until string) {
	l.since = since
	l.until = until
}

// SetLastDays keeps observations stamped no earlier than n days before now.
// The cutoff is an instant, not a calendar date.
func (l *Loader) SetLastDays(n int, now time.Time) {
	if n <= 0 {
		return
	}
	l.cutoff = now.Add(-time.Duration(n) * 24 * time.Hour)
}

// LoadFromPath reads the whole log at path. A missing file yields an empty
// set together with an error wrapping types.ErrLogMissing; callers treat
// that as an empty dataset.
func (l *Loader) LoadFromPath(ctx context.Context, path string) (*types.AggregateSet, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("savings log does not exist", "path", path)
			return types.NewAggregateSet(), fmt.Errorf("%s: %w", path, types.ErrLogMissing)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	set, err := l.Parse(ctx, string(content))
	if err != nil {
		return nil, err
	}

	logger.Debug("loaded savings log",
		"path", path,
		"observations", set.Observations,
		"days", len(set.Days),
		"files", len(set.Files),
		"skipped", set.SkippedBlocks,
	)
	return set, nil
}

// Parse aggregates log content. Blocks that fail to decode are counted in
// SkippedBlocks and otherwise ignored.
func (l *Loader) Parse(ctx context.Context, content string) (*types.AggregateSet, error) {
	set := types.NewAggregateSet()
	var firstErr error

	for _, block := range codec.Split(content) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		o, err := codec.DecodeIn(block, l.timezone)
		if err != nil {
			set.SkippedBlocks++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if !l.inRange(o) {
			continue
		}
		add(set, o)
	}

	if firstErr != nil {
		logger.Debug("skipped unparseable blocks", "count", set.SkippedBlocks, "first_error", firstErr)
	}
	return set, nil
}

func (l *Loader) inRange(o types.UsageObservation) bool {
	if !l.cutoff.IsZero() && o.Timestamp.Before(l.cutoff) {
		return false
	}
	date := o.DateKey()
	if l.since != "" && date < l.since {
		return false
	}
	if l.until != "" && date > l.until {
		return false
	}
	return true
}

func add(set *types.AggregateSet, o types.UsageObservation) {
	set.Observations++

	dateKey := o.DateKey()
	day, ok := set.Days[dateKey]
	if !ok {
		day = &types.DailyAggregate{
			Date:  dateKey,
			Files: make(map[string]bool),
		}
		set.Days[dateKey] = day
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
		// equal timestamps: the later block in the log wins
		file.Latest = o
	}
	file.Observations = append(file.Observations, o)
}
