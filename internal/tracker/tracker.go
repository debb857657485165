// Package tracker turns a finished summarization into a logged usage
// observation. Token counting is delegated to a Tokenizer.
package tracker

import (
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/sdpower/token-savings-go/internal/logger"
	"github.com/sdpower/token-savings-go/internal/types"
)

// Tokenizer counts tokens in text. Implementations must be deterministic
// for a fixed text.
type Tokenizer interface {
	CountTokens(text string) int
}

// EstimateTokenizer approximates token counts as runes/4.
type EstimateTokenizer struct{}

func (EstimateTokenizer) CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return utf8.RuneCountInString(text) / 4
}

// Appender persists observations. *logstore.Writer satisfies it.
type Appender interface {
	Append(o types.UsageObservation) (bool, error)
}

type Tracker struct {
	tokenizer Tokenizer
	appender  Appender
	location  *time.Location
	now       func() time.Time
}

func New(tokenizer Tokenizer, appender Appender, location *time.Location) *Tracker {
	if tokenizer == nil {
		tokenizer = EstimateTokenizer{}
	}
	if location == nil {
		location = time.Local
	}
	return &Tracker{
		tokenizer: tokenizer,
		appender:  appender,
		location:  location,
		now:       time.Now,
	}
}

// Track counts tokens in the original and summary texts and appends the
// resulting observation, stamped to the second.
func (t *Tracker) Track(filePath, original, summary string) (types.UsageObservation, error) {
	o := types.UsageObservation{
		Timestamp:      t.now().In(t.location).Truncate(time.Second),
		FilePath:       filePath,
		OriginalTokens: t.tokenizer.CountTokens(original),
		SummaryTokens:  t.tokenizer.CountTokens(summary),
	}

	written, err := t.appender.Append(o)
	if err != nil {
		return o, err
	}
	if written {
		logger.Info("token analysis recorded",
			"file", filePath,
			"original_tokens", o.OriginalTokens,
			"summary_tokens", o.SummaryTokens,
		)
	}
	return o, nil
}

// TrackFiles reads a source file and its summary from disk and tracks them.
// The observation is logged under filePath.
func (t *Tracker) TrackFiles(filePath, summaryPath string) (types.UsageObservation, error) {
	original, err := os.ReadFile(filePath)
	if err != nil {
		return types.UsageObservation{}, fmt.Errorf("failed to read source file: %w", err)
	}
	summary, err := os.ReadFile(summaryPath)
	if err != nil {
		return types.UsageObservation{}, fmt.Errorf("failed to read summary file: %w", err)
	}
	return t.Track(filePath, string(original), string(summary))
}
