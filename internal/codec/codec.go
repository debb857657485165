// Package codec encodes usage observations into the plain-text savings log
// format and decodes them back.
//
// A block looks like:
//
//	[2024-03-01 14:02:11] src/app.py
//	Original file tokens: 1000
//	Summary tokens: 200
//	Savings per read: 800
//	Break-even after 1.2 reads
//	--------------------------------------------------
//
// Decoding looks each field up by its label, so blocks written by older
// versions (missing lines) or with extra lines still decode.
package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sdpower/token-savings-go/internal/types"
)

// Delimiter separates entries in the log.
const Delimiter = "--------------------------------------------------"

const (
	labelTimestamp = "timestamp"
	labelFilePath  = "file path"
	labelOriginal  = "Original file tokens"
	labelSummary   = "Summary tokens"
)

var (
	headerPattern   = regexp.MustCompile(`(?m)^\s*\[([^\]]*)\] ?(.*)$`)
	originalPattern = regexp.MustCompile(`Original file tokens:\s*(\d+)`)
	summaryPattern  = regexp.MustCompile(`Summary tokens:\s*(\d+)`)
)

// Validate reports observations that cannot be encoded without corrupting
// the log: a path that is empty, spans lines or contains the delimiter, or
// a negative token count.
func Validate(o types.UsageObservation) error {
	switch {
	case o.FilePath == "":
		return types.ValidationError{Field: "file_path", Message: "must not be empty"}
	case strings.ContainsAny(o.FilePath, "\r\n"):
		return types.ValidationError{Field: "file_path", Message: fmt.Sprintf("must be a single line, got %q", o.FilePath)}
	case strings.Contains(o.FilePath, Delimiter):
		return types.ValidationError{Field: "file_path", Message: "must not contain the entry delimiter"}
	case o.OriginalTokens < 0 || o.SummaryTokens < 0:
		return types.ValidationError{Field: "tokens", Message: fmt.Sprintf("must not be negative, got %d and %d", o.OriginalTokens, o.SummaryTokens)}
	}
	return nil
}

// Encode renders one observation as a log block, delimiter included.
func Encode(o types.UsageObservation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] %s\n", o.Timestamp.Format(types.TimestampLayout), o.FilePath)
	fmt.Fprintf(&b, "Original file tokens: %d\n", o.OriginalTokens)
	fmt.Fprintf(&b, "Summary tokens: %d\n", o.SummaryTokens)
	fmt.Fprintf(&b, "Savings per read: %d\n", o.Savings())
	if reads, err := BreakEven(o.OriginalTokens, o.SummaryTokens); err == nil {
		fmt.Fprintf(&b, "Break-even after %.1f reads\n", reads)
	} else {
		b.WriteString("Break-even after ∞ reads\n")
	}
	b.WriteString(Delimiter)
	b.WriteString("\n")
	return b.String()
}

// BreakEven returns original / (original - summary). The metric is undefined
// when a read saves nothing.
func BreakEven(original, summary int) (float64, error) {
	savings := original - summary
	if savings <= 0 {
		return 0, fmt.Errorf("break-even for savings %d: %w", savings, types.ErrInvalidMetric)
	}
	return float64(original) / float64(savings), nil
}

// Split cuts log content into candidate blocks. Blank blocks are dropped.
func Split(content string) []string {
	parts := strings.Split(content, Delimiter)
	blocks := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		blocks = append(blocks, part)
	}
	return blocks
}

// Decode parses a block, interpreting its timestamp in local time.
func Decode(block string) (types.UsageObservation, error) {
	return DecodeIn(block, time.Local)
}

// DecodeIn parses a block, interpreting its timestamp in loc. A block missing
// any required field yields a types.ParseError carrying the raw block.
func DecodeIn(block string, loc *time.Location) (types.UsageObservation, error) {
	if loc == nil {
		loc = time.Local
	}

	var (
		o       types.UsageObservation
		missing []string
	)

	if m := headerPattern.FindStringSubmatch(block); m != nil {
		ts, err := time.ParseInLocation(types.TimestampLayout, strings.TrimSpace(m[1]), loc)
		if err != nil {
			missing = append(missing, labelTimestamp)
		} else {
			o.Timestamp = ts
		}
		o.FilePath = strings.TrimSpace(m[2])
		if o.FilePath == "" {
			missing = append(missing, labelFilePath)
		}
	} else {
		missing = append(missing, labelTimestamp, labelFilePath)
	}

	if n, ok := intField(originalPattern, block); ok {
		o.OriginalTokens = n
	} else {
		missing = append(missing, labelOriginal)
	}

	if n, ok := intField(summaryPattern, block); ok {
		o.SummaryTokens = n
	} else {
		missing = append(missing, labelSummary)
	}

	if len(missing) > 0 {
		return types.UsageObservation{}, types.ParseError{Block: block, Missing: missing}
	}
	return o, nil
}

func intField(pattern *regexp.Regexp, block string) (int, bool) {
	m := pattern.FindStringSubmatch(block)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
