package codec

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sdpower/token-savings-go/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func observation(ts, path string, original, summary int) types.UsageObservation {
	t, err := time.ParseInLocation(types.TimestampLayout, ts, time.UTC)
	if err != nil {
		panic(err)
	}
	return types.UsageObservation{Timestamp: t, FilePath: path, OriginalTokens: original, SummaryTokens: summary}
}

func TestEncode(t *testing.T) {
	o := observation("2024-03-01 14:02:11", "src/app.py", 1000, 200)

	want := "\n[2024-03-01 14:02:11] src/app.py\n" +
		"Original file tokens: 1000\n" +
		"Summary tokens: 200\n" +
		"Savings per read: 800\n" +
		"Break-even after 1.2 reads\n" +
		strings.Repeat("-", 50) + "\n"

	assert.Equal(t, want, Encode(o))
}

func TestEncode_NoSavings(t *testing.T) {
	o := observation("2024-03-01 14:02:11", "tiny.md", 100, 100)

	encoded := Encode(o)
	assert.Contains(t, encoded, "Savings per read: 0\n")
	assert.Contains(t, encoded, "Break-even after ∞ reads\n")

	decoded, err := DecodeIn(encoded, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, o, decoded)
}

func TestRoundTrip(t *testing.T) {
	cases := []types.UsageObservation{
		observation("2024-03-01 14:02:11", "src/app.py", 1000, 200),
		observation("2023-12-31 23:59:59", "docs/with spaces/README.md", 52000, 1),
		observation("2024-01-01 00:00:00", "a", 1, 0),
	}

	for _, o := range cases {
		t.Run(o.FilePath, func(t *testing.T) {
			blocks := Split(Encode(o))
			require.Len(t, blocks, 1)

			decoded, err := DecodeIn(blocks[0], time.UTC)
			require.NoError(t, err)
			assert.True(t, o.Timestamp.Equal(decoded.Timestamp))
			assert.Equal(t, o.FilePath, decoded.FilePath)
			assert.Equal(t, o.OriginalTokens, decoded.OriginalTokens)
			assert.Equal(t, o.SummaryTokens, decoded.SummaryTokens)
		})
	}
}

func TestDecode_TolerantOfOldAndExtraLines(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{
			name:  "old format without derived lines",
			block: "\n[2024-02-10 09:00:00] lib/util.go\nOriginal file tokens: 4000\nSummary tokens: 500\n",
		},
		{
			name:  "reordered with unknown line",
			block: "\n[2024-02-10 09:00:00] lib/util.go\nModel: claude\nSummary tokens: 500\nOriginal file tokens: 4000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := DecodeIn(tt.block, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, "lib/util.go", o.FilePath)
			assert.Equal(t, 4000, o.OriginalTokens)
			assert.Equal(t, 500, o.SummaryTokens)
		})
	}
}

func TestDecode_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		block   string
		missing []string
	}{
		{
			name:    "no summary line",
			block:   "\n[2024-02-10 09:00:00] lib/util.go\nOriginal file tokens: 4000\n",
			missing: []string{labelSummary},
		},
		{
			name:    "no header",
			block:   "Original file tokens: 4000\nSummary tokens: 10\n",
			missing: []string{labelTimestamp, labelFilePath},
		},
		{
			name:    "bad timestamp",
			block:   "[yesterday] lib/util.go\nOriginal file tokens: 4000\nSummary tokens: 10\n",
			missing: []string{labelTimestamp},
		},
		{
			name:    "garbage",
			block:   "not a log entry",
			missing: []string{labelTimestamp, labelFilePath, labelOriginal, labelSummary},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeIn(tt.block, time.UTC)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrParseFailure))

			var perr types.ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.block, perr.Block)
			assert.Equal(t, tt.missing, perr.Missing)
		})
	}
}

func TestBreakEven(t *testing.T) {
	reads, err := BreakEven(1000, 200)
	require.NoError(t, err)
	assert.InDelta(t, 1.25, reads, 1e-9)

	for _, summary := range []int{1000, 1500} {
		_, err := BreakEven(1000, summary)
		assert.ErrorIs(t, err, types.ErrInvalidMetric)
	}
}

func TestSplit_SkipsBlankBlocks(t *testing.T) {
	content := Encode(observation("2024-03-01 14:02:11", "a.py", 10, 2)) +
		"\n\n" + Delimiter + "\n" +
		Encode(observation("2024-03-01 14:03:11", "b.py", 10, 2))

	assert.Len(t, Split(content), 2)
	assert.Empty(t, Split(""))
}

func TestDelimiter(t *testing.T) {
	assert.Equal(t, strings.Repeat("-", 50), Delimiter)
}

func TestValidate(t *testing.T) {
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		path     string
		original int
		summary  int
		wantErr  bool
	}{
		{"plain path", "src/a.py", 10, 3, false},
		{"path with spaces and dashes", "my docs/a-b--c.py", 10, 3, false},
		{"empty path", "", 10, 3, true},
		{"newline injects a label", "evil.py\nOriginal file tokens: 999999", 10, 3, true},
		{"carriage return", "evil.py\r", 10, 3, true},
		{"delimiter splits the block", "a" + Delimiter + ".py", 10, 3, true},
		{"negative tokens", "a.py", -1, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(types.UsageObservation{Timestamp: ts, FilePath: tt.path, OriginalTokens: tt.original, SummaryTokens: tt.summary})
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}
