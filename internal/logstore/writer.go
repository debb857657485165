// Package logstore appends usage observations to the savings log.
package logstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sdpower/token-savings-go/internal/codec"
	"github.com/sdpower/token-savings-go/internal/dedup"
	"github.com/sdpower/token-savings-go/internal/logger"
	"github.com/sdpower/token-savings-go/internal/types"
)

// DefaultFileName is the log file used when none is configured.
const DefaultFileName = "token_savings.log"

// Writer is the sole mutator of a savings log. It owns one dedup guard for
// its whole lifetime, so keep a single Writer per process. There is no
// cross-process locking.
type Writer struct {
	path  string
	guard *dedup.Guard
	mu    sync.Mutex
}

// NewWriter creates a Writer for path whose guard holds dedupCapacity keys.
func NewWriter(path string, dedupCapacity int) *Writer {
	if path == "" {
		path = DefaultFileName
	}
	return &Writer{
		path:  path,
		guard: dedup.New(dedupCapacity),
	}
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one observation unless an identical one was written
// recently. It reports whether bytes were written. Observations that would
// not decode back to themselves are rejected with a ValidationError.
func (w *Writer) Append(o types.UsageObservation) (bool, error) {
	if err := codec.Validate(o); err != nil {
		return false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	key := dedup.Fingerprint(o)
	if w.guard.Seen(key) {
		logger.Debug("duplicate observation suppressed", "file", o.FilePath, "key", key)
		return false, nil
	}

	if err := w.appendBlock(codec.Encode(o)); err != nil {
		return false, err
	}
	w.guard.Remember(key)
	return true, nil
}

func (w *Writer) appendBlock(block string) (err error) {
	if dir := filepath.Dir(w.path); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return types.LogWriteError{Path: w.path, Err: mkErr}
		}
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return types.LogWriteError{Path: w.path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = types.LogWriteError{Path: w.path, Err: cerr}
		}
	}()

	if _, err := f.WriteString(block); err != nil {
		return types.LogWriteError{Path: w.path, Err: err}
	}
	if err := f.Sync(); err != nil {
		return types.LogWriteError{Path: w.path, Err: fmt.Errorf("sync: %w", err)}
	}
	return nil
}
