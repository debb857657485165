// Package dedup suppresses duplicate log writes caused by retried
// summarizations within one process.
//
// The guard lives in memory only. Duplicates written by another process,
// or before a restart, are not detected.
package dedup

import (
	"fmt"
	"sync"

	"github.com/sdpower/token-savings-go/internal/types"
)

// DefaultCapacity is the number of fingerprints kept before the guard clears.
const DefaultCapacity = 100

// Fingerprint is the composite key of one observation.
func Fingerprint(o types.UsageObservation) string {
	return fmt.Sprintf("%s|%s|%d|%d",
		o.Timestamp.Format(types.TimestampLayout),
		o.FilePath,
		o.OriginalTokens,
		o.SummaryTokens,
	)
}

// Guard is a bounded set of recently written fingerprints. When a new key
// would take it past its capacity it is emptied entirely.
type Guard struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]bool
	clears   int
}

// New returns a guard holding at most capacity keys. Non-positive values
// fall back to DefaultCapacity.
func New(capacity int) *Guard {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Guard{
		capacity: capacity,
		seen:     make(map[string]bool),
	}
}

func (g *Guard) Seen(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seen[key]
}

// Remember records key. Remembering a key twice has no further effect.
// A full guard is emptied before a new key goes in, so the key just
// remembered is always seen afterwards.
func (g *Guard) Remember(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.seen[key] {
		return
	}
	if len(g.seen) >= g.capacity {
		g.seen = make(map[string]bool)
		g.clears++
	}
	g.seen[key] = true
}

// Len returns the number of keys currently held.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// Clears returns how many times the guard has been emptied.
func (g *Guard) Clears() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clears
}
