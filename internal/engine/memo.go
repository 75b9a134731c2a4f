package engine

import (
	"crypto/sha256"
	"slices"
	"strings"
	"sync"

	"github.com/tartampluch/go-cycle/internal/config"
)

// Forecaster memoizes the last prediction, keyed on the sorted start dates
// of the history it was computed from. The worker re-syncs on a timer and
// the history rarely changes between ticks, so most calls are hits.
//
// The zero value is ready to use and safe for concurrent callers.
type Forecaster struct {
	mu     sync.Mutex
	key    [sha256.Size]byte
	filled bool
	result PredictionResult
	ok     bool

	hits   int
	misses int
}

// Predict returns the same values as the package-level Predict, reusing the
// previous result when the set of start dates is unchanged.
func (f *Forecaster) Predict(events []CycleEvent) (PredictionResult, bool) {
	key := snapshotKey(events)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.filled && f.key == key {
		f.hits++
		return f.result, f.ok
	}

	f.misses++
	f.result, f.ok = Predict(events)
	f.key = key
	f.filled = true
	return f.result, f.ok
}

// Stats reports how many calls were served from the memo and how many
// recomputed.
func (f *Forecaster) Stats() (hits, misses int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits, f.misses
}

// snapshotKey hashes the calendar days of events in ascending order, so
// that permutations of the same history share a key.
func snapshotKey(events []CycleEvent) [sha256.Size]byte {
	days := make([]string, len(events))
	for i, e := range events {
		days[i] = DateOnly(e.StartDate).Format(config.DateFormatISO)
	}
	slices.Sort(days)
	return sha256.Sum256([]byte(strings.Join(days, config.KeySeparator)))
}
