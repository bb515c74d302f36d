package daemon

import (
	"sync"
	"time"
)

// RefreshRecorder keeps the times of the last N power state refreshes.
type RefreshRecorder struct {
	max     int
	records []time.Time
	mu      sync.Mutex
}

func NewRefreshRecorder(max int) *RefreshRecorder {
	return &RefreshRecorder{max: max}
}

// Add records t. The monotonic clock reading is stripped so records stay
// comparable across system sleep.
func (r *RefreshRecorder) Add(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.records) >= r.max {
		r.records = r.records[1:]
	}
	r.records = append(r.records, t.Round(0))
}

// Records returns a copy of the records, oldest first.
func (r *RefreshRecorder) Records() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]time.Time, len(r.records))
	copy(out, r.records)
	return out
}

// Strings formats the records as RFC 3339, newest first.
func (r *RefreshRecorder) Strings() []string {
	records := r.Records()
	out := make([]string, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i].Format(time.RFC3339))
	}
	return out
}
