// Package timing aggregates per-operation processing durations.
package timing

import (
	"sync"
	"time"
)

// Summary describes the durations observed for one operation.
type Summary struct {
	Count   int           `json:"count"`
	Average time.Duration `json:"average_ns"`
	Max     time.Duration `json:"max_ns"`
	Last    time.Duration `json:"last_ns"`
}

type record struct {
	count int
	total time.Duration
	max   time.Duration
	last  time.Duration
}

type Tracker struct {
	mu      sync.RWMutex
	records map[string]*record
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Start begins timing operation; call the returned func when it finishes.
func (t *Tracker) Start(operation string) func() time.Duration {
	start := t.now()
	return func() time.Duration {
		d := t.now().Sub(start)
		t.Observe(operation, d)
		return d
	}
}

func (t *Tracker) Observe(operation string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.records[operation]
	if !ok {
		r = &record{}
		t.records[operation] = r
	}
	r.count++
	r.total += d
	r.last = d
	if d > r.max {
		r.max = d
	}
}

func (t *Tracker) Summary(operation string) (Summary, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.records[operation]
	if !ok {
		return Summary{}, false
	}
	return r.summary(), true
}

func (t *Tracker) Summaries() map[string]Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]Summary, len(t.records))
	for op, r := range t.records {
		out[op] = r.summary()
	}
	return out
}

// Reset drops one operation, or everything when operation is empty.
func (t *Tracker) Reset(operation string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if operation == "" {
		t.records = make(map[string]*record)
		return
	}
	delete(t.records, operation)
}

func (r *record) summary() Summary {
	return Summary{
		Count:   r.count,
		Average: r.total / time.Duration(r.count),
		Max:     r.max,
		Last:    r.last,
	}
}
