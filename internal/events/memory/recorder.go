// Package memory keeps the most recent pool notifications in a bounded ring
// so the API can serve an activity feed without an external broker.
package memory

import (
	"context"
	"sync"
	"time"

	"donationpool/internal/pool/models"
)

const defaultCapacity = 1000

// Record is a notification as the recorder saw it.
type Record struct {
	Sequence   uint64       `json:"sequence"`
	RecordedAt time.Time    `json:"recorded_at"`
	Event      models.Event `json:"event"`
}

// Recorder is a bounded, thread-safe buffer. When full, the oldest records
// are dropped to make room for new ones.
type Recorder struct {
	mu       sync.Mutex
	records  []Record
	head     int // next write position
	count    int
	capacity int
	sequence uint64
	dropped  int64
	now      func() time.Time
}

func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Recorder{
		records:  make([]Record, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Publish appends events in order. It never fails.
func (r *Recorder) Publish(_ context.Context, events []models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, event := range events {
		r.sequence++
		if r.count == r.capacity {
			r.dropped++
		} else {
			r.count++
		}
		r.records[r.head] = Record{Sequence: r.sequence, RecordedAt: now, Event: event}
		r.head = (r.head + 1) % r.capacity
	}
	return nil
}

// Recent returns up to limit records, oldest first. A non-positive limit
// returns everything retained.
func (r *Recorder) Recent(limit int) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > r.count {
		limit = r.count
	}
	out := make([]Record, limit)
	start := (r.head - limit + r.capacity) % r.capacity
	for i := range limit {
		out[i] = r.records[(start+i)%r.capacity]
	}
	return out
}

// Len returns the number of records retained.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Dropped returns how many records were overwritten.
func (r *Recorder) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
