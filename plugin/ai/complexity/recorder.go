package complexity

import (
	"sync"
	"time"
)

// DecisionRecord is one routing outcome kept for offline tuning.
type DecisionRecord struct {
	Time          time.Time `json:"time"`
	UserID        string    `json:"user_id"`
	Intent        string    `json:"intent"`
	Complexity    int       `json:"complexity"`
	Backend       string    `json:"backend"`
	Reason        string    `json:"reason"`
	EstimatedCost float64   `json:"estimated_cost"`
	LatencyMs     float64   `json:"latency_ms"`
	Satisfaction  *float64  `json:"satisfaction,omitempty"`
}

// DecisionRecorder keeps the most recent routing decisions in a fixed
// ring. Append never allocates on the hot path once the ring is full and
// never blocks on anything but its own mutex.
type DecisionRecorder struct {
	mu    sync.Mutex
	ring  []DecisionRecord
	next  int
	count int
}

// DefaultDecisionCapacity bounds memory for decision history.
const DefaultDecisionCapacity = 1000

// NewDecisionRecorder creates a recorder holding at most capacity decisions.
func NewDecisionRecorder(capacity int) *DecisionRecorder {
	if capacity < 1 {
		capacity = DefaultDecisionCapacity
	}
	return &DecisionRecorder{ring: make([]DecisionRecord, capacity)}
}

// Append records a decision, overwriting the oldest once full.
func (r *DecisionRecorder) Append(rec DecisionRecord) {
	r.mu.Lock()
	r.ring[r.next] = rec
	r.next = (r.next + 1) % len(r.ring)
	if r.count < len(r.ring) {
		r.count++
	}
	r.mu.Unlock()
}

// Snapshot returns the recorded decisions oldest first.
func (r *DecisionRecorder) Snapshot() []DecisionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DecisionRecord, 0, r.count)
	start := r.next - r.count
	if start < 0 {
		start += len(r.ring)
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.ring[(start+i)%len(r.ring)])
	}
	return out
}

// Len returns the number of recorded decisions.
func (r *DecisionRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
