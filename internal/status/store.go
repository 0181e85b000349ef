package status

import (
	"sync"
	"time"
)

// Store is the single process-wide mutable record of what the bridge last
// did. "Last signal received" and "last order filled" are tracked separately:
// a rejected order still counts as a received signal.
type Store struct {
	mu             sync.RWMutex
	startedAt      time.Time
	lastSignal     string
	lastSignalTime time.Time
	lastOrderID    string
	lastFillTime   time.Time
}

// NewStore creates the store in its initial Online/None/None state.
func NewStore() *Store {
	return &Store{startedAt: time.Now()}
}

// RecordSignal notes a completed submission attempt, success or failure.
func (s *Store) RecordSignal(summary string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSignal = summary
	s.lastSignalTime = at
}

// RecordFill notes a filled order.
func (s *Store) RecordFill(orderID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrderID = orderID
	s.lastFillTime = at
}

// Snapshot is a point-in-time view for the status endpoint. Optional fields
// are nil until the first signal arrives.
type Snapshot struct {
	Status       string  `json:"status"`
	UptimeSec    int64   `json:"uptime_sec"`
	LastTime     *string `json:"last_time"`
	LastSignal   *string `json:"last_signal"`
	LastOrderID  *string `json:"last_order_id"`
	LastFillTime *string `json:"last_fill_time"`
}

// Snapshot returns the current state. No history is kept.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Status:    "online",
		UptimeSec: int64(time.Since(s.startedAt).Seconds()),
	}
	if !s.lastSignalTime.IsZero() {
		t := s.lastSignalTime.Format(time.RFC3339)
		snap.LastTime = &t
		sig := s.lastSignal
		snap.LastSignal = &sig
	}
	if !s.lastFillTime.IsZero() {
		t := s.lastFillTime.Format(time.RFC3339)
		snap.LastFillTime = &t
		id := s.lastOrderID
		snap.LastOrderID = &id
	}
	return snap
}
