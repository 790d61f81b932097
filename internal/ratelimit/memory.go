package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// MemoryStore keeps fixed-window counters in process memory. State is lost on
// restart.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	now     func() time.Time
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now, letting tests move time forward.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore allows limit hits per key in every period.
func NewMemoryStore(limit int, period time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string) (Result, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.start.Add(s.period)) {
		w = &window{start: now}
		s.windows[key] = w
	}
	w.count++

	return newResult(w.count, s.limit, w.start.Add(s.period)), nil
}

// Cleanup drops windows that have already closed.
func (s *MemoryStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, w := range s.windows {
		if !now.Before(w.start.Add(s.period)) {
			delete(s.windows, key)
		}
	}
}

// Len reports how many keys currently hold a window.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// StartJanitor periodically evicts closed windows to prevent memory growth.
// It stops when ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

var _ Store = (*MemoryStore)(nil)
