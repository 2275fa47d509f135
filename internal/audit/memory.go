package audit

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity is the size of a Memory journal created with capacity 0.
const DefaultCapacity = 10000

// Memory is a bounded in-process journal. When full, the oldest entry is
// overwritten.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewMemory returns a journal holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{entries: make([]Entry, capacity)}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *Memory) List(_ context.Context, f Filter) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := f.limit()
	out := make([]Entry, 0, min(limit, m.lenLocked()))
	for i := 0; i < m.lenLocked() && len(out) < limit; i++ {
		e := m.entries[(m.next-1-i+len(m.entries))%len(m.entries)]
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) Prune(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.lenLocked()
	kept := make([]Entry, 0, n)
	for i := n - 1; i >= 0; i-- {
		e := m.entries[(m.next-1-i+len(m.entries))%len(m.entries)]
		if !e.CreatedAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}

	pruned := n - len(kept)
	clear(m.entries)
	copy(m.entries, kept)
	m.next = len(kept) % len(m.entries)
	m.full = len(kept) == len(m.entries)
	return pruned, nil
}

// Len returns the number of entries held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lenLocked()
}

func (m *Memory) lenLocked() int {
	if m.full {
		return len(m.entries)
	}
	return m.next
}

var _ Journal = (*Memory)(nil)
