package core

// edit_gate.go serializes edit passes.
//
// An orchestration pass reads a row, decides, and writes back several ranges.
// Two passes interleaving on the same store could both scaffold the same row
// or split a mini-table, so the gate admits one pass at a time. Callers that
// cannot get the slot within maxWait fail with ErrEditBusy.
//
// WaitForDrain lets the host finish the pass in flight before shutting down.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrEditBusy is returned when another edit holds the gate and the wait
// timeout expires. Clients should retry after a short delay.
var ErrEditBusy = errors.New("edit in progress, please try again later")

// DefaultEditSlots is the number of passes admitted at once.
const DefaultEditSlots = 1

// DefaultEditWait is how long to wait for the gate before rejecting.
const DefaultEditWait = 10 * time.Second

// EditGate controls concurrent edit processing using a semaphore pattern.
type EditGate struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu       sync.RWMutex
	active   int
	rejected int
}

// NewEditGate creates a gate that admits at most slots simultaneous passes.
// Requests that cannot acquire a slot within maxWait receive ErrEditBusy.
func NewEditGate(slots int, maxWait time.Duration) *EditGate {
	if slots <= 0 {
		slots = DefaultEditSlots
	}
	if maxWait <= 0 {
		maxWait = DefaultEditWait
	}

	return &EditGate{
		semaphore: make(chan struct{}, slots),
		maxWait:   maxWait,
	}
}

// Acquire waits for the gate.
// Returns nil on success, ErrEditBusy if the wait expires.
// The caller MUST call Release() when the pass completes (use defer).
func (g *EditGate) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.semaphore <- struct{}{}:
		g.mu.Lock()
		g.active++
		g.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Original context cancelled vs our own timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		g.mu.Lock()
		g.rejected++
		g.mu.Unlock()
		return ErrEditBusy
	}
}

// TryAcquire takes the gate without blocking.
func (g *EditGate) TryAcquire() bool {
	select {
	case g.semaphore <- struct{}{}:
		g.mu.Lock()
		g.active++
		g.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (g *EditGate) Release() {
	g.mu.Lock()
	g.active--
	g.mu.Unlock()

	<-g.semaphore
}

// ActiveCount returns the number of passes holding the gate.
func (g *EditGate) ActiveCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// Available returns the number of free slots.
func (g *EditGate) Available() int {
	return cap(g.semaphore) - len(g.semaphore)
}

// WaitForDrain blocks until no pass holds the gate or ctx is cancelled.
func (g *EditGate) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if g.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// EditGateStatus is a snapshot of the gate's state.
type EditGateStatus struct {
	Active   int `json:"active"`
	Slots    int `json:"slots"`
	Rejected int `json:"rejected"`
}

// Status returns the current gate state for the status page.
func (g *EditGate) Status() EditGateStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return EditGateStatus{
		Active:   g.active,
		Slots:    cap(g.semaphore),
		Rejected: g.rejected,
	}
}
