// Package optimistic keeps client-side toggle state responsive: a like or
// follow flips locally before the server answers and is reverted if the
// server call fails.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mysns/internal/model"
)

// State is the lifecycle of the latest toggle for one key.
type State int

const (
	Idle State = iota
	Pending
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	// ErrInFlight is returned when a toggle for the same key is still pending.
	// The request is dropped; the pending one is not cancelled.
	ErrInFlight = errors.New("optimistic: toggle already in flight")

	// ErrReauthRequired wraps an authentication failure from the server so the
	// caller can send the user to sign in instead of showing an error.
	ErrReauthRequired = errors.New("optimistic: re-authentication required")
)

// Kind separates toggles of different actions on the same subject.
type Kind string

const (
	KindLike     Kind = "like"
	KindFollow   Kind = "follow"
	KindBookmark Kind = "bookmark"
)

// Key identifies one toggle: who acts, on what.
type Key struct {
	Kind    Kind
	Actor   string
	Subject string
}

// Snapshot is what the UI displays for a key.
type Snapshot struct {
	Active bool
	Count  int64
}

// RemoteFunc applies the desired state on the server. It must be idempotent.
type RemoteFunc func(ctx context.Context, desired bool) error

type entry struct {
	shown Snapshot
	state State
}

// Syncer holds displayed state per key. The mutex only guards this local map;
// it is not what keeps server state consistent.
type Syncer struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

func NewSyncer() *Syncer {
	return &Syncer{entries: make(map[Key]*entry)}
}

// Seed sets the displayed state from a server read. It is ignored while a
// toggle for key is pending so a stale read cannot clobber the optimistic value.
func (s *Syncer) Seed(key Key, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.entries[key] = &entry{shown: snap, state: Idle}
		return
	}
	if e.state == Pending {
		return
	}
	e.shown = snap
}

// View returns the displayed snapshot and state for key.
func (s *Syncer) View(key Key) (Snapshot, State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Snapshot{}, Idle
	}
	return e.shown, e.state
}

// Toggle flips the displayed state, runs remote with the new value and keeps
// or reverts the flip depending on the outcome. A remote that gives up on a
// timed-out ctx reports failure like any other error.
func (s *Syncer) Toggle(ctx context.Context, key Key, remote RemoteFunc) (Snapshot, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	if e.state == Pending {
		shown := e.shown
		s.mu.Unlock()
		return shown, ErrInFlight
	}

	before := e.shown
	desired := !before.Active
	e.shown = Snapshot{Active: desired, Count: adjust(before.Count, desired)}
	e.state = Pending
	s.mu.Unlock()

	err := remote(ctx, desired)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		e.shown = before
		e.state = RolledBack
		if errors.Is(err, model.ErrUnauthenticated) {
			return before, fmt.Errorf("%w: %w", ErrReauthRequired, err)
		}
		return before, err
	}
	e.state = Committed
	return e.shown, nil
}

func adjust(count int64, active bool) int64 {
	if active {
		return count + 1
	}
	if count > 0 {
		return count - 1
	}
	return 0
}
