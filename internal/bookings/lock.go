package bookings

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TripLocks serializes admission-affecting work per trip inside one process.
// Entries are reference counted and dropped once nobody holds or waits on them.
type TripLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*tripLock
}

type tripLock struct {
	sem  chan struct{}
	refs int
}

func NewTripLocks() *TripLocks {
	return &TripLocks{locks: make(map[uuid.UUID]*tripLock)}
}

// Lock blocks until the trip's lock is held or ctx is done.
// The returned func releases it and must be called exactly once.
func (l *TripLocks) Lock(ctx context.Context, tripID uuid.UUID) (func(), error) {
	l.mu.Lock()
	tl, ok := l.locks[tripID]
	if !ok {
		tl = &tripLock{sem: make(chan struct{}, 1)}
		l.locks[tripID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	select {
	case tl.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(tripID, tl)
		return nil, fmt.Errorf("waiting for trip %s lock: %w", tripID, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-tl.sem
			l.release(tripID, tl)
		})
	}, nil
}

func (l *TripLocks) release(tripID uuid.UUID, tl *tripLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	tl.refs--
	if tl.refs == 0 {
		delete(l.locks, tripID)
	}
}

// Len is the number of trips with a held or awaited lock.
func (l *TripLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
