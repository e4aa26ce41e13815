package bookings

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTripLocksSerializeSameTrip(t *testing.T) {
	locks := NewTripLocks()
	trip := uuid.New()

	var inside, maxInside int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			unlock, err := locks.Lock(context.Background(), trip)
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	close(start)
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected exclusive access, saw %d holders", maxInside)
	}
	if locks.Len() != 0 {
		t.Fatalf("expected lock table to be empty, has %d", locks.Len())
	}
}

func TestTripLocksIndependentTrips(t *testing.T) {
	locks := NewTripLocks()
	unlockA, err := locks.Lock(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	unlockB, err := locks.Lock(ctx, uuid.New())
	if err != nil {
		t.Fatalf("other trip must not wait: %v", err)
	}
	unlockB()
}

func TestTripLocksHonourContext(t *testing.T) {
	locks := NewTripLocks()
	trip := uuid.New()
	unlock, _ := locks.Lock(context.Background(), trip)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locks.Lock(ctx, trip); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	unlock()
	unlock() // second call is a no-op
	if locks.Len() != 0 {
		t.Fatalf("expected empty lock table, got %d", locks.Len())
	}
}
