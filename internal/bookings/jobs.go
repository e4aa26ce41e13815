package bookings

import (
	"context"
	"sync"
	"time"

	"busline/pkg/logger"
)

// Sweeper is the scheduler's view of the booking service.
type Sweeper interface {
	RunExpirySweep(ctx context.Context, now time.Time) (int, error)
}

// ExpiryScheduler runs the reservation expiry sweep on a fixed interval.
type ExpiryScheduler struct {
	sweeper  Sweeper
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewExpiryScheduler(sweeper Sweeper, interval, timeout time.Duration) *ExpiryScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if timeout <= 0 {
		timeout = interval
	}
	return &ExpiryScheduler{
		sweeper:  sweeper,
		interval: interval,
		timeout:  timeout,
		log:      logger.GetDefault().WithComponent("expiry"),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. It runs one sweep immediately.
func (es *ExpiryScheduler) Start(ctx context.Context) {
	es.log.Info("starting reservation expiry scheduler", "interval", es.interval.String())

	es.wg.Add(1)
	go func() {
		defer es.wg.Done()
		ticker := time.NewTicker(es.interval)
		defer ticker.Stop()

		es.RunOnce(ctx)
		for {
			select {
			case <-ticker.C:
				es.RunOnce(ctx)
			case <-es.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight sweep.
func (es *ExpiryScheduler) Stop() {
	es.stopOnce.Do(func() { close(es.done) })
	es.wg.Wait()
	es.log.Info("reservation expiry scheduler stopped")
}

// RunOnce performs a single bounded sweep.
func (es *ExpiryScheduler) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, es.timeout)
	defer cancel()

	expired, err := es.sweeper.RunExpirySweep(ctx, es.now())
	if err != nil {
		es.log.Error("reservation expiry sweep failed", "error", err.Error(), "expired", expired)
	}
	return expired
}

func (es *ExpiryScheduler) Status() map[string]interface{} {
	return map[string]interface{}{
		"interval": es.interval.String(),
		"timeout":  es.timeout.String(),
	}
}
