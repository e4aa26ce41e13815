package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/trips"
)

// RunExpirySweep expires due reservations trip by trip, each under that trip's lock,
// so a sweep never interleaves with an admission on the same trip. Trips beyond the
// batch size are left for the next sweep.
func (s *service) RunExpirySweep(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()

	tripIDs, err := s.repo.TripsWithDueHolds(ctx, now, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to find due reservations: %w", err)
	}

	total := 0
	var errs []error
	for _, tripID := range tripIDs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		var expired []Booking
		err := s.withTrip(ctx, tripID, func(tx TxRepository, _ *trips.Trip, fx *effects) error {
			moved, err := tx.ExpireDue(tripID, now)
			if err != nil {
				return err
			}
			expired = moved
			fx.availability = len(moved) > 0
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("trip %s: %w", tripID, err))
			continue
		}

		total += len(expired)
		for _, b := range expired {
			s.log.LogBookingTransition(ctx, b.ID.String(), tripID.String(), string(StateReserved), string(StateExpired))
		}
	}

	s.log.LogExpirySweep(ctx, total, time.Since(start))
	return total, errors.Join(errs...)
}
