package bookings

import (
	"context"
	"fmt"

	"busline/internal/trips"

	"github.com/google/uuid"
)

const tripCancelledReason = "trip cancelled by operator"

// TransitionTrip applies an operator action to a trip and cascades it to the trip's
// bookings inside the same critical section.
func (s *service) TransitionTrip(ctx context.Context, tripID uuid.UUID, action trips.Action) (*trips.TransitionResult, error) {
	var result *trips.TransitionResult
	err := s.withTrip(ctx, tripID, func(tx TxRepository, trip *trips.Trip, fx *effects) error {
		held, err := tx.CountInStates(trip.ID, StateReserved, StateConfirmed)
		if err != nil {
			return fmt.Errorf("failed to count bookings: %w", err)
		}

		from := trip.State
		now := s.now()
		if err := trips.Apply(trip, action, now, int(held)); err != nil {
			return err
		}
		if err := tx.SaveTrip(trip); err != nil {
			return fmt.Errorf("failed to save trip: %w", err)
		}

		cascaded := map[string]int{}
		move := func(from []State, to State, reason string) ([]Booking, error) {
			moved, err := tx.MoveAll(trip.ID, from, to, now, reason)
			if err != nil {
				return nil, fmt.Errorf("failed to move bookings to %s: %w", to, err)
			}
			if len(moved) > 0 {
				cascaded[string(to)] += len(moved)
			}
			return moved, nil
		}

		switch action {
		case trips.ActionDepart:
			if _, err := move([]State{StateReserved}, StateExpired, ""); err != nil {
				return err
			}
			unboarded := StateCheckedIn
			if s.cfg.NoShowAtDeparture {
				unboarded = StateNoShow
			}
			if _, err := move([]State{StateConfirmed}, unboarded, ""); err != nil {
				return err
			}
		case trips.ActionArrive:
			if _, err := move([]State{StateConfirmed, StateCheckedIn}, StateCompleted, ""); err != nil {
				return err
			}
		case trips.ActionCancel:
			moved, err := move([]State{StateDraft, StateReserved, StateConfirmed}, StateCancelled, tripCancelledReason)
			if err != nil {
				return err
			}
			for i := range moved {
				b := &moved[i]
				msg := s.message(b, trip)
				msg.Reason = tripCancelledReason
				fx.add("trip_cancelled", b.ID, func(ctx context.Context) error {
					return s.notifier.SendTripCancelled(ctx, msg)
				})
				s.refund(fx, b, tripCancelledReason)
			}
		}

		fx.availability = true
		result = &trips.TransitionResult{Trip: trip, From: from, Cascaded: cascaded}
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := 0
	for _, n := range result.Cascaded {
		total += n
	}
	s.log.LogTripTransition(ctx, tripID.String(), string(result.From), string(result.Trip.State), total)
	return result, nil
}

// GetTripAvailability is a display read. It takes no lock and must not gate a write.
func (s *service) GetTripAvailability(ctx context.Context, tripID, board, alight uuid.UUID) (int, error) {
	_, inv, err := s.liveInventory(ctx, tripID)
	if err != nil {
		return 0, err
	}
	return inv.GetAvailableSeats(board, alight), nil
}

func (s *service) TripSnapshot(ctx context.Context, tripID uuid.UUID) (*trips.AvailabilitySnapshot, error) {
	trip, inv, err := s.liveInventory(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return snapshotAt(trip, inv, s.now()), nil
}

func (s *service) liveInventory(ctx context.Context, tripID uuid.UUID) (*trips.Trip, *trips.Inventory, error) {
	trip, graph, err := s.tripContext(ctx, tripID)
	if err != nil {
		return nil, nil, err
	}
	claims, err := s.repo.ActiveClaims(ctx, tripID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load trip claims: %w", err)
	}
	return trip, trips.NewInventory(trip.EffectiveQuota(), graph, claims), nil
}
