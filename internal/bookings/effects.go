package bookings

import (
	"context"
	"time"

	"busline/internal/notifications"
	"busline/internal/payments"
	"busline/internal/trips"

	"github.com/google/uuid"
)

// effects collects the work a transition triggers outside the trip's critical section.
type effects struct {
	tasks        []sideEffect
	availability bool
}

type sideEffect struct {
	name      string
	bookingID uuid.UUID
	run       func(ctx context.Context) error
}

func (fx *effects) add(name string, bookingID uuid.UUID, run func(ctx context.Context) error) {
	fx.tasks = append(fx.tasks, sideEffect{name: name, bookingID: bookingID, run: run})
}

// afterCommit starts the collected side effects. Failures are logged and never
// reach the caller of the committed transition.
func (s *service) afterCommit(tripID uuid.UUID, fx effects) {
	for _, task := range fx.tasks {
		task := task
		s.async(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.effectTimeout)
			defer cancel()
			if err := task.run(ctx); err != nil {
				s.log.LogSideEffectFailed(ctx, task.name, task.bookingID.String(), err)
			}
		})
	}
	if fx.availability && s.broadcaster != nil {
		s.async(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.effectTimeout)
			defer cancel()
			s.publishAvailability(ctx, tripID)
		})
	}
}

func (s *service) publishAvailability(ctx context.Context, tripID uuid.UUID) {
	snap, err := s.TripSnapshot(ctx, tripID)
	if err != nil {
		s.log.LogSideEffectFailed(ctx, "availability_broadcast", "", err)
		return
	}
	s.broadcaster.Broadcast(snap)
}

// refund schedules a refund of everything paid on b.
func (s *service) refund(fx *effects, b *Booking, reason string) {
	if b.AmountPaid <= 0 || s.refunder == nil {
		return
	}
	bookingID, amount := b.ID, b.AmountPaid
	fx.add("refund", bookingID, func(ctx context.Context) error {
		return s.refunder.IssueRefund(ctx, bookingID, amount, reason)
	})
}

// refundPayment schedules a refund of one late payment on a closed booking.
func (s *service) refundPayment(fx *effects, b *Booking, p *payments.Payment, reason string) bool {
	if s.refunder == nil {
		return false
	}
	bookingID, ref, amount := b.ID, p.TransactionRef, p.Amount
	fx.add("refund", bookingID, func(ctx context.Context) error {
		return s.refunder.RefundPayment(ctx, bookingID, ref, amount, reason)
	})
	return true
}

func (s *service) message(b *Booking, trip *trips.Trip) notifications.Message {
	msg := notifications.Message{
		BookingID:      b.ID,
		BookingRef:     b.Reference,
		TripID:         b.TripID,
		PassengerName:  b.PassengerName,
		PassengerPhone: b.PassengerPhone,
		PassengerEmail: b.PassengerEmail,
		TotalAmount:    b.TotalAmount,
		AmountDue:      b.Due(),
		Deadline:       b.ReservationDeadline,
		CreatedAt:      s.now(),
	}
	if trip != nil {
		msg.TripRef = trip.Reference
	}
	if b.ShareToken != nil {
		msg.ShareURL = ShareURL(s.cfg.ShareBaseURL, *b.ShareToken)
	}
	return msg
}

type noopNotifier struct{}

func (noopNotifier) SendTicket(context.Context, notifications.Message) error           { return nil }
func (noopNotifier) SendReservationHold(context.Context, notifications.Message) error  { return nil }
func (noopNotifier) SendBookingCancelled(context.Context, notifications.Message) error { return nil }
func (noopNotifier) SendTripCancelled(context.Context, notifications.Message) error    { return nil }

// snapshotAt builds the availability snapshot of trip from claims.
func snapshotAt(trip *trips.Trip, inv *trips.Inventory, at time.Time) *trips.AvailabilitySnapshot {
	return &trips.AvailabilitySnapshot{
		TripID:         trip.ID,
		State:          trip.State,
		EffectiveQuota: trip.EffectiveQuota(),
		Segments:       inv.Snapshot(),
		GeneratedAt:    at,
	}
}
