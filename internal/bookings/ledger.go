package bookings

import (
	"context"
	"fmt"
	"strings"

	"busline/internal/payments"
	"busline/internal/shared/apperrors"
	"busline/internal/trips"

	"github.com/google/uuid"
)

// RecordPayment is idempotent on transactionRef: a reference already applied returns the
// booking's current figures with Duplicate set. A pending payment created by the gateway
// flow is completed in place, and refunded when the booking has been closed meanwhile.
func (s *service) RecordPayment(ctx context.Context, bookingID uuid.UUID, amount int64, transactionRef string, method payments.Method) (*payments.LedgerEntry, error) {
	transactionRef = strings.TrimSpace(transactionRef)
	if amount <= 0 {
		return nil, apperrors.Validation("amount", "must be greater than zero")
	}
	if transactionRef == "" {
		return nil, apperrors.Validation("transaction_ref", "is required")
	}
	if method == "" {
		method = payments.MethodCash
	}
	if !method.IsValid() {
		return nil, apperrors.Validation("method", "unknown payment method")
	}

	current, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	_, graph, err := s.tripContext(ctx, current.TripID)
	if err != nil {
		return nil, err
	}

	var entry *payments.LedgerEntry
	var confirmedFrom State
	err = s.withTrip(ctx, current.TripID, func(tx TxRepository, trip *trips.Trip, fx *effects) error {
		b, err := tx.LockBooking(bookingID)
		if err != nil {
			return err
		}

		payment, err := tx.PaymentByRef(transactionRef)
		if err != nil {
			return fmt.Errorf("failed to look up payment: %w", err)
		}
		if payment != nil {
			if payment.BookingID != b.ID {
				return apperrors.Validation("transaction_ref", "already used for another booking")
			}
			switch payment.State {
			case payments.StateCompleted:
				entry = ledgerEntry(b, payment)
				entry.Duplicate = true
				return nil
			case payments.StatePending, payments.StateProcessing:
			default:
				return apperrors.StateConflict("payment", string(payment.State), "complete")
			}
		}

		// pending gateway payments complete in any state; new ones need a confirmable booking
		payable := b.State == StateDraft || b.State == StateReserved
		if payment == nil && !payable {
			return apperrors.StateConflict("booking", string(b.State), "pay")
		}
		if b.AmountPaid+amount > b.TotalAmount {
			return apperrors.Validation("amount", fmt.Sprintf("exceeds the %d still due", b.Due()))
		}

		now := s.now()
		if payment == nil {
			payment = &payments.Payment{
				ID:             uuid.New(),
				BookingID:      b.ID,
				Method:         method,
				TransactionRef: transactionRef,
				CreatedAt:      now,
			}
			payment.Amount = amount
			payment.MarkCompleted(now)
			if err := tx.CreatePayment(payment); err != nil {
				return fmt.Errorf("failed to store payment: %w", err)
			}
		} else {
			payment.Amount = amount
			payment.MarkCompleted(now)
			if err := tx.SavePayment(payment); err != nil {
				return fmt.Errorf("failed to complete payment: %w", err)
			}
		}

		b.AmountPaid += amount
		b.refreshDue()
		if err := tx.Save(b); err != nil {
			return err
		}
		entry = ledgerEntry(b, payment)

		if closedForPayment(b.State) {
			entry.RefundScheduled = s.refundPayment(fx, b, payment, "payment received after booking was "+string(b.State))
			return nil
		}
		if payable && b.Due() <= 0 {
			from := b.State
			snapshot := *b
			if err := s.confirmLocked(tx, trip, graph, b, fx); err != nil {
				// the payment stands; confirmation can be retried by hand
				*b = snapshot
				entry.ConfirmError = err.Error()
				s.log.Warn("auto-confirm after payment failed",
					"booking_id", b.ID.String(),
					"error", err.Error(),
				)
			} else {
				confirmedFrom = from
				entry.Confirmed = true
			}
			entry.BookingState = string(b.State)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !entry.Duplicate {
		s.log.LogPaymentRecorded(ctx, bookingID.String(), transactionRef, amount, entry.AmountDue)
	}
	if entry.Confirmed {
		s.log.LogBookingTransition(ctx, bookingID.String(), current.TripID.String(), string(confirmedFrom), string(StateConfirmed))
	}
	return entry, nil
}

// closedForPayment lists the states a late gateway payment is returned from.
func closedForPayment(st State) bool {
	return st == StateCancelled || st == StateExpired || st == StateRefunded
}

func ledgerEntry(b *Booking, p *payments.Payment) *payments.LedgerEntry {
	return &payments.LedgerEntry{
		BookingID:    b.ID,
		PaymentID:    p.ID,
		Amount:       p.Amount,
		AmountPaid:   b.AmountPaid,
		AmountDue:    b.Due(),
		BookingState: string(b.State),
	}
}
