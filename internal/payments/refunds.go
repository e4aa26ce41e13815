package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefundIssuer records refunds owed after a cancellation. Paying the money back is done
// at the counter or by the gateway; this keeps the books straight.
type RefundIssuer struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

func NewRefundIssuer(repo Repository) *RefundIssuer {
	return &RefundIssuer{
		repo: repo,
		log:  logger.GetDefault().WithComponent("refunds"),
		now:  time.Now,
	}
}

// IssueRefund is idempotent per booking.
func (r *RefundIssuer) IssueRefund(ctx context.Context, bookingID uuid.UUID, amount int64, reason string) error {
	if amount <= 0 {
		return nil
	}
	method := MethodCash
	if list, err := r.repo.ListByBooking(ctx, bookingID); err == nil {
		for _, p := range list {
			if p.IsCompleted() {
				method = p.Method
			}
		}
	}
	return r.issue(ctx, bookingID, refundReference(bookingID.String()), amount, method, reason)
}

// RefundPayment returns one completed payment, idempotent per transaction reference.
// It covers money that arrived after the booking stopped holding a seat.
func (r *RefundIssuer) RefundPayment(ctx context.Context, bookingID uuid.UUID, transactionRef string, amount int64, reason string) error {
	if amount <= 0 {
		return nil
	}
	method := MethodCash
	if p, err := r.repo.GetByRef(ctx, transactionRef); err == nil {
		method = p.Method
	}
	return r.issue(ctx, bookingID, refundReference(transactionRef), amount, method, reason)
}

func (r *RefundIssuer) issue(ctx context.Context, bookingID uuid.UUID, ref string, amount int64, method Method, reason string) error {
	if _, err := r.repo.GetByRef(ctx, ref); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up refund: %w", err)
	}

	now := r.now()
	refund := &Payment{
		ID:             uuid.New(),
		BookingID:      bookingID,
		Amount:         amount,
		Method:         method,
		State:          StateRefunded,
		TransactionRef: ref,
		RefundedAt:     &now,
		Note:           reason,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.repo.Create(ctx, refund); err != nil {
		return fmt.Errorf("failed to record refund: %w", err)
	}

	r.log.Info("refund recorded",
		"booking_id", bookingID.String(),
		"reference", ref,
		"amount", amount,
		"reason", reason,
	)
	return nil
}

func refundReference(key string) string {
	return "RFD-" + key
}
