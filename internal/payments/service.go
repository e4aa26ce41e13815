package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/config"
	"busline/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger applies money to bookings. It is implemented by the booking service, which
// owns the per-trip critical section a payment has to run in.
type Ledger interface {
	RecordPayment(ctx context.Context, bookingID uuid.UUID, amount int64, transactionRef string, method Method) (*LedgerEntry, error)
	AmountDue(ctx context.Context, bookingID uuid.UUID) (int64, error)
}

type Service interface {
	RecordPayment(ctx context.Context, bookingID uuid.UUID, req RecordPaymentRequest) (*LedgerEntry, error)
	InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*Handle, error)
	HandleWebhook(ctx context.Context, event WebhookEvent) (*LedgerEntry, error)
	ListPayments(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)
	VerifySignature(body []byte, signature string) bool
}

type service struct {
	repo   Repository
	ledger Ledger
	cfg    config.PaymentsConfig
	log    *logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, ledger Ledger, cfg config.PaymentsConfig) Service {
	if cfg.ReferencePrefix == "" {
		cfg.ReferencePrefix = "PAY"
	}
	return &service{
		repo:   repo,
		ledger: ledger,
		cfg:    cfg,
		log:    logger.GetDefault().WithComponent("payments"),
		now:    time.Now,
	}
}

func (s *service) RecordPayment(ctx context.Context, bookingID uuid.UUID, req RecordPaymentRequest) (*LedgerEntry, error) {
	return s.ledger.RecordPayment(ctx, bookingID, req.Amount, req.TransactionRef, req.Method)
}

// InitiatePayment opens a pending gateway payment for everything still due.
func (s *service) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*Handle, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, apperrors.Validation("booking_id", "must be a valid UUID")
	}
	if req.Method == MethodCash || !req.Method.IsValid() {
		return nil, apperrors.Validation("method", "must be a gateway payment method")
	}

	due, err := s.ledger.AmountDue(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if due <= 0 {
		return nil, apperrors.Validation("booking_id", "nothing is due on this booking")
	}

	now := s.now()
	payment := &Payment{
		ID:             uuid.New(),
		BookingID:      bookingID,
		Amount:         due,
		Method:         req.Method,
		State:          StatePending,
		TransactionRef: newReference(s.cfg.ReferencePrefix),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	s.log.Info("payment initiated",
		"booking_id", bookingID.String(),
		"transaction_ref", payment.TransactionRef,
		"amount", due,
		"method", string(req.Method),
	)
	return &Handle{
		PaymentID:      payment.ID,
		TransactionRef: payment.TransactionRef,
		Amount:         payment.Amount,
		Method:         payment.Method,
	}, nil
}

// HandleWebhook settles a gateway payment. Completed events go through the ledger, so a
// replayed callback is answered with the same entry and Duplicate set.
func (s *service) HandleWebhook(ctx context.Context, event WebhookEvent) (*LedgerEntry, error) {
	payment, err := s.repo.GetByRef(ctx, event.TransactionRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("payment", event.TransactionRef)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	switch event.Status {
	case "completed":
		amount := event.Amount
		if amount == 0 {
			amount = payment.Amount
		}
		entry, err := s.ledger.RecordPayment(ctx, payment.BookingID, amount, payment.TransactionRef, payment.Method)
		if err != nil {
			return nil, err
		}
		return entry, nil
	case "failed":
		if payment.State != StatePending && payment.State != StateProcessing {
			return nil, apperrors.StateConflict("payment", string(payment.State), "fail")
		}
		payment.MarkFailed(event.Reason, s.now())
		if err := s.repo.Save(ctx, payment); err != nil {
			return nil, fmt.Errorf("failed to update payment: %w", err)
		}
		s.log.Warn("gateway payment failed",
			"booking_id", payment.BookingID.String(),
			"transaction_ref", payment.TransactionRef,
			"reason", event.Reason,
		)
		return nil, nil
	}
	return nil, apperrors.Validation("status", "must be completed or failed")
}

func (s *service) ListPayments(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	list, err := s.repo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return list, nil
}

// VerifySignature checks the hex HMAC-SHA256 of body. Without a configured secret every
// callback is accepted.
func (s *service) VerifySignature(body []byte, signature string) bool {
	if s.cfg.WebhookSecret == "" {
		return true
	}
	want, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(want, Sign(s.cfg.WebhookSecret, body))
}

// Sign returns the HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

func newReference(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:16])
}
