package payments

import (
	"time"

	"github.com/google/uuid"
)

type Method string

const (
	MethodCash        Method = "cash"
	MethodWave        Method = "wave"
	MethodOrangeMoney Method = "orange_money"
	MethodMTNMoney    Method = "mtn_money"
	MethodMoovMoney   Method = "moov_money"
	MethodCard        Method = "card"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodWave, MethodOrangeMoney, MethodMTNMoney, MethodMoovMoney, MethodCard:
		return true
	}
	return false
}

type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateRefunded   State = "refunded"
	StateCancelled  State = "cancelled"
)

// Payment is one money movement against a booking. TransactionRef is the
// gateway's (or the counter's) reference and makes recording idempotent.
type Payment struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"booking_id"`
	Amount         int64      `gorm:"not null;check:amount > 0" json:"amount"`
	Method         Method     `gorm:"type:varchar(20);not null" json:"method"`
	State          State      `gorm:"type:varchar(20);not null;default:'pending'" json:"state"`
	TransactionRef string     `gorm:"size:120;uniqueIndex;not null" json:"transaction_ref"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
	RefundedAt     *time.Time `json:"refunded_at,omitempty"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	Note           string     `gorm:"size:255" json:"note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) IsCompleted() bool {
	return p.State == StateCompleted
}

func (p *Payment) MarkCompleted(at time.Time) {
	p.State = StateCompleted
	p.ProcessedAt = &at
	p.UpdatedAt = at
}

func (p *Payment) MarkFailed(reason string, at time.Time) {
	p.State = StateFailed
	p.FailureReason = reason
	p.ProcessedAt = &at
	p.UpdatedAt = at
}

// LedgerEntry is the outcome of applying one payment to a booking.
type LedgerEntry struct {
	BookingID    uuid.UUID `json:"booking_id"`
	PaymentID    uuid.UUID `json:"payment_id"`
	Amount       int64     `json:"amount"`
	AmountPaid   int64     `json:"amount_paid"`
	AmountDue    int64     `json:"amount_due"`
	BookingState string    `json:"booking_state"`
	// Confirmed is set when this payment confirmed the booking.
	Confirmed bool `json:"confirmed"`
	// Duplicate is set when the transaction reference had already been applied.
	Duplicate    bool   `json:"duplicate"`
	ConfirmError string `json:"confirm_error,omitempty"`
	// RefundScheduled is set when the booking no longer holds a seat and the money goes back.
	RefundScheduled bool `json:"refund_scheduled,omitempty"`
}

type RecordPaymentRequest struct {
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	TransactionRef string `json:"transaction_ref" binding:"required,max=100"`
	Method         Method `json:"method" binding:"required,oneof=cash wave orange_money mtn_money moov_money card"`
}

type InitiatePaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Method    Method `json:"method" binding:"required,oneof=wave orange_money mtn_money moov_money card"`
}

// Handle is what a client needs to complete a payment with the gateway.
type Handle struct {
	PaymentID      uuid.UUID `json:"payment_id"`
	TransactionRef string    `json:"transaction_ref"`
	Amount         int64     `json:"amount"`
	Method         Method    `json:"method"`
}

// WebhookEvent is the gateway callback body.
type WebhookEvent struct {
	TransactionRef string `json:"transaction_ref" binding:"required"`
	Status         string `json:"status" binding:"required,oneof=completed failed"`
	Amount         int64  `json:"amount" binding:"min=0"`
	Reason         string `json:"reason"`
}
