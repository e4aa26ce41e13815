package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindTicket           Kind = "TICKET_ISSUED"
	KindReservationHold  Kind = "RESERVATION_HOLD"
	KindBookingCancelled Kind = "BOOKING_CANCELLED"
	KindTripCancelled    Kind = "TRIP_CANCELLED"
)

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Message is the envelope published for every passenger notification.
// Delivery (SMS, email) is done by downstream consumers.
type Message struct {
	ID       uuid.UUID `json:"id"`
	Kind     Kind      `json:"kind"`
	Priority Priority  `json:"priority"`

	BookingID  uuid.UUID `json:"booking_id"`
	BookingRef string    `json:"booking_ref"`
	TripID     uuid.UUID `json:"trip_id"`
	TripRef    string    `json:"trip_ref,omitempty"`

	PassengerName  string `json:"passenger_name"`
	PassengerPhone string `json:"passenger_phone"`
	PassengerEmail string `json:"passenger_email,omitempty"`

	TotalAmount int64      `json:"total_amount,omitempty"`
	AmountDue   int64      `json:"amount_due,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	ShareURL    string     `json:"share_url,omitempty"`
	Reason      string     `json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DefaultPriority ranks kinds so consumers can order delivery.
func DefaultPriority(kind Kind) Priority {
	switch kind {
	case KindTripCancelled, KindReservationHold:
		return PriorityHigh
	case KindTicket, KindBookingCancelled:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// PartitionKey keeps every message of a booking on one partition.
func (m *Message) PartitionKey() string {
	return m.BookingID.String()
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// stamp fills the envelope fields the publisher owns.
func (m *Message) stamp(kind Kind, now time.Time) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Kind = kind
	if m.Priority == "" {
		m.Priority = DefaultPriority(kind)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
}
