package bookings

import (
	"time"

	"busline/internal/trips"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking is one passenger's claim on a trip for [BoardingStopID, AlightingStopID).
// Stop IDs are city IDs on the trip's route.
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Reference string    `gorm:"size:40;uniqueIndex;not null" json:"reference"`
	TripID    uuid.UUID `gorm:"type:uuid;index;not null" json:"trip_id"`

	BoardingStopID  uuid.UUID  `gorm:"type:uuid;not null" json:"boarding_stop_id"`
	AlightingStopID uuid.UUID  `gorm:"type:uuid;not null" json:"alighting_stop_id"`
	SeatID          *uuid.UUID `gorm:"type:uuid" json:"seat_id,omitempty"`

	State       State       `gorm:"type:varchar(20);not null;default:'draft';index" json:"state"`
	BookingType BookingType `gorm:"type:varchar(20);not null;default:'purchase'" json:"booking_type"`
	TicketType  TicketType  `gorm:"type:varchar(10);not null;default:'adult'" json:"ticket_type"`

	PassengerName  string `gorm:"size:120;not null" json:"passenger_name"`
	PassengerPhone string `gorm:"size:30;not null" json:"passenger_phone"`
	PassengerEmail string `gorm:"size:120" json:"passenger_email,omitempty"`
	IsForOther     bool   `gorm:"default:false" json:"is_for_other"`
	BuyerName      string `gorm:"size:120" json:"buyer_name,omitempty"`
	BuyerPhone     string `gorm:"size:30" json:"buyer_phone,omitempty"`

	LuggageWeightKg  int   `gorm:"default:0" json:"luggage_weight_kg"`
	TicketPrice      int64 `gorm:"not null;default:0" json:"ticket_price"`
	LuggageSurcharge int64 `gorm:"not null;default:0" json:"luggage_surcharge"`
	ReservationFee   int64 `gorm:"not null;default:0" json:"reservation_fee"`
	TotalAmount      int64 `gorm:"not null;default:0" json:"total_amount"`
	AmountPaid       int64 `gorm:"not null;default:0;check:amount_paid >= 0" json:"amount_paid"`
	AmountDue        int64 `gorm:"-" json:"amount_due"`

	ReservationDeadline *time.Time `gorm:"index" json:"reservation_deadline,omitempty"`
	PaymentDate         *time.Time `json:"payment_date,omitempty"`
	CheckedInAt         *time.Time `json:"checked_in_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason  string     `gorm:"size:255" json:"cancellation_reason,omitempty"`

	TicketToken string  `gorm:"size:64;uniqueIndex;not null" json:"ticket_token"`
	ShareToken  *string `gorm:"size:12;uniqueIndex" json:"share_token,omitempty"`

	SoldBy    *uuid.UUID `gorm:"type:uuid" json:"sold_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) AfterFind(*gorm.DB) error {
	b.refreshDue()
	return nil
}

// Due is TotalAmount - AmountPaid. It is never stored.
func (b *Booking) Due() int64 {
	return b.TotalAmount - b.AmountPaid
}

func (b *Booking) refreshDue() {
	b.AmountDue = b.Due()
}

// Claim is the booking as the trip inventory sees it.
func (b *Booking) Claim() trips.Claim {
	return trips.Claim{
		BookingID:    b.ID,
		BoardStopID:  b.BoardingStopID,
		AlightStopID: b.AlightingStopID,
		SeatID:       b.SeatID,
	}
}

// HasIssuableTicket reports whether a QR ticket may be produced.
func (b *Booking) HasIssuableTicket() bool {
	return b.State == StateConfirmed || b.State == StateCheckedIn
}
