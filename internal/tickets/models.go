package tickets

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is everything printed on an e-ticket. It is assembled by the booking
// service once a booking is confirmed or checked in.
type Ticket struct {
	BookingID   uuid.UUID `json:"booking_id"`
	BookingRef  string    `json:"booking_ref"`
	TicketToken string    `json:"ticket_token"`
	TripRef     string    `json:"trip_ref"`
	QRPayload   string    `json:"qr_payload"`
	State       string    `json:"state"`

	PassengerName  string `json:"passenger_name"`
	PassengerPhone string `json:"passenger_phone"`
	TicketType     string `json:"ticket_type"`
	SeatNumber     int    `json:"seat_number,omitempty"`

	BoardingCity     string    `json:"boarding_city"`
	AlightingCity    string    `json:"alighting_city"`
	DepartureTime    time.Time `json:"departure_time"`
	EstimatedArrival time.Time `json:"estimated_arrival"`
	MeetingPoint     string    `json:"meeting_point,omitempty"`

	TotalAmount int64  `json:"total_amount"`
	AmountPaid  int64  `json:"amount_paid"`
	Currency    string `json:"currency"`

	IssuedBy string    `json:"issued_by,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
	ShareURL string    `json:"share_url,omitempty"`
}
