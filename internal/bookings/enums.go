package bookings

type BookingType string

const (
	// BookingTypeReservation is an unpaid hold with a deadline.
	BookingTypeReservation BookingType = "reservation"
	BookingTypePurchase    BookingType = "purchase"
)

type TicketType string

const (
	TicketAdult TicketType = "adult"
	TicketChild TicketType = "child"
	TicketVIP   TicketType = "vip"
)

func (t TicketType) IsValid() bool {
	switch t {
	case TicketAdult, TicketChild, TicketVIP:
		return true
	}
	return false
}
