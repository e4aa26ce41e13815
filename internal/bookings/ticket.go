package bookings

import (
	"context"

	"busline/internal/routes"
	"busline/internal/shared/apperrors"
	"busline/internal/tickets"

	"github.com/google/uuid"
)

const defaultCurrency = "XOF"

func (s *service) Ticket(ctx context.Context, id uuid.UUID) (*tickets.Ticket, error) {
	booking, err := s.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildTicket(ctx, booking)
}

func (s *service) TicketByShareToken(ctx context.Context, token string) (*tickets.Ticket, error) {
	booking, err := s.GetBookingByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.buildTicket(ctx, booking)
}

// buildTicket assembles the printable ticket. Only confirmed and checked-in bookings
// carry a QR payload.
func (s *service) buildTicket(ctx context.Context, b *Booking) (*tickets.Ticket, error) {
	if !b.HasIssuableTicket() {
		return nil, apperrors.StateConflict("booking", string(b.State), "issue ticket")
	}

	trip, graph, err := s.tripContext(ctx, b.TripID)
	if err != nil {
		return nil, err
	}

	t := &tickets.Ticket{
		BookingID:      b.ID,
		BookingRef:     b.Reference,
		TicketToken:    b.TicketToken,
		TripRef:        trip.Reference,
		QRPayload:      QRPayload(b.Reference, b.TicketToken, trip.Reference),
		State:          string(b.State),
		PassengerName:  b.PassengerName,
		PassengerPhone: b.PassengerPhone,
		TicketType:     string(b.TicketType),
		DepartureTime:  trip.DepartureTime,
		MeetingPoint:   trip.MeetingPoint,
		TotalAmount:    b.TotalAmount,
		AmountPaid:     b.AmountPaid,
		Currency:       defaultCurrency,
		IssuedAt:       b.CreatedAt,
	}
	if b.PaymentDate != nil {
		t.IssuedAt = *b.PaymentDate
	}
	if b.ShareToken != nil {
		t.ShareURL = ShareURL(s.cfg.ShareBaseURL, *b.ShareToken)
	}

	if boardAt, err := graph.EstimatedArrival(trip.DepartureTime, b.BoardingStopID); err == nil {
		t.DepartureTime = boardAt
	}
	if arriveAt, err := graph.EstimatedArrival(trip.DepartureTime, b.AlightingStopID); err == nil {
		t.EstimatedArrival = arriveAt
	}

	if s.cities != nil {
		if cities, err := s.cities.ListCities(ctx); err == nil {
			t.BoardingCity, t.AlightingCity = cityNames(cities, b.BoardingStopID, b.AlightingStopID)
		}
	}
	if s.companies != nil {
		if settings, err := s.companies.Settings(ctx, trip.CompanyID); err == nil && settings.Currency != "" {
			t.Currency = settings.Currency
		}
	}
	if b.SeatID != nil && s.fleet != nil {
		if seat, err := s.fleet.SeatOnBus(ctx, trip.BusID, *b.SeatID); err == nil {
			t.SeatNumber = seat.Number
		}
	}
	if b.SoldBy != nil && s.operators != nil {
		if name, err := s.operators.DisplayName(ctx, *b.SoldBy); err == nil {
			t.IssuedBy = name
		}
	}
	return t, nil
}

func cityNames(cities []routes.City, board, alight uuid.UUID) (string, string) {
	var from, to string
	for _, c := range cities {
		switch c.ID {
		case board:
			from = c.Name
		case alight:
			to = c.Name
		}
	}
	return from, to
}
