package bookings

import (
	"fmt"

	"busline/internal/routes"
	"busline/internal/shared/apperrors"
	"busline/internal/trips"

	"github.com/google/uuid"
)

// Quote is the price breakdown of a booking in minor units.
type Quote struct {
	Ticket         int64 `json:"ticket"`
	Luggage        int64 `json:"luggage"`
	ReservationFee int64 `json:"reservation_fee"`
	Total          int64 `json:"total"`
}

// TicketFare prices one seat on [board, alight). The segment fare of the route is the
// adult base; VIP and child fares scale it by the trip's VIP and child prices.
func TicketFare(trip *trips.Trip, graph *routes.Graph, board, alight uuid.UUID, ticketType TicketType) (int64, error) {
	base, err := graph.SegmentFare(board, alight, trip.Price)
	if err != nil {
		return 0, err
	}

	switch ticketType {
	case TicketVIP:
		if trip.VIPPrice > 0 {
			return scale(base, trip.VIPPrice, trip.Price), nil
		}
	case TicketChild:
		if trip.ChildPrice > 0 {
			return scale(base, trip.ChildPrice, trip.Price), nil
		}
		return base / 2, nil
	}
	return base, nil
}

func scale(base, num, den int64) int64 {
	if den <= 0 {
		return num
	}
	return base * num / den
}

// LuggageSurcharge charges every kilogram above the included allowance.
func LuggageSurcharge(weightKg, includedKg int, pricePerKg int64) int64 {
	extra := weightKg - includedKg
	if extra <= 0 || pricePerKg <= 0 {
		return 0
	}
	return int64(extra) * pricePerKg
}

// ValidateLuggage rejects weights above the bus's per-passenger limit.
func ValidateLuggage(weightKg, maxKg int) error {
	if weightKg < 0 {
		return apperrors.Validation("luggage_weight_kg", "must not be negative")
	}
	if maxKg > 0 && weightKg > maxKg {
		return apperrors.Validation("luggage_weight_kg", fmt.Sprintf("exceeds the %d kg allowed per passenger", maxKg))
	}
	return nil
}

// QuoteFor prices a booking. The reservation fee only applies to reservations.
func QuoteFor(trip *trips.Trip, graph *routes.Graph, board, alight uuid.UUID, ticketType TicketType, luggageKg int, reservationFee int64) (Quote, error) {
	ticket, err := TicketFare(trip, graph, board, alight, ticketType)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{
		Ticket:         ticket,
		Luggage:        LuggageSurcharge(luggageKg, trip.IncludedLuggageKg, trip.ExtraLuggagePricePerKg),
		ReservationFee: reservationFee,
	}
	q.Total = q.Ticket + q.Luggage + q.ReservationFee
	return q, nil
}

func (q Quote) apply(b *Booking) {
	b.TicketPrice = q.Ticket
	b.LuggageSurcharge = q.Luggage
	b.ReservationFee = q.ReservationFee
	b.TotalAmount = q.Total
	b.refreshDue()
}
