package bookings

import (
	"testing"

	"busline/internal/routes"
	"busline/internal/shared/apperrors"
	"busline/internal/trips"

	"github.com/google/uuid"
)

func TestTicketFare(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	graph, err := routes.NewGraph(&routes.Route{
		ID:              uuid.New(),
		DepartureCityID: a,
		ArrivalCityID:   c,
		Stops:           []routes.RouteStop{{CityID: b, Sequence: 1, PriceFromStart: 4000, IsBoardingPoint: true, IsDropoffPoint: true}},
	})
	if err != nil {
		t.Fatal(err)
	}
	trip := &trips.Trip{Price: 10000, VIPPrice: 15000}

	tests := []struct {
		name          string
		board, alight uuid.UUID
		ticket        TicketType
		childPrice    int64
		want          int64
	}{
		{"adult whole route", a, c, TicketAdult, 0, 10000},
		{"adult first leg", a, b, TicketAdult, 0, 4000},
		{"adult second leg", b, c, TicketAdult, 0, 6000},
		{"vip whole route", a, c, TicketVIP, 0, 15000},
		{"vip first leg scales", a, b, TicketVIP, 0, 6000},
		{"child defaults to half", a, c, TicketChild, 0, 5000},
		{"child uses child price", a, c, TicketChild, 7000, 7000},
		{"child leg scales", b, c, TicketChild, 7000, 4200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip.ChildPrice = tt.childPrice
			got, err := TicketFare(trip, graph, tt.board, tt.alight, tt.ticket)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("want %d, got %d", tt.want, got)
			}
		})
	}

	if _, err := TicketFare(trip, graph, c, a, TicketAdult); !apperrors.IsAdmission(err) {
		t.Fatalf("reverse segment should be refused, got %v", err)
	}
}

func TestLuggage(t *testing.T) {
	if got := LuggageSurcharge(30, 20, 500); got != 5000 {
		t.Fatalf("expected 5000, got %d", got)
	}
	if got := LuggageSurcharge(10, 20, 500); got != 0 {
		t.Fatalf("under allowance should be free, got %d", got)
	}
	if err := ValidateLuggage(60, 50); !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := ValidateLuggage(50, 50); err != nil {
		t.Fatalf("limit itself is allowed: %v", err)
	}
	if err := ValidateLuggage(-1, 0); !apperrors.IsValidation(err) {
		t.Fatalf("negative weight must fail, got %v", err)
	}
}
