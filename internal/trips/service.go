package trips

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"busline/internal/fleet"
	"busline/internal/routes"
	"busline/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RouteReader is the slice of the routes service trips depend on.
type RouteReader interface {
	GetRoute(ctx context.Context, id uuid.UUID) (*routes.Route, error)
	Graph(ctx context.Context, routeID uuid.UUID) (*routes.Graph, error)
}

// BusReader is the slice of the fleet service trips depend on.
type BusReader interface {
	GetBus(ctx context.Context, id uuid.UUID) (*fleet.Bus, error)
}

type Service interface {
	CreateTrip(ctx context.Context, req CreateTripRequest, createdBy uuid.UUID) (*Trip, error)
	GetTrip(ctx context.Context, id uuid.UUID) (*Trip, error)
	ListTrips(ctx context.Context, query TripListQuery) (*PaginatedTrips, error)
	// Graph returns the stop graph of the trip's route.
	Graph(ctx context.Context, trip *Trip) (*routes.Graph, error)
}

type service struct {
	repo   Repository
	routes RouteReader
	buses  BusReader
	now    func() time.Time
}

func NewService(repo Repository, routeReader RouteReader, busReader BusReader) Service {
	return &service{
		repo:   repo,
		routes: routeReader,
		buses:  busReader,
		now:    time.Now,
	}
}

func (s *service) CreateTrip(ctx context.Context, req CreateTripRequest, createdBy uuid.UUID) (*Trip, error) {
	routeID, err := uuid.Parse(req.RouteID)
	if err != nil {
		return nil, apperrors.Validation("route_id", "must be a UUID")
	}
	busID, err := uuid.Parse(req.BusID)
	if err != nil {
		return nil, apperrors.Validation("bus_id", "must be a UUID")
	}

	route, err := s.routes.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if route.State != routes.RouteStateActive {
		return nil, apperrors.Validation("route_id", "route is not active")
	}
	bus, err := s.buses.GetBus(ctx, busID)
	if err != nil {
		return nil, err
	}
	if !bus.Active {
		return nil, apperrors.Validation("bus_id", "bus is out of service")
	}
	if bus.CompanyID != route.CompanyID {
		return nil, apperrors.Validation("bus_id", "bus belongs to another company")
	}
	if req.BookingQuota > bus.SeatCapacity {
		return nil, apperrors.Validation("booking_quota", "cannot exceed the bus seat capacity")
	}

	departure := req.DepartureTime.UTC()
	dayStart := time.Date(departure.Year(), departure.Month(), departure.Day(), 0, 0, 0, 0, time.UTC)
	trip := &Trip{
		ID:                uuid.New(),
		Reference:         newTripReference(departure),
		CompanyID:         route.CompanyID,
		RouteID:           route.ID,
		BusID:             bus.ID,
		DriverName:        req.DriverName,
		DriverPhone:       req.DriverPhone,
		DepartureTime:     departure,
		ArrivalTime:       departure.Add(time.Duration(route.DurationMinutes) * time.Minute),
		MeetingPoint:      req.MeetingPoint,
		TotalSeats:        bus.SeatCapacity,
		BookingQuota:      req.BookingQuota,
		Price:             req.Price,
		VIPPrice:          req.VIPPrice,
		ChildPrice:        req.ChildPrice,
		IncludedLuggageKg: req.IncludedLuggageKg,
		State:             StateDraft,
		CreatedBy:         createdBy,
	}
	if trip.Price == 0 {
		trip.Price = route.BasePrice
	}
	trip.ExtraLuggagePricePerKg = bus.ExtraLuggagePricePerKg
	if req.ExtraLuggagePricePerKg != nil {
		trip.ExtraLuggagePricePerKg = *req.ExtraLuggagePricePerKg
	}
	if err := ValidatePrices(trip); err != nil {
		return nil, err
	}

	err = s.repo.WithinBus(ctx, bus.ID, func(tx Repository) error {
		busy, err := tx.BusBusyOn(ctx, bus.ID, dayStart, dayStart.Add(24*time.Hour), nil)
		if err != nil {
			return fmt.Errorf("failed to check bus availability: %w", err)
		}
		if busy {
			return apperrors.Validation("bus_id", "bus is already assigned to a trip that day")
		}
		if err := tx.Create(ctx, trip); err != nil {
			return fmt.Errorf("failed to create trip: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *service) GetTrip(ctx context.Context, id uuid.UUID) (*Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("trip", id.String())
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

func (s *service) ListTrips(ctx context.Context, query TripListQuery) (*PaginatedTrips, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}

	list, total, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	return &PaginatedTrips{
		Trips:      list,
		TotalCount: total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int((total + int64(query.Limit) - 1) / int64(query.Limit)),
	}, nil
}

func (s *service) Graph(ctx context.Context, trip *Trip) (*routes.Graph, error) {
	return s.routes.Graph(ctx, trip.RouteID)
}

const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// randomCode returns n characters from an unambiguous alphabet.
func randomCode(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		copy(buf, uuid.New().String())
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return string(buf)
}

func newTripReference(departure time.Time) string {
	return fmt.Sprintf("TRP-%s-%s", departure.Format("20060102"), randomCode(5))
}
