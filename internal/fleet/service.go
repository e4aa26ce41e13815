package fleet

import (
	"context"
	"errors"
	"fmt"

	"busline/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Service interface {
	CreateBus(ctx context.Context, req CreateBusRequest) (*Bus, error)
	GetBus(ctx context.Context, id uuid.UUID) (*Bus, error)
	ListBuses(ctx context.Context, companyID *uuid.UUID) ([]Bus, error)
	ListSeats(ctx context.Context, busID uuid.UUID) ([]Seat, error)
	// SeatOnBus resolves a seat and checks it belongs to busID.
	SeatOnBus(ctx context.Context, busID, seatID uuid.UUID) (*Seat, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateBus(ctx context.Context, req CreateBusRequest) (*Bus, error) {
	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return nil, apperrors.Validation("company_id", "must be a UUID")
	}
	bus := &Bus{
		ID:                       uuid.New(),
		CompanyID:                companyID,
		Name:                     req.Name,
		PlateNumber:              req.PlateNumber,
		SeatCapacity:             req.SeatCapacity,
		VIPSeatNumbers:           req.VIPSeatNumbers,
		MaxLuggagePerPassengerKg: req.MaxLuggagePerPassengerKg,
		ExtraLuggagePricePerKg:   req.ExtraLuggagePricePerKg,
		Active:                   true,
	}
	seats, err := GenerateSeats(bus)
	if err != nil {
		return nil, err
	}
	bus.Seats = seats

	if err := s.repo.CreateBus(ctx, bus); err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}
	return bus, nil
}

func (s *service) GetBus(ctx context.Context, id uuid.UUID) (*Bus, error) {
	bus, err := s.repo.GetBus(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("bus", id.String())
		}
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	return bus, nil
}

func (s *service) ListBuses(ctx context.Context, companyID *uuid.UUID) ([]Bus, error) {
	return s.repo.ListBuses(ctx, companyID)
}

func (s *service) ListSeats(ctx context.Context, busID uuid.UUID) ([]Seat, error) {
	return s.repo.ListSeats(ctx, busID)
}

func (s *service) SeatOnBus(ctx context.Context, busID, seatID uuid.UUID) (*Seat, error) {
	seat, err := s.repo.GetSeat(ctx, seatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validation("seat_id", "unknown seat")
		}
		return nil, fmt.Errorf("failed to get seat: %w", err)
	}
	if seat.BusID != busID {
		return nil, apperrors.Validation("seat_id", "seat does not belong to the trip's bus")
	}
	return seat, nil
}
