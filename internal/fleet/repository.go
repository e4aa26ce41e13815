package fleet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateBus(ctx context.Context, bus *Bus) error
	GetBus(ctx context.Context, id uuid.UUID) (*Bus, error)
	ListBuses(ctx context.Context, companyID *uuid.UUID) ([]Bus, error)
	GetSeat(ctx context.Context, id uuid.UUID) (*Seat, error)
	ListSeats(ctx context.Context, busID uuid.UUID) ([]Seat, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateBus stores the bus together with its generated seats.
func (r *repository) CreateBus(ctx context.Context, bus *Bus) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(bus).Error
	})
}

func (r *repository) GetBus(ctx context.Context, id uuid.UUID) (*Bus, error) {
	var bus Bus
	if err := r.db.WithContext(ctx).First(&bus, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bus, nil
}

func (r *repository) ListBuses(ctx context.Context, companyID *uuid.UUID) ([]Bus, error) {
	var buses []Bus
	query := r.db.WithContext(ctx).Model(&Bus{})
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}
	err := query.Order("name ASC").Find(&buses).Error
	return buses, err
}

func (r *repository) GetSeat(ctx context.Context, id uuid.UUID) (*Seat, error) {
	var seat Seat
	if err := r.db.WithContext(ctx).First(&seat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &seat, nil
}

func (r *repository) ListSeats(ctx context.Context, busID uuid.UUID) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).Where("bus_id = ?", busID).Order("number ASC").Find(&seats).Error
	return seats, err
}
