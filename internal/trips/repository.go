package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/fleet"
	"busline/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, trip *Trip) error
	GetByID(ctx context.Context, id uuid.UUID) (*Trip, error)
	List(ctx context.Context, query TripListQuery) ([]Trip, int64, error)
	// BusBusyOn reports whether the bus already runs a live trip departing within [from, to).
	BusBusyOn(ctx context.Context, busID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) (bool, error)
	// WithinBus runs fn in a transaction holding the bus row lock.
	WithinBus(ctx context.Context, busID uuid.UUID, fn func(tx Repository) error) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, trip *Trip) error {
	return r.db.WithContext(ctx).Create(trip).Error
}

func (r *repository) WithinBus(ctx context.Context, busID uuid.UUID, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", busID).
			First(&fleet.Bus{}).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("bus", busID.String())
			}
			return fmt.Errorf("failed to lock bus: %w", err)
		}
		return fn(&repository{db: tx})
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Trip, error) {
	var trip Trip
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&trip).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

func (r *repository) List(ctx context.Context, query TripListQuery) ([]Trip, int64, error) {
	var trips []Trip
	var total int64

	db := r.db.WithContext(ctx).Model(&Trip{})
	if query.RouteID != "" {
		db = db.Where("trips.route_id = ?", query.RouteID)
	}
	if query.CompanyID != "" {
		db = db.Where("trips.company_id = ?", query.CompanyID)
	}
	if query.State != "" {
		db = db.Where("trips.state = ?", query.State)
	}
	if query.Date != "" {
		if day, err := time.Parse("2006-01-02", query.Date); err == nil {
			db = db.Where("trips.departure_time >= ? AND trips.departure_time < ?", day, day.Add(24*time.Hour))
		}
	}
	if query.DepartureCityID != "" || query.ArrivalCityID != "" {
		// a trip serves a city pair when both cities are on its route in order
		db = db.Joins("JOIN routes ON routes.id = trips.route_id")
		if query.DepartureCityID != "" {
			db = db.Where("(routes.departure_city_id = ? OR EXISTS (SELECT 1 FROM route_stops rs WHERE rs.route_id = routes.id AND rs.city_id = ? AND rs.is_boarding_point))",
				query.DepartureCityID, query.DepartureCityID)
		}
		if query.ArrivalCityID != "" {
			db = db.Where("(routes.arrival_city_id = ? OR EXISTS (SELECT 1 FROM route_stops rs WHERE rs.route_id = routes.id AND rs.city_id = ? AND rs.is_dropoff_point))",
				query.ArrivalCityID, query.ArrivalCityID)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := db.Order("trips.departure_time ASC").Offset(offset).Limit(query.Limit).Find(&trips).Error
	return trips, total, err
}

func (r *repository) BusBusyOn(ctx context.Context, busID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) (bool, error) {
	var count int64
	db := r.db.WithContext(ctx).Model(&Trip{}).
		Where("bus_id = ?", busID).
		Where("state NOT IN ?", []State{StateCancelled, StateArrived}).
		Where("departure_time >= ? AND departure_time < ?", from, to)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}
	if err := db.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
