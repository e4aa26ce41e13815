package routes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateCity(ctx context.Context, city *City) error
	ListCities(ctx context.Context) ([]City, error)
	GetCity(ctx context.Context, id uuid.UUID) (*City, error)

	CreateRoute(ctx context.Context, route *Route) error
	GetRoute(ctx context.Context, id uuid.UUID) (*Route, error)
	ListRoutes(ctx context.Context, companyID *uuid.UUID, state RouteState) ([]Route, error)
	UpdateRouteState(ctx context.Context, id uuid.UUID, state RouteState) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateCity(ctx context.Context, city *City) error {
	return r.db.WithContext(ctx).Create(city).Error
}

func (r *repository) ListCities(ctx context.Context) ([]City, error) {
	var cities []City
	err := r.db.WithContext(ctx).Order("name ASC").Find(&cities).Error
	return cities, err
}

func (r *repository) GetCity(ctx context.Context, id uuid.UUID) (*City, error) {
	var city City
	if err := r.db.WithContext(ctx).First(&city, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &city, nil
}

// CreateRoute inserts the route and its stops in one transaction.
func (r *repository) CreateRoute(ctx context.Context, route *Route) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(route).Error
	})
}

func (r *repository) GetRoute(ctx context.Context, id uuid.UUID) (*Route, error) {
	var route Route
	err := r.db.WithContext(ctx).
		Preload("Stops", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		}).
		First(&route, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *repository) ListRoutes(ctx context.Context, companyID *uuid.UUID, state RouteState) ([]Route, error) {
	var routes []Route
	query := r.db.WithContext(ctx).Model(&Route{}).Preload("Stops", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC")
	})
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}
	if state != "" {
		query = query.Where("state = ?", state)
	}
	err := query.Order("name ASC").Find(&routes).Error
	return routes, err
}

func (r *repository) UpdateRouteState(ctx context.Context, id uuid.UUID, state RouteState) error {
	res := r.db.WithContext(ctx).Model(&Route{}).Where("id = ?", id).Update("state", state)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
