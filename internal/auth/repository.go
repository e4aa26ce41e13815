package auth

import (
	"context"
	"errors"
	"time"

	"busline/internal/shared/apperrors"
	"busline/internal/users"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OperatorFilter narrows ListOperators. Zero fields match everything.
type OperatorFilter struct {
	CompanyID *uuid.UUID
	Role      users.Role
	Active    *bool
}

type Repository interface {
	Create(ctx context.Context, user *users.User) error
	FindByEmail(ctx context.Context, email string) (*users.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	List(ctx context.Context, filter OperatorFilter) ([]users.User, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	// Update writes the named columns only.
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *users.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.first(ctx, "operator", email, "email = ?", email)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return r.first(ctx, "operator", id.String(), "id = ?", id)
}

func (r *repository) first(ctx context.Context, entity, key string, query string, args ...interface{}) (*users.User, error) {
	var user users.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(entity, key)
		}
		return nil, err
	}
	return &user, nil
}

func (r *repository) List(ctx context.Context, filter OperatorFilter) ([]users.User, error) {
	q := r.db.WithContext(ctx).Model(&users.User{})
	if filter.CompanyID != nil {
		q = q.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}

	var operators []users.User
	if err := q.Order("last_name ASC, first_name ASC").Find(&operators).Error; err != nil {
		return nil, err
	}
	return operators, nil
}

func (r *repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&users.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&users.User{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("operator", id.String())
	}
	return nil
}
