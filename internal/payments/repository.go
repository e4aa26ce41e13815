package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	Save(ctx context.Context, payment *Payment) error
	GetByRef(ctx context.Context, ref string) (*Payment, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, payment *Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) Save(ctx context.Context, payment *Payment) error {
	payment.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *repository) GetByRef(ctx context.Context, ref string) (*Payment, error) {
	var payment Payment
	if err := r.db.WithContext(ctx).Where("transaction_ref = ?", ref).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	var list []Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
