package analytics

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CountBookingsByState(ctx context.Context, tripID uuid.UUID) (map[string]int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountBookingsByState(ctx context.Context, tripID uuid.UUID) (map[string]int64, error) {
	var rows []stateCount
	err := r.db.WithContext(ctx).Table("bookings").
		Select("state, COUNT(*) as count").
		Where("trip_id = ?", tripID).
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by state: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}
