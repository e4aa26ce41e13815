package trips

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TransitionResult reports a committed trip transition and the bookings it moved.
type TransitionResult struct {
	Trip     *Trip          `json:"trip"`
	From     State          `json:"from"`
	Cascaded map[string]int `json:"cascaded"`
}

// AvailabilitySnapshot is the per-unit-segment availability of a trip at one instant.
type AvailabilitySnapshot struct {
	TripID         uuid.UUID             `json:"trip_id"`
	State          State                 `json:"state"`
	EffectiveQuota int                   `json:"effective_quota"`
	Segments       []SegmentAvailability `json:"segments"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

// Lifecycle is implemented by the booking engine, which owns the per-trip critical section.
// Declared here so trips does not import bookings.
type Lifecycle interface {
	TransitionTrip(ctx context.Context, tripID uuid.UUID, action Action) (*TransitionResult, error)
	GetTripAvailability(ctx context.Context, tripID, board, alight uuid.UUID) (int, error)
	TripSnapshot(ctx context.Context, tripID uuid.UUID) (*AvailabilitySnapshot, error)
}
