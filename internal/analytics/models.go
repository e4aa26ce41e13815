package analytics

import (
	"time"

	"github.com/google/uuid"
)

// SegmentLoad is the occupancy of one unit segment.
type SegmentLoad struct {
	Index      int     `json:"index"`
	FromStop   string  `json:"from_stop"`
	ToStop     string  `json:"to_stop"`
	Occupied   int     `json:"occupied"`
	Available  int     `json:"available"`
	LoadFactor float64 `json:"load_factor"`
}

// TripLoadReport summarizes how full a trip is along its route.
type TripLoadReport struct {
	TripID         uuid.UUID     `json:"trip_id"`
	State          string        `json:"state"`
	EffectiveQuota int           `json:"effective_quota"`
	Segments       []SegmentLoad `json:"segments"`

	// PeakLoad is the highest occupancy over all unit segments; PeakSegments lists where it occurs.
	PeakLoad          int     `json:"peak_load"`
	PeakSegments      []int   `json:"peak_segments"`
	PeakLoadFactor    float64 `json:"peak_load_factor"`
	AverageLoadFactor float64 `json:"average_load_factor"`

	Revenue         int64            `json:"revenue"`
	BookingsByState map[string]int64 `json:"bookings_by_state"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

type stateCount struct {
	State string
	Count int64
}
