// Package analytics reports how full trips are along their routes.
package analytics

import (
	"context"
	"fmt"
	"math"

	"busline/internal/shared/constants"
	"busline/internal/trips"
	"busline/pkg/cache"

	"github.com/google/uuid"
)

// Source is the booking engine's read side.
type Source interface {
	TripSnapshot(ctx context.Context, tripID uuid.UUID) (*trips.AvailabilitySnapshot, error)
	TripRevenue(ctx context.Context, tripID uuid.UUID) (int64, error)
}

type Service interface {
	GetTripLoad(ctx context.Context, tripID uuid.UUID) (*TripLoadReport, error)
}

type service struct {
	repo   Repository
	source Source
	cache  cache.Service
}

func NewService(repo Repository, source Source, cacheService cache.Service) Service {
	if cacheService == nil {
		cacheService = cache.NewNoop()
	}
	return &service{repo: repo, source: source, cache: cacheService}
}

func (s *service) GetTripLoad(ctx context.Context, tripID uuid.UUID) (*TripLoadReport, error) {
	var report TripLoadReport
	err := s.cache.GetOrSet(ctx, constants.BuildTripLoadKey(tripID.String()), constants.TTL_TRIP_LOAD, &report, func() (interface{}, error) {
		return s.buildTripLoad(ctx, tripID)
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *service) buildTripLoad(ctx context.Context, tripID uuid.UUID) (*TripLoadReport, error) {
	snap, err := s.source.TripSnapshot(ctx, tripID)
	if err != nil {
		return nil, err
	}
	revenue, err := s.source.TripRevenue(ctx, tripID)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountBookingsByState(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking counts: %w", err)
	}

	report := Summarize(snap)
	report.Revenue = revenue
	report.BookingsByState = counts
	return report, nil
}

// Summarize derives per-segment load factors and the peak from an availability snapshot.
func Summarize(snap *trips.AvailabilitySnapshot) *TripLoadReport {
	report := &TripLoadReport{
		TripID:         snap.TripID,
		State:          string(snap.State),
		EffectiveQuota: snap.EffectiveQuota,
		Segments:       make([]SegmentLoad, 0, len(snap.Segments)),
		PeakSegments:   []int{},
		GeneratedAt:    snap.GeneratedAt,
	}

	var total float64
	for _, seg := range snap.Segments {
		load := SegmentLoad{
			Index:      seg.Index,
			FromStop:   seg.FromStop,
			ToStop:     seg.ToStop,
			Occupied:   seg.Occupied,
			Available:  seg.Available,
			LoadFactor: loadFactor(seg.Occupied, snap.EffectiveQuota),
		}
		report.Segments = append(report.Segments, load)
		total += load.LoadFactor

		switch {
		case seg.Occupied > report.PeakLoad:
			report.PeakLoad = seg.Occupied
			report.PeakSegments = []int{seg.Index}
		case seg.Occupied == report.PeakLoad && seg.Occupied > 0:
			report.PeakSegments = append(report.PeakSegments, seg.Index)
		}
	}

	report.PeakLoadFactor = loadFactor(report.PeakLoad, snap.EffectiveQuota)
	if n := len(report.Segments); n > 0 {
		report.AverageLoadFactor = round(total / float64(n))
	}
	return report
}

func loadFactor(occupied, quota int) float64 {
	if quota <= 0 {
		return 0
	}
	return round(float64(occupied) / float64(quota))
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
