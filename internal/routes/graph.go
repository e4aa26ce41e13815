package routes

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"busline/internal/shared/apperrors"

	"github.com/google/uuid"
)

var (
	ErrInvalidStop         = errors.New("stop is not on the route")
	ErrInvalidSegmentOrder = errors.New("boarding stop must come before alighting stop")
	ErrNotBoardingPoint    = errors.New("stop is not a boarding point")
	ErrNotDropoffPoint     = errors.New("stop is not a drop-off point")
)

// Stop is one position on a route's ordered stop list.
type Stop struct {
	CityID         uuid.UUID `json:"city_id"`
	OffsetMinutes  int       `json:"offset_minutes"`
	PriceFromStart int64     `json:"price_from_start"`
	// HasPrice is false when no fare split was configured for the stop.
	HasPrice  bool `json:"has_price"`
	CanBoard  bool `json:"can_board"`
	CanAlight bool `json:"can_alight"`
}

// Graph is the immutable, ordered stop sequence of a route. Departure is first, arrival last.
// It is safe for concurrent use and serializable for caching.
type Graph struct {
	RouteID uuid.UUID `json:"route_id"`
	Stops   []Stop    `json:"stops"`
}

// NewGraph builds a Graph from a route and its intermediate stops.
func NewGraph(route *Route) (*Graph, error) {
	if route.DepartureCityID == uuid.Nil || route.ArrivalCityID == uuid.Nil {
		return nil, apperrors.Validation("route", "departure and arrival cities are required")
	}
	if route.DepartureCityID == route.ArrivalCityID {
		return nil, apperrors.Validation("arrival_city_id", "departure and arrival must differ")
	}

	intermediate := make([]RouteStop, len(route.Stops))
	copy(intermediate, route.Stops)
	sort.SliceStable(intermediate, func(i, j int) bool {
		return intermediate[i].Sequence < intermediate[j].Sequence
	})

	seen := map[uuid.UUID]bool{
		route.DepartureCityID: true,
		route.ArrivalCityID:   true,
	}
	stops := make([]Stop, 0, len(intermediate)+2)
	stops = append(stops, Stop{CityID: route.DepartureCityID, HasPrice: true, CanBoard: true})

	for i, rs := range intermediate {
		if i > 0 && rs.Sequence == intermediate[i-1].Sequence {
			return nil, apperrors.Validation("stops", fmt.Sprintf("sequence %d is repeated", rs.Sequence))
		}
		if seen[rs.CityID] {
			return nil, apperrors.Validation("stops", fmt.Sprintf("city %s appears more than once", rs.CityID))
		}
		seen[rs.CityID] = true
		stops = append(stops, Stop{
			CityID:         rs.CityID,
			OffsetMinutes:  rs.DurationFromStartMinutes,
			PriceFromStart: rs.PriceFromStart,
			HasPrice:       rs.PriceFromStart > 0,
			CanBoard:       rs.IsBoardingPoint,
			CanAlight:      rs.IsDropoffPoint,
		})
	}

	stops = append(stops, Stop{
		CityID:        route.ArrivalCityID,
		OffsetMinutes: route.DurationMinutes,
		HasPrice:      true,
		CanAlight:     true,
	})

	return &Graph{RouteID: route.ID, Stops: stops}, nil
}

// StopSequence returns stop city IDs in travel order.
func (g *Graph) StopSequence() []uuid.UUID {
	ids := make([]uuid.UUID, len(g.Stops))
	for i, s := range g.Stops {
		ids[i] = s.CityID
	}
	return ids
}

func (g *Graph) IndexOf(stopID uuid.UUID) (int, bool) {
	for i, s := range g.Stops {
		if s.CityID == stopID {
			return i, true
		}
	}
	return -1, false
}

// NumUnitSegments is the number of legs between consecutive stops.
func (g *Graph) NumUnitSegments() int {
	if len(g.Stops) < 2 {
		return 0
	}
	return len(g.Stops) - 1
}

// SegmentIndices resolves both stops and enforces board before alight.
func (g *Graph) SegmentIndices(board, alight uuid.UUID) (int, int, error) {
	bi, ok := g.IndexOf(board)
	if !ok {
		return 0, 0, segmentError("boarding stop", ErrInvalidStop)
	}
	ai, ok := g.IndexOf(alight)
	if !ok {
		return 0, 0, segmentError("alighting stop", ErrInvalidStop)
	}
	if bi >= ai {
		return 0, 0, segmentError("", ErrInvalidSegmentOrder)
	}
	return bi, ai, nil
}

// ValidateSegment fails unless both stops are on the route and board precedes alight.
func (g *Graph) ValidateSegment(board, alight uuid.UUID) error {
	_, _, err := g.SegmentIndices(board, alight)
	return err
}

// ValidateJourney additionally requires the stops to allow boarding and alighting.
func (g *Graph) ValidateJourney(board, alight uuid.UUID) error {
	bi, ai, err := g.SegmentIndices(board, alight)
	if err != nil {
		return err
	}
	if !g.Stops[bi].CanBoard {
		return segmentError("boarding stop", ErrNotBoardingPoint)
	}
	if !g.Stops[ai].CanAlight {
		return segmentError("alighting stop", ErrNotDropoffPoint)
	}
	return nil
}

// UnitSegments lists the unit segment indices covered by [board, alight).
// Unit segment i joins stop i and stop i+1. Invalid segments cover nothing.
func (g *Graph) UnitSegments(board, alight uuid.UUID) []int {
	bi, ai, err := g.SegmentIndices(board, alight)
	if err != nil {
		return nil
	}
	out := make([]int, 0, ai-bi)
	for i := bi; i < ai; i++ {
		out = append(out, i)
	}
	return out
}

// SegmentFare prices [board, alight). fullPrice covers departure to arrival.
// Partial segments use the difference of per-stop cumulative prices and fall back
// to fullPrice when a stop on either end has no configured split.
func (g *Graph) SegmentFare(board, alight uuid.UUID, fullPrice int64) (int64, error) {
	bi, ai, err := g.SegmentIndices(board, alight)
	if err != nil {
		return 0, err
	}
	last := len(g.Stops) - 1
	if bi == 0 && ai == last {
		return fullPrice, nil
	}

	priceAt := func(i int) (int64, bool) {
		switch i {
		case 0:
			return 0, true
		case last:
			return fullPrice, true
		default:
			return g.Stops[i].PriceFromStart, g.Stops[i].HasPrice
		}
	}

	from, okFrom := priceAt(bi)
	to, okTo := priceAt(ai)
	if !okFrom || !okTo || to <= from {
		return fullPrice, nil
	}
	return to - from, nil
}

// EstimatedArrival returns when a trip leaving at departure reaches stop.
func (g *Graph) EstimatedArrival(departure time.Time, stop uuid.UUID) (time.Time, error) {
	i, ok := g.IndexOf(stop)
	if !ok {
		return time.Time{}, segmentError("stop", ErrInvalidStop)
	}
	return departure.Add(time.Duration(g.Stops[i].OffsetMinutes) * time.Minute), nil
}

// Views renders the stop list for API responses.
func (g *Graph) Views() []StopView {
	out := make([]StopView, len(g.Stops))
	for i, s := range g.Stops {
		out[i] = StopView{
			CityID:         s.CityID.String(),
			Index:          i,
			OffsetMinutes:  s.OffsetMinutes,
			PriceFromStart: s.PriceFromStart,
			CanBoard:       s.CanBoard,
			CanAlight:      s.CanAlight,
		}
	}
	return out
}

func segmentError(what string, cause error) error {
	detail := cause.Error()
	if what != "" {
		detail = what + ": " + detail
	}
	return apperrors.AdmissionError{Reason: apperrors.ReasonSegmentInvalid, Detail: detail, Cause: cause}
}
