package trips

import (
	"fmt"

	"busline/internal/routes"
	"busline/internal/shared/apperrors"

	"github.com/google/uuid"
)

// Claim is an occupancy-counted booking as seen by the inventory.
type Claim struct {
	BookingID    uuid.UUID
	BoardStopID  uuid.UUID
	AlightStopID uuid.UUID
	SeatID       *uuid.UUID
}

// Inventory answers segment availability for one trip from a snapshot of its claims.
// Build it inside the trip's critical section when the answer gates a write.
type Inventory struct {
	quota  int
	graph  *routes.Graph
	claims []Claim
	load   []int // occupancy per unit segment
}

// NewInventory computes per-unit-segment load from claims. A claim whose stops no longer
// resolve on the route is counted on every unit segment.
func NewInventory(quota int, graph *routes.Graph, claims []Claim) *Inventory {
	inv := &Inventory{
		quota:  quota,
		graph:  graph,
		claims: claims,
		load:   make([]int, graph.NumUnitSegments()),
	}
	for _, c := range claims {
		bi, ai, err := graph.SegmentIndices(c.BoardStopID, c.AlightStopID)
		if err != nil {
			bi, ai = 0, len(inv.load)
		}
		for i := bi; i < ai; i++ {
			inv.load[i]++
		}
	}
	return inv
}

// Excluding returns the inventory without the given booking's claim.
func (inv *Inventory) Excluding(bookingID uuid.UUID) *Inventory {
	rest := make([]Claim, 0, len(inv.claims))
	for _, c := range inv.claims {
		if c.BookingID != bookingID {
			rest = append(rest, c)
		}
	}
	return NewInventory(inv.quota, inv.graph, rest)
}

func (inv *Inventory) EffectiveQuota() int {
	return inv.quota
}

// SegmentLoad returns a copy of the occupancy of each unit segment.
func (inv *Inventory) SegmentLoad() []int {
	out := make([]int, len(inv.load))
	copy(out, inv.load)
	return out
}

// PeakLoad is the occupancy of the most congested unit segment.
func (inv *Inventory) PeakLoad() int {
	peak := 0
	for _, n := range inv.load {
		if n > peak {
			peak = n
		}
	}
	return peak
}

// SegmentOccupancy is the maximum load over the unit segments of [board, alight).
func (inv *Inventory) SegmentOccupancy(board, alight uuid.UUID) (int, error) {
	bi, ai, err := inv.graph.SegmentIndices(board, alight)
	if err != nil {
		return 0, err
	}
	peak := 0
	for i := bi; i < ai; i++ {
		if inv.load[i] > peak {
			peak = inv.load[i]
		}
	}
	return peak, nil
}

// GetAvailableSeats returns free seats on [board, alight). Unknown stops or a
// non-forward segment yield 0.
func (inv *Inventory) GetAvailableSeats(board, alight uuid.UUID) int {
	occupied, err := inv.SegmentOccupancy(board, alight)
	if err != nil {
		return 0
	}
	free := inv.quota - occupied
	if free < 0 {
		return 0
	}
	return free
}

func (inv *Inventory) CanAdmit(board, alight uuid.UUID, count int) bool {
	if count < 1 {
		count = 1
	}
	return inv.GetAvailableSeats(board, alight) >= count
}

// SeatTaken reports whether another claim on the trip holds seatID.
func (inv *Inventory) SeatTaken(seatID uuid.UUID) bool {
	for _, c := range inv.claims {
		if c.SeatID != nil && *c.SeatID == seatID {
			return true
		}
	}
	return false
}

// Admit checks a candidate claim against segment validity, quota and seat conflict.
// The candidate must not already be part of the inventory.
func (inv *Inventory) Admit(candidate Claim) error {
	occupied, err := inv.SegmentOccupancy(candidate.BoardStopID, candidate.AlightStopID)
	if err != nil {
		return err
	}
	if inv.quota-occupied < 1 {
		return apperrors.Admission(apperrors.ReasonQuotaExceeded,
			fmt.Sprintf("%d of %d seats taken on the busiest leg", occupied, inv.quota))
	}
	if candidate.SeatID != nil && inv.SeatTaken(*candidate.SeatID) {
		return apperrors.Admission(apperrors.ReasonSeatTaken, "seat already assigned")
	}
	return nil
}

// SegmentAvailability is the free seat count of one unit segment.
type SegmentAvailability struct {
	Index     int    `json:"index"`
	FromStop  string `json:"from_stop"`
	ToStop    string `json:"to_stop"`
	Occupied  int    `json:"occupied"`
	Available int    `json:"available"`
}

// Snapshot lists availability for every unit segment in route order.
func (inv *Inventory) Snapshot() []SegmentAvailability {
	stops := inv.graph.StopSequence()
	out := make([]SegmentAvailability, len(inv.load))
	for i, n := range inv.load {
		free := inv.quota - n
		if free < 0 {
			free = 0
		}
		out[i] = SegmentAvailability{
			Index:     i,
			FromStop:  stops[i].String(),
			ToStop:    stops[i+1].String(),
			Occupied:  n,
			Available: free,
		}
	}
	return out
}
