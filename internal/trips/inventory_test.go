package trips

import (
	"math/rand"
	"testing"

	"busline/internal/routes"
	"busline/internal/shared/apperrors"

	"github.com/google/uuid"
)

type abc struct {
	a, b, c uuid.UUID
	graph   *routes.Graph
}

// A -> B -> C
func newABC(t *testing.T) abc {
	t.Helper()
	f := abc{a: uuid.New(), b: uuid.New(), c: uuid.New()}
	g, err := routes.NewGraph(&routes.Route{
		ID:              uuid.New(),
		DepartureCityID: f.a,
		ArrivalCityID:   f.c,
		Stops:           []routes.RouteStop{{CityID: f.b, Sequence: 1, IsBoardingPoint: true, IsDropoffPoint: true}},
	})
	if err != nil {
		t.Fatal(err)
	}
	f.graph = g
	return f
}

func claims(n int, board, alight uuid.UUID) []Claim {
	out := make([]Claim, n)
	for i := range out {
		out[i] = Claim{BookingID: uuid.New(), BoardStopID: board, AlightStopID: alight}
	}
	return out
}

func TestSegmentCorrectness(t *testing.T) {
	f := newABC(t)
	inv := NewInventory(5, f.graph, claims(2, f.a, f.b))

	if got := inv.GetAvailableSeats(f.a, f.b); got != 3 {
		t.Fatalf("A-B: want 3, got %d", got)
	}
	if got := inv.GetAvailableSeats(f.b, f.c); got != 5 {
		t.Fatalf("B-C: want 5, got %d", got)
	}
	if got := inv.GetAvailableSeats(f.a, f.c); got != 3 {
		t.Fatalf("A-C: want 3, got %d", got)
	}
}

func TestNonOverlappingSegmentsShareSeats(t *testing.T) {
	f := newABC(t)
	all := append(claims(5, f.a, f.b), claims(5, f.b, f.c)...)
	inv := NewInventory(5, f.graph, all)

	if inv.PeakLoad() != 5 {
		t.Fatalf("expected peak 5, got %d", inv.PeakLoad())
	}
	if inv.CanAdmit(f.a, f.b, 1) || inv.CanAdmit(f.b, f.c, 1) || inv.CanAdmit(f.a, f.c, 1) {
		t.Fatal("trip should be full on every leg")
	}
}

func TestOverbookingRejection(t *testing.T) {
	f := newABC(t)
	inv := NewInventory(5, f.graph, claims(5, f.a, f.c))

	err := inv.Admit(Claim{BookingID: uuid.New(), BoardStopID: f.a, AlightStopID: f.c})
	if reason, _ := apperrors.AdmissionReasonOf(err); reason != apperrors.ReasonQuotaExceeded {
		t.Fatalf("expected quota_exceeded, got %v", err)
	}
}

func TestInvalidSegmentsHaveNoAvailability(t *testing.T) {
	f := newABC(t)
	inv := NewInventory(5, f.graph, nil)

	if got := inv.GetAvailableSeats(f.b, f.b); got != 0 {
		t.Fatalf("board == alight should be 0, got %d", got)
	}
	if got := inv.GetAvailableSeats(f.c, f.a); got != 0 {
		t.Fatalf("reverse segment should be 0, got %d", got)
	}
	if got := inv.GetAvailableSeats(uuid.New(), f.c); got != 0 {
		t.Fatalf("unknown stop should be 0, got %d", got)
	}

	err := inv.Admit(Claim{BookingID: uuid.New(), BoardStopID: f.c, AlightStopID: f.a})
	if reason, _ := apperrors.AdmissionReasonOf(err); reason != apperrors.ReasonSegmentInvalid {
		t.Fatalf("expected segment_invalid, got %v", err)
	}
}

func TestSeatConflict(t *testing.T) {
	f := newABC(t)
	seat := uuid.New()
	held := Claim{BookingID: uuid.New(), BoardStopID: f.a, AlightStopID: f.b, SeatID: &seat}
	inv := NewInventory(5, f.graph, []Claim{held})

	err := inv.Admit(Claim{BookingID: uuid.New(), BoardStopID: f.b, AlightStopID: f.c, SeatID: &seat})
	if reason, _ := apperrors.AdmissionReasonOf(err); reason != apperrors.ReasonSeatTaken {
		t.Fatalf("expected seat_taken, got %v", err)
	}

	other := uuid.New()
	if err := inv.Admit(Claim{BookingID: uuid.New(), BoardStopID: f.a, AlightStopID: f.c, SeatID: &other}); err != nil {
		t.Fatalf("different seat should be admitted: %v", err)
	}
}

func TestExcludingDropsOwnClaim(t *testing.T) {
	f := newABC(t)
	all := claims(5, f.a, f.c)
	inv := NewInventory(5, f.graph, all)

	if err := inv.Excluding(all[0].BookingID).Admit(all[0]); err != nil {
		t.Fatalf("re-admitting own claim should pass: %v", err)
	}
}

func TestEffectiveQuotaBoundsAdmission(t *testing.T) {
	f := newABC(t)
	trip := &Trip{TotalSeats: 3}
	if trip.EffectiveQuota() != 3 {
		t.Fatalf("quota 0 should default to total seats, got %d", trip.EffectiveQuota())
	}
	trip.BookingQuota = 2
	inv := NewInventory(trip.EffectiveQuota(), f.graph, claims(2, f.a, f.c))
	if inv.CanAdmit(f.a, f.b, 1) {
		t.Fatal("quota of 2 should be exhausted")
	}
}

func TestSnapshot(t *testing.T) {
	f := newABC(t)
	inv := NewInventory(4, f.graph, claims(1, f.b, f.c))
	snap := inv.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 unit segments, got %d", len(snap))
	}
	if snap[0].Available != 4 || snap[1].Available != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap[1].FromStop != f.b.String() || snap[1].ToStop != f.c.String() {
		t.Fatalf("unexpected stop labels %+v", snap[1])
	}
}

// Admitting through Admit one claim at a time never pushes any unit segment past the quota.
func TestAdmitNeverExceedsQuota(t *testing.T) {
	stops := make([]uuid.UUID, 6)
	for i := range stops {
		stops[i] = uuid.New()
	}
	route := &routes.Route{ID: uuid.New(), DepartureCityID: stops[0], ArrivalCityID: stops[5]}
	for i := 1; i < 5; i++ {
		route.Stops = append(route.Stops, routes.RouteStop{CityID: stops[i], Sequence: i, IsBoardingPoint: true, IsDropoffPoint: true})
	}
	graph, err := routes.NewGraph(route)
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(7))
	const quota = 4
	var held []Claim
	for i := 0; i < 500; i++ {
		bi := rng.Intn(5)
		ai := bi + 1 + rng.Intn(5-bi)
		c := Claim{BookingID: uuid.New(), BoardStopID: stops[bi], AlightStopID: stops[ai]}

		inv := NewInventory(quota, graph, held)
		if inv.Admit(c) == nil {
			held = append(held, c)
		}
		// occasionally release a claim
		if len(held) > 0 && rng.Intn(4) == 0 {
			j := rng.Intn(len(held))
			held = append(held[:j], held[j+1:]...)
		}

		for seg, n := range NewInventory(quota, graph, held).SegmentLoad() {
			if n > quota {
				t.Fatalf("iteration %d: unit segment %d has load %d > %d", i, seg, n, quota)
			}
		}
	}
}
