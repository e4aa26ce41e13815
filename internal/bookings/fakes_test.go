package bookings

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"busline/internal/companies"
	"busline/internal/fleet"
	"busline/internal/notifications"
	"busline/internal/payments"
	"busline/internal/routes"
	"busline/internal/shared/apperrors"
	"busline/internal/shared/config"
	"busline/internal/trips"
	"busline/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// memRepo is an in-memory Repository. WithinTrip holds one global mutex and rolls
// every map back when fn fails, which is stricter than the per-row locks of postgres.
type memRepo struct {
	mu       sync.Mutex
	trips    map[uuid.UUID]trips.Trip
	bookings map[uuid.UUID]Booking
	payments map[string]payments.Payment
}

func newMemRepo() *memRepo {
	return &memRepo{
		trips:    map[uuid.UUID]trips.Trip{},
		bookings: map[uuid.UUID]Booking{},
		payments: map[string]payments.Payment{},
	}
}

func (r *memRepo) WithinTrip(ctx context.Context, tripID uuid.UUID, fn func(tx TxRepository, trip *trips.Trip) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[tripID]
	if !ok {
		return apperrors.NotFound("trip", tripID.String())
	}

	savedTrips := make(map[uuid.UUID]trips.Trip, len(r.trips))
	for k, v := range r.trips {
		savedTrips[k] = v
	}
	savedBookings := make(map[uuid.UUID]Booking, len(r.bookings))
	for k, v := range r.bookings {
		savedBookings[k] = v
	}
	savedPayments := make(map[string]payments.Payment, len(r.payments))
	for k, v := range r.payments {
		savedPayments[k] = v
	}

	if err := fn(&memTx{r: r}, &trip); err != nil {
		r.trips, r.bookings, r.payments = savedTrips, savedBookings, savedPayments
		return err
	}
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	b.refreshDue()
	return &b, nil
}

func (r *memRepo) GetByShareToken(ctx context.Context, token string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.ShareToken != nil && *b.ShareToken == token {
			b.refreshDue()
			return &b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memRepo) AssignShareToken(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.ShareToken != nil {
		return false, nil
	}
	b.ShareToken = &token
	r.bookings[id] = b
	return true, nil
}

func (r *memRepo) List(ctx context.Context, query ListQuery) ([]Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Booking
	for _, b := range r.bookings {
		if query.TripID != "" && b.TripID.String() != query.TripID {
			continue
		}
		if query.State != "" && string(b.State) != query.State {
			continue
		}
		if query.Phone != "" && b.PassengerPhone != query.Phone {
			continue
		}
		if query.Reference != "" && b.Reference != query.Reference {
			continue
		}
		b.refreshDue()
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Reference < out[j].Reference })
	total := int64(len(out))
	start := (query.Page - 1) * query.Limit
	if start > len(out) {
		start = len(out)
	}
	end := start + query.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *memRepo) ActiveClaims(ctx context.Context, tripID uuid.UUID) ([]trips.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claims(tripID), nil
}

func (r *memRepo) claims(tripID uuid.UUID) []trips.Claim {
	var out []trips.Claim
	for _, b := range r.bookings {
		if b.TripID == tripID && b.State.HoldsSeat() {
			out = append(out, b.Claim())
		}
	}
	return out
}

func (r *memRepo) TripsWithDueHolds(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, b := range r.bookings {
		if isDue(b, now) && !seen[b.TripID] {
			seen[b.TripID] = true
			out = append(out, b.TripID)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) TripRevenue(ctx context.Context, tripID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, b := range r.bookings {
		if b.TripID != tripID {
			continue
		}
		switch b.State {
		case StateCancelled, StateRefunded, StateExpired:
			continue
		}
		sum += b.AmountPaid
	}
	return sum, nil
}

func isDue(b Booking, now time.Time) bool {
	return b.State == StateReserved && b.BookingType == BookingTypeReservation &&
		b.ReservationDeadline != nil && b.ReservationDeadline.Before(now)
}

// memTx runs with memRepo.mu already held.
type memTx struct {
	r *memRepo
}

func (t *memTx) Claims(tripID uuid.UUID) ([]trips.Claim, error) {
	return t.r.claims(tripID), nil
}

func (t *memTx) LockBooking(id uuid.UUID) (*Booking, error) {
	b, ok := t.r.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking", id.String())
	}
	b.refreshDue()
	return &b, nil
}

func (t *memTx) Create(b *Booking) error {
	if _, ok := t.r.bookings[b.ID]; ok {
		return errors.New("duplicate booking id")
	}
	t.r.bookings[b.ID] = *b
	return nil
}

func (t *memTx) Save(b *Booking) error {
	if b.AmountPaid > b.TotalAmount {
		return apperrors.Validation("amount", "payments would exceed the booking total")
	}
	if b.SeatID != nil && b.State.HoldsSeat() {
		for _, other := range t.r.bookings {
			if other.ID != b.ID && other.TripID == b.TripID && other.State.HoldsSeat() &&
				other.SeatID != nil && *other.SeatID == *b.SeatID {
				return apperrors.Admission(apperrors.ReasonSeatTaken, "seat already assigned")
			}
		}
	}
	t.r.bookings[b.ID] = *b
	return nil
}

func (t *memTx) CountInStates(tripID uuid.UUID, states ...State) (int64, error) {
	var n int64
	for _, b := range t.r.bookings {
		if b.TripID != tripID {
			continue
		}
		for _, s := range states {
			if b.State == s {
				n++
				break
			}
		}
	}
	return n, nil
}

func (t *memTx) MoveAll(tripID uuid.UUID, from []State, to State, at time.Time, reason string) ([]Booking, error) {
	var moved []Booking
	for id, b := range t.r.bookings {
		if b.TripID != tripID || !containsState(from, b.State) {
			continue
		}
		b.State = to
		b.UpdatedAt = at
		switch to {
		case StateCancelled:
			b.CancelledAt = &at
			b.CancellationReason = reason
		case StateCheckedIn:
			b.CheckedInAt = &at
		}
		b.refreshDue()
		t.r.bookings[id] = b
		moved = append(moved, b)
	}
	return moved, nil
}

func (t *memTx) ExpireDue(tripID uuid.UUID, now time.Time) ([]Booking, error) {
	var moved []Booking
	for id, b := range t.r.bookings {
		if b.TripID != tripID || !isDue(b, now) {
			continue
		}
		b.State = StateExpired
		b.UpdatedAt = now
		t.r.bookings[id] = b
		moved = append(moved, b)
	}
	return moved, nil
}

func (t *memTx) SaveTrip(trip *trips.Trip) error {
	t.r.trips[trip.ID] = *trip
	return nil
}

func (t *memTx) PaymentByRef(ref string) (*payments.Payment, error) {
	p, ok := t.r.payments[ref]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (t *memTx) CreatePayment(p *payments.Payment) error {
	if _, ok := t.r.payments[p.TransactionRef]; ok {
		return errors.New("duplicate transaction ref")
	}
	t.r.payments[p.TransactionRef] = *p
	return nil
}

func (t *memTx) SavePayment(p *payments.Payment) error {
	t.r.payments[p.TransactionRef] = *p
	return nil
}

func containsState(states []State, s State) bool {
	for _, x := range states {
		if x == s {
			return true
		}
	}
	return false
}

// tripReader serves trips from the repo so transitions are visible to pre-reads.
type tripReader struct {
	repo  *memRepo
	graph *routes.Graph
}

func (f *tripReader) GetTrip(ctx context.Context, id uuid.UUID) (*trips.Trip, error) {
	f.repo.mu.Lock()
	defer f.repo.mu.Unlock()
	trip, ok := f.repo.trips[id]
	if !ok {
		return nil, apperrors.NotFound("trip", id.String())
	}
	return &trip, nil
}

func (f *tripReader) Graph(ctx context.Context, trip *trips.Trip) (*routes.Graph, error) {
	return f.graph, nil
}

type busReader struct {
	bus   fleet.Bus
	seats map[uuid.UUID]fleet.Seat
}

func (f *busReader) GetBus(ctx context.Context, id uuid.UUID) (*fleet.Bus, error) {
	if id != f.bus.ID {
		return nil, apperrors.NotFound("bus", id.String())
	}
	bus := f.bus
	return &bus, nil
}

func (f *busReader) SeatOnBus(ctx context.Context, busID, seatID uuid.UUID) (*fleet.Seat, error) {
	seat, ok := f.seats[seatID]
	if !ok || seat.BusID != busID {
		return nil, apperrors.Validation("seat_id", "seat is not on this bus")
	}
	return &seat, nil
}

type companyConfig struct {
	hours int
	fee   int64
}

func (f companyConfig) ReservationHours(ctx context.Context, companyID uuid.UUID) (int, error) {
	return f.hours, nil
}

func (f companyConfig) ReservationFee(ctx context.Context, companyID uuid.UUID) (int64, error) {
	return f.fee, nil
}

func (f companyConfig) Settings(ctx context.Context, id uuid.UUID) (*companies.Settings, error) {
	return &companies.Settings{CompanyID: id, ReservationHours: f.hours, ReservationFee: f.fee, Currency: "XOF"}, nil
}

type cityReader struct {
	cities []routes.City
}

func (f cityReader) ListCities(ctx context.Context) ([]routes.City, error) {
	return f.cities, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notifications.Message
	fail error
}

func (n *recordingNotifier) record(kind notifications.Kind, msg notifications.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	msg.Kind = kind
	n.sent = append(n.sent, msg)
	return n.fail
}

func (n *recordingNotifier) SendTicket(ctx context.Context, msg notifications.Message) error {
	return n.record(notifications.KindTicket, msg)
}

func (n *recordingNotifier) SendReservationHold(ctx context.Context, msg notifications.Message) error {
	return n.record(notifications.KindReservationHold, msg)
}

func (n *recordingNotifier) SendBookingCancelled(ctx context.Context, msg notifications.Message) error {
	return n.record(notifications.KindBookingCancelled, msg)
}

func (n *recordingNotifier) SendTripCancelled(ctx context.Context, msg notifications.Message) error {
	return n.record(notifications.KindTripCancelled, msg)
}

func (n *recordingNotifier) count(kind notifications.Kind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.sent {
		if m.Kind == kind {
			c++
		}
	}
	return c
}

type refund struct {
	bookingID uuid.UUID
	ref       string
	amount    int64
}

type recordingRefunder struct {
	mu      sync.Mutex
	refunds []refund
}

func (r *recordingRefunder) IssueRefund(ctx context.Context, bookingID uuid.UUID, amount int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refunds = append(r.refunds, refund{bookingID: bookingID, amount: amount})
	return nil
}

func (r *recordingRefunder) RefundPayment(ctx context.Context, bookingID uuid.UUID, transactionRef string, amount int64, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refunds = append(r.refunds, refund{bookingID: bookingID, ref: transactionRef, amount: amount})
	return nil
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	snaps []*trips.AvailabilitySnapshot
}

func (b *recordingBroadcaster) Broadcast(snap *trips.AvailabilitySnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snaps = append(b.snaps, snap)
}

// harness is a scheduled trip A -> B -> C with everything a booking needs.
type harness struct {
	t   *testing.T
	svc *service

	repo        *memRepo
	notifier    *recordingNotifier
	refunder    *recordingRefunder
	broadcaster *recordingBroadcaster

	trip    trips.Trip
	a, b, c uuid.UUID
	seats   []uuid.UUID
	now     time.Time
}

func newHarness(t *testing.T, quota int) *harness {
	t.Helper()

	h := &harness{
		t:           t,
		repo:        newMemRepo(),
		notifier:    &recordingNotifier{},
		refunder:    &recordingRefunder{},
		broadcaster: &recordingBroadcaster{},
		a:           uuid.New(),
		b:           uuid.New(),
		c:           uuid.New(),
		now:         time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}

	graph, err := routes.NewGraph(&routes.Route{
		ID:              uuid.New(),
		DepartureCityID: h.a,
		ArrivalCityID:   h.c,
		DurationMinutes: 300,
		Stops: []routes.RouteStop{{
			CityID: h.b, Sequence: 1, DurationFromStartMinutes: 120, PriceFromStart: 4000,
			IsBoardingPoint: true, IsDropoffPoint: true,
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	bus := fleet.Bus{ID: uuid.New(), SeatCapacity: 40, MaxLuggagePerPassengerKg: 30}
	seats := map[uuid.UUID]fleet.Seat{}
	for i := 1; i <= 4; i++ {
		seat := fleet.Seat{ID: uuid.New(), BusID: bus.ID, Number: i}
		seats[seat.ID] = seat
		h.seats = append(h.seats, seat.ID)
	}

	h.trip = trips.Trip{
		ID:                     uuid.New(),
		Reference:              "TRP-20260302-AB2CD",
		CompanyID:              uuid.New(),
		RouteID:                graph.RouteID,
		BusID:                  bus.ID,
		DepartureTime:          h.now.Add(24 * time.Hour),
		MeetingPoint:           "Gare routiere d'Adjame",
		TotalSeats:             40,
		BookingQuota:           quota,
		Price:                  10000,
		VIPPrice:               15000,
		IncludedLuggageKg:      20,
		ExtraLuggagePricePerKg: 100,
		State:                  trips.StateScheduled,
	}
	h.repo.trips[h.trip.ID] = h.trip

	svc := NewService(Dependencies{
		Repo:        h.repo,
		Trips:       &tripReader{repo: h.repo, graph: graph},
		Fleet:       &busReader{bus: bus, seats: seats},
		Companies:   companyConfig{hours: 2, fee: 500},
		Cities:      cityReader{cities: []routes.City{{ID: h.a, Name: "Abidjan"}, {ID: h.b, Name: "Yamoussoukro"}, {ID: h.c, Name: "Bouake"}}},
		Notifier:    h.notifier,
		Refunder:    h.refunder,
		Broadcaster: h.broadcaster,
		Config: config.BookingConfig{
			MaxReservationHours: 24,
			DefaultMaxLuggageKg: 50,
			ShareBaseURL:        "https://tickets.example.com",
			NoShowAtDeparture:   true,
		},
		Logger: logger.Discard(),
	}).(*service)
	svc.now = func() time.Time { return h.now }
	svc.async = func(f func()) { f() }
	h.svc = svc
	return h
}

func (h *harness) ctx() context.Context {
	return context.Background()
}

func (h *harness) request(board, alight uuid.UUID) CreateBookingRequest {
	return CreateBookingRequest{
		TripID:          h.trip.ID.String(),
		BoardingStopID:  board.String(),
		AlightingStopID: alight.String(),
		Passenger:       Passenger{Name: "Awa Kone", Phone: "+225 07 07 07 07"},
	}
}

func (h *harness) create(board, alight uuid.UUID) *Booking {
	h.t.Helper()
	b, err := h.svc.CreateBooking(h.ctx(), h.request(board, alight), nil)
	if err != nil {
		h.t.Fatalf("create booking: %v", err)
	}
	return b
}

func (h *harness) reserve(board, alight uuid.UUID) *Booking {
	h.t.Helper()
	b := h.create(board, alight)
	reserved, err := h.svc.ReserveBooking(h.ctx(), b.ID)
	if err != nil {
		h.t.Fatalf("reserve booking: %v", err)
	}
	return reserved
}

func (h *harness) confirm(board, alight uuid.UUID) *Booking {
	h.t.Helper()
	b := h.reserve(board, alight)
	entry, err := h.svc.RecordPayment(h.ctx(), b.ID, b.TotalAmount, "TX-"+b.Reference, payments.MethodCash)
	if err != nil {
		h.t.Fatalf("record payment: %v", err)
	}
	if !entry.Confirmed {
		h.t.Fatalf("expected auto-confirm, got %+v", entry)
	}
	return h.get(b.ID)
}

func (h *harness) get(id uuid.UUID) *Booking {
	h.t.Helper()
	b, err := h.svc.GetBooking(h.ctx(), id)
	if err != nil {
		h.t.Fatal(err)
	}
	return b
}

func (h *harness) available(board, alight uuid.UUID) int {
	h.t.Helper()
	n, err := h.svc.GetTripAvailability(h.ctx(), h.trip.ID, board, alight)
	if err != nil {
		h.t.Fatal(err)
	}
	return n
}

func (h *harness) setTrip(mutate func(*trips.Trip)) {
	h.repo.mu.Lock()
	defer h.repo.mu.Unlock()
	trip := h.repo.trips[h.trip.ID]
	mutate(&trip)
	h.repo.trips[h.trip.ID] = trip
}

func (h *harness) setBooking(id uuid.UUID, mutate func(*Booking)) {
	h.repo.mu.Lock()
	defer h.repo.mu.Unlock()
	b := h.repo.bookings[id]
	mutate(&b)
	h.repo.bookings[id] = b
}
