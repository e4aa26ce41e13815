package trips

import (
	"testing"
	"time"

	"busline/internal/shared/apperrors"
)

func schedulableTrip(now time.Time) *Trip {
	return &Trip{
		State:         StateDraft,
		MeetingPoint:  "Gare routiere d'Adjame",
		Price:         8000,
		DepartureTime: now.Add(48 * time.Hour),
		TotalSeats:    50,
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateDraft, StateScheduled, true},
		{StateScheduled, StateBoarding, true},
		{StateScheduled, StateDeparted, true},
		{StateBoarding, StateDeparted, true},
		{StateDeparted, StateArrived, true},
		{StateDeparted, StateCancelled, false},
		{StateArrived, StateCancelled, false},
		{StateCancelled, StateDraft, true},
		{StateDraft, StateBoarding, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestApplySchedule(t *testing.T) {
	now := time.Now()

	trip := schedulableTrip(now)
	if err := Apply(trip, ActionSchedule, now, 0); err != nil {
		t.Fatal(err)
	}
	if trip.State != StateScheduled {
		t.Fatalf("expected scheduled, got %s", trip.State)
	}

	tests := []struct {
		name   string
		mutate func(*Trip)
		field  string
	}{
		{"no meeting point", func(tr *Trip) { tr.MeetingPoint = " " }, "meeting_point"},
		{"free trip", func(tr *Trip) { tr.Price = 0 }, "price"},
		{"in the past", func(tr *Trip) { tr.DepartureTime = now.Add(-time.Minute) }, "departure_time"},
		{"cheap vip", func(tr *Trip) { tr.VIPPrice = 5000 }, "vip_price"},
		{"dear child", func(tr *Trip) { tr.ChildPrice = 9000 }, "child_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trip := schedulableTrip(now)
			tt.mutate(trip)
			err := Apply(trip, ActionSchedule, now, 0)
			var v apperrors.ValidationError
			if !apperrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			v = err.(apperrors.ValidationError)
			if v.Field != tt.field {
				t.Fatalf("expected field %s, got %s", tt.field, v.Field)
			}
			if trip.State != StateDraft {
				t.Fatal("state must not change on failure")
			}
		})
	}
}

func TestApplyBoardingNeedsBookings(t *testing.T) {
	now := time.Now()
	trip := schedulableTrip(now)
	trip.State = StateScheduled

	if err := Apply(trip, ActionStartBoarding, now, 0); !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := Apply(trip, ActionStartBoarding, now, 1); err != nil {
		t.Fatal(err)
	}
}

func TestApplyStampsTimes(t *testing.T) {
	now := time.Now()
	trip := schedulableTrip(now)
	trip.State = StateBoarding

	if err := Apply(trip, ActionDepart, now, 1); err != nil {
		t.Fatal(err)
	}
	if trip.ActualDeparture == nil || !trip.ActualDeparture.Equal(now) {
		t.Fatal("departure time not stamped")
	}
	later := now.Add(6 * time.Hour)
	if err := Apply(trip, ActionArrive, later, 0); err != nil {
		t.Fatal(err)
	}
	if trip.ActualArrival == nil || !trip.ActualArrival.Equal(later) {
		t.Fatal("arrival time not stamped")
	}
}

func TestApplyRejectsIllegalMoves(t *testing.T) {
	now := time.Now()
	trip := schedulableTrip(now)
	trip.State = StateDeparted

	err := Apply(trip, ActionCancel, now, 0)
	if !apperrors.IsStateConflict(err) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSaleError(t *testing.T) {
	now := time.Now()
	tests := []struct {
		state  State
		offset time.Duration
		want   apperrors.AdmissionReason
	}{
		{StateScheduled, time.Hour, ""},
		{StateScheduled, -time.Minute, apperrors.ReasonTripDeparted},
		{StateDraft, time.Hour, apperrors.ReasonTripClosed},
		{StateBoarding, time.Hour, apperrors.ReasonTripClosed},
		{StateCancelled, time.Hour, apperrors.ReasonTripClosed},
		{StateDeparted, -time.Hour, apperrors.ReasonTripDeparted},
	}
	for _, tt := range tests {
		trip := &Trip{State: tt.state, DepartureTime: now.Add(tt.offset)}
		err := SaleError(trip, now)
		reason, _ := apperrors.AdmissionReasonOf(err)
		if reason != tt.want {
			t.Errorf("state %s offset %s: want %q, got %v", tt.state, tt.offset, tt.want, err)
		}
	}
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("Depart")
	if err != nil || a != ActionDepart || a.Target() != StateDeparted {
		t.Fatalf("unexpected %v %v", a, err)
	}
	if _, err := ParseAction("teleport"); !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
