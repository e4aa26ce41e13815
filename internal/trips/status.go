package trips

import (
	"fmt"
	"strings"
	"time"

	"busline/internal/shared/apperrors"
)

type State string

const (
	StateDraft     State = "draft"
	StateScheduled State = "scheduled"
	StateBoarding  State = "boarding"
	StateDeparted  State = "departed"
	StateArrived   State = "arrived"
	StateCancelled State = "cancelled"
)

// AllowedTransitions is the trip lifecycle as code.
var AllowedTransitions = map[State][]State{
	StateDraft:     {StateScheduled, StateCancelled},
	StateScheduled: {StateBoarding, StateDeparted, StateCancelled, StateDraft},
	StateBoarding:  {StateDeparted, StateCancelled},
	StateDeparted:  {StateArrived},
	StateCancelled: {StateDraft},
}

func CanTransition(from, to State) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Action is an operator command on a trip.
type Action string

const (
	ActionSchedule      Action = "schedule"
	ActionStartBoarding Action = "boarding"
	ActionDepart        Action = "depart"
	ActionArrive        Action = "arrive"
	ActionCancel        Action = "cancel"
	ActionReset         Action = "reset"
)

var actionTargets = map[Action]State{
	ActionSchedule:      StateScheduled,
	ActionStartBoarding: StateBoarding,
	ActionDepart:        StateDeparted,
	ActionArrive:        StateArrived,
	ActionCancel:        StateCancelled,
	ActionReset:         StateDraft,
}

// ParseAction validates a raw action name.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToLower(raw))
	if _, ok := actionTargets[a]; !ok {
		return "", apperrors.Validation("action", fmt.Sprintf("unknown trip action %q", raw))
	}
	return a, nil
}

// Target returns the state an action moves a trip into.
func (a Action) Target() State {
	return actionTargets[a]
}

// Apply validates action against the trip's current state and mutates it.
// heldBookings is the number of reserved or confirmed bookings on the trip.
func Apply(trip *Trip, action Action, now time.Time, heldBookings int) error {
	target, ok := actionTargets[action]
	if !ok {
		return apperrors.Validation("action", "unknown trip action")
	}
	if !CanTransition(trip.State, target) {
		return apperrors.StateConflict("trip", string(trip.State), string(action))
	}

	switch action {
	case ActionSchedule:
		if strings.TrimSpace(trip.MeetingPoint) == "" {
			return apperrors.Validation("meeting_point", "required before scheduling")
		}
		if trip.Price <= 0 {
			return apperrors.Validation("price", "must be greater than zero")
		}
		if !trip.DepartureTime.After(now) {
			return apperrors.Validation("departure_time", "must be in the future")
		}
		if err := ValidatePrices(trip); err != nil {
			return err
		}
	case ActionStartBoarding:
		if heldBookings == 0 {
			return apperrors.Validation("bookings", "no reserved or confirmed bookings; cancel the trip instead")
		}
	case ActionDepart:
		t := now
		trip.ActualDeparture = &t
	case ActionArrive:
		t := now
		trip.ActualArrival = &t
	}

	trip.State = target
	return nil
}

// ValidatePrices enforces the VIP and child price bounds relative to the base price.
func ValidatePrices(trip *Trip) error {
	if trip.VIPPrice > 0 && trip.VIPPrice < trip.Price {
		return apperrors.Validation("vip_price", "must not be lower than the base price")
	}
	if trip.ChildPrice > 0 && trip.ChildPrice > trip.Price {
		return apperrors.Validation("child_price", "must not exceed the base price")
	}
	return nil
}

// SaleError reports why a trip cannot take new admissions at now, or nil when it can.
func SaleError(trip *Trip, now time.Time) error {
	switch trip.State {
	case StateScheduled:
	case StateDeparted, StateArrived:
		return apperrors.Admission(apperrors.ReasonTripDeparted, "")
	default:
		return apperrors.Admission(apperrors.ReasonTripClosed, "trip is "+string(trip.State))
	}
	if !trip.DepartureTime.After(now) {
		return apperrors.Admission(apperrors.ReasonTripDeparted, "departure time has passed")
	}
	return nil
}
