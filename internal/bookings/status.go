package bookings

import "busline/internal/shared/apperrors"

type State string

const (
	StateDraft     State = "draft"
	StateReserved  State = "reserved"
	StateConfirmed State = "confirmed"
	StateCheckedIn State = "checked_in"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateExpired   State = "expired"
	StateRefunded  State = "refunded"
	// StateNoShow is a confirmed booking whose passenger never boarded before departure.
	StateNoShow State = "no_show"
)

// OccupancyStates are the states that hold a seat on the booking's segment.
var OccupancyStates = []State{StateReserved, StateConfirmed, StateCheckedIn}

var AllowedTransitions = map[State][]State{
	StateDraft:     {StateReserved, StateConfirmed, StateCancelled},
	StateReserved:  {StateConfirmed, StateCancelled, StateExpired},
	StateConfirmed: {StateCheckedIn, StateCancelled, StateCompleted, StateNoShow},
	StateCheckedIn: {StateCompleted},
	StateCancelled: {StateRefunded},
}

func CanTransition(from, to State) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s State) IsValid() bool {
	switch s {
	case StateDraft, StateReserved, StateConfirmed, StateCheckedIn, StateCompleted,
		StateCancelled, StateExpired, StateRefunded, StateNoShow:
		return true
	}
	return false
}

// HoldsSeat reports whether the state counts toward segment occupancy.
func (s State) HoldsSeat() bool {
	return s == StateReserved || s == StateConfirmed || s == StateCheckedIn
}

// IsTerminal reports whether no further transition exists.
func (s State) IsTerminal() bool {
	return s.IsValid() && len(AllowedTransitions[s]) == 0
}

// Boarded is true once the passenger is on the bus or the trip is done.
func (s State) Boarded() bool {
	return s == StateCheckedIn || s == StateCompleted
}

// transition checks from -> to and returns a StateConflict naming action when illegal.
func transition(b *Booking, to State, action string) error {
	if !CanTransition(b.State, to) {
		return apperrors.StateConflict("booking", string(b.State), action)
	}
	b.State = to
	return nil
}
