// Package transition decides what a registration status change means
// for ticket inventory. It is pure: given (from, to) it returns the
// required inventory action and whether the transition is legal, and
// never touches the store itself.
package transition

import "github.com/communityhub/registration-core/internal/model"

// Action is the inventory side effect a transition requires.
type Action int

const (
	// None leaves inventory untouched.
	None Action = iota
	// Reserve claims one slot via the store's conditional increment.
	Reserve
	// Release returns one slot via the store's floor-guarded decrement.
	Release
)

func (a Action) String() string {
	switch a {
	case Reserve:
		return "reserve"
	case Release:
		return "release"
	default:
		return "none"
	}
}

// Reason explains why a transition is illegal.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonAlreadyCancelled: CANCELLED is terminal for cancellation; a
	// second cancel must fail rather than no-op.
	ReasonAlreadyCancelled
	// ReasonUnknownStatus: one of the endpoints is not a known status.
	ReasonUnknownStatus
)

// Decision is the full plan for a transition: the inventory delta and
// whether the transition may happen at all.
type Decision struct {
	Action Action
	Legal  bool
	Reason Reason
}

// Plan maps (from, to) to a Decision. The rules, exhaustively:
//
//	from == to                     -> None (legal, except CANCELLED -> CANCELLED)
//	non-occupying -> occupying     -> Reserve
//	occupying     -> non-occupying -> Release
//	occupying     -> occupying     -> None (the slot is already held)
//	non-occupying -> non-occupying -> None
//
// Every status is classified by model.Status.Occupies, so adding a new
// status cannot silently skip an inventory delta: an unclassified value
// fails Valid and the transition is rejected outright.
func Plan(from, to model.Status) Decision {
	if !from.Valid() || !to.Valid() {
		return Decision{Action: None, Legal: false, Reason: ReasonUnknownStatus}
	}
	if from == model.StatusCancelled && to == model.StatusCancelled {
		return Decision{Action: None, Legal: false, Reason: ReasonAlreadyCancelled}
	}

	switch {
	case !from.Occupies() && to.Occupies():
		return Decision{Action: Reserve, Legal: true}
	case from.Occupies() && !to.Occupies():
		return Decision{Action: Release, Legal: true}
	default:
		return Decision{Action: None, Legal: true}
	}
}
