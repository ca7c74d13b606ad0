package model

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by the ledger, projector and transports. Callers
// match with errors.Is; wrapped variants keep the class of their parent.
var (
	// ErrNotFound is returned when a resource or reservation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRange is returned for malformed or out-of-window time input.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrConflict is returned when a live reservation already covers part of the range.
	ErrConflict = errors.New("time range conflicts with an existing reservation")

	// ErrForbidden is returned when the actor neither owns the reservation nor is an admin.
	ErrForbidden = errors.New("not authorized for this reservation")

	// ErrAlreadyTerminal is returned when a reservation can no longer change state.
	ErrAlreadyTerminal = errors.New("reservation can no longer be changed")

	// ErrUnauthenticated is returned when an operation requires an actor.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrInactiveResource is returned when booking a deactivated resource.
	ErrInactiveResource = errors.New("resource is not available for booking")

	// ErrInvalidTransition is returned when a status edit would move a
	// reservation backwards in its lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUpstreamFailure is returned when the reasoning service fails.
	ErrUpstreamFailure = errors.New("reasoning service failure")
)

var (
	// ErrAlreadyCancelled is an ErrAlreadyTerminal for cancelled reservations.
	ErrAlreadyCancelled = fmt.Errorf("%w: already cancelled", ErrAlreadyTerminal)

	// ErrAlreadyStarted is an ErrAlreadyTerminal for reservations whose start has passed.
	ErrAlreadyStarted = fmt.Errorf("%w: already started or passed", ErrAlreadyTerminal)

	// ErrDayNotCheckable is an ErrInvalidRange for availability queries on past days.
	ErrDayNotCheckable = fmt.Errorf("%w: day is in the past", ErrInvalidRange)
)
