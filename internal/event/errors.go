package event

import "errors"

var (
	// ErrNotFound is returned when no event has the requested id.
	ErrNotFound = errors.New("event not found")
	// ErrAlreadyInEvent is returned by Join when the member is already on a roster.
	ErrAlreadyInEvent = errors.New("member already in event")
	// ErrNotInEvent is returned by Leave when the member is on no roster.
	ErrNotInEvent = errors.New("member not in event")
	// ErrIDSpaceExhausted is returned when every sequence number of an activity is taken.
	ErrIDSpaceExhausted = errors.New("no free event id for activity")
	// ErrInvalidID is returned when an id string cannot be parsed.
	ErrInvalidID = errors.New("invalid event id")
	// ErrInvalidGroupSize is returned for group sizes below one.
	ErrInvalidGroupSize = errors.New("group size must be at least 1")
)
