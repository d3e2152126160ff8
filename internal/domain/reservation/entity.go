package reservation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
)

// State is the submission state of a reservation form.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{StateIdle, StateSubmitting, StateSucceeded, StateFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown reservation state %q", text)
}

// Draft is the unsubmitted reservation input owned by one form.
type Draft struct {
	CheckIn  *time.Time
	CheckOut *time.Time
	Guests   int
	RoomType *catalog.RoomType
}

func emptyDraft() Draft {
	return Draft{Guests: 1}
}

// Messages surfaced to the user.
const (
	MsgCheckInRequired   = "Please select a check-in date"
	MsgCheckOutRequired  = "Please select a check-out date"
	MsgCheckOutOrder     = "Check-out date cannot be before check-in date"
	MsgRoomTypeRequired  = "Please select a room type"
	MsgSubmitFailed      = "Failed to create reservation"
	MsgSubmitTimedOut    = "Reservation request timed out"
	MsgSubmitInProgress  = "Reservation is already being submitted"
	MsgFormNotFound      = "Reservation form not found"
	MsgAccommodationGone = "Accommodation not found"
)

var (
	ErrSubmitInProgress      = errors.New("reservation submission in progress")
	ErrUnknownRoomType       = errors.New("unknown room type")
	ErrCheckOutBeforeCheckIn = errors.New("check-out before check-in")
	ErrFormNotFound          = errors.New("reservation form not found")
	ErrSubmitFailed          = errors.New("reservation submission failed")
)

// ValidationError is a local precondition failure. No request was sent.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) <= 1 {
		return "validation failed: " + e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, field := range validationOrder {
		if msg, ok := e.Fields[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validationOrder = []string{"check_in", "check_out", "room_type"}

// SubmitError carries the user-facing failure reason of a rejected submission.
type SubmitError struct {
	Reason string
	Err    error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSubmitFailed, e.Reason, e.Err)
}

func (e *SubmitError) Unwrap() []error {
	return []error{ErrSubmitFailed, e.Err}
}
