package service

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a booking failure for callers and transports.
type Code string

const (
	CodeMissingField Code = "missing_field"
	CodeInvalidSlot  Code = "invalid_slot"
	CodePastDate     Code = "past_date"
	CodeSlotConflict Code = "slot_conflict"
	CodeNotFound     Code = "not_found"
	CodeInvalidInput Code = "invalid_input"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal"
)

// Error is returned by every service operation that can be reported to the
// client. Fields names the missing inputs, Slots the offending or
// overlapping slot labels.
type Error struct {
	Code   Code
	Msg    string
	Fields []string
	Slots  []string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Msg)
	switch {
	case len(e.Fields) > 0:
		fmt.Fprintf(&b, ": %s", strings.Join(e.Fields, ", "))
	case len(e.Slots) > 0:
		fmt.Fprintf(&b, ": %s", strings.Join(e.Slots, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so errors.Is(err, ErrPastDate)
// works regardless of the attached details.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrMissingField = &Error{Code: CodeMissingField, Msg: "missing required fields"}
	ErrInvalidSlot  = &Error{Code: CodeInvalidSlot, Msg: "invalid time slots"}
	ErrPastDate     = &Error{Code: CodePastDate, Msg: "cannot book for a past date"}
	ErrSlotConflict = &Error{Code: CodeSlotConflict, Msg: "time slots already booked"}
	ErrNotFound     = &Error{Code: CodeNotFound, Msg: "not found"}
	ErrInvalidInput = &Error{Code: CodeInvalidInput, Msg: "invalid input"}
	ErrConflict     = &Error{Code: CodeConflict, Msg: "already exists"}
	ErrInternal     = &Error{Code: CodeInternal, Msg: "internal error"}
)

func missingField(fields ...string) error {
	return &Error{Code: CodeMissingField, Msg: "missing required fields", Fields: fields}
}

func invalidSlot(slots []string) error {
	return &Error{Code: CodeInvalidSlot, Msg: "invalid time slots", Slots: slots}
}

func slotConflict(slots []string) error {
	return &Error{Code: CodeSlotConflict, Msg: "time slots already booked", Slots: slots}
}

func notFound(what string) error {
	return &Error{Code: CodeNotFound, Msg: what + " not found"}
}

func invalidInput(msg string) error {
	return &Error{Code: CodeInvalidInput, Msg: msg}
}

func conflict(msg string, err error) error {
	return &Error{Code: CodeConflict, Msg: msg, Err: err}
}

func internal(op string, err error) error {
	return &Error{Code: CodeInternal, Msg: op, Err: err}
}

// CodeOf extracts the code of a service error; anything else is internal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
