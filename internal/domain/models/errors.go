package models

import (
	"errors"
	"fmt"
)

// Kind names one class of failure surfaced to the user.
type Kind string

const (
	KindMissingSelection       Kind = "MissingSelection"
	KindEmptySubmission        Kind = "EmptySubmission"
	KindAlreadyGraded          Kind = "AlreadyGraded"
	KindOverAllocation         Kind = "OverAllocation"
	KindDuplicateSale          Kind = "DuplicateSale"
	KindNumberAssignmentFailed Kind = "NumberAssignmentFailed"
	KindClientExists           Kind = "ClientExists"
	KindInvalidInput           Kind = "InvalidInput"
	KindNotFound               Kind = "NotFound"
	KindUnauthorized           Kind = "Unauthorized"
	KindForbidden              Kind = "Forbidden"
	KindRemoteError            Kind = "RemoteError"
)

var (
	ErrMissingSelection       = errors.New("a transaction, client and date must be selected")
	ErrEmptySubmission        = errors.New("at least one line must be filled in")
	ErrAlreadyGraded          = errors.New("this delivery was already graded")
	ErrOverAllocation         = errors.New("graded kilograms exceed the received kilograms")
	ErrDuplicateSale          = errors.New("this grading already has a sale")
	ErrNumberAssignmentFailed = errors.New("could not assign a note number")
	ErrClientExists           = errors.New("this client is already registered, select it from the list")
	ErrInvalidInput           = errors.New("invalid input")
	ErrNotFound               = errors.New("record not found")
	ErrUnauthorized           = errors.New("not signed in")
	ErrForbidden              = errors.New("role not allowed")
)

// OverAllocationError reports the received limit and the attempted graded sum.
type OverAllocationError struct {
	LimitKg     float64
	AttemptedKg float64
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("cannot grade more than %.2f kg, lines add up to %.2f kg", e.LimitKg, e.AttemptedKg)
}

// Is lets errors.Is match ErrOverAllocation.
func (e *OverAllocationError) Is(target error) bool {
	return target == ErrOverAllocation
}

// RemoteError wraps a store or auth failure. Its message is the backend's own.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Err.Error()
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Remote wraps err as a RemoteError unless it is nil or already classified.
func Remote(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindRemoteError {
		return err
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &RemoteError{Op: op, Err: err}
}

// InvalidInput builds an ErrInvalidInput carrying a specific message.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrMissingSelection, KindMissingSelection},
	{ErrEmptySubmission, KindEmptySubmission},
	{ErrAlreadyGraded, KindAlreadyGraded},
	{ErrOverAllocation, KindOverAllocation},
	{ErrDuplicateSale, KindDuplicateSale},
	{ErrNumberAssignmentFailed, KindNumberAssignmentFailed},
	{ErrClientExists, KindClientExists},
	{ErrInvalidInput, KindInvalidInput},
	{ErrNotFound, KindNotFound},
	{ErrUnauthorized, KindUnauthorized},
	{ErrForbidden, KindForbidden},
}

// KindOf classifies err. Anything unrecognised is a RemoteError.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindRemoteError
}
