package ladder

import (
	"errors"
	"fmt"

	"github.com/mcoot/eloladder/internal/model"
)

// Errors
var (
	ErrInvalidName         = errors.New("name must not be empty")
	ErrAlreadyRegistered   = errors.New("already registered")
	ErrCallerNotRegistered = errors.New("you are not registered")
	ErrUserNotFound        = errors.New("user not found")
	ErrOpponentNotFound    = errors.New("opponent not found")
	ErrSelfChallenge       = errors.New("cannot challenge yourself")
	ErrDuplicateChallenge  = errors.New("a challenge against this opponent is already pending")
	ErrNothingPending      = errors.New("no pending challenge to confirm")
	ErrInvalidRating       = errors.New("rating must be a finite number")
	ErrStoreUnavailable    = errors.New("rating store unavailable")
)

// AlreadyRegisteredError carries the name the caller registered with
type AlreadyRegisteredError struct {
	Name string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("already registered as %q", e.Name)
}

func (e *AlreadyRegisteredError) Unwrap() error {
	return ErrAlreadyRegistered
}

// UserNotFoundError names the identity that was looked up
type UserNotFoundError struct {
	ID model.PlayerID
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %s not found", e.ID)
}

func (e *UserNotFoundError) Unwrap() error {
	return ErrUserNotFound
}

// OpponentNotFoundError names the opponent that is not registered
type OpponentNotFoundError struct {
	ID model.PlayerID
}

func (e *OpponentNotFoundError) Error() string {
	return fmt.Sprintf("opponent %s is not registered", e.ID)
}

func (e *OpponentNotFoundError) Unwrap() error {
	return ErrOpponentNotFound
}

// StoreError wraps a storage failure. It matches both ErrStoreUnavailable
// and the underlying cause with errors.Is.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStoreUnavailable, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
