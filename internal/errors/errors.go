//nolint:revive // Package name intentionally matches stdlib for domain clarity
package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	// ErrNoIdentity is returned when a store operation runs without a signed-in user.
	ErrNoIdentity = stderrors.New("no identity")
	// ErrNotOwned is returned when a row is absent or belongs to another identity.
	ErrNotOwned = stderrors.New("task not found for identity")
	// ErrCorrupt marks unreadable persisted data.
	ErrCorrupt = stderrors.New("corrupt task data")
)

// ValidationError indicates malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps a persistence failure for one operation.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error {
	return e.Err
}

func Storage(op, id string, err error) error {
	return StorageError{Op: op, ID: id, Err: err}
}

func IsValidation(err error) bool {
	var target ValidationError
	return stderrors.As(err, &target)
}

func IsStorage(err error) bool {
	var target StorageError
	return stderrors.As(err, &target)
}
