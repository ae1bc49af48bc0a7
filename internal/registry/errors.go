package registry

import (
	"errors"
	"fmt"

	"github.com/roach88/timelockidx/internal/ir"
)

// ErrorCode categorizes registry lookup failures.
type ErrorCode string

const (
	// ErrCodeIndexNotFound indicates a position outside [0, count).
	ErrCodeIndexNotFound ErrorCode = "INDEX_NOT_FOUND"

	// ErrCodeIdentityNotFound indicates an identity not tracked by the queried shape.
	ErrCodeIdentityNotFound ErrorCode = "IDENTITY_NOT_FOUND"
)

// LookupError is returned by the positional and identity lookups.
// It carries the argument that missed.
type LookupError struct {
	Code     ErrorCode
	Shape    Shape
	Position int
	ID       ir.Identity
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	switch e.Code {
	case ErrCodeIndexNotFound:
		return fmt.Sprintf("%s: no %s at position %d", e.Code, e.Shape, e.Position)
	default:
		return fmt.Sprintf("%s: no %s with identity %s", e.Code, e.Shape, e.ID.Hex())
	}
}

// IsIndexNotFound returns true if err is a LookupError for a position.
func IsIndexNotFound(err error) bool {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Code == ErrCodeIndexNotFound
	}
	return false
}

// IsIdentityNotFound returns true if err is a LookupError for an identity.
func IsIdentityNotFound(err error) bool {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Code == ErrCodeIdentityNotFound
	}
	return false
}

func indexNotFound(shape Shape, i int) *LookupError {
	return &LookupError{Code: ErrCodeIndexNotFound, Shape: shape, Position: i}
}

func identityNotFound(shape Shape, id ir.Identity) *LookupError {
	return &LookupError{Code: ErrCodeIdentityNotFound, Shape: shape, ID: id}
}
