package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/timelockidx/internal/ir"
)

// Error represents a request the engine refused.
//
// Engine errors include:
//   - Unauthorized: caller lacks the role the entry point requires
//   - Insufficient delay: requested delay is below the minimum
//   - Operation exists: identity already scheduled or done
//   - Unknown operation: identity is not pending (cancel)
//   - Not ready: identity is not ready (execute)
//   - Missing dependency: predecessor not done (execute)
//   - Invalid batch length: parallel sequences differ in length
//   - Invalid value: a call value is negative or exceeds uint256
//   - Call failed: a forwarded call returned an error
//
// Error includes structured fields for diagnostics.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ID identifies the affected operation, if any.
	ID ir.Identity

	// Caller is the account that made the request, if relevant.
	Caller ir.Address

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause (CALL_FAILED only).
	Err error
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates the caller lacks the required role.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// ErrCodeInsufficientDelay indicates the requested delay is below the minimum.
	ErrCodeInsufficientDelay ErrorCode = "INSUFFICIENT_DELAY"

	// ErrCodeOperationExists indicates the identity is already known to the engine.
	ErrCodeOperationExists ErrorCode = "OPERATION_EXISTS"

	// ErrCodeUnknownOperation indicates the identity is not pending.
	ErrCodeUnknownOperation ErrorCode = "UNKNOWN_OPERATION"

	// ErrCodeNotReady indicates the operation's delay has not elapsed (or it is not scheduled).
	ErrCodeNotReady ErrorCode = "OPERATION_NOT_READY"

	// ErrCodeMissingDependency indicates the predecessor has not been executed.
	ErrCodeMissingDependency ErrorCode = "MISSING_DEPENDENCY"

	// ErrCodeInvalidBatchLength indicates misaligned batch sequences.
	ErrCodeInvalidBatchLength ErrorCode = "INVALID_BATCH_LENGTH"

	// ErrCodeInvalidValue indicates a call value outside [0, 2^256-1].
	ErrCodeInvalidValue ErrorCode = "INVALID_VALUE"

	// ErrCodeCallFailed indicates a forwarded call failed.
	ErrCodeCallFailed ErrorCode = "CALL_FAILED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ID != ir.ZeroIdentity {
		msg += fmt.Sprintf(" (id=%s)", e.ID.Hex())
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode returns true if err is an engine Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// CodeOf returns the engine error code carried by err, or "" if none.
func CodeOf(err error) ErrorCode {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

// NewUnauthorizedError creates an Error for a missing role.
func NewUnauthorizedError(caller ir.Address, role Role) *Error {
	return &Error{
		Code:    ErrCodeUnauthorized,
		Message: fmt.Sprintf("account %s is missing role %s", caller.Hex(), role),
		Caller:  caller,
		Details: map[string]string{"role": string(role)},
	}
}

// NewInsufficientDelayError creates an Error for a delay below the minimum.
func NewInsufficientDelayError(delay, minDelay int64) *Error {
	return &Error{
		Code:    ErrCodeInsufficientDelay,
		Message: fmt.Sprintf("delay %ds is below minimum %ds", delay, minDelay),
		Details: map[string]string{
			"delay":     fmt.Sprintf("%d", delay),
			"min_delay": fmt.Sprintf("%d", minDelay),
		},
	}
}

// NewStateError creates an Error for an identity in the wrong lifecycle state.
func NewStateError(code ErrorCode, id ir.Identity, state State) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf("operation is %s", state),
		ID:      id,
		Details: map[string]string{"state": state.String()},
	}
}

// NewMissingDependencyError creates an Error for an unexecuted predecessor.
func NewMissingDependencyError(id, predecessor ir.Identity) *Error {
	return &Error{
		Code:    ErrCodeMissingDependency,
		Message: fmt.Sprintf("predecessor %s has not been executed", predecessor.Hex()),
		ID:      id,
		Details: map[string]string{"predecessor": predecessor.Hex()},
	}
}

// NewInvalidBatchLengthError creates an Error for misaligned batch sequences.
func NewInvalidBatchLengthError(targets, values, payloads int) *Error {
	return &Error{
		Code:    ErrCodeInvalidBatchLength,
		Message: fmt.Sprintf("targets=%d values=%d payloads=%d", targets, values, payloads),
	}
}

// NewInvalidValueError creates an Error for a value the identity encoding cannot carry.
func NewInvalidValueError(err error) *Error {
	return &Error{
		Code:    ErrCodeInvalidValue,
		Message: err.Error(),
	}
}

// NewCallFailedError wraps the failure of call index i of operation id.
func NewCallFailedError(id ir.Identity, i int, err error) *Error {
	return &Error{
		Code:    ErrCodeCallFailed,
		Message: fmt.Sprintf("call %d reverted", i),
		ID:      id,
		Err:     err,
	}
}
