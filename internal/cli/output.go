package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/grpc/status"

	"github.com/roach88/timelockidx/internal/engine"
	"github.com/roach88/timelockidx/internal/registry"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Refused request or failed check (non-deterministic replay, etc.)
	ExitCommandError = 2 // Command error (bad flags, unreachable daemon, database not found, etc.)
)

// Error codes reported for failures that carry no engine or registry code.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeBadInput    = "E002"
	ErrCodeUnreachable = "E003"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // engine/registry code, or "E001" etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err through the formatter and returns the matching ExitError.
// Refusals by the daemon exit 1; anything else exits 2.
func (f *OutputFormatter) Fail(message string, err error) error {
	code, exit := classify(err)
	_ = f.Error(code, describe(err), nil)
	return WrapExitError(exit, message, err)
}

// classify maps err to an output code and exit code.
func classify(err error) (string, int) {
	if c := engine.CodeOf(err); c != "" {
		return string(c), ExitFailure
	}
	var le *registry.LookupError
	if errors.As(err, &le) {
		return string(le.Code), ExitFailure
	}
	if s, ok := status.FromError(err); ok && s != nil {
		if c := remoteCode(s.Message()); c != "" {
			return c, ExitFailure
		}
		return ErrCodeUnreachable, ExitCommandError
	}
	return ErrCodeGeneric, ExitCommandError
}

// describe strips the gRPC status prefix from err.
func describe(err error) string {
	if s, ok := status.FromError(err); ok && s != nil {
		return s.Message()
	}
	return err.Error()
}

// remoteCode recovers the engine or registry code from a status message.
// Both error types render as "CODE: message".
func remoteCode(msg string) string {
	code, _, ok := strings.Cut(msg, ":")
	if !ok {
		return ""
	}
	switch engine.ErrorCode(code) {
	case engine.ErrCodeUnauthorized, engine.ErrCodeInsufficientDelay,
		engine.ErrCodeOperationExists, engine.ErrCodeUnknownOperation,
		engine.ErrCodeNotReady, engine.ErrCodeMissingDependency,
		engine.ErrCodeInvalidBatchLength, engine.ErrCodeInvalidValue, engine.ErrCodeCallFailed:
		return code
	}
	switch registry.ErrorCode(code) {
	case registry.ErrCodeIndexNotFound, registry.ErrCodeIdentityNotFound:
		return code
	}
	return ""
}
