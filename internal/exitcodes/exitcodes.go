// Package exitcodes maps adapter errors to process exit codes so scripts can
// tell configuration mistakes from transient connection failures.
package exitcodes

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/johndauphine/sqlsrv-adapter/internal/driver"
)

const (
	// Success - command completed without errors
	Success = 0

	// ConfigError - invalid descriptor, config file or dialect name (don't retry)
	ConfigError = 1

	// ConnectionError - server unreachable or login failed (recoverable)
	ConnectionError = 2

	// ExecutionError - the server rejected a statement
	ExecutionError = 3

	// ArgumentError - malformed command arguments or bind types
	ArgumentError = 4

	// Cancelled - interrupted or vetoed before reaching the server (recoverable)
	Cancelled = 5

	// IOError - file I/O errors (recoverable)
	IOError = 7
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{Err: err, Code: code}
}

// FromError determines the exit code for an error. The adapter's sentinel
// errors decide first; plain errors fall back to message matching.
func FromError(err error) int {
	if err == nil {
		return Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, driver.ErrConfiguration):
		return ConfigError
	case errors.Is(err, driver.ErrConnection):
		return ConnectionError
	case errors.Is(err, driver.ErrBindTypeMismatch), errors.Is(err, driver.ErrArgument):
		return ArgumentError
	case errors.Is(err, driver.ErrVetoed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return Cancelled
	case errors.Is(err, driver.ErrExecution):
		return ExecutionError
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return IOError
	}

	errStr := strings.ToLower(err.Error())

	if containsAny(errStr, []string{
		"no such file",
		"file not found",
		"permission denied",
		"is a directory",
	}) {
		return IOError
	}

	if containsAny(errStr, []string{
		"yaml:",
		"unmarshal",
		"invalid config",
		"required flag",
	}) {
		return ConfigError
	}

	if containsAny(errStr, []string{
		"connection refused",
		"dial",
		"no such host",
		"unreachable",
		"login failed",
		"i/o timeout",
	}) {
		return ConnectionError
	}

	if containsAny(errStr, []string{"interrupt", "cancel"}) {
		return Cancelled
	}

	return ExecutionError
}

// IsRecoverable returns true if the error is recoverable (safe to retry).
func IsRecoverable(code int) bool {
	switch code {
	case ConnectionError, Cancelled, IOError:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the exit code.
func Description(code int) string {
	switch code {
	case Success:
		return "success"
	case ConfigError:
		return "configuration error"
	case ConnectionError:
		return "connection error (recoverable)"
	case ExecutionError:
		return "execution error"
	case ArgumentError:
		return "argument error"
	case Cancelled:
		return "cancelled (recoverable)"
	case IOError:
		return "I/O error (recoverable)"
	default:
		return "unknown error"
	}
}

func containsAny(s string, substrs []string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
