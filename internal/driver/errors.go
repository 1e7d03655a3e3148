package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports missing or invalid connection descriptor fields.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection reports a failure to establish the underlying connection.
	ErrConnection = errors.New("connection error")

	// ErrArgument reports malformed call arguments.
	ErrArgument = errors.New("invalid argument")

	// ErrBindTypeMismatch reports a bind-type list shorter than the value list.
	ErrBindTypeMismatch = errors.New("incomplete number of bind types")

	// ErrExecution reports a driver failure during prepare or execute.
	ErrExecution = errors.New("execution error")

	// ErrVetoed is returned when a before-query hook blocks a statement.
	// Nothing was sent to the server.
	ErrVetoed = errors.New("statement vetoed by before-query hook")
)

// ExecutionError wraps a driver failure with the statement that caused it.
type ExecutionError struct {
	SQL string

	// Number and State are the SQL Server error number and state; zero when
	// the driver error did not come from the server.
	Number int32
	State  uint8

	Err error
}

func (e *ExecutionError) Error() string {
	if e.Number != 0 {
		return fmt.Sprintf("execution error (msg %d, state %d): %v", e.Number, e.State, e.Err)
	}
	return fmt.Sprintf("execution error: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrExecution) true for every ExecutionError.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrExecution
}
