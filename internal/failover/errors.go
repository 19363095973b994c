package failover

import (
	"errors"
	"fmt"
)

// ErrOperationFailed is reported when the provider says a submitted
// operation failed.
var ErrOperationFailed = errors.New("operation failed")

// ErrAlreadyInState marks provider responses that mean the desired end state
// was already reached, e.g. "not found" on delete or "already exists" on
// create.
var ErrAlreadyInState = errors.New("already in desired state")

// ConfigurationError describes invalid or missing configuration. It is never
// retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// Configuration builds a ConfigurationError.
func Configuration(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// OperationError is returned when submitting or confirming an operation
// failed after the retry budget. It aborts the current submission; operations
// already applied stay applied.
type OperationError struct {
	Class  string
	Action string
	Target string
	Err    error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Class, e.Action, e.Target, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// AlreadyInState wraps a benign provider error so the planner treats the
// call as successful.
func AlreadyInState(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrAlreadyInState, err)
}

// IsAlreadyInState reports whether err was marked with AlreadyInState.
func IsAlreadyInState(err error) bool {
	return errors.Is(err, ErrAlreadyInState)
}
