package domain

import "fmt"

// ConfigurationError is a fatal pre-flight problem: a missing credential or
// an unresolvable repository target. It aborts the run before any activity
// data is fetched.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigurationError builds a ConfigurationError from a format string.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// RemoteOperationError is a per-repository or per-destination remote
// failure. It is never fatal: callers log it and either skip the
// repository or record the destination as failed.
type RemoteOperationError struct {
	Op     string
	Target string
	Err    error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("%s for %s: %v", e.Op, e.Target, e.Err)
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}
