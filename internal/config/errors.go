package config

import "fmt"

type (
	// ConfigurationError is fatal: the process must not start serving
	ConfigurationError struct {
		Field  string
		Reason string
		Cause  error
	}
)

func (c ConfigurationError) Error() string {
	if c.Cause != nil {
		return fmt.Sprintf("invalid configuration for %v: %v, cause %v", c.Field, c.Reason, c.Cause)
	}
	return fmt.Sprintf("invalid configuration for %v: %v", c.Field, c.Reason)
}

func (c ConfigurationError) Unwrap() error {
	return c.Cause
}
