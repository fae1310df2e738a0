package errors

import (
	"fmt"
	"strings"
)

// ConfigurationError is returned when the service-account credential cannot be
// resolved. It is fatal at startup.
type ConfigurationError struct {
	Resource string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("configuration error: %s", e.Resource)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Resource, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InputValidationError reports operator input that must not be dispatched.
type InputValidationError struct {
	Fields []string
}

// NewInputValidationError lists the fields that were empty.
func NewInputValidationError(fields ...string) *InputValidationError {
	return &InputValidationError{Fields: fields}
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("input validation failed: empty %s", strings.Join(e.Fields, ", "))
}

// AuthError wraps a failed access token exchange.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("access token exchange failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// DeliveryError is a non-200 response from the messaging endpoint or a
// transport fault while talking to it. Body holds the raw response text when a
// response was received.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery failed: %v", e.Err)
	}
	return fmt.Sprintf("delivery failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
