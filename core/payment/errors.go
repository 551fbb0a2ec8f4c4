package payment

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"

	"github.com/tdvu/courtside/core/academy"
)

var (
	ErrAlreadyInitiated = errors.New("payment already initiated")
	ErrAttemptNotFound  = errors.New("payment attempt not found")
)

// GatewayError means no usable payment URL could be obtained.
// The attempt stays Idle and the caller may retry.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// DeclinedError means the provider reported a non-success code. No money moved;
// the user may start a fresh attempt.
type DeclinedError struct {
	Code string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined by provider (code %q)", e.Code)
}

// RegistrationErrorKind distinguishes how a post-payment registration write failed.
type RegistrationErrorKind int

const (
	// RegistrationRejected: the backend was reachable and explicitly refused the write.
	RegistrationRejected RegistrationErrorKind = iota
	// RegistrationUnreachable: a transport failure prevented the write.
	RegistrationUnreachable
	// RegistrationUnknown: unclassified failure.
	RegistrationUnknown
)

var registrationKindNames = map[RegistrationErrorKind]string{
	RegistrationRejected:    "rejected",
	RegistrationUnreachable: "unreachable",
	RegistrationUnknown:     "unknown",
}

func (k RegistrationErrorKind) String() string {
	if name, ok := registrationKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RegistrationErrorKind(%d)", int(k))
}

// RegistrationError is the most severe user-facing failure: money was captured
// but course access was not granted. It must never be surfaced as a plain decline.
type RegistrationError struct {
	Kind    RegistrationErrorKind
	Message string
	Err     error
}

func (e *RegistrationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("registration failed after payment (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("registration failed after payment (%s): %v", e.Kind, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// classifyRegistration maps a Registrar error to the registration failure taxonomy.
func classifyRegistration(err error) *RegistrationError {
	switch cause := errors.Cause(err).(type) {
	case *academy.APIError:
		return &RegistrationError{Kind: RegistrationRejected, Message: cause.Message, Err: err}
	case *url.Error:
		return &RegistrationError{Kind: RegistrationUnreachable, Err: err}
	}
	if cause := errors.Cause(err); cause == context.DeadlineExceeded || cause == context.Canceled {
		return &RegistrationError{Kind: RegistrationUnreachable, Err: err}
	}
	return &RegistrationError{Kind: RegistrationUnknown, Err: err}
}
