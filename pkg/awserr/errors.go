// Package awserr defines the error taxonomy shared by every service
// reader and writer: a resource either was not found, or the operation
// failed for some other backend-reported reason.
package awserr

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"
)

// Kind tags an Error with one of the two failure variants.
type Kind int

const (
	// NotFound means the target resource does not exist.
	NotFound Kind = iota
	// OperationFailure covers every other backend failure (permission
	// denied, throttling, malformed request, transient errors).
	OperationFailure
)

// Error is the error type returned by all readers and writers. It carries
// the service and operation that failed, the resource involved, and the
// backend's original error for diagnosability.
type Error struct {
	Kind     Kind
	Service  string
	Op       string
	Resource string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Service)
	b.WriteString(".")
	b.WriteString(e.Op)
	if e.Resource != "" {
		b.WriteString(" ")
		b.WriteString(e.Resource)
	}
	if e.Kind == NotFound {
		b.WriteString(": not found")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying backend error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewNotFound builds a NotFound error for the named resource.
func NewNotFound(service, op, resource string) *Error {
	return &Error{Kind: NotFound, Service: service, Op: op, Resource: resource}
}

// NewFailure wraps a backend error as an OperationFailure.
func NewFailure(service, op, resource string, err error) *Error {
	return &Error{Kind: OperationFailure, Service: service, Op: op, Resource: resource, Err: err}
}

// IsNotFound reports whether err (anywhere in its chain) is a NotFound Error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == NotFound
}

// notFoundCodes are the API error codes the backends use for missing
// resources. Codes with a ".NotFound" suffix (EC2 style) are matched
// separately in Classify.
var notFoundCodes = map[string]struct{}{
	"NoSuchKey":                   {},
	"NoSuchBucket":                {},
	"NotFound":                    {},
	"ResourceNotFoundException":   {},
	"ResourceNotFound":            {},
	"ParameterNotFound":           {},
	"ParameterVersionNotFound":    {},
	"QueueDoesNotExist":           {},
	"StateMachineDoesNotExist":    {},
	"ExecutionDoesNotExist":       {},
	"ActivityDoesNotExist":        {},
	"FunctionNotFound":            {},
	"ClusterNotFoundException":    {},
	"ServiceNotFoundException":    {},
	"TaskSetNotFoundException":    {},
	"NoSuchEntity":                {},
	"AWS.SimpleQueueService.NonExistentQueue": {},
}

// Classify converts a raw SDK error into the library taxonomy. API error
// codes that indicate a missing resource become NotFound; everything else
// becomes an OperationFailure carrying the original error text.
func Classify(service, op, resource string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		if _, ok := notFoundCodes[code]; ok || strings.HasSuffix(code, ".NotFound") {
			return &Error{Kind: NotFound, Service: service, Op: op, Resource: resource, Err: err}
		}
	}
	return NewFailure(service, op, resource, err)
}
