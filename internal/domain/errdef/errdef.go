// Package errdef defines the error kinds shared by the extractor and queue managers.
package errdef

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error kinds. Match them with errors.Is.
var (
	ErrInvalidArgument    = errors.New("invalid argument provided")
	ErrMissingArgument    = errors.New("missing a required argument")
	ErrInvalidQueueStruct = errors.New("invalid queue structure")
	ErrDuplicateExtractor = errors.New("extractor with the same ID already exists")
	ErrDuplicateQueue     = errors.New("queue with the same ID already exists")
)

// InstanceError carries the value that caused an error of the given kind.
type InstanceError struct {
	Kind     error
	Instance any
}

// Error implements error.
func (e *InstanceError) Error() string {
	if id, ok := e.Instance.(interface{ ID() string }); ok {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), id.ID())
	}
	if s, ok := e.Instance.(string); ok && s != "" {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), s)
	}
	return e.Kind.Error()
}

// Unwrap returns the error kind.
func (e *InstanceError) Unwrap() error {
	return e.Kind
}

// New returns an error of the given kind carrying instance.
func New(kind error, instance any) error {
	return errors.WithStack(&InstanceError{Kind: kind, Instance: instance})
}

// InstanceOf returns the instance attached to err, if any.
func InstanceOf(err error) (any, bool) {
	var ie *InstanceError
	if errors.As(err, &ie) {
		return ie.Instance, true
	}
	return nil, false
}
