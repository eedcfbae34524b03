package objmap

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTag is returned when a safe-mode decode meets a tag with
	// no registered descriptor.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrUnresolvableType is returned when the unsafe-mode TypeResolver
	// cannot produce a descriptor for a tag.
	ErrUnresolvableType = errors.New("unresolvable type")

	// ErrUndefinedAnchor is returned when an alias names an anchor that
	// was never defined earlier in the document.
	ErrUndefinedAnchor = errors.New("undefined anchor")

	// ErrIncompleteGraph is returned when an anchor was begun but never
	// completed within one decode call.
	ErrIncompleteGraph = errors.New("incomplete graph")

	// ErrMissingField is returned when a tagged mapping lacks a field the
	// descriptor requires.
	ErrMissingField = errors.New("missing field")

	// ErrUnknownField is returned in strict mode when a tagged mapping
	// carries a field the descriptor does not know.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnhashableKey is returned when an untagged mapping has a
	// non-scalar key.
	ErrUnhashableKey = errors.New("unhashable key")

	// ErrUnregisteredType is returned by strict-mode encoding when an
	// object's type has no registered tag.
	ErrUnregisteredType = errors.New("unregistered type")

	// ErrDuplicateTag is returned by strict-mode registration when a tag
	// is already taken.
	ErrDuplicateTag = errors.New("duplicate tag")

	// ErrMaxDepth is returned when a decode exceeds the caller's
	// recursion depth budget.
	ErrMaxDepth = errors.New("max depth exceeded")
)

// DecodeError represents an error during decoding. FieldPath locates the
// failure in the document (e.g., "$.person.address[0]").
type DecodeError struct {
	FieldPath string
	Message   string
	Err       error
}

func (e *DecodeError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.FieldPath != "" {
		return fmt.Sprintf("decode error at %s: %s", e.FieldPath, msg)
	}
	return fmt.Sprintf("decode error: %s", msg)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError represents an error during encoding. FieldPath locates the
// failure in the object graph being walked.
type EncodeError struct {
	FieldPath string
	Message   string
	Err       error
}

func (e *EncodeError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.FieldPath != "" {
		return fmt.Sprintf("encode error at %s: %s", e.FieldPath, msg)
	}
	return fmt.Sprintf("encode error: %s", msg)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func decodeErrf(path string, err error, format string, args ...any) *DecodeError {
	return &DecodeError{
		FieldPath: path,
		Message:   fmt.Sprintf(format, args...),
		Err:       err,
	}
}

func encodeErrf(path string, err error, format string, args ...any) *EncodeError {
	return &EncodeError{
		FieldPath: path,
		Message:   fmt.Sprintf(format, args...),
		Err:       err,
	}
}
