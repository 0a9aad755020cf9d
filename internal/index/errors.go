package index

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput matches decode errors caused by bytes that do not
	// follow the wire grammar.
	ErrMalformedInput = errors.New("malformed index input")

	// ErrUnsupportedVersion matches decode errors caused by an index written
	// for a schema revision this reader predates.
	ErrUnsupportedVersion = errors.New("unsupported index version")

	// ErrDuplicateFileKey is wrapped by a MalformedInput error when one entry
	// carries the same file key twice.
	ErrDuplicateFileKey = errors.New("duplicate file key")
)

// ErrorKind classifies a DecodeError.
type ErrorKind int

const (
	MalformedInput ErrorKind = iota + 1
	UnsupportedVersion
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedInput:
		return "malformed input"
	case UnsupportedVersion:
		return "unsupported version"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// DecodeError is returned by Decode.
type DecodeError struct {
	Kind ErrorKind
	// Offset is the byte position in the top-level input where the problem
	// was found, or -1 when it does not apply.
	Offset int
	// Field is the dotted path of the field being decoded, e.g. "Entry.files".
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg += " in " + e.Field
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" at offset %d", e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is lets errors.Is match a DecodeError against ErrMalformedInput or
// ErrUnsupportedVersion by kind.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrMalformedInput:
		return e.Kind == MalformedInput
	case ErrUnsupportedVersion:
		return e.Kind == UnsupportedVersion
	}
	return false
}
