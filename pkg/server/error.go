package server

import (
	"errors"
	"fmt"
)

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

// Is membuat errors.Is(err, ErrInvalidWeight) match ke code error, bukan cuma ke orig.
func (e *Error) Is(target error) bool {
	return e.code != nil && e.code == target
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func (e *Error) Code() error {
	return e.code
}

// CodeOf returns the code of the first *Error in err's chain, or ErrInternalServerError.
func CodeOf(err error) error {
	var e *Error
	if errors.As(err, &e) && e.code != nil {
		return e.code
	}
	return ErrInternalServerError
}

var (
	// ErrInvalidWeight edge weight negative, NaN atau infinite. graph ditolak seluruhnya.
	ErrInvalidWeight = errors.New("invalid edge weight")
	// ErrVertexOutOfRange edge atau source mereferensikan vertex di luar [0, n)
	ErrVertexOutOfRange = errors.New("vertex out of range")
	// ErrEmptyGraph graph tanpa vertex
	ErrEmptyGraph = errors.New("graph has no vertices")
	// ErrAlgorithmInvariantViolation internal contract breach, logic defect. never retried.
	ErrAlgorithmInvariantViolation = errors.New("algorithm invariant violation")
	// ErrCancelled run dibatalkan lewat context
	ErrCancelled = errors.New("run cancelled")

	// ErrInternalServerError will throw if any the Internal Server Error happen
	ErrInternalServerError = errors.New("internal Server Error")
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("your requested Item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("given Param is not valid")
)

var MessageInternalServerError string = "internal server error"
