// Package er carries the error idiom used throughout leafledger: every
// fallible exported function returns an R rather than a bare error, so
// call sites can match specific failures by ErrorCode instead of string
// comparison.
package er

import (
	"errors"
	"fmt"
)

// R is the interface every leafledger function returns in place of error.
// A nil R means success, same as a nil error.
type R interface {
	error
	// Message returns the human-readable text, without any code prefix.
	Message() string
	// Code returns the ErrorCode this R was constructed from, or nil for
	// an ad-hoc error built with New/Errorf/E.
	Code() *ErrorCode
	// Unwrap exposes the wrapped cause, if any, to errors.Is/As.
	Unwrap() error
}

type errImpl struct {
	message string
	code    *ErrorCode
	cause   error
}

func (e *errImpl) Error() string {
	if e.code != nil {
		return fmt.Sprintf("%s: %s", e.code.Name, e.message)
	}
	return e.message
}

func (e *errImpl) Message() string { return e.message }
func (e *errImpl) Code() *ErrorCode { return e.code }
func (e *errImpl) Unwrap() error    { return e.cause }

// New builds an ad-hoc R carrying msg verbatim.
func New(msg string) R {
	return &errImpl{message: msg}
}

// Errorf builds an ad-hoc R the way fmt.Errorf builds an error.
func Errorf(format string, args ...interface{}) R {
	return &errImpl{message: fmt.Sprintf(format, args...)}
}

// E wraps a plain Go error as an R. E(nil) returns nil. If err is already
// an R it is returned unchanged.
func E(err error) R {
	if err == nil {
		return nil
	}
	if r, ok := err.(R); ok {
		return r
	}
	return &errImpl{message: err.Error(), cause: err}
}

// LoopBreak is a sentinel R for ForEach-style callbacks to stop iteration
// early without that being treated as a real failure by the caller.
var LoopBreak R = New("loop break")

// IsLoopBreak reports whether err is the LoopBreak sentinel.
func IsLoopBreak(err R) bool {
	return err == LoopBreak
}

// ErrorType groups related ErrorCodes under a named category. Unclassified,
// ad-hoc failures fall under GenericErrorType below.
type ErrorType struct {
	name string
}

// GenericErrorType is the default type for errors that don't need their
// own ErrorType grouping.
var GenericErrorType = ErrorType{name: "Generic"}

// NewErrorType declares a fresh error grouping, e.g. one per package that
// wants its failures to be distinguishable from another package's.
func NewErrorType(name string) ErrorType {
	return ErrorType{name: name}
}

// ErrorCode names one specific, matchable failure mode within an
// ErrorType, e.g. CodecError's WrongLengthForLeafId.
type ErrorCode struct {
	Type   ErrorType
	Name   string
	Detail string
}

// CodeWithDetail declares a new ErrorCode under t, with a fixed detail
// string shown to the caller regardless of the arguments later passed to
// New.
func (t ErrorType) CodeWithDetail(name, detail string) *ErrorCode {
	return &ErrorCode{Type: t, Name: name, Detail: detail}
}

// New builds an R carrying this code, with msg appended to the code's
// fixed detail text and cause (if any) available via errors.Unwrap.
func (c *ErrorCode) New(msg string, cause error) R {
	full := c.Detail
	if msg != "" {
		full = fmt.Sprintf("%s: %s", c.Detail, msg)
	}
	return &errImpl{message: full, code: c, cause: cause}
}

// Default builds an R carrying this code with no extra detail.
func (c *ErrorCode) Default() R {
	return &errImpl{message: c.Detail, code: c}
}

// Is reports whether err was constructed from this exact ErrorCode.
func (c *ErrorCode) Is(err R) bool {
	if err == nil {
		return false
	}
	return err.Code() == c
}

// AsStd converts an R to a plain error for interop with stdlib code that
// expects one (e.g. errors.Is chains terminating outside leafledger).
func AsStd(err R) error {
	if err == nil {
		return nil
	}
	return err
}

// FromStd round-trips an error of unknown origin back through errors.As so
// that an R hiding inside a wrapped stdlib error is recovered rather than
// double-wrapped.
func FromStd(err error) R {
	if err == nil {
		return nil
	}
	var r R
	if errors.As(err, &r) {
		return r
	}
	return E(err)
}
