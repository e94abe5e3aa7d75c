// Package errors holds the error type shared by the term engine, the
// analysis service, the data-source client and the HTTP/CLI surfaces. The
// code on an *AppError picks the HTTP status, the log level and the
// errors_total label.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const maxFrames = 32

// AppError is the structured error carried across every layer.
//
//	return errors.New(errors.ErrCodeInvalidDate, "filing date is not a valid calendar date")
//	return errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "patentsview request failed")
type AppError struct {
	Code    ErrorCode
	Message string // safe to show API callers
	Detail  string // offending input or upstream status
	Cause   error

	pcs []uintptr
}

func newAppError(code ErrorCode, message string, cause error) *AppError {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(3, pcs)
	return &AppError{Code: code, Message: message, Cause: cause, pcs: pcs[:n]}
}

// Error renders "[CODE] message: detail"; the detail part is omitted when empty.
func (e *AppError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a copy with Detail set. Safe on nil.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a copy with Cause set. Safe on nil.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// StackTrace formats the frames recorded at construction, one per line,
// skipping runtime internals.
func (e *AppError) StackTrace() string {
	if e == nil || len(e.pcs) == 0 {
		return ""
	}
	var sb strings.Builder
	frames := runtime.CallersFrames(e.pcs)
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		}
		if !more {
			return sb.String()
		}
	}
}

func New(code ErrorCode, message string) *AppError {
	return newAppError(code, message, nil)
}

func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return newAppError(code, fmt.Sprintf(format, args...), nil)
}

// Wrap returns nil for a nil err. With CodeUnknown the code of the first
// AppError already in err's chain is inherited.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		code = GetCode(err)
	}
	return newAppError(code, message, err)
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if ae, ok := err.(*AppError); ok && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound matches both the generic and the patent-specific not-found code.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound) || IsCode(err, ErrCodePatentNotFound)
}

// GetCode returns the code of the outermost AppError, CodeOK for nil and
// CodeUnknown when the chain holds none.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }
