// Package errors provides coded errors for encodingman.
// Every per-file failure surfaced in a batch summary carries one of these codes.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Error codes for programmatic handling
type Code string

const (
	// Input errors (1xx)
	CodeUnreadableSource  Code = "E101"
	CodePermissionDenied  Code = "E102"
	CodeUnsupportedTarget Code = "E103"
	CodeInvalidConfig     Code = "E104"
	CodeUnknownEncoding   Code = "E105"

	// Processing errors (2xx)
	CodeDecodeFailure    Code = "E201"
	CodeConversionFailed Code = "E202"

	// Output errors (3xx)
	CodeUnwritableOutput Code = "E301"

	// System errors (4xx)
	CodeCanceled Code = "E401"
	CodePanic    Code = "E403"

	// Collaborator errors (5xx)
	CodeLaunchFailed Code = "E501"

	// Unknown
	CodeUnknown Code = "E999"
)

var codeNames = map[Code]string{
	CodeUnreadableSource:  "unreadable_source",
	CodePermissionDenied:  "permission_denied",
	CodeUnsupportedTarget: "unsupported_target",
	CodeInvalidConfig:     "invalid_config",
	CodeUnknownEncoding:   "unknown_encoding",
	CodeDecodeFailure:     "decode_failure",
	CodeConversionFailed:  "conversion_failed",
	CodeUnwritableOutput:  "unwritable_output",
	CodeCanceled:          "canceled",
	CodePanic:             "panic",
	CodeLaunchFailed:      "launch_failed",
	CodeUnknown:           "unknown",
}

// Name returns the snake_case name of the code.
func (c Code) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "unknown"
}

// Error is the base error type for all encodingman errors.
type Error struct {
	Code       Code
	Message    string
	Cause      error
	Context    map[string]interface{}
	StackTrace []Frame
}

// Frame represents a stack frame.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(code Code, message string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StackTrace: captureStack(2),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: captureStack(2),
	}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	e := Wrap(err, code, fmt.Sprintf(format, args...))
	e.StackTrace = captureStack(2)
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return errors.Is(err, &Error{Code: code})
}

// Message returns a human-readable message for a summary row:
// the coded message and its cause, without context or stack.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// captureStack captures the current stack trace.
func captureStack(skip int) []Frame {
	var frames []Frame
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+1, pcs)
	pcs = pcs[:n]

	cf := runtime.CallersFrames(pcs)
	for {
		frame, more := cf.Next()
		frames = append(frames, Frame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more || len(frames) >= 10 {
			break
		}
	}
	return frames
}

// FormatStack returns a formatted stack trace.
func (e *Error) FormatStack() string {
	var sb strings.Builder
	for _, f := range e.StackTrace {
		sb.WriteString(fmt.Sprintf("  at %s\n    %s:%d\n", f.Function, f.File, f.Line))
	}
	return sb.String()
}

// --- Convenience constructors ---

// UnreadableSource creates an error for a source file that cannot be read.
func UnreadableSource(path string, cause error) *Error {
	e := Wrap(cause, CodeUnreadableSource, "cannot read source file")
	if e == nil {
		e = New(CodeUnreadableSource, "cannot read source file")
	}
	return e.WithContext("path", path)
}

// UnsupportedTarget creates an error for a target encoding outside the supported set.
func UnsupportedTarget(target string, supported []string) *Error {
	return New(CodeUnsupportedTarget, "unsupported target encoding").
		WithContext("target", target).
		WithContext("supported", strings.Join(supported, ", "))
}

// DecodeFailure creates an error for a byte stream no candidate could decode.
func DecodeFailure(encoding string) *Error {
	return New(CodeDecodeFailure, "byte stream cannot be decoded").
		WithContext("encoding", encoding)
}

// UnwritableOutput creates an error for a failed output write.
func UnwritableOutput(path string, cause error) *Error {
	e := Wrap(cause, CodeUnwritableOutput, "cannot write output file")
	if e == nil {
		e = New(CodeUnwritableOutput, "cannot write output file")
	}
	return e.WithContext("path", path)
}
