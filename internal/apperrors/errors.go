package apperrors

import (
	"errors"
	"strings"
)

// Error is a categorized pipeline failure. Path and Attribute identify the
// offending file or schema attribute when known.
type Error struct {
	Code      Code
	Op        string
	Path      string
	Attribute string
	Err       error
}

// New creates an Error for the given operation.
func New(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// Newf creates an Error whose cause is a plain message.
func Newf(code Code, op, msg string) *Error {
	return &Error{Code: code, Op: op, Err: errors.New(msg)}
}

// WithPath returns a copy of e annotated with a file path.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// WithAttribute returns a copy of e annotated with an attribute name.
func (e *Error) WithAttribute(name string) *Error {
	cp := *e
	cp.Attribute = name
	return &cp
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(strings.ToLower(string(e.Code)))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Attribute != "" {
		b.WriteString(" (attribute ")
		b.WriteString(e.Attribute)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// ExitCode returns the process exit status for err, 0 when err is nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return CodeOf(err).ExitCode()
}
