package pipe_sizing

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so callers can branch without parsing messages.
type ErrorKind int

const (
	KindDomain        ErrorKind = iota // physical input outside its positivity/range invariant
	KindSchema                         // malformed or incomplete tabular input
	KindConfiguration                  // catalog/design/assignment mismatch that no retry can fix
)

func (k ErrorKind) String() string {
	return [...]string{"domain", "schema", "configuration"}[k]
}

var (
	ErrDomain        = &Error{Kind: KindDomain}
	ErrSchema        = &Error{Kind: KindSchema}
	ErrConfiguration = &Error{Kind: KindConfiguration}
)

// Error is returned by every operation of the package. Callers branch on Kind
// (errors.Is against ErrDomain, ErrSchema, ErrConfiguration), not on Msg.
type Error struct {
	Kind ErrorKind
	Op   string // operation that rejected the input, e.g. "reynolds"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String() + " error"
	if e.Op != "" {
		s += " in " + e.Op
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func domainErrorf(op string, format string, args ...interface{}) error {
	return &Error{Kind: KindDomain, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func schemaErrorf(op string, format string, args ...interface{}) error {
	return &Error{Kind: KindSchema, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func configurationErrorf(op string, format string, args ...interface{}) error {
	return &Error{Kind: KindConfiguration, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func schemaWrap(op string, err error, msg string) error {
	return &Error{Kind: KindSchema, Op: op, Msg: msg, Err: err}
}
