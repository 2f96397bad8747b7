package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to the operator or customer.
type ErrorKind int

const (
	// KindValidation: detected before any write; nothing was persisted.
	KindValidation ErrorKind = iota
	KindNotFound
	// KindConflict: the operation needs a decision first (e.g. settling a reservation).
	KindConflict
	// KindPersistence: a write failed; state may be partial.
	KindPersistence
)

// UserError is a failure with a short title and an optional detail, shown to
// the user as-is.
type UserError struct {
	Kind    ErrorKind
	Title   string
	Detail  string
	Options []string
	Err     error
}

func (e *UserError) Error() string {
	if e.Detail == "" {
		return e.Title
	}
	return e.Title + ": " + e.Detail
}

func (e *UserError) Unwrap() error { return e.Err }

func validation(title, detail string) *UserError {
	return &UserError{Kind: KindValidation, Title: title, Detail: detail}
}

func validationf(title, format string, args ...any) *UserError {
	return validation(title, fmt.Sprintf(format, args...))
}

func notFound(title string) *UserError {
	return &UserError{Kind: KindNotFound, Title: title}
}

func persistence(title string, err error) *UserError {
	return &UserError{Kind: KindPersistence, Title: title, Detail: err.Error(), Err: err}
}

// AsUserError extracts a UserError from err.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// IsKind reports whether err is a UserError of kind k.
func IsKind(err error, k ErrorKind) bool {
	ue, ok := AsUserError(err)
	return ok && ue.Kind == k
}
