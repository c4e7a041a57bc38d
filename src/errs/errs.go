// Package errs defines the failure kinds the rest of the server branches
// on. Every call boundary returns a kinded error instead of a bare nil so
// callers can tell "not logged in" apart from "vendor outage".
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindAuth           Kind = "auth"
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindExchange       Kind = "exchange"
	KindNoAccount      Kind = "no_account"
	KindProcessorToken Kind = "processor_token"
	KindFundingSource  Kind = "funding_source"
	KindPersistence    Kind = "persistence"
	KindInternal       Kind = "internal"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E wraps err with a kind and the operation that produced it.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a kinded error from a format string.
func Errorf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of err, or KindInternal for unkinded errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error's kind to the status the handlers respond with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuth:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExchange, KindNoAccount, KindProcessorToken, KindFundingSource:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns a client-safe message for err. Vendor error bodies and
// query text stay in the logs, never in responses.
func Message(err error) string {
	switch KindOf(err) {
	case KindAuth:
		return "not authorized"
	case KindValidation:
		return "invalid request"
	case KindNotFound:
		return "not found"
	case KindExchange:
		return "failed to exchange public token"
	case KindNoAccount:
		return "no bank accounts available to link"
	case KindProcessorToken:
		return "failed to create processor token"
	case KindFundingSource:
		return "failed to create funding source"
	case KindPersistence:
		return "failed to save record"
	default:
		return "internal error"
	}
}
