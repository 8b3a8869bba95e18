package model

import (
	"errors"
	"fmt"

	"bloomwatch/pkg/log"
	"bloomwatch/pkg/msg"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("rate limited")
	ErrUpstream     = errors.New("upstream failure")
)

// DomainError carries a user facing message and the sentinel it maps to
type DomainError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DomainError) Is(target error) bool {
	return target == e.Kind
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func newError(kind error, cause error, format string, args ...any) error {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func InvalidInput(format string, args ...any) error {
	return newError(ErrInvalidInput, nil, format, args...)
}

func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, nil, format, args...)
}

func Forbidden(format string, args ...any) error {
	return newError(ErrForbidden, nil, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return newError(ErrUnauthorized, nil, format, args...)
}

func RateLimited(cause error, format string, args ...any) error {
	return newError(ErrRateLimited, cause, format, args...)
}

// Upstream wraps a collaborator failure (NASA POWER, identity service, LLM, Overpass)
func Upstream(cause error, format string, args ...any) error {
	return newError(ErrUpstream, cause, format, args...)
}

// PublicMessage returns the message safe to show to API clients.
// Errors outside the domain are logged and replaced by the generic error.internal text.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	log.Errorw("unexpected error hidden from client", "error", err)
	return msg.GetMessage("error.internal")
}
