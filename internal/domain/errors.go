package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrValidation    = errors.New("validation failed")
	ErrSerialization = errors.New("serialization failed")
	ErrDispatch      = errors.New("dispatch failed")
)

// Push provider outcomes. Provider adapters translate SDK errors into these so
// the delivery classifier never depends on a specific transport.
var (
	ErrInvalidAddress      = errors.New("invalid push address")
	ErrSenderMismatch      = errors.New("push address registered to a different sender")
	ErrUnregistered        = errors.New("push address no longer registered")
	ErrProviderAuth        = errors.New("push provider rejected credentials")
	ErrProviderUnavailable = errors.New("push provider unavailable")
)
