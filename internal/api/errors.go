package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call by origin, not by Go type.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindServer       Kind = "server"
	KindNetwork      Kind = "network"
)

// User-facing messages per error kind.
const (
	msgNetwork      = "Connection error. Please check your internet."
	msgServer       = "Server error. Please try again later."
	msgUnauthorized = "You are not allowed to perform this action."
	msgNotFound     = "The requested resource was not found."
	msgValidation   = "Please check the submitted data."
)

// Error is the single error shape the rest of the client branches on.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Details []string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// UserMessage is what views show for this failure.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindNetwork:
		return msgNetwork
	case KindServer:
		return msgServer
	case KindUnauthorized, KindForbidden:
		return msgUnauthorized
	case KindNotFound:
		return msgNotFound
	default:
		return msgValidation
	}
}

// UserMessage renders any failure for display, falling back to the generic
// server message for errors outside the taxonomy.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return msgServer
}

// KindOf extracts the error kind, defaulting to server for unknown errors.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindServer
}

// IsNotFound reports whether err is a 404-kind failure.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsNetwork reports whether err is a connectivity failure (no response).
func IsNetwork(err error) bool {
	return KindOf(err) == KindNetwork
}

// errorFromStatus maps a non-2xx response to the taxonomy.
func errorFromStatus(status int, message string, details []string) *Error {
	e := &Error{Status: status, Message: message, Details: details}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindUnauthorized
		if e.Message == "" {
			e.Message = msgUnauthorized
		}
	case status == http.StatusForbidden:
		e.Kind = KindForbidden
		if e.Message == "" {
			e.Message = msgUnauthorized
		}
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
		if e.Message == "" {
			e.Message = msgNotFound
		}
	case status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
		if e.Message == "" {
			e.Message = msgValidation
		}
	case status >= 500:
		e.Kind = KindServer
		e.Message = msgServer
	default:
		e.Kind = KindValidation
		if e.Message == "" {
			e.Message = "Request failed"
		}
	}
	return e
}

// networkError wraps a transport-level failure (no response received).
func networkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: msgNetwork, Details: []string{err.Error()}}
}
