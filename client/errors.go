package client

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Human-readable messages for the normalized error classes.
const (
	msgOffline    = "You appear to be offline. Check your connection and try again."
	msgCancelled  = "Request was cancelled."
	msgNetwork    = "Network error. Please check your connection and try again."
	msgForbidden  = "You do not have permission to perform this action."
	msgNotFound   = "The requested resource was not found."
	msgRateLimit  = "Too many requests. Please slow down and try again."
	msgServer     = "Server error. Please try again later."
	msgBadRequest = "The request could not be processed."
)

// APIError is the single normalized error shape every failure path of the
// client converges to: offline, cancelled, network failures, timeouts and
// HTTP error statuses all surface as an *APIError.
type APIError struct {
	// Message is a human-readable description, safe to display.
	Message string
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	// Offline marks failures detected before touching the network.
	Offline bool
	// Canceled marks calls superseded by a newer request with the same
	// identity, or aborted by the caller.
	Canceled bool
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

// Retryable reports whether the failure is transient: no response at all,
// rate limiting, or a server error.
func (e *APIError) Retryable() bool {
	if e.Offline || e.Canceled {
		return false
	}
	return e.Status == 0 || e.Status == 429 || e.Status >= 500
}

// IsOffline reports whether err is a normalized offline error.
func IsOffline(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Offline
}

// IsCanceled reports whether err is a normalized cancellation error.
func IsCanceled(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Canceled
}

func offlineError() *APIError {
	return &APIError{Message: msgOffline, Offline: true}
}

func canceledError() *APIError {
	return &APIError{Message: msgCancelled, Canceled: true}
}

func networkError() *APIError {
	return &APIError{Message: msgNetwork}
}

// errorBody is the wire shape of server error responses. Detail is either
// a plain string or a map of field names to message lists.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// statusError normalizes an HTTP error response into an *APIError.
// Status-specific messages take precedence; other client errors pass
// through the server-provided detail.
func statusError(status int, body []byte) *APIError {
	e := &APIError{Status: status}

	switch {
	case status == 403:
		e.Message = msgForbidden
	case status == 404:
		e.Message = msgNotFound
	case status == 429:
		e.Message = msgRateLimit
	case status >= 500:
		e.Message = msgServer
	default:
		e.Message = detailMessage(body)
	}
	return e
}

// detailMessage extracts a displayable message from an error body,
// falling back to a generic message when the body is missing or malformed.
// Structured field errors flatten to "field: message; field: message".
func detailMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return msgBadRequest
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		if s == "" {
			return msgBadRequest
		}
		return s
	}

	var fields map[string][]string
	if err := json.Unmarshal(eb.Detail, &fields); err == nil && len(fields) > 0 {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names))
		for _, name := range names {
			for _, msg := range fields[name] {
				parts = append(parts, name+": "+msg)
			}
		}
		return strings.Join(parts, "; ")
	}

	return msgBadRequest
}
