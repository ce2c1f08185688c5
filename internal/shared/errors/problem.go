// Package errors provides RFC 7807 Problem Details for the herdbook HTTP API.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail represents an RFC 7807 Problem Details response.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Error implements the error interface.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with an additional extension property.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

// Problem types as URI references.
const (
	TypeValidation          = "/problems/validation-error"
	TypeNotFound            = "/problems/not-found"
	TypeConflict            = "/problems/conflict"
	TypeInternal            = "/problems/internal-error"
	TypeUnauthorized        = "/problems/unauthorized"
	TypeBadRequest          = "/problems/bad-request"
	TypeLocationUnavailable = "/problems/location-unavailable"
	TypeSessionExpired      = "/problems/session-expired"
	TypeUpstream            = "/problems/upstream-failure"
	TypeNoMatch             = "/problems/muzzle-no-match"
)

var (
	ErrNotFound = ProblemDetail{Type: TypeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound}

	ErrValidation = ProblemDetail{Type: TypeValidation, Title: "Validation Error", Status: http.StatusBadRequest}

	ErrBadRequest = ProblemDetail{Type: TypeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest}

	ErrConflict = ProblemDetail{Type: TypeConflict, Title: "Conflict", Status: http.StatusConflict}

	ErrInternal = ProblemDetail{Type: TypeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}

	ErrUnauthorized = ProblemDetail{Type: TypeUnauthorized, Title: "Unauthorized", Status: http.StatusUnauthorized}

	// ErrLocationUnavailable is returned when a submission arrives without device coordinates.
	ErrLocationUnavailable = ProblemDetail{
		Type:   TypeLocationUnavailable,
		Title:  "Location Unavailable",
		Status: http.StatusUnprocessableEntity,
	}

	// ErrSessionExpired tells the client to send the user back to login.
	ErrSessionExpired = ProblemDetail{Type: TypeSessionExpired, Title: "Session Expired", Status: http.StatusUnauthorized}

	// ErrUpstream covers network failures and unexpected statuses from the farm backend or the AI service.
	ErrUpstream = ProblemDetail{Type: TypeUpstream, Title: "Upstream Failure", Status: http.StatusBadGateway}

	// ErrNoMatch is the muzzle matcher rejecting the video.
	ErrNoMatch = ProblemDetail{Type: TypeNoMatch, Title: "Muzzle Not Matched", Status: http.StatusUnprocessableEntity}
)

// NewValidationProblem creates a validation error with field-level details.
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.WithExtension("fields", fieldErrors)
}

// NewNotFoundProblem creates a not found error for a specific resource.
func NewNotFoundProblem(resourceType string, identifier any) ProblemDetail {
	return ErrNotFound.
		WithDetail(fmt.Sprintf("%s with identifier '%v' not found", resourceType, identifier)).
		WithExtension("resourceType", resourceType).
		WithExtension("identifier", identifier)
}
