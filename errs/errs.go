// Package errs defines the error taxonomy surfaced by the REST layer.
package errs

import "fmt"

// ValidationError reports a malformed or missing request field. The Field name
// is included in the message shown to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid value for %q", e.Field)
	}
	return fmt.Sprintf("invalid value for %q: %s", e.Field, e.Reason)
}

func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports an unknown incident id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func NotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// ConflictError reports that an aggregation update kept losing the version
// race and the bounded retries were exhausted.
type ConflictError struct {
	IncidentID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent update conflict on incident %q", e.IncidentID)
}

// AuthError reports a missing, malformed or expired partner credential.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "unauthorized: " + e.Reason
}

func Auth(reason string) *AuthError {
	return &AuthError{Reason: reason}
}

// UpstreamError reports an unavailable external collaborator, currently only
// the chat completion backend.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
