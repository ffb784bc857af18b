package service

import (
	"fmt"
	"net/http"
)

// AuthError is a client-facing failure with a stable machine-checkable code.
type AuthError struct {
	Code        string
	Description string
	Status      int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func newAuthError(code, desc string, status int) *AuthError {
	return &AuthError{Code: code, Description: desc, Status: status}
}

// Shared instances so unknown-email and wrong-password failures are
// byte-identical to callers and cannot be used for account enumeration.
var (
	ErrDuplicateEmail = newAuthError("duplicate_email", "Email is already registered.", http.StatusConflict)

	ErrInvalidCredentials = newAuthError("invalid_credentials", "Wrong email or password.", http.StatusUnauthorized)

	ErrUnauthorized = newAuthError("unauthorized", "Authentication required.", http.StatusUnauthorized)

	ErrForbidden = newAuthError("forbidden", "Insufficient privileges.", http.StatusForbidden)

	ErrNotFound = newAuthError("not_found", "Resource not found.", http.StatusNotFound)
)
