package auth

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidInput    = errors.New("username and password are required")
	ErrConflict        = errors.New("user already exists")
	ErrUnauthenticated = errors.New("invalid credentials")
	ErrUserNotFound    = errors.New("user not found")

	ErrTokenMissing   = errors.New("token is missing")
	ErrTokenMalformed = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")

	ErrForbidden = errors.New("access forbidden: insufficient permissions")

	// ErrStorage wraps every backing-store failure.
	ErrStorage = errors.New("internal server error")
)

// Outcome names used for logs and metrics.
const (
	OutcomeAllowed         = "allowed"
	OutcomeMissing         = "missing"
	OutcomeMalformed       = "malformed"
	OutcomeExpired         = "expired"
	OutcomeForbidden       = "forbidden"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeError           = "error"
)

var classes = []struct {
	err     error
	status  int
	message string
	outcome string
}{
	{ErrInvalidInput, http.StatusBadRequest, "Username and password are required", OutcomeError},
	// duplicate registration answers 400, not 409
	{ErrConflict, http.StatusBadRequest, "User already exists", OutcomeError},
	{ErrUnauthenticated, http.StatusUnauthorized, "Invalid credentials", OutcomeUnauthenticated},
	{ErrTokenMissing, http.StatusUnauthorized, "Token is missing", OutcomeMissing},
	{ErrTokenMalformed, http.StatusUnauthorized, "Invalid token", OutcomeMalformed},
	{ErrTokenExpired, http.StatusUnauthorized, "Token has expired", OutcomeExpired},
	{ErrForbidden, http.StatusForbidden, "Access forbidden: insufficient permissions", OutcomeForbidden},
}

const internalErrorMessage = "Internal server error"

// Describe maps an error to its HTTP status, the client-safe message and the
// decision outcome. Unrecognised errors are reported as storage failures.
func Describe(err error) (status int, message, outcome string) {
	for _, c := range classes {
		if errors.Is(err, c.err) {
			return c.status, c.message, c.outcome
		}
	}
	return http.StatusInternalServerError, internalErrorMessage, OutcomeError
}
