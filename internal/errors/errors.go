package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lib/pq"
)

// APIError represents a structured error for API responses.
// Includes a code, message, and HTTP status for consistent error handling.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError with the given code, message, and status.
func NewAPIError(code, message string, status int) *APIError {
	return &APIError{Code: code, Message: message, Status: status}
}

// Predefined API errors for common scenarios.
var (
	ErrMissingRequestToken = NewAPIError("missing_oauth_token", "oauth_token is required", http.StatusBadRequest)
	ErrMissingPath         = NewAPIError("missing_path", "the path query parameter is required", http.StatusBadRequest)
	ErrLoginExpired        = NewAPIError("login_expired", "the login attempt expired, please log in again", http.StatusUnauthorized)
	ErrProviderFailure     = NewAPIError("provider_failure", "the OAuth provider rejected the request", http.StatusBadGateway)
	ErrNotFound            = NewAPIError("not_found", "Resource not found", http.StatusNotFound)
	ErrInternalServer      = NewAPIError("internal_error", "Internal server error", http.StatusInternalServerError)
)

// Domain errors. All of them are recoverable by falling back to an
// unauthenticated session and letting the user log in again.
var (
	// ErrUnknownToken means the pending request token is missing or expired.
	ErrUnknownToken = errors.New("unknown or expired request token")
	// ErrTokenNotFound is returned by the pending-token store on a miss.
	ErrTokenNotFound = errors.New("pending request token not found")
	// ErrDuplicateToken is returned when a request token is stored twice.
	ErrDuplicateToken = errors.New("pending request token already stored")
	// ErrInvalidSignature means the cookie signature does not match its payload.
	ErrInvalidSignature = errors.New("session cookie signature is invalid")
	// ErrMalformedCookie means the cookie is not of the form payload|signature.
	ErrMalformedCookie = errors.New("session cookie is malformed")
)

// ProtocolError is a failed or unexpected exchange with the OAuth provider.
type ProtocolError struct {
	Op         string // leg or call that failed
	StatusCode int    // HTTP status, 0 when no response was received
	Body       string // response body, truncated
	Err        error  // transport or parse error, if any
}

func (e *ProtocolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "oauth %s: problem talking to the service", e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ", http result code: %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// NewProtocolError builds a ProtocolError, truncating the body so it is safe to log.
func NewProtocolError(op string, status int, body []byte, err error) *ProtocolError {
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &ProtocolError{Op: op, StatusCode: status, Body: string(body), Err: err}
}

// IsProtocolError reports whether err is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsSessionError reports whether err came from decoding an untrusted cookie.
func IsSessionError(err error) bool {
	return errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrMalformedCookie)
}

// IsUniqueViolation checks for unique constraint violation (Postgres or SQLite).
// Used to detect duplicate resource errors from the database.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
