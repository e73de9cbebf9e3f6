package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/eloladder/internal/model"
	"github.com/mcoot/eloladder/internal/services/identity"
	"github.com/mcoot/eloladder/internal/services/ladder"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidName         = "INVALID_NAME"
	CodeAlreadyRegistered   = "ALREADY_REGISTERED"
	CodeCallerNotRegistered = "CALLER_NOT_REGISTERED"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeOpponentNotFound    = "OPPONENT_NOT_FOUND"
	CodeSelfChallenge       = "SELF_CHALLENGE"
	CodeInvalidOutcome      = "INVALID_OUTCOME"
	CodeDuplicateChallenge  = "DUPLICATE_CHALLENGE"
	CodeNothingPending      = "NOTHING_PENDING"
	CodeInvalidRating       = "INVALID_RATING"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status WriteError would use for err
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Store failures first: their causes may themselves match model errors
	if errors.Is(err, ladder.ErrStoreUnavailable) {
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStoreUnavailable, "Rating store unavailable, try again later"}}
	}

	// Map engine errors. Their messages are safe to show to callers.
	switch {
	case errors.Is(err, ladder.ErrInvalidName):
		return newError(http.StatusBadRequest, CodeInvalidName, err)
	case errors.Is(err, ladder.ErrAlreadyRegistered):
		return newError(http.StatusConflict, CodeAlreadyRegistered, err)
	case errors.Is(err, ladder.ErrCallerNotRegistered):
		return newError(http.StatusForbidden, CodeCallerNotRegistered, err)
	case errors.Is(err, ladder.ErrUserNotFound):
		return newError(http.StatusNotFound, CodeUserNotFound, err)
	case errors.Is(err, ladder.ErrOpponentNotFound):
		return newError(http.StatusNotFound, CodeOpponentNotFound, err)
	case errors.Is(err, ladder.ErrSelfChallenge):
		return newError(http.StatusBadRequest, CodeSelfChallenge, err)
	case errors.Is(err, model.ErrInvalidOutcome):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidOutcome, "Outcome must be win or lose"}}
	case errors.Is(err, ladder.ErrDuplicateChallenge):
		return newError(http.StatusConflict, CodeDuplicateChallenge, err)
	case errors.Is(err, ladder.ErrNothingPending):
		return newError(http.StatusNotFound, CodeNothingPending, err)
	case errors.Is(err, ladder.ErrInvalidRating):
		return newError(http.StatusBadRequest, CodeInvalidRating, err)

	// Map identity errors
	case errors.Is(err, identity.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}
	case errors.Is(err, identity.ErrInvalidAdminKey):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Invalid admin key"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

func newError(status int, code string, err error) *httpError {
	return &httpError{status, APIError{code, err.Error()}}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
