package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrConfirmationRequired is returned by SignUp when the backend created the
// account but issued no session because email confirmation is pending. It is
// a distinguished outcome, not a failure.
var ErrConfirmationRequired = errors.New("account created, email confirmation required before signing in")

// APIError is a non-2xx response from the backend. Message carries the
// provider's free-text error string; Categorize is the only place allowed to
// inspect it.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error: HTTP %d: %s", e.StatusCode, e.Message)
}

// TransportError wraps a failure to reach the backend at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "backend unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Category classifies auth failures into the cases the UI distinguishes.
type Category string

const (
	CategoryDuplicateAccount     Category = "duplicate_account"
	CategoryInvalidEmail         Category = "invalid_email"
	CategoryWeakPassword         Category = "weak_password"
	CategoryBackendMisconfigured Category = "backend_misconfigured"
	CategoryNetworkFailure       Category = "network_failure"
	CategoryUnknown              Category = "unknown"
)

// apiErrorBody covers the error shapes the backend emits across endpoints.
type apiErrorBody struct {
	Message          string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Code             any    `json:"code"`
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		apiErr.Message = "failed to read error response"
		return apiErr
	}

	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Message != "":
			apiErr.Message = body.Message
		case body.ErrorDescription != "":
			apiErr.Message = body.ErrorDescription
		case body.Error != "":
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	return apiErr
}

// Categorize maps a backend auth error to a Category. The backend reports
// specific failures only through free-text messages, so this function does
// substring matching; it is deliberately the single place in the codebase
// that knows those strings (they change when the provider rewords errors).
func Categorize(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return CategoryNetworkFailure
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return CategoryUnknown
	}

	msg := strings.ToLower(apiErr.Message)
	switch {
	case strings.Contains(msg, "already registered"),
		strings.Contains(msg, "already exists"):
		return CategoryDuplicateAccount
	case strings.Contains(msg, "invalid email"),
		strings.Contains(msg, "validate email"):
		return CategoryInvalidEmail
	case strings.Contains(msg, "password should be at least"),
		strings.Contains(msg, "password is too short"):
		return CategoryWeakPassword
	case strings.Contains(msg, "database error saving new user"),
		strings.Contains(msg, "error saving new user"):
		return CategoryBackendMisconfigured
	}
	return CategoryUnknown
}

// UserMessage converts an auth error into the message shown to the user.
// Unknown categories fall back to the provider's own message.
func UserMessage(err error) string {
	switch Categorize(err) {
	case CategoryDuplicateAccount:
		return "An account with this email already exists. Try signing in instead."
	case CategoryInvalidEmail:
		return "Please enter a valid email address."
	case CategoryWeakPassword:
		return "Password must be at least 6 characters long."
	case CategoryBackendMisconfigured:
		return "The recipe database is not set up yet. Please contact the site administrator."
	case CategoryNetworkFailure:
		return "Unable to connect to the authentication service. Please check your connection and try again."
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "An unexpected error occurred"
}
