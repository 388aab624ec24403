package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrAuthFailed reports that the stored credentials proved unusable and were
// cleared: a 401 with no refresh token, a rejected refresh exchange, or a
// second 401 on a replayed request. It is the only error the session
// coordinator treats as session-ending.
var ErrAuthFailed = errors.New("gateway: authentication failed")

// NetworkError wraps a transport-level failure where no response was
// received at all.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is the normalized shape of every non-2xx server response. The
// backend's structured body is surfaced when parseable; otherwise Message
// falls back to the HTTP status text.
type APIError struct {
	StatusCode int
	Timestamp  string
	Path       string
	Method     string
	Message    string
	Code       string
	Fields     map[string][]string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// HasFieldErrors reports whether the server returned field-level validation
// errors, which screens surface inline instead of as a toast.
func (e *APIError) HasFieldErrors() bool { return len(e.Fields) > 0 }

// errorBody is the backend's structured error envelope.
type errorBody struct {
	StatusCode int                 `json:"statusCode"`
	Timestamp  string              `json:"timestamp"`
	Path       string              `json:"path"`
	Method     string              `json:"method"`
	Message    string              `json:"message"`
	Error      string              `json:"error"`
	Errors     map[string][]string `json:"errors"`
}

// parseErrorResponse normalizes a non-2xx response into an *APIError.
// Returns nil for success status codes.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var wire errorBody
	if err := json.Unmarshal(body, &wire); err == nil && (wire.Message != "" || wire.Error != "" || len(wire.Errors) > 0) {
		return &APIError{
			StatusCode: resp.StatusCode,
			Timestamp:  wire.Timestamp,
			Path:       wire.Path,
			Method:     wire.Method,
			Message:    wire.Message,
			Code:       wire.Error,
			Fields:     wire.Errors,
		}
	}

	// Body not parseable; fall back to the transport-level message.
	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}
}
