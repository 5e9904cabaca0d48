package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response decoded from ErrorResponse.
type APIError struct {
	StatusCode  int
	Message     string
	Errors      []string
	RetryAfter  int
	LockedUntil *time.Time
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	}
	return fmt.Sprintf("authsdk: %d %s", e.StatusCode, msg)
}

// parseErrorResponse builds an *APIError from a failed response body. Bodies
// that are not an ErrorResponse keep the raw text as the message.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		apiErr.Message = er.Message
		apiErr.Errors = er.Errors
		apiErr.RetryAfter = er.RetryAfter
		apiErr.LockedUntil = er.LockedUntil
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	if apiErr.RetryAfter == 0 {
		if v := resp.Header.Get("Retry-After"); v != "" {
			_, _ = fmt.Sscanf(v, "%d", &apiErr.RetryAfter)
		}
	}
	return apiErr
}
