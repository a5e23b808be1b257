package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	message := e.Message
	if message == "" {
		message = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("backend status %d (%s): %s", e.StatusCode, e.Code, message)
	}
	return fmt.Sprintf("backend status %d: %s", e.StatusCode, message)
}

// StatusCode returns the backend HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a rejected credential.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// errorBody covers the error shapes of the auth and rest APIs.
type errorBody struct {
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
}

func decodeStatusError(statusCode int, body []byte) *StatusError {
	out := &StatusError{StatusCode: statusCode}
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		out.Message = strings.TrimSpace(string(body))
		return out
	}
	for _, candidate := range []string{parsed.ErrorDescription, parsed.Msg, parsed.Message, parsed.Error} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			out.Message = candidate
			break
		}
	}
	switch {
	case parsed.ErrorCode != "":
		out.Code = parsed.ErrorCode
	case len(parsed.Code) > 0:
		var code string
		if err := json.Unmarshal(parsed.Code, &code); err == nil {
			out.Code = code
		}
	case parsed.Error != "" && parsed.ErrorDescription != "":
		out.Code = parsed.Error
	}
	return out
}
