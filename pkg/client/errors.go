package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Message is the server supplied explanation, when the body had one.
	Message string
	// Body is the raw response body, truncated.
	Body []byte
	// RetryAfter is parsed from the Retry-After header.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("prospect api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("prospect api: status %d", e.Status)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

type errorEnvelope struct {
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
	Error   json.RawMessage `json:"error"`
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Status:     resp.StatusCode,
		Message:    errorMessage(data),
		Body:       data,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// errorMessage picks the first usable text out of message, detail or error.
// detail and error may also be objects carrying their own message.
func errorMessage(data []byte) string {
	var env errorEnvelope
	if len(data) == 0 || json.Unmarshal(data, &env) != nil {
		return ""
	}
	if m := strings.TrimSpace(env.Message); m != "" {
		return m
	}
	for _, raw := range []json.RawMessage{env.Detail, env.Error} {
		if m := rawMessage(raw); m != "" {
			return m
		}
	}
	return ""
}

func rawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &nested) == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}

func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds * float64(time.Second))
	}
	if ts, err := http.ParseTime(raw); err == nil {
		if delay := time.Until(ts); delay > 0 {
			return delay
		}
	}
	return 0
}
