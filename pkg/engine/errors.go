package engine

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rubiojr/prospect/pkg/auth"
	"github.com/rubiojr/prospect/pkg/client"
	"github.com/rubiojr/prospect/pkg/notify"
)

// ErrorKind classifies a failed operation for the user.
type ErrorKind int

const (
	GenericFailure ErrorKind = iota
	AuthenticationRequired
	RateLimited
	UsageLimitExceeded
	PreviewFailure
	LocationLoadFailure
	ExportFailure
)

func (k ErrorKind) String() string {
	switch k {
	case AuthenticationRequired:
		return "authentication_required"
	case RateLimited:
		return "rate_limited"
	case UsageLimitExceeded:
		return "usage_limit_exceeded"
	case PreviewFailure:
		return "preview_failure"
	case LocationLoadFailure:
		return "location_load_failure"
	case ExportFailure:
		return "export_failure"
	}
	return "generic_failure"
}

const (
	defaultSearchMessage = "Search failed. Please try again."
	defaultExportMessage = "Could not start the export. Please try again."
)

// SearchError is a classified failure. Message is the server supplied text,
// if any.
type SearchError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SearchError) Error() string {
	if e.Message != "" {
		return e.Kind.String() + ": " + e.Message
	}
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *SearchError) Unwrap() error { return e.Err }

// usage limit responses are 403s whose message mentions one of these
var quotaWords = []string{"quota", "limit", "credit", "usage"}

// Classify maps a search failure to its kind.
func Classify(err error) *SearchError {
	var se *SearchError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, auth.ErrNoCredential) {
		return &SearchError{Kind: AuthenticationRequired, Err: err}
	}
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return &SearchError{Kind: GenericFailure, Err: err}
	}
	out := &SearchError{Kind: GenericFailure, Message: apiErr.Message, Err: err}
	switch apiErr.Status {
	case http.StatusUnauthorized:
		out.Kind = AuthenticationRequired
	case http.StatusTooManyRequests:
		out.Kind = RateLimited
	case http.StatusForbidden:
		msg := strings.ToLower(apiErr.Message)
		for _, w := range quotaWords {
			if strings.Contains(msg, w) {
				out.Kind = UsageLimitExceeded
				break
			}
		}
	}
	return out
}

// Notification is the toast shown for the failure.
func (e *SearchError) Notification() notify.Notification {
	switch e.Kind {
	case AuthenticationRequired:
		return notify.New(notify.VariantDestructive, "Authentication Required",
			"Please sign in to search for leads.")
	case RateLimited:
		return notify.New(notify.VariantDestructive, "Too Many Requests",
			orDefault(e.Message, "You are searching too fast. Please wait a moment and try again."))
	case UsageLimitExceeded:
		return notify.New(notify.VariantDestructive, "Usage Limit Reached",
			orDefault(e.Message, "You have used all of your search credits. Upgrade your plan to continue."))
	case ExportFailure:
		return notify.New(notify.VariantDestructive, "Export Failed",
			orDefault(e.Message, defaultExportMessage))
	}
	return notify.New(notify.VariantDestructive, "Error", orDefault(e.Message, defaultSearchMessage))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
