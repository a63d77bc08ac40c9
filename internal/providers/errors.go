package providers

import (
	"errors"
	"fmt"
	"strings"

	"litreview/internal/util"
)

type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
)

// APIError is a non-2xx response from a backend.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Type       string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s error %d (%s): %s", e.Provider, e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Unwrap maps the response onto the util sentinels so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	msg := strings.ToLower(e.Message + " " + e.Type)
	switch {
	case strings.Contains(msg, "insufficient_quota"), strings.Contains(msg, "quota"):
		return util.ErrQuotaExhausted
	case e.StatusCode == 429:
		return util.ErrRateLimited
	case strings.Contains(msg, "context_length"), strings.Contains(msg, "context length"), strings.Contains(msg, "too long"):
		return util.ErrContextTooLong
	case e.StatusCode == 0, e.StatusCode >= 500:
		return util.ErrTransient
	default:
		return util.ErrPermanent
	}
}

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, util.ErrQuotaExhausted):
		return ErrorQuota
	case errors.Is(err, util.ErrRateLimited):
		return ErrorRate
	case errors.Is(err, util.ErrContextTooLong):
		return ErrorContext
	case errors.Is(err, util.ErrTransient):
		return ErrorTransient
	case errors.Is(err, util.ErrPermanent):
		return ErrorPermanent
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate limit"), strings.Contains(e, "ratelimit"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}

// IsRateLimited reports whether err is worth waiting out.
func IsRateLimited(err error) bool {
	return ClassifyError(err) == ErrorRate
}
