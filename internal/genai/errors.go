package genai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/openai/openai-go/v3"
)

// ErrorAction is what the fallback chain does after a failed call.
type ErrorAction int

const (
	// ActionRetry retries the same generator after a backoff.
	ActionRetry ErrorAction = iota
	// ActionFallback moves on to the next generator immediately.
	ActionFallback
	// ActionFail gives up on this generator without retrying.
	ActionFail
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// LLMError carries the provider and HTTP status of a failed call.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return string(e.Provider) + ": " + e.Err.Error() + " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return string(e.Provider) + ": " + e.Err.Error()
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// WrapError attaches provider and status to err. The status is taken from
// the SDK error when statusCode is 0.
func WrapError(err error, provider Provider, statusCode int) error {
	if err == nil {
		return nil
	}
	if statusCode == 0 {
		statusCode = StatusCode(err)
	}
	return &LLMError{Err: err, StatusCode: statusCode, Provider: provider}
}

// StatusCode extracts the HTTP status from an LLMError or an openai-go
// error, or 0. Gemini errors are classified by their message.
func StatusCode(err error) int {
	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		return llmErr.StatusCode
	}
	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		return oaiErr.StatusCode
	}
	return 0
}

// ClassifyError maps an error to an action:
//   - 429, 408, 409, 5xx, timeouts and network errors retry
//   - exhausted quota falls back to the next generator
//   - other 4xx fail
func ClassifyError(err error) ErrorAction {
	if err == nil || errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}
	if errors.Is(err, ErrEmptyResponse) {
		return ActionFallback
	}

	msg := strings.ToLower(err.Error())
	// quota exhaustion also comes back as 429, so check it first
	if containsAny(msg, "quota", "daily limit", "monthly limit", "billing") {
		return ActionFallback
	}

	if code := StatusCode(err); code > 0 {
		return classifyStatusCode(code)
	}

	switch {
	case containsAny(msg, "rate limit", "too many requests", "resource_exhausted", "429"):
		return ActionRetry
	case containsAny(msg, "unavailable", "internal server error", "bad gateway",
		"gateway timeout", "overloaded", "capacity", "500", "502", "503", "504"):
		return ActionRetry
	case containsAny(msg, "timeout", "deadline", "connection"):
		return ActionRetry
	case containsAny(msg, "unauthorized", "unauthenticated", "invalid api key",
		"forbidden", "permission denied", "not found", "bad request", "invalid"):
		return ActionFail
	default:
		return ActionRetry
	}
}

func classifyStatusCode(code int) ErrorAction {
	switch {
	case code == http.StatusTooManyRequests,
		code == http.StatusRequestTimeout,
		code == http.StatusConflict,
		code >= 500:
		return ActionRetry
	case code >= 400:
		return ActionFail
	default:
		return ActionRetry
	}
}

// errorLabel is the metric status for a failed call.
func errorLabel(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	}

	code := StatusCode(err)
	switch {
	case code == http.StatusTooManyRequests:
		return "rate_limit"
	case code >= 500:
		return "server_error"
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return "auth_error"
	case code >= 400:
		return "invalid_request"
	}

	switch ClassifyError(err) {
	case ActionFallback:
		return "quota_exhausted"
	case ActionRetry:
		return "transient_error"
	default:
		return "error"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
