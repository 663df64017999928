package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Category is the coarse error taxonomy shared by the API client, the
// storage façade and the CLI.
type Category string

const (
	CategoryAuth          Category = "auth"
	CategoryDatabase      Category = "database"
	CategoryNetwork       Category = "network"
	CategoryValidation    Category = "validation"
	CategoryConfiguration Category = "configuration"
	CategoryUnknown       Category = "unknown"
)

// Severity ranks how disruptive an error is to the user.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Machine-readable error codes.
const (
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeDatabase      = "DATABASE_ERROR"
	CodeNetwork       = "NETWORK_ERROR"
	CodeTimeout       = "TIMEOUT"
	CodeBadResponse   = "BAD_RESPONSE"
	CodeConfiguration = "CONFIGURATION_ERROR"
	CodeNoCachedData  = "NO_CACHED_DATA"
	CodeQueuedForSync = "QUEUED_FOR_SYNC"
	CodeUnknown       = "UNKNOWN_ERROR"
)

// AppError is a classified error.
type AppError struct {
	Category    Category  `json:"category"`
	Severity    Severity  `json:"severity"`
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	UserMessage string    `json:"user_message"`
	Status      int       `json:"status,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Cause       error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError by code, so callers can test
// errors.Is(err, errors.ErrQueued).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether replaying the failed request later may succeed.
func (e *AppError) Retryable() bool {
	return e.Category == CategoryNetwork || e.Category == CategoryDatabase
}

// Sentinels for errors.Is checks.
var (
	ErrQueued       = &AppError{Code: CodeQueuedForSync}
	ErrNoCachedData = &AppError{Code: CodeNoCachedData}
	ErrUnauthorized = &AppError{Code: CodeUnauthorized}
	ErrNotFound     = &AppError{Code: CodeNotFound}
)

var defaultSeverity = map[Category]Severity{
	CategoryAuth:          SeverityHigh,
	CategoryDatabase:      SeverityHigh,
	CategoryNetwork:       SeverityMedium,
	CategoryValidation:    SeverityLow,
	CategoryConfiguration: SeverityCritical,
	CategoryUnknown:       SeverityMedium,
}

var defaultUserMessage = map[Category]string{
	CategoryAuth:          "Your session has expired. Please log in again.",
	CategoryDatabase:      "The server could not save your data. Please try again later.",
	CategoryNetwork:       "Could not reach the server. Check your connection.",
	CategoryValidation:    "Some of the information provided is invalid.",
	CategoryConfiguration: "The application is not configured correctly.",
	CategoryUnknown:       "Something went wrong. Please try again.",
}

// New builds a classified error with the category's default severity and user message.
func New(category Category, code, message string) *AppError {
	return &AppError{
		Category:    category,
		Severity:    defaultSeverity[category],
		Code:        code,
		Message:     message,
		UserMessage: defaultUserMessage[category],
		Timestamp:   time.Now(),
	}
}

// Validation builds a validation error whose user message is the message itself.
func Validation(message string) *AppError {
	e := New(CategoryValidation, CodeValidation, message)
	e.UserMessage = message
	return e
}

// Configuration builds a critical configuration error.
func Configuration(message string) *AppError {
	e := New(CategoryConfiguration, CodeConfiguration, message)
	e.UserMessage = fmt.Sprintf("%s %s", defaultUserMessage[CategoryConfiguration], message)
	return e
}

// Queued marks a write that failed now but was queued for a later sync. It
// carries the category of cause; writes queued while offline are network.
func Queued(cause *AppError) *AppError {
	category := CategoryNetwork
	if cause != nil {
		category = cause.Category
	}
	e := New(category, CodeQueuedForSync, "change queued for sync")
	e.Severity = SeverityLow
	e.UserMessage = "Saved locally. The change will sync when the server is reachable."
	if cause != nil {
		e.Cause = cause
	}
	return e
}

// NoCachedData is returned by reads that have neither a remote answer nor a cached value.
func NoCachedData(key string) *AppError {
	e := New(CategoryNetwork, CodeNoCachedData, fmt.Sprintf("offline and no cached data for %s", key))
	e.UserMessage = "You are offline and this data has not been loaded before."
	return e
}

// FromHTTP classifies a non-2xx response. message is the server's error text, if any.
func FromHTTP(status int, message string) *AppError {
	var e *AppError
	switch {
	case status == http.StatusUnauthorized:
		e = New(CategoryAuth, CodeUnauthorized, "Unauthorized")
	case status == http.StatusBadRequest:
		e = New(CategoryValidation, CodeValidation, "Validation error")
	case status == http.StatusNotFound:
		e = New(CategoryValidation, CodeNotFound, "Resource not found")
		e.UserMessage = "The requested item no longer exists."
	case status >= http.StatusInternalServerError:
		e = New(CategoryDatabase, CodeDatabase, "Database error")
	default:
		e = New(CategoryNetwork, CodeNetwork, fmt.Sprintf("HTTP %d", status))
	}
	e.Status = status
	if message != "" {
		e.Message = message
		if e.Category == CategoryValidation {
			e.UserMessage = message
		}
	}
	return e
}

// messagePatterns maps substrings of generic error text to a category.
// Order matters: the first match wins.
var messagePatterns = []struct {
	substr   string
	category Category
	code     string
}{
	{"unauthorized", CategoryAuth, CodeUnauthorized},
	{"401", CategoryAuth, CodeUnauthorized},
	{"database error", CategoryDatabase, CodeDatabase},
	{"timeout", CategoryNetwork, CodeTimeout},
	{"deadline exceeded", CategoryNetwork, CodeTimeout},
	{"fetch", CategoryNetwork, CodeNetwork},
	{"dial tcp", CategoryNetwork, CodeNetwork},
	{"connection refused", CategoryNetwork, CodeNetwork},
	{"no such host", CategoryNetwork, CodeNetwork},
	{"network is unreachable", CategoryNetwork, CodeNetwork},
	{"connection reset", CategoryNetwork, CodeNetwork},
	{"validation", CategoryValidation, CodeValidation},
	{"invalid", CategoryValidation, CodeValidation},
	{"missing required", CategoryConfiguration, CodeConfiguration},
}

// FromMessage classifies a bare message by substring.
func FromMessage(message string) *AppError {
	lower := strings.ToLower(message)
	for _, p := range messagePatterns {
		if strings.Contains(lower, p.substr) {
			e := New(p.category, p.code, message)
			if p.category == CategoryValidation {
				e.UserMessage = message
			}
			return e
		}
	}
	return New(CategoryUnknown, CodeUnknown, message)
}

// FromError classifies an arbitrary error. Already classified errors are
// returned unchanged.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		e := New(CategoryNetwork, CodeTimeout, "request timed out")
		e.Cause = err
		return e
	}
	if stderrors.Is(err, context.Canceled) {
		e := New(CategoryNetwork, CodeNetwork, "request canceled")
		e.Severity = SeverityLow
		e.Cause = err
		return e
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		code := CodeNetwork
		if netErr.Timeout() {
			code = CodeTimeout
		}
		e := New(CategoryNetwork, code, err.Error())
		e.Cause = err
		return e
	}

	e := FromMessage(err.Error())
	e.Cause = err
	return e
}

// CategoryOf returns the category of err, or CategoryUnknown for nil.
func CategoryOf(err error) Category {
	if e := FromError(err); e != nil {
		return e.Category
	}
	return CategoryUnknown
}
