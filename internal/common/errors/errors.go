// Package errors provides the structured error type shared by the HTTP API and the
// workflow workers, plus its mapping onto HTTP statuses and BPMN error codes.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Input / auth errors
const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
)

// Lookup / state errors
const (
	ErrCodeBuyerNotFound          ErrorCode = "BUYER_NOT_FOUND"
	ErrCodeSellerNotFound         ErrorCode = "SELLER_NOT_FOUND"
	ErrCodeProductNotFound        ErrorCode = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound          ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeQuoteNotFound          ErrorCode = "QUOTE_NOT_FOUND"
	ErrCodeUserNotFound           ErrorCode = "USER_NOT_FOUND"
	ErrCodeConflict               ErrorCode = "CONFLICT"
	ErrCodeInvalidStateTransition ErrorCode = "INVALID_STATE_TRANSITION"
)

// Subscription errors
const (
	ErrCodeSubscriptionInvalid     ErrorCode = "SUBSCRIPTION_INVALID"
	ErrCodeSubscriptionExpired     ErrorCode = "SUBSCRIPTION_EXPIRED"
	ErrCodeSubscriptionCheckFailed ErrorCode = "SUBSCRIPTION_CHECK_FAILED"
)

// Store / infrastructure errors
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// As extracts a *StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize turns any error into a StandardError. Context deadlines become
// QUERY_TIMEOUT; anything unknown becomes a non-retryable INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if stdErr, ok := As(err); ok {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewQueryTimeoutError("unknown")
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := As(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. Error Constructors
// ==========================

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false)
}

// NewValidationFailedError is returned when a request body fails schema validation.
func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Request validation failed", details, false)
}

func NewUnauthorizedError(details string) *StandardError {
	return newError(ErrCodeUnauthorized, "Authentication required", details, false)
}

func NewForbiddenError(details string) *StandardError {
	return newError(ErrCodeForbidden, "Operation not permitted", details, false)
}

// NewNotFoundError creates a non-retryable lookup miss for the given entity code.
func NewNotFoundError(code ErrorCode, id string) *StandardError {
	entity := strings.ToLower(strings.TrimSuffix(string(code), "_NOT_FOUND"))
	return newError(code, fmt.Sprintf("%s not found", entity), fmt.Sprintf("id: %s", id), false)
}

func NewBuyerNotFoundError(buyerID string) *StandardError {
	return NewNotFoundError(ErrCodeBuyerNotFound, buyerID)
}

func NewConflictError(details string) *StandardError {
	return newError(ErrCodeConflict, "Resource already exists", details, false)
}

func NewInvalidStateTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidStateTransition, "Invalid state transition",
		fmt.Sprintf("from: %s, to: %s", from, to), false)
}

// NewSubscriptionInvalidError creates a non-retryable subscription error.
func NewSubscriptionInvalidError(details string) *StandardError {
	return newError(ErrCodeSubscriptionInvalid, "Invalid or not found subscription", details, false)
}

func NewSubscriptionExpiredError(details string) *StandardError {
	return newError(ErrCodeSubscriptionExpired, "Subscription has expired", details, false)
}

func NewSubscriptionCheckFailedError(err error) *StandardError {
	return newError(ErrCodeSubscriptionCheckFailed, "Database error during subscription check", err.Error(), true)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryName string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("query: %s, error: %s", queryName, err.Error()), true)
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryName string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("query: %s", queryName), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Search backend error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Internal server error", err.Error(), false)
}

// StoreError classifies a store failure: deadlines map to QUERY_TIMEOUT, everything
// else to QUERY_EXECUTION_FAILED.
func StoreError(queryName string, err error) *StandardError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewQueryTimeoutError(queryName)
	}
	return NewQueryExecutionFailedError(queryName, err)
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus maps an error code onto a response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden, ErrCodeSubscriptionInvalid, ErrCodeSubscriptionExpired:
		return http.StatusForbidden
	case ErrCodeConflict, ErrCodeInvalidStateTransition:
		return http.StatusConflict
	case ErrCodeQueryTimeout, ErrCodeQueryExecutionFailed, ErrCodeDatabaseConnectionFailed,
		ErrCodeSubscriptionCheckFailed, ErrCodeSearchQueryFailed:
		return http.StatusServiceUnavailable
	case ErrCodeNotificationSendFailed:
		return http.StatusBadGateway
	}
	if strings.HasSuffix(string(code), "_NOT_FOUND") {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ==========================
// 4. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// GetRetryCount returns how many job retries a code is worth.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSubscriptionCheckFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed:
		return 3
	case ErrCodeQueryTimeout:
		return 2
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SUBSCRIPTION"):
		return "SUBSCRIPTION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.HasSuffix(codeStr, "_NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case codeStr == string(ErrCodeUnauthorized) || codeStr == string(ErrCodeForbidden):
		return "AUTH"
	default:
		return "OTHER"
	}
}
