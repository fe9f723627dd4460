// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Trip generation pipeline errors, one per stage.
const (
	ErrCodeInvalidTripRequest       ErrorCode = "INVALID_TRIP_REQUEST"
	ErrCodeUpstreamUnavailable      ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeInvalidAIOutput          ErrorCode = "INVALID_AI_OUTPUT"
	ErrCodePersistenceFailed        ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeInvalidPrice             ErrorCode = "INVALID_PRICE"
	ErrCodePaymentSetupFailed       ErrorCode = "PAYMENT_SETUP_FAILED"
	ErrCodePaymentLinkPersistFailed ErrorCode = "PAYMENT_LINK_PERSIST_FAILED"
	ErrCodePipelineCancelled        ErrorCode = "PIPELINE_CANCELLED"

	ErrCodeTripNotFound           ErrorCode = "TRIP_NOT_FOUND"
	ErrCodePaymentAlreadyAttached ErrorCode = "PAYMENT_ALREADY_ATTACHED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
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
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
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

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewInvalidTripRequestError creates a non-retryable request validation error.
func NewInvalidTripRequestError(err error) *StandardError {
	return newError(ErrCodeInvalidTripRequest, "Trip request failed validation", detailsOf(err), false)
}

// NewUpstreamUnavailableError covers AI transport failures and timeouts.
// Retrying is the caller's decision since a new call produces new content.
func NewUpstreamUnavailableError(err error) *StandardError {
	return newError(ErrCodeUpstreamUnavailable, "AI generator unavailable", detailsOf(err), true)
}

// NewInvalidAIOutputError is terminal for the request.
func NewInvalidAIOutputError(err error) *StandardError {
	return newError(ErrCodeInvalidAIOutput, "AI output failed extraction or validation", detailsOf(err), false)
}

// NewPersistenceFailedError creates a retryable store write error.
func NewPersistenceFailedError(err error) *StandardError {
	return newError(ErrCodePersistenceFailed, "Trip store write failed", detailsOf(err), true)
}

// NewInvalidPriceError flags a persisted trip that cannot be priced.
func NewInvalidPriceError(tripID string, err error) *StandardError {
	return newError(ErrCodeInvalidPrice, "Estimated price could not be parsed", detailsOf(err), false).
		WithMetadata("tripId", tripID)
}

// NewPaymentSetupFailedError leaves the trip persisted without a payment link.
func NewPaymentSetupFailedError(tripID string, err error) *StandardError {
	return newError(ErrCodePaymentSetupFailed, "Payment link creation failed", detailsOf(err), true).
		WithMetadata("tripId", tripID)
}

// NewPaymentLinkPersistFailedError means a payment link exists upstream but is
// not recorded on the trip.
func NewPaymentLinkPersistFailedError(tripID, paymentLink string, err error) *StandardError {
	return newError(ErrCodePaymentLinkPersistFailed, "Payment link could not be saved", detailsOf(err), true).
		WithMetadata("tripId", tripID).
		WithMetadata("paymentLink", paymentLink)
}

// NewPipelineCancelledError reports a pipeline stopped at a step boundary.
func NewPipelineCancelledError(err error) *StandardError {
	return newError(ErrCodePipelineCancelled, "Trip generation cancelled", detailsOf(err), true)
}

func NewTripNotFoundError(tripID string) *StandardError {
	return newError(ErrCodeTripNotFound, "Trip not found", fmt.Sprintf("tripId: %s", tripID), false)
}

func NewPaymentAlreadyAttachedError(tripID string) *StandardError {
	return newError(ErrCodePaymentAlreadyAttached, "Trip already has a payment link", fmt.Sprintf("tripId: %s", tripID), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", detailsOf(err), false)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidTripRequest:       "INVALID_TRIP_REQUEST",
	ErrCodeUpstreamUnavailable:      "UPSTREAM_UNAVAILABLE",
	ErrCodeInvalidAIOutput:          "INVALID_AI_OUTPUT",
	ErrCodePersistenceFailed:        "PERSISTENCE_FAILED",
	ErrCodeInvalidPrice:             "INVALID_PRICE",
	ErrCodePaymentSetupFailed:       "PAYMENT_SETUP_FAILED",
	ErrCodePaymentLinkPersistFailed: "PAYMENT_LINK_PERSIST_FAILED",
	ErrCodePipelineCancelled:        "PIPELINE_CANCELLED",
	ErrCodeTripNotFound:             "TRIP_NOT_FOUND",
	ErrCodePaymentAlreadyAttached:   "PAYMENT_ALREADY_ATTACHED",
}

// GetRetryCount returns the number of job retries Zeebe may spend on a code.
// The pipeline itself never retries; these budgets belong to the workflow.
// Payment-stage failures are excluded because the workflow resumes them with
// the attach-payment-link job instead of regenerating the trip. A cancellation
// after the trip was persisted arrives non-retryable for the same reason.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUpstreamUnavailable,
		ErrCodePersistenceFailed:
		return 1

	case ErrCodePipelineCancelled:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

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
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "REQUEST"):
		return "VALIDATION"
	case strings.Contains(codeStr, "UPSTREAM") || strings.Contains(codeStr, "AI_OUTPUT"):
		return "AI"
	case strings.Contains(codeStr, "PAYMENT") || strings.Contains(codeStr, "PRICE"):
		return "PAYMENT"
	case strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "NOT_FOUND"):
		return "STORE"
	case strings.Contains(codeStr, "CANCELLED"):
		return "LIFECYCLE"
	default:
		return "OTHER"
	}
}

// RequiresFollowUp reports whether a failure left a persisted trip without a
// working purchase link.
// RequiresFollowUp reports whether e left a trip that needs manual attention,
// either by its code or because the producer flagged it in metadata.
func (e *StandardError) RequiresFollowUp() bool {
	if flagged, ok := e.Metadata["requiresFollowUp"].(bool); ok && flagged {
		return true
	}
	return RequiresFollowUp(e.Code)
}

func RequiresFollowUp(code ErrorCode) bool {
	switch code {
	case ErrCodeInvalidPrice, ErrCodePaymentSetupFailed, ErrCodePaymentLinkPersistFailed:
		return true
	default:
		return false
	}
}
