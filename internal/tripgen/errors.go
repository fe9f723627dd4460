package tripgen

import (
	"errors"
	"fmt"

	apperrors "trip-workers/internal/common/errors"
	"trip-workers/internal/itinerary"
)

// Kind classifies why a pipeline run stopped.
type Kind string

const (
	KindInvalidRequest           Kind = "InvalidRequest"
	KindUpstreamUnavailable      Kind = "UpstreamUnavailable"
	KindInvalidAIOutput          Kind = "InvalidAIOutput"
	KindPersistenceFailed        Kind = "PersistenceFailed"
	KindInvalidPrice             Kind = "InvalidPrice"
	KindPaymentSetupFailed       Kind = "PaymentSetupFailed"
	KindPaymentLinkPersistFailed Kind = "PaymentLinkPersistFailed"
	KindCancelled                Kind = "Cancelled"
	KindTripNotFound             Kind = "TripNotFound"
	KindPaymentAlreadyAttached   Kind = "PaymentAlreadyAttached"
)

// Stage names the pipeline step a failure came from. The same names label
// stage metrics and spans.
type Stage string

const (
	StageRequest   Stage = "request"
	StageGenerate  Stage = "generate"
	StageImages    Stage = "images"
	StageValidate  Stage = "validate"
	StagePersist   Stage = "persist"
	StageLoad      Stage = "load"
	StagePrice     Stage = "price"
	StagePayment   Stage = "payment"
	StageReconcile Stage = "reconcile"
)

// GenerationError is the only error type GenerateTrip and AttachPayment return.
// TripID is set once the trip has been persisted, so callers can tell a trip
// that exists without a payment link from one that was never written.
type GenerationError struct {
	Kind        Kind
	Stage       Stage
	TripID      string
	PaymentLink string
	Reasons     []itinerary.Reason
	Err         error
}

func (e *GenerationError) Error() string {
	msg := fmt.Sprintf("trip generation failed at %s: %s", e.Stage, e.Kind)
	if e.TripID != "" {
		msg += fmt.Sprintf(" (trip %s)", e.TripID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// RequiresFollowUp is true when a persisted trip was left without a working
// purchase link.
func (e *GenerationError) RequiresFollowUp() bool {
	if e.TripID == "" {
		return false
	}
	return e.Kind == KindCancelled || apperrors.RequiresFollowUp(e.Code())
}

// Code maps the kind onto the shared error-code space.
func (e *GenerationError) Code() apperrors.ErrorCode {
	switch e.Kind {
	case KindInvalidRequest:
		return apperrors.ErrCodeInvalidTripRequest
	case KindUpstreamUnavailable:
		return apperrors.ErrCodeUpstreamUnavailable
	case KindInvalidAIOutput:
		return apperrors.ErrCodeInvalidAIOutput
	case KindPersistenceFailed:
		return apperrors.ErrCodePersistenceFailed
	case KindInvalidPrice:
		return apperrors.ErrCodeInvalidPrice
	case KindPaymentSetupFailed:
		return apperrors.ErrCodePaymentSetupFailed
	case KindPaymentLinkPersistFailed:
		return apperrors.ErrCodePaymentLinkPersistFailed
	case KindCancelled:
		return apperrors.ErrCodePipelineCancelled
	case KindTripNotFound:
		return apperrors.ErrCodeTripNotFound
	case KindPaymentAlreadyAttached:
		return apperrors.ErrCodePaymentAlreadyAttached
	default:
		return apperrors.ErrCodeInternal
	}
}

// ToStandardError lets the job error handler report the failure to Zeebe.
// A failure that left a persisted trip without a link is never retried: a
// retry would regenerate the trip, so it surfaces as a BPMN error carrying
// tripId and the workflow resumes with attach-payment-link.
func (e *GenerationError) ToStandardError() *apperrors.StandardError {
	var stdErr *apperrors.StandardError
	switch e.Kind {
	case KindInvalidRequest:
		stdErr = apperrors.NewInvalidTripRequestError(e.Err)
	case KindUpstreamUnavailable:
		stdErr = apperrors.NewUpstreamUnavailableError(e.Err)
	case KindInvalidAIOutput:
		stdErr = apperrors.NewInvalidAIOutputError(e.Err)
	case KindPersistenceFailed:
		stdErr = apperrors.NewPersistenceFailedError(e.Err)
	case KindInvalidPrice:
		stdErr = apperrors.NewInvalidPriceError(e.TripID, e.Err)
	case KindPaymentSetupFailed:
		stdErr = apperrors.NewPaymentSetupFailedError(e.TripID, e.Err)
	case KindPaymentLinkPersistFailed:
		stdErr = apperrors.NewPaymentLinkPersistFailedError(e.TripID, e.PaymentLink, e.Err)
	case KindCancelled:
		stdErr = apperrors.NewPipelineCancelledError(e.Err)
	case KindTripNotFound:
		stdErr = apperrors.NewTripNotFoundError(e.TripID)
	case KindPaymentAlreadyAttached:
		stdErr = apperrors.NewPaymentAlreadyAttachedError(e.TripID)
	default:
		stdErr = apperrors.NewInternalError(e.Err)
	}

	stdErr.WithMetadata("stage", string(e.Stage))
	if e.TripID != "" {
		stdErr.WithMetadata("tripId", e.TripID)
	}
	if e.RequiresFollowUp() {
		stdErr.Retryable = false
		stdErr.WithMetadata("requiresFollowUp", true)
	}
	return stdErr
}

// AsGenerationError unwraps err into a GenerationError.
func AsGenerationError(err error) (*GenerationError, bool) {
	var genErr *GenerationError
	ok := errors.As(err, &genErr)
	return genErr, ok
}
