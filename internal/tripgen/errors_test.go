package tripgen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "trip-workers/internal/common/errors"
)

func TestGenerationError_BPMNRetries(t *testing.T) {
	tests := []struct {
		name            string
		err             *GenerationError
		expectedCode    string
		expectedRetries int
		followUp        bool
	}{
		{
			name:            "cancelled before the trip exists",
			err:             &GenerationError{Kind: KindCancelled, Stage: StageGenerate, Err: context.Canceled},
			expectedCode:    "PIPELINE_CANCELLED",
			expectedRetries: 1,
		},
		{
			name:         "cancelled at payment checkpoint",
			err:          &GenerationError{Kind: KindCancelled, Stage: StagePayment, TripID: "trip-9", Err: context.DeadlineExceeded},
			expectedCode: "PIPELINE_CANCELLED",
			followUp:     true,
		},
		{
			name:         "payment provider failed",
			err:          &GenerationError{Kind: KindPaymentSetupFailed, Stage: StagePayment, TripID: "trip-9", Err: errors.New("card_error")},
			expectedCode: "PAYMENT_SETUP_FAILED",
			followUp:     true,
		},
		{
			name:            "store unavailable while loading",
			err:             &GenerationError{Kind: KindPersistenceFailed, Stage: StageLoad, TripID: "trip-9", Err: errors.New("down")},
			expectedCode:    "PERSISTENCE_FAILED",
			expectedRetries: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := apperrors.Normalize(tt.err)
			bpmnErr := apperrors.ConvertToBPMNError(stdErr)

			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)
			assert.Equal(t, tt.followUp, stdErr.RequiresFollowUp())

			vars := bpmnErr.ToErrorVariables()
			if tt.err.TripID != "" {
				assert.Equal(t, tt.err.TripID, vars["tripId"])
			}
			if tt.followUp {
				assert.Equal(t, true, vars["requiresFollowUp"])
			}
		})
	}
}
