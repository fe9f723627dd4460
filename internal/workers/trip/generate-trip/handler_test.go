package generatetrip

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trip-workers/internal/common/config"
	apperrors "trip-workers/internal/common/errors"
	"trip-workers/internal/common/logger"
	"trip-workers/internal/models"
	"trip-workers/internal/tripgen"
)

// ==========================
// Mocks
// ==========================

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateTrip(ctx context.Context, req models.TripRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func createMockJob(key int64, variables interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "trip-generation",
		ElementId:          "Activity_GenerateTrip",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func createValidVariables() map[string]interface{} {
	return map[string]interface{}{
		"country":      "Japan",
		"numberOfDays": 3,
		"travelStyle":  "Relaxed",
		"interests":    []string{"Food", "Temples"},
		"budget":       "Mid-range",
		"groupType":    "Couple",
		"userId":       "user-7",
	}
}

func newTestHandler(t *testing.T, gen TripGenerator) *Handler {
	return NewHandler(&Config{Timeout: 5 * time.Second}, gen, logger.NewTestLogger(t))
}

// ==========================
// Tests
// ==========================

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name     string
		wcfg     config.WorkerConfig
		expected time.Duration
	}{
		{name: "explicit handler timeout", wcfg: config.WorkerConfig{Timeout: 120000, HandlerTimeout: 100000}, expected: 100 * time.Second},
		{name: "derived from job timeout", wcfg: config.WorkerConfig{Timeout: 90000}, expected: 75 * time.Second},
		{name: "defaults", wcfg: config.WorkerConfig{}, expected: 105 * time.Second},
		{name: "handler timeout not below job timeout", wcfg: config.WorkerConfig{Timeout: 120000, HandlerTimeout: 120000}, expected: 105 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig(tt.wcfg)
			assert.Equal(t, tt.expected, cfg.Timeout)
			if tt.wcfg.Timeout > 0 {
				assert.Less(t, cfg.Timeout, config.GetDuration(tt.wcfg.Timeout))
			}
		})
	}
}

func TestHandler_ParseInput(t *testing.T) {
	h := newTestHandler(t, &MockGenerator{})

	t.Run("valid variables", func(t *testing.T) {
		input, err := h.parseInput(createMockJob(1, createValidVariables()))

		require.NoError(t, err)
		assert.Equal(t, "Japan", input.Country)
		assert.Equal(t, 3, input.NumberOfDays)
		assert.Equal(t, models.Interests{"Food", "Temples"}, input.Interests)
		assert.Equal(t, "user-7", input.UserID)
	})

	t.Run("single interest string", func(t *testing.T) {
		vars := createValidVariables()
		vars["interests"] = "Hiking"

		input, err := h.parseInput(createMockJob(2, vars))

		require.NoError(t, err)
		assert.Equal(t, models.Interests{"Hiking"}, input.Interests)
	})

	invalid := []struct {
		name   string
		mutate func(vars map[string]interface{})
	}{
		{"missing country", func(v map[string]interface{}) { delete(v, "country") }},
		{"missing user", func(v map[string]interface{}) { delete(v, "userId") }},
		{"zero days", func(v map[string]interface{}) { v["numberOfDays"] = 0 }},
		{"days as string", func(v map[string]interface{}) { v["numberOfDays"] = "three" }},
		{"interests as number", func(v map[string]interface{}) { v["interests"] = 4 }},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			vars := createValidVariables()
			tt.mutate(vars)

			input, err := h.parseInput(createMockJob(3, vars))

			assert.Nil(t, input)
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeInvalidTripRequest, apperrors.Normalize(err).Code)
		})
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	gen := &MockGenerator{}
	h := newTestHandler(t, gen)

	input, err := h.parseInput(createMockJob(1, createValidVariables()))
	require.NoError(t, err)

	gen.On("GenerateTrip", mock.Anything, mock.MatchedBy(func(req models.TripRequest) bool {
		return req.Country == "Japan" && req.NumberOfDays == 3 && req.UserID == "user-7" &&
			req.TravelStyle == "Relaxed" && len(req.Interests) == 2
	})).Return("2f1c5a4e-8a56-4d7a-9b1f-3f7d7f1b9e10", nil)

	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "2f1c5a4e-8a56-4d7a-9b1f-3f7d7f1b9e10", output.ID)
	gen.AssertExpectations(t)
}

func TestHandler_Execute_Failures(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		expectedCode  apperrors.ErrorCode
		expectedTrip  string
		retryable     bool
		retries       int
		requireFollow bool
	}{
		{
			name:         "upstream unavailable",
			err:          &tripgen.GenerationError{Kind: tripgen.KindUpstreamUnavailable, Stage: tripgen.StageGenerate, Err: errors.New("503")},
			expectedCode: apperrors.ErrCodeUpstreamUnavailable,
			retryable:    true,
			retries:      1,
		},
		{
			name:         "cancelled before persist",
			err:          &tripgen.GenerationError{Kind: tripgen.KindCancelled, Stage: tripgen.StagePersist, Err: context.DeadlineExceeded},
			expectedCode: apperrors.ErrCodePipelineCancelled,
			retryable:    true,
			retries:      1,
		},
		{
			name:          "cancelled after persist",
			err:           &tripgen.GenerationError{Kind: tripgen.KindCancelled, Stage: tripgen.StagePayment, TripID: "trip-9", Err: context.DeadlineExceeded},
			expectedCode:  apperrors.ErrCodePipelineCancelled,
			expectedTrip:  "trip-9",
			requireFollow: true,
		},
		{
			name:         "invalid ai output",
			err:          &tripgen.GenerationError{Kind: tripgen.KindInvalidAIOutput, Stage: tripgen.StageValidate},
			expectedCode: apperrors.ErrCodeInvalidAIOutput,
		},
		{
			name:          "payment setup failed after persist",
			err:           &tripgen.GenerationError{Kind: tripgen.KindPaymentSetupFailed, Stage: tripgen.StagePayment, TripID: "trip-9", Err: errors.New("card_error")},
			expectedCode:  apperrors.ErrCodePaymentSetupFailed,
			expectedTrip:  "trip-9",
			requireFollow: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &MockGenerator{}
			h := newTestHandler(t, gen)
			gen.On("GenerateTrip", mock.Anything, mock.Anything).Return("", tt.err)

			output, err := h.Execute(context.Background(), &Input{Country: "Japan", NumberOfDays: 1})

			assert.Nil(t, output)
			require.Error(t, err)

			stdErr := apperrors.Normalize(err)
			assert.Equal(t, tt.expectedCode, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
			assert.Equal(t, tt.requireFollow, stdErr.RequiresFollowUp())

			bpmnErr := apperrors.ConvertToBPMNError(stdErr)
			assert.Equal(t, tt.retries, bpmnErr.Retries)
			vars := bpmnErr.ToErrorVariables()
			if tt.expectedTrip != "" {
				assert.Equal(t, tt.expectedTrip, vars["tripId"])
			} else {
				assert.NotContains(t, vars, "tripId")
			}
		})
	}
}
