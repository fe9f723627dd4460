package attachpaymentlink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"trip-workers/internal/common/errors"
	"trip-workers/internal/common/logger"
	"trip-workers/internal/common/metrics"
	"trip-workers/internal/common/validation"
	"trip-workers/internal/tripgen"
)

const TaskType = "attach-payment-link"

type PaymentAttacher interface {
	AttachPayment(ctx context.Context, tripID string) (string, error)
}

type Handler struct {
	config       *Config
	attacher     PaymentAttacher
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, attacher PaymentAttacher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		attacher:     attacher,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, input.TripID, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// Execute creates and records a payment link for a stored trip. A trip that
// already has one completes with the stored link.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	link, err := h.attacher.AttachPayment(ctx, input.TripID)
	if err != nil {
		if genErr, ok := tripgen.AsGenerationError(err); ok && genErr.Kind == tripgen.KindPaymentAlreadyAttached {
			return &Output{PaymentLink: genErr.PaymentLink, AlreadyAttached: true}, nil
		}
		return nil, err
	}
	return &Output{PaymentLink: link}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidTripRequestError(fmt.Errorf("parse job variables: %w", err))
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInvalidTripRequestError(
			fmt.Errorf("invalid job variables: %s", strings.Join(result.GetErrorMessages(), "; ")),
		)
	}

	return &Input{TripID: strings.TrimSpace(variables["tripId"].(string))}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, tripID string, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
		return
	}
	if _, err := cmd.Send(context.WithoutCancel(ctx)); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err,
		})
		return
	}

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":          job.GetKey(),
		"tripId":          tripID,
		"alreadyAttached": output.AlreadyAttached,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(context.WithoutCancel(ctx), client, job, err)
}
