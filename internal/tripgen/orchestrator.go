// Package tripgen runs the trip generation pipeline: prompt the AI, validate
// its output, look up images, persist the trip, then mint and record a
// payment link.
package tripgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"trip-workers/internal/clients/genai"
	"trip-workers/internal/clients/payment"
	"trip-workers/internal/common/logger"
	"trip-workers/internal/common/metrics"
	"trip-workers/internal/common/observability"
	"trip-workers/internal/itinerary"
	"trip-workers/internal/models"
	"trip-workers/internal/store"
)

// DefaultImageLimit is the number of photos attached to a trip.
const DefaultImageLimit = 3

// maxLoggedAIText bounds the raw AI output copied into failure logs.
const maxLoggedAIText = 16 * 1024

const (
	opGenerate      = "trip generation"
	opAttachPayment = "payment attachment"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type ImageSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

type PaymentProvider interface {
	CreatePaymentProduct(ctx context.Context, params payment.PaymentProductParams) (*payment.PaymentLink, error)
}

type TripStore interface {
	Create(ctx context.Context, trip store.NewTrip) (string, error)
	Update(ctx context.Context, id string, patch store.TripPatch) error
	Get(ctx context.Context, id string) (*models.PersistedTrip, error)
}

type Orchestrator struct {
	generator  Generator
	images     ImageSearcher
	payments   PaymentProvider
	store      TripStore
	obs        *observability.Observability
	logger     logger.Logger
	imageLimit int
	now        func() time.Time

	// payments in flight, keyed by trip id
	inflight singleflight.Group
}

type Option func(*Orchestrator)

func WithImageLimit(n int) Option {
	return func(o *Orchestrator) { o.imageLimit = n }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

func New(gen Generator, images ImageSearcher, payments PaymentProvider, st TripStore, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator:  gen,
		images:     images,
		payments:   payments,
		store:      st,
		obs:        observability.NewNoop(),
		logger:     log.With(map[string]interface{}{"component": "tripgen"}),
		imageLimit: DefaultImageLimit,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type generateResult struct {
	text string
	err  error
}

// GenerateTrip runs the full pipeline for req and returns the persisted trip
// id. Every failure is a *GenerationError.
//
// Cancelling ctx stops the pipeline at the next step boundary. External calls
// that have already been issued run to completion on a detached context
// bounded by each adapter's own timeout.
func (o *Orchestrator) GenerateTrip(ctx context.Context, req models.TripRequest) (tripID string, err error) {
	ctx, span := o.obs.StartSpan(ctx, "tripgen.GenerateTrip",
		attribute.String("country", req.Country),
		attribute.Int("numberOfDays", req.NumberOfDays),
	)
	defer func() { o.finish(ctx, span, opGenerate, tripID, err) }()

	if err := itinerary.ValidateRequest(&req); err != nil {
		return "", &GenerationError{Kind: KindInvalidRequest, Stage: StageRequest, Err: err}
	}
	if err := checkpoint(ctx, StageGenerate, ""); err != nil {
		return "", err
	}

	prompt := itinerary.BuildPrompt(req)
	query := itinerary.ImageQuery(req)

	// The AI call and the image search are independent; neither failure
	// cancels the other and both are joined before anything is written.
	genCh := make(chan generateResult, 1)
	imgCh := make(chan []string, 1)
	detached := context.WithoutCancel(ctx)

	go func() {
		var res generateResult
		_ = o.stage(detached, StageGenerate, func(ctx context.Context) error {
			res.text, res.err = o.generator.Generate(ctx, prompt)
			return res.err
		})
		genCh <- res
	}()
	go func() {
		imgCh <- o.searchImages(detached, query)
	}()

	var (
		gen       generateResult
		imageURLs []string
	)
	for received := 0; received < 2; received++ {
		select {
		case gen = <-genCh:
		case imageURLs = <-imgCh:
		case <-ctx.Done():
			return "", &GenerationError{Kind: KindCancelled, Stage: StageGenerate, Err: ctx.Err()}
		}
	}

	if gen.err != nil {
		if errors.Is(gen.err, genai.ErrEmptyResponse) {
			return "", o.invalidOutput(gen.text, nil, gen.err)
		}
		return "", &GenerationError{Kind: KindUpstreamUnavailable, Stage: StageGenerate, Err: gen.err}
	}

	var trip *models.Trip
	err = o.stage(ctx, StageValidate, func(context.Context) error {
		var reasons []itinerary.Reason
		var parseErr error
		trip, reasons, parseErr = itinerary.ParseTrip(gen.text)
		if parseErr != nil || len(reasons) > 0 {
			return o.invalidOutput(gen.text, reasons, parseErr)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := checkpoint(ctx, StagePersist, ""); err != nil {
		return "", err
	}

	err = o.stage(ctx, StagePersist, func(ctx context.Context) error {
		id, createErr := o.store.Create(context.WithoutCancel(ctx), store.NewTrip{
			Trip:      *trip,
			ImageURLs: imageURLs,
			UserID:    req.UserID,
			CreatedAt: o.now().UTC(),
		})
		if createErr != nil {
			return &GenerationError{Kind: KindPersistenceFailed, Stage: StagePersist, Err: createErr}
		}
		tripID = id
		return nil
	})
	if err != nil {
		return "", err
	}

	span.SetAttributes(attribute.String("tripId", tripID))

	_, err = o.singlePayment(tripID, func() (string, error) {
		return o.attachPayment(ctx, tripID, trip, imageURLs)
	})
	if genErr, ok := AsGenerationError(err); ok && genErr.Kind == KindPaymentAlreadyAttached {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return tripID, nil
}

// AttachPayment re-runs the payment suffix for a trip that was persisted
// without a payment link, and returns the new link. Concurrent calls for the
// same trip share one payment call and its result.
func (o *Orchestrator) AttachPayment(ctx context.Context, tripID string) (link string, err error) {
	ctx, span := o.obs.StartSpan(ctx, "tripgen.AttachPayment", attribute.String("tripId", tripID))
	defer func() { o.finish(ctx, span, opAttachPayment, tripID, err) }()

	return o.singlePayment(tripID, func() (string, error) {
		return o.attachStored(ctx, tripID)
	})
}

// singlePayment runs fn unless a payment for tripID is already in flight, in
// which case it waits for and returns that result.
func (o *Orchestrator) singlePayment(tripID string, fn func() (string, error)) (string, error) {
	v, err, _ := o.inflight.Do(tripID, func() (interface{}, error) {
		return fn()
	})
	link, _ := v.(string)
	return link, err
}

func (o *Orchestrator) attachStored(ctx context.Context, tripID string) (string, error) {
	var persisted *models.PersistedTrip
	err := o.stage(ctx, StageLoad, func(ctx context.Context) error {
		var getErr error
		persisted, getErr = o.store.Get(ctx, tripID)
		if getErr != nil {
			return &GenerationError{Kind: KindPersistenceFailed, Stage: StageLoad, TripID: tripID, Err: getErr}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if persisted == nil {
		return "", &GenerationError{Kind: KindTripNotFound, Stage: StageLoad, TripID: tripID}
	}
	if persisted.HasPaymentLink() {
		return "", &GenerationError{Kind: KindPaymentAlreadyAttached, Stage: StageLoad, TripID: tripID, PaymentLink: *persisted.PaymentLink}
	}

	return o.attachPayment(ctx, tripID, &persisted.Trip, persisted.ImageURLs)
}

// attachPayment prices the trip, creates its payment link and records the
// link on the stored trip. Once the payment call has been issued the
// write-back always runs, so a cancelled caller cannot strand a live link.
func (o *Orchestrator) attachPayment(ctx context.Context, tripID string, trip *models.Trip, imageURLs []string) (string, error) {
	var amount int64
	err := o.stage(ctx, StagePrice, func(context.Context) error {
		var priceErr error
		amount, priceErr = itinerary.ParsePrice(trip.EstimatedPrice)
		if priceErr != nil {
			return &GenerationError{Kind: KindInvalidPrice, Stage: StagePrice, TripID: tripID, Err: priceErr}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := checkpoint(ctx, StagePayment, tripID); err != nil {
		return "", err
	}

	detached := context.WithoutCancel(ctx)

	var link *payment.PaymentLink
	err = o.stage(detached, StagePayment, func(ctx context.Context) error {
		var payErr error
		link, payErr = o.payments.CreatePaymentProduct(ctx, payment.PaymentProductParams{
			TripID:          tripID,
			Name:            trip.Name,
			Description:     trip.Description,
			ImageURLs:       imageURLs,
			UnitAmountCents: itinerary.ToCents(amount),
		})
		if payErr == nil && (link == nil || link.URL == "") {
			payErr = errors.New("payment provider returned no link")
		}
		if payErr != nil {
			return &GenerationError{Kind: KindPaymentSetupFailed, Stage: StagePayment, TripID: tripID, Err: payErr}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	err = o.stage(detached, StageReconcile, func(ctx context.Context) error {
		url := link.URL
		updErr := o.store.Update(ctx, tripID, store.TripPatch{PaymentLink: &url})
		if errors.Is(updErr, store.ErrPaymentLinkSet) {
			return o.linkAlreadySet(ctx, tripID, url, updErr)
		}
		if updErr != nil {
			return &GenerationError{Kind: KindPaymentLinkPersistFailed, Stage: StageReconcile, TripID: tripID, PaymentLink: url, Err: updErr}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return link.URL, nil
}

// linkAlreadySet handles a write-back that lost to another writer. The stored
// link wins and the one just minted is reported as unused.
func (o *Orchestrator) linkAlreadySet(ctx context.Context, tripID, minted string, cause error) error {
	o.logger.Warn("trip already has a payment link, discarding new one", map[string]interface{}{
		"tripId":            tripID,
		"unusedPaymentLink": minted,
	})

	persisted, getErr := o.store.Get(ctx, tripID)
	if getErr != nil || persisted == nil || !persisted.HasPaymentLink() {
		return &GenerationError{Kind: KindPaymentLinkPersistFailed, Stage: StageReconcile, TripID: tripID, PaymentLink: minted, Err: cause}
	}
	return &GenerationError{Kind: KindPaymentAlreadyAttached, Stage: StageReconcile, TripID: tripID, PaymentLink: *persisted.PaymentLink, Err: cause}
}

// searchImages never fails: any error degrades to a trip without images.
func (o *Orchestrator) searchImages(ctx context.Context, query string) []string {
	var urls []string
	_ = o.stage(ctx, StageImages, func(ctx context.Context) error {
		found, err := o.images.Search(ctx, query, o.imageLimit)
		if err != nil {
			metrics.ImageSearchFallbacks.Inc()
			o.logger.Warn("image search failed, continuing without images", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
			return err
		}
		urls = found
		return nil
	})

	if len(urls) > o.imageLimit {
		urls = urls[:o.imageLimit]
	}
	if urls == nil {
		urls = []string{}
	}
	return urls
}

func (o *Orchestrator) invalidOutput(rawText string, reasons []itinerary.Reason, cause error) *GenerationError {
	if cause == nil {
		parts := make([]string, len(reasons))
		for i, r := range reasons {
			parts[i] = r.String()
		}
		cause = fmt.Errorf("schema validation failed: %s", strings.Join(parts, "; "))
	}

	genErr := &GenerationError{Kind: KindInvalidAIOutput, Stage: StageValidate, Reasons: reasons, Err: cause}

	logged := rawText
	if len(logged) > maxLoggedAIText {
		logged = logged[:maxLoggedAIText]
	}
	o.logger.Error("AI output rejected", map[string]interface{}{
		"errorCode":   string(genErr.Code()),
		"stage":       string(genErr.Stage),
		"reasonCount": len(reasons),
		"cause":       cause.Error(),
		"rawText":     logged,
	})

	return genErr
}

// checkpoint is where a cancelled caller stops the pipeline.
func checkpoint(ctx context.Context, next Stage, tripID string) error {
	if err := ctx.Err(); err != nil {
		return &GenerationError{Kind: KindCancelled, Stage: next, TripID: tripID, Err: err}
	}
	return nil
}

// stage times fn under a child span and the stage metrics.
func (o *Orchestrator) stage(ctx context.Context, stage Stage, fn func(ctx context.Context) error) error {
	ctx, span := o.obs.StartSpan(ctx, "tripgen."+string(stage))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	metrics.TripStageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())
	o.obs.RecordStageDuration(ctx, string(stage), elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// finish ends the root span and records the outcome. Failures get one log
// entry carrying the code, stage and trip id.
func (o *Orchestrator) finish(ctx context.Context, span trace.Span, op, tripID string, err error) {
	defer span.End()

	outcome := "success"
	if err == nil {
		o.logger.Info(op+" completed", map[string]interface{}{"tripId": tripID})
	} else {
		genErr, ok := AsGenerationError(err)
		if !ok {
			genErr = &GenerationError{Err: err}
		}
		outcome = string(genErr.Code())
		failedTrip := genErr.TripID
		if failedTrip == "" {
			failedTrip = tripID
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, string(genErr.Kind))

		fields := map[string]interface{}{
			"errorCode":        outcome,
			"kind":             string(genErr.Kind),
			"stage":            string(genErr.Stage),
			"tripId":           failedTrip,
			"requiresFollowUp": genErr.RequiresFollowUp(),
			"error":            err.Error(),
		}
		if genErr.PaymentLink != "" {
			fields["paymentLink"] = genErr.PaymentLink
		}
		o.logger.Error(op+" failed", fields)
	}

	if op == opGenerate {
		metrics.TripGenerations.WithLabelValues(outcome).Inc()
	}
	o.obs.RecordTripOutcome(ctx, outcome)
}
