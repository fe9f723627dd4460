package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trip-workers/internal/common/logger"
	"trip-workers/internal/models"
	"trip-workers/internal/tripgen"
)

const (
	msgGenerateFailed = "Failed to generate travel plan"
	msgPaymentFailed  = "Failed to create payment link"
	msgTripNotFound   = "Trip not found"
	msgLoadFailed     = "Failed to load trip"

	// maxBodyBytes bounds a create-trip request body.
	maxBodyBytes = 64 * 1024
)

type Handler struct {
	service TripService
	trips   TripReader
	checks  map[string]Checker
	logger  logger.Logger
}

type createTripResponse struct {
	ID string `json:"id"`
}

type paymentLinkResponse struct {
	PaymentLink string `json:"paymentLink"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) createTrip(w http.ResponseWriter, r *http.Request) {
	var req models.TripRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("invalid create-trip body", map[string]interface{}{"error": err})
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgGenerateFailed})
		return
	}

	id, err := h.service.GenerateTrip(r.Context(), req)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: msgGenerateFailed})
		return
	}

	writeJSON(w, http.StatusOK, createTripResponse{ID: id})
}

func (h *Handler) getTrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	trip, err := h.trips.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("trip lookup failed", map[string]interface{}{
			"tripId": id,
			"error":  err,
		})
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: msgLoadFailed})
		return
	}
	if trip == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: msgTripNotFound})
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

func (h *Handler) attachPaymentLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	link, err := h.service.AttachPayment(r.Context(), id)
	if err != nil {
		if genErr, ok := tripgen.AsGenerationError(err); ok {
			switch genErr.Kind {
			case tripgen.KindTripNotFound:
				writeJSON(w, http.StatusNotFound, errorResponse{Error: msgTripNotFound})
				return
			case tripgen.KindPaymentAlreadyAttached:
				writeJSON(w, http.StatusConflict, paymentLinkResponse{PaymentLink: genErr.PaymentLink})
				return
			}
		}
		writeJSON(w, statusFor(err), errorResponse{Error: msgPaymentFailed})
		return
	}

	writeJSON(w, http.StatusOK, paymentLinkResponse{PaymentLink: link})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// statusFor maps a pipeline failure to an HTTP status. The body stays generic;
// details are in the pipeline's own failure log.
func statusFor(err error) int {
	genErr, ok := tripgen.AsGenerationError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch genErr.Kind {
	case tripgen.KindInvalidRequest:
		return http.StatusBadRequest
	case tripgen.KindTripNotFound:
		return http.StatusNotFound
	case tripgen.KindPaymentAlreadyAttached:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
