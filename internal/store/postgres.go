// Package store persists generated trips in Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"trip-workers/internal/common/database"
	"trip-workers/internal/common/logger"
	"trip-workers/internal/models"
)

var (
	ErrStoreUnavailable = errors.New("TRIP_STORE_UNAVAILABLE")
	ErrTripNotFound     = errors.New("TRIP_NOT_FOUND")
	ErrEmptyPatch       = errors.New("TRIP_PATCH_EMPTY")
	// ErrPaymentLinkSet is returned when the trip already carries a payment
	// link. A link is written at most once.
	ErrPaymentLinkSet = errors.New("TRIP_PAYMENT_LINK_SET")
)

const (
	insertTripSQL = `INSERT INTO trips (id, user_id, trip_details, image_urls, created_at)
VALUES ($1, $2, $3, $4, $5)`

	updatePaymentLinkSQL = `UPDATE trips SET payment_link = $2 WHERE id = $1 AND payment_link IS NULL`

	tripExistsSQL = `SELECT EXISTS (SELECT 1 FROM trips WHERE id = $1)`

	selectTripSQL = `SELECT id, user_id, trip_details, image_urls, created_at, payment_link
FROM trips WHERE id = $1`
)

// NewTrip is the initial record written after validation and image lookup.
type NewTrip struct {
	Trip      models.Trip
	ImageURLs []string
	UserID    string
	CreatedAt time.Time
}

// TripPatch lists the fields an update may change. Nil fields are untouched.
type TripPatch struct {
	PaymentLink *string
}

type PostgresStore struct {
	db     *database.PostgresClient
	logger logger.Logger
	now    func() time.Time
}

func NewPostgresStore(db *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.With(map[string]interface{}{"adapter": "trip-store"}),
		now:    time.Now,
	}
}

// Create inserts trip and returns its generated id.
func (s *PostgresStore) Create(ctx context.Context, trip NewTrip) (string, error) {
	details, err := json.Marshal(trip.Trip)
	if err != nil {
		return "", fmt.Errorf("encode trip details: %w", err)
	}

	createdAt := trip.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	imageURLs := trip.ImageURLs
	if imageURLs == nil {
		imageURLs = []string{}
	}

	id := uuid.NewString()
	if _, err := s.db.Exec(ctx, insertTripSQL, id, trip.UserID, details, pq.Array(imageURLs), createdAt.UTC()); err != nil {
		return "", fmt.Errorf("%w: insert trip: %v", ErrStoreUnavailable, err)
	}

	s.logger.Debug("trip created", map[string]interface{}{"tripId": id, "imageCount": len(imageURLs)})
	return id, nil
}

// Update applies patch to the trip with id. Setting a payment link on a trip
// that already has one fails with ErrPaymentLinkSet and leaves it unchanged.
func (s *PostgresStore) Update(ctx context.Context, id string, patch TripPatch) error {
	if patch.PaymentLink == nil {
		return ErrEmptyPatch
	}

	res, err := s.db.Exec(ctx, updatePaymentLinkSQL, id, *patch.PaymentLink)
	if err != nil {
		return fmt.Errorf("%w: update trip %s: %v", ErrStoreUnavailable, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update trip %s: %v", ErrStoreUnavailable, id, err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, tripExistsSQL, id).Scan(&exists); err != nil {
		return fmt.Errorf("%w: check trip %s: %v", ErrStoreUnavailable, id, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTripNotFound, id)
	}
	return fmt.Errorf("%w: %s", ErrPaymentLinkSet, id)
}

// Get returns nil, nil when no trip has id.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.PersistedTrip, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var (
		pt          models.PersistedTrip
		details     []byte
		imageURLs   pq.StringArray
		paymentLink sql.NullString
	)

	err := s.db.QueryRow(ctx, selectTripSQL, id).
		Scan(&pt.ID, &pt.UserID, &details, &imageURLs, &pt.CreatedAt, &paymentLink)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load trip %s: %v", ErrStoreUnavailable, id, err)
	}

	if err := json.Unmarshal(details, &pt.Trip); err != nil {
		return nil, fmt.Errorf("decode trip %s details: %w", id, err)
	}
	pt.ImageURLs = []string(imageURLs)
	if pt.ImageURLs == nil {
		pt.ImageURLs = []string{}
	}
	if paymentLink.Valid {
		link := paymentLink.String
		pt.PaymentLink = &link
	}
	return &pt, nil
}
