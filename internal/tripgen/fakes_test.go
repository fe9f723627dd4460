package tripgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trip-workers/internal/clients/payment"
	"trip-workers/internal/models"
	"trip-workers/internal/store"
)

// ==========================
// Fakes
// ==========================

type fakeGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	calls   int
	prompt  string
	ctxErr  error
	started chan struct{}
	release chan struct{}
	// waitFor makes Generate wait until the channel is closed or a second passes.
	waitFor chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.prompt = prompt
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	if f.waitFor != nil {
		select {
		case <-f.waitFor:
		case <-time.After(time.Second):
			return "", errors.New("image search never started")
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	return f.text, f.err
}

func (f *fakeGenerator) snapshot() (calls int, prompt string, ctxErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.prompt, f.ctxErr
}

type fakeImages struct {
	mu      sync.Mutex
	urls    []string
	err     error
	calls   int
	query   string
	limit   int
	started chan struct{}
	waitFor chan struct{}
}

func (f *fakeImages) Search(ctx context.Context, query string, limit int) ([]string, error) {
	f.mu.Lock()
	f.calls++
	f.query = query
	f.limit = limit
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.waitFor != nil {
		select {
		case <-f.waitFor:
		case <-time.After(time.Second):
			return nil, errors.New("generation never started")
		}
	}
	return f.urls, f.err
}

type fakePayments struct {
	mu      sync.Mutex
	link    *payment.PaymentLink
	err     error
	calls   int
	params  payment.PaymentProductParams
	ctxErr  error
	started chan struct{}
	release chan struct{}
}

func (f *fakePayments) CreatePaymentProduct(ctx context.Context, params payment.PaymentProductParams) (*payment.PaymentLink, error) {
	f.mu.Lock()
	f.calls++
	f.params = params
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return nil, f.err
	}
	if f.link != nil {
		return f.link, nil
	}
	return &payment.PaymentLink{
		ID:  "plink_" + params.TripID,
		URL: "https://buy.stripe.com/" + params.TripID,
	}, nil
}

func (f *fakePayments) snapshot() (int, payment.PaymentProductParams, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.params, f.ctxErr
}

// memStore is an in-memory TripStore.
type memStore struct {
	mu        sync.Mutex
	trips     map[string]*models.PersistedTrip
	seq       int
	createErr error
	updateErr error
	getErr    error
	// beforeUpdate runs ahead of each Update, outside the lock.
	beforeUpdate func()
}

func newMemStore() *memStore {
	return &memStore{trips: map[string]*models.PersistedTrip{}}
}

func (s *memStore) Create(_ context.Context, trip store.NewTrip) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}

	s.seq++
	id := fmt.Sprintf("trip-%d", s.seq)
	s.trips[id] = &models.PersistedTrip{
		ID:        id,
		Trip:      trip.Trip,
		ImageURLs: append([]string{}, trip.ImageURLs...),
		CreatedAt: trip.CreatedAt,
		UserID:    trip.UserID,
	}
	return id, nil
}

func (s *memStore) Update(_ context.Context, id string, patch store.TripPatch) error {
	if s.beforeUpdate != nil {
		s.beforeUpdate()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}

	pt, ok := s.trips[id]
	if !ok {
		return store.ErrTripNotFound
	}
	if patch.PaymentLink != nil {
		if pt.PaymentLink != nil {
			return store.ErrPaymentLinkSet
		}
		link := *patch.PaymentLink
		pt.PaymentLink = &link
	}
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*models.PersistedTrip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}

	pt, ok := s.trips[id]
	if !ok {
		return nil, nil
	}
	cp := *pt
	return &cp, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trips)
}

func (s *memStore) put(pt *models.PersistedTrip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[pt.ID] = pt
}
