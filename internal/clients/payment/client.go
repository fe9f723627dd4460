// Package payment mints Stripe payment links for persisted trips.
package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"trip-workers/internal/common/logger"
)

// Stripe caps product images at eight.
const maxProductImages = 8

var (
	ErrPaymentProvider = errors.New("PAYMENT_PROVIDER_ERROR")
	ErrInvalidParams   = errors.New("PAYMENT_INVALID_PARAMS")
)

type Config struct {
	SecretKey string
	// APIURL overrides the Stripe endpoint; empty uses api.stripe.com.
	APIURL   string
	Currency string
	// SiteURL is the public site root used to build the post-payment redirect.
	SiteURL string
	Timeout time.Duration
}

// PaymentProductParams describes the product to sell for one trip.
type PaymentProductParams struct {
	TripID          string
	Name            string
	Description     string
	ImageURLs       []string
	UnitAmountCents int64
}

// PaymentLink is the hosted checkout created for a trip.
type PaymentLink struct {
	ID        string
	URL       string
	ProductID string
	PriceID   string
}

type Client struct {
	config *Config
	api    *client.API
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: config.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &leveledLogger{log: log},
	}
	if config.APIURL != "" {
		backendCfg.URL = stripe.String(strings.TrimRight(config.APIURL, "/"))
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg)

	return &Client{
		config: config,
		api: client.New(config.SecretKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
		logger: log.With(map[string]interface{}{"adapter": "stripe"}),
	}
}

// RedirectURL is where the buyer lands after paying for tripID.
func (c *Client) RedirectURL(tripID string) string {
	return fmt.Sprintf("%s/travel/%s/success", strings.TrimRight(c.config.SiteURL, "/"), tripID)
}

// CreatePaymentProduct creates a product, a one-off price and a payment link
// carrying the trip id as metadata and in the redirect path. Objects created
// before a failing step are left in Stripe.
func (c *Client) CreatePaymentProduct(ctx context.Context, params PaymentProductParams) (*PaymentLink, error) {
	if params.TripID == "" || params.Name == "" || params.UnitAmountCents <= 0 {
		return nil, fmt.Errorf("%w: trip id, name and positive amount are required", ErrInvalidParams)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	images := params.ImageURLs
	if len(images) > maxProductImages {
		images = images[:maxProductImages]
	}

	productParams := &stripe.ProductParams{
		Name:   stripe.String(params.Name),
		Images: stripe.StringSlice(images),
	}
	if params.Description != "" {
		productParams.Description = stripe.String(params.Description)
	}
	productParams.AddMetadata("tripId", params.TripID)
	productParams.Context = ctx

	product, err := c.api.Products.New(productParams)
	if err != nil {
		return nil, fmt.Errorf("%w: create product: %v", ErrPaymentProvider, err)
	}

	priceParams := &stripe.PriceParams{
		Product:    stripe.String(product.ID),
		UnitAmount: stripe.Int64(params.UnitAmountCents),
		Currency:   stripe.String(c.config.Currency),
	}
	priceParams.Context = ctx

	price, err := c.api.Prices.New(priceParams)
	if err != nil {
		return nil, fmt.Errorf("%w: create price for product %s: %v", ErrPaymentProvider, product.ID, err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(price.ID), Quantity: stripe.Int64(1)},
		},
		AfterCompletion: &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String(string(stripe.PaymentLinkAfterCompletionTypeRedirect)),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(c.RedirectURL(params.TripID)),
			},
		},
	}
	linkParams.AddMetadata("tripId", params.TripID)
	linkParams.Context = ctx

	link, err := c.api.PaymentLinks.New(linkParams)
	if err != nil {
		return nil, fmt.Errorf("%w: create payment link for price %s: %v", ErrPaymentProvider, price.ID, err)
	}

	c.logger.Info("payment link created", map[string]interface{}{
		"tripId":    params.TripID,
		"productId": product.ID,
		"priceId":   price.ID,
		"linkId":    link.ID,
	})

	return &PaymentLink{
		ID:        link.ID,
		URL:       link.URL,
		ProductID: product.ID,
		PriceID:   price.ID,
	}, nil
}

// leveledLogger routes stripe-go's internal logging through our logger.
type leveledLogger struct {
	log logger.Logger
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...), nil)
}

func (l *leveledLogger) Infof(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...), nil)
}

func (l *leveledLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, v...), nil)
}

func (l *leveledLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...), nil)
}
