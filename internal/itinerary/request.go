package itinerary

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"trip-workers/internal/models"
)

var ErrInvalidRequest = errors.New("INVALID_TRIP_REQUEST")

// ValidateRequest checks a TripRequest before any external call is made.
func ValidateRequest(req *models.TripRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Country, validation.Required),
		validation.Field(&req.NumberOfDays, validation.Required, validation.Min(1)),
		validation.Field(&req.Interests, validation.Required, validation.Each(validation.Required)),
		validation.Field(&req.UserID, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}
