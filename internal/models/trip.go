// internal/models/trip.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Interests holds one or more free-text interest tags. On the wire it may be a
// single string or an array of strings.
type Interests []string

func (i *Interests) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*i = Interests{}
		} else {
			*i = Interests{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("interests must be a string or an array of strings: %w", err)
	}
	*i = Interests(many)
	return nil
}

// String joins the tags the way they are embedded in prompts and image queries.
func (i Interests) String() string {
	return strings.Join(i, ", ")
}

// TripRequest carries the user-supplied generation parameters.
type TripRequest struct {
	Country      string    `json:"country"`
	NumberOfDays int       `json:"numberOfDays"`
	TravelStyle  string    `json:"travelStyle"`
	Interests    Interests `json:"interests"`
	Budget       string    `json:"budget"`
	GroupType    string    `json:"groupType"`
	UserID       string    `json:"userId"`
}

// Trip is a validated itinerary. Values are only built by the itinerary
// validator; an invalid candidate never becomes a Trip.
type Trip struct {
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	EstimatedPrice  string    `json:"estimatedPrice"`
	Duration        float64   `json:"duration"`
	Budget          string    `json:"budget"`
	TravelStyle     string    `json:"travelStyle"`
	Country         string    `json:"country"`
	Interests       Interests `json:"interests"`
	GroupType       string    `json:"groupType"`
	BestTimeToVisit []string  `json:"bestTimeToVisit"`
	WeatherInfo     []string  `json:"weatherInfo"`
	Location        Location  `json:"location"`
	Itinerary       []DayPlan `json:"itinerary"`
}

type Location struct {
	City          string     `json:"city"`
	Coordinates   [2]float64 `json:"coordinates"` // lat, lon
	OpenStreetMap string     `json:"openStreetMap"`
}

type DayPlan struct {
	Day        float64    `json:"day"`
	Location   string     `json:"location"`
	Activities []Activity `json:"activities"`
}

type Activity struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

// PersistedTrip is the record of truth held by the trip store.
type PersistedTrip struct {
	ID          string    `json:"id"`
	Trip        Trip      `json:"tripDetails"`
	ImageURLs   []string  `json:"imageUrls"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      string    `json:"userId"`
	PaymentLink *string   `json:"payment_link,omitempty"`
}

// HasPaymentLink reports whether the payment stage has been reconciled.
func (p *PersistedTrip) HasPaymentLink() bool {
	return p.PaymentLink != nil && *p.PaymentLink != ""
}
