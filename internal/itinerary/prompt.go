package itinerary

import (
	"fmt"
	"regexp"
	"strings"

	"trip-workers/internal/models"
)

// outputTemplate is fixed; request values never appear inside it.
const outputTemplate = `Return the itinerary and lowest estimated price in a clean, non-markdown JSON format with the following structure:
{
  "name": "A descriptive title for the trip",
  "description": "A brief description of the trip and its highlights not exceeding 100 words",
  "estimatedPrice": "Lowest average price for the trip in USD, e.g.$price",
  "duration": <number of days as an integer>,
  "budget": "<budget from the request>",
  "travelStyle": "<travel style from the request>",
  "country": "<country from the request>",
  "interests": ["<each interest from the request>"],
  "groupType": "<group type from the request>",
  "bestTimeToVisit": [
    "🌸 Season (from month to month): reason to visit",
    "☀️ Season (from month to month): reason to visit",
    "🍁 Season (from month to month): reason to visit",
    "❄️ Season (from month to month): reason to visit"
  ],
  "weatherInfo": [
    "☀️ Season: temperature range in Celsius (temperature range in Fahrenheit)",
    "🌦️ Season: temperature range in Celsius (temperature range in Fahrenheit)",
    "🌧️ Season: temperature range in Celsius (temperature range in Fahrenheit)",
    "❄️ Season: temperature range in Celsius (temperature range in Fahrenheit)"
  ],
  "location": {
    "city": "name of the city or region",
    "coordinates": [latitude, longitude],
    "openStreetMap": "link to open street map"
  },
  "itinerary": [
    {
      "day": 1,
      "location": "City/Region Name",
      "activities": [
        {"time": "Morning", "description": "🏰 Visit the local historic castle and enjoy a scenic walk"},
        {"time": "Afternoon", "description": "🖼️ Explore a famous art museum with a guided tour"},
        {"time": "Evening", "description": "🍷 Dine at a rooftop restaurant with local wine"}
      ]
    }
  ]
}
Include exactly one entry in "itinerary" per day.`

var whitespaceRun = regexp.MustCompile(`\s+`)

// requestValue flattens user text onto one line so it cannot open new prompt
// sections.
func requestValue(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// BuildPrompt renders the generation prompt for a request. The output is a pure
// function of the request.
func BuildPrompt(req models.TripRequest) string {
	interests := make([]string, 0, len(req.Interests))
	for _, in := range req.Interests {
		interests = append(interests, requestValue(in))
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("Generate a %d-day travel itinerary for %s based on the following user information:",
		req.NumberOfDays, requestValue(req.Country)))
	parts = append(parts, fmt.Sprintf("Budget: '%s'", requestValue(req.Budget)))
	parts = append(parts, fmt.Sprintf("Interests: '%s'", strings.Join(interests, ", ")))
	parts = append(parts, fmt.Sprintf("TravelStyle: '%s'", requestValue(req.TravelStyle)))
	parts = append(parts, fmt.Sprintf("GroupType: '%s'", requestValue(req.GroupType)))
	parts = append(parts, outputTemplate)

	return strings.Join(parts, "\n")
}

// ImageQuery derives the image search query from country, interests and travel
// style.
func ImageQuery(req models.TripRequest) string {
	query := strings.Join([]string{req.Country, req.Interests.String(), req.TravelStyle}, " ")
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(query), " ")
}
