package itinerary

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCandidate(t *testing.T) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(validTripJSON), &m))
	return m
}

func itineraryDay(m map[string]interface{}, i int) map[string]interface{} {
	return m["itinerary"].([]interface{})[i].(map[string]interface{})
}

func TestValidate_Accepts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]interface{})
		check  func(t *testing.T, res ValidationResult)
	}{
		{
			name:   "complete trip",
			mutate: func(m map[string]interface{}) {},
			check: func(t *testing.T, res ValidationResult) {
				assert.Equal(t, "Tokyo Food & Temples", res.Trip.Name)
				assert.Equal(t, float64(5), res.Trip.Duration)
				assert.Len(t, res.Trip.Itinerary, 5)
				assert.Equal(t, [2]float64{35.6762, 139.6503}, res.Trip.Location.Coordinates)
				assert.Equal(t, []string{"Food & Culture", "History"}, []string(res.Trip.Interests))
			},
		},
		{
			name:   "interests as a single string",
			mutate: func(m map[string]interface{}) { m["interests"] = "Food & Culture" },
			check: func(t *testing.T, res ValidationResult) {
				assert.Equal(t, []string{"Food & Culture"}, []string(res.Trip.Interests))
			},
		},
		{
			name: "itinerary shorter than duration",
			mutate: func(m map[string]interface{}) {
				m["itinerary"] = m["itinerary"].([]interface{})[:2]
			},
			check: func(t *testing.T, res ValidationResult) {
				assert.Equal(t, float64(5), res.Trip.Duration)
				assert.Len(t, res.Trip.Itinerary, 2)
			},
		},
		{
			name: "duplicate and non-contiguous day numbers",
			mutate: func(m map[string]interface{}) {
				itineraryDay(m, 1)["day"] = float64(1)
				itineraryDay(m, 2)["day"] = float64(9)
			},
			check: func(t *testing.T, res ValidationResult) {
				assert.Equal(t, float64(1), res.Trip.Itinerary[1].Day)
				assert.Equal(t, float64(9), res.Trip.Itinerary[2].Day)
			},
		},
		{
			name: "fractional duration and day",
			mutate: func(m map[string]interface{}) {
				m["duration"] = 2.5
				itineraryDay(m, 0)["day"] = 1.5
			},
			check: func(t *testing.T, res ValidationResult) {
				assert.Equal(t, 2.5, res.Trip.Duration)
				assert.Equal(t, 1.5, res.Trip.Itinerary[0].Day)
			},
		},
		{
			name:   "empty activities array",
			mutate: func(m map[string]interface{}) { itineraryDay(m, 0)["activities"] = []interface{}{} },
		},
		{
			name:   "extra keys are ignored",
			mutate: func(m map[string]interface{}) { m["currency"] = "USD" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loadCandidate(t)
			tt.mutate(m)

			res := Validate(m)

			require.True(t, res.Valid(), "reasons: %v", res.Reasons)
			assert.Empty(t, res.Reasons)
			if tt.check != nil {
				tt.check(t, res)
			}
		})
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	required := []string{
		"name", "description", "estimatedPrice", "duration", "budget", "travelStyle",
		"country", "interests", "groupType", "bestTimeToVisit", "weatherInfo",
		"location", "itinerary",
	}

	for _, field := range required {
		t.Run(field, func(t *testing.T) {
			m := loadCandidate(t)
			delete(m, field)

			res := Validate(m)

			assert.False(t, res.Valid())
			assert.Nil(t, res.Trip)
			require.NotEmpty(t, res.Reasons)
			assert.Contains(t, joinReasons(res.Reasons), field)
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]interface{})
		field  string
	}{
		{name: "name is a number", mutate: func(m map[string]interface{}) { m["name"] = float64(7) }, field: "name"},
		{name: "estimatedPrice is a number", mutate: func(m map[string]interface{}) { m["estimatedPrice"] = float64(1200) }, field: "estimatedPrice"},
		{name: "duration is a string", mutate: func(m map[string]interface{}) { m["duration"] = "5" }, field: "duration"},
		{name: "interests is a number", mutate: func(m map[string]interface{}) { m["interests"] = float64(3) }, field: "interests"},
		{name: "interests array of numbers", mutate: func(m map[string]interface{}) { m["interests"] = []interface{}{float64(1)} }, field: "interests"},
		{name: "bestTimeToVisit is a string", mutate: func(m map[string]interface{}) { m["bestTimeToVisit"] = "spring" }, field: "bestTimeToVisit"},
		{name: "weatherInfo is an object", mutate: func(m map[string]interface{}) { m["weatherInfo"] = map[string]interface{}{} }, field: "weatherInfo"},
		{
			name: "coordinates with one element",
			mutate: func(m map[string]interface{}) {
				m["location"].(map[string]interface{})["coordinates"] = []interface{}{float64(35.6)}
			},
			field: "coordinates",
		},
		{
			name: "coordinates with three elements",
			mutate: func(m map[string]interface{}) {
				m["location"].(map[string]interface{})["coordinates"] = []interface{}{float64(1), float64(2), float64(3)}
			},
			field: "coordinates",
		},
		{
			name: "coordinates as strings",
			mutate: func(m map[string]interface{}) {
				m["location"].(map[string]interface{})["coordinates"] = []interface{}{"35.6", "139.6"}
			},
			field: "coordinates",
		},
		{
			name:   "location city missing",
			mutate: func(m map[string]interface{}) { delete(m["location"].(map[string]interface{}), "city") },
			field:  "city",
		},
		{
			name:   "location openStreetMap missing",
			mutate: func(m map[string]interface{}) { delete(m["location"].(map[string]interface{}), "openStreetMap") },
			field:  "openStreetMap",
		},
		{name: "day as a string", mutate: func(m map[string]interface{}) { itineraryDay(m, 0)["day"] = "1" }, field: "day"},
		{name: "day location missing", mutate: func(m map[string]interface{}) { delete(itineraryDay(m, 2), "location") }, field: "location"},
		{name: "activities missing", mutate: func(m map[string]interface{}) { delete(itineraryDay(m, 1), "activities") }, field: "activities"},
		{name: "activities null", mutate: func(m map[string]interface{}) { itineraryDay(m, 1)["activities"] = nil }, field: "activities"},
		{
			name: "activity time is a number",
			mutate: func(m map[string]interface{}) {
				itineraryDay(m, 0)["activities"] = []interface{}{map[string]interface{}{"time": float64(9), "description": "x"}}
			},
			field: "time",
		},
		{
			name: "activity description missing",
			mutate: func(m map[string]interface{}) {
				itineraryDay(m, 0)["activities"] = []interface{}{map[string]interface{}{"time": "Morning"}}
			},
			field: "description",
		},
		{name: "itinerary is an object", mutate: func(m map[string]interface{}) { m["itinerary"] = map[string]interface{}{} }, field: "itinerary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loadCandidate(t)
			tt.mutate(m)

			res := Validate(m)

			assert.False(t, res.Valid())
			assert.Nil(t, res.Trip)
			require.NotEmpty(t, res.Reasons)
			assert.Contains(t, joinReasons(res.Reasons), tt.field)
		})
	}
}

func TestValidate_NonObjectTopLevel(t *testing.T) {
	for _, candidate := range []interface{}{nil, "trip", float64(1), []interface{}{}} {
		res := Validate(candidate)
		assert.False(t, res.Valid())
		assert.NotEmpty(t, res.Reasons)
	}
}

func TestParseTrip(t *testing.T) {
	t.Run("valid text", func(t *testing.T) {
		trip, reasons, err := ParseTrip("```json\n" + validTripJSON + "\n```")
		require.NoError(t, err)
		assert.Empty(t, reasons)
		require.NotNil(t, trip)
		assert.Equal(t, "Japan", trip.Country)
	})

	t.Run("schema rejection", func(t *testing.T) {
		trip, reasons, err := ParseTrip(`{"name": "Only a name"}`)
		require.NoError(t, err)
		assert.Nil(t, trip)
		assert.NotEmpty(t, reasons)
	})

	t.Run("extraction failure", func(t *testing.T) {
		trip, reasons, err := ParseTrip("no json here")
		assert.ErrorIs(t, err, ErrExtraction)
		assert.Nil(t, trip)
		assert.Nil(t, reasons)
	})
}

func joinReasons(reasons []Reason) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = r.String()
	}
	return strings.Join(parts, "; ")
}
