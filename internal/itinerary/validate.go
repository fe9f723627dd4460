package itinerary

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"

	"trip-workers/internal/models"
)

var compiledTripSchema = mustCompileSchema(tripSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("itinerary: invalid trip schema: %v", err))
	}
	return schema
}

// Reason describes one structural rule a candidate broke.
type Reason struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (r Reason) String() string {
	return fmt.Sprintf("%s: %s", r.Field, r.Message)
}

// ValidationResult holds either a Trip or the reasons the candidate was
// rejected, never both.
type ValidationResult struct {
	Trip    *models.Trip
	Reasons []Reason
}

func (r ValidationResult) Valid() bool {
	return r.Trip != nil
}

// Validate checks a parsed candidate against the trip shape. It never fails on
// well-formed input; rejection is reported through the result.
func Validate(candidate interface{}) ValidationResult {
	result, err := compiledTripSchema.Validate(gojsonschema.NewGoLoader(candidate))
	if err != nil {
		return reject(Reason{Field: "(root)", Rule: "document", Message: err.Error()})
	}

	if !result.Valid() {
		reasons := make([]Reason, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			reasons = append(reasons, Reason{
				Field:   e.Field(),
				Rule:    e.Type(),
				Message: e.Description(),
			})
		}
		sort.SliceStable(reasons, func(i, j int) bool {
			return reasons[i].Field < reasons[j].Field
		})
		return ValidationResult{Reasons: reasons}
	}

	raw, err := json.Marshal(candidate)
	if err != nil {
		return reject(Reason{Field: "(root)", Rule: "encode", Message: err.Error()})
	}

	var trip models.Trip
	if err := json.Unmarshal(raw, &trip); err != nil {
		return reject(Reason{Field: "(root)", Rule: "decode", Message: err.Error()})
	}

	return ValidationResult{Trip: &trip}
}

func reject(r Reason) ValidationResult {
	return ValidationResult{Reasons: []Reason{r}}
}

// ParseTrip runs extraction then validation on raw AI text.
func ParseTrip(text string) (*models.Trip, []Reason, error) {
	candidate, err := ExtractJSON(text)
	if err != nil {
		return nil, nil, err
	}

	res := Validate(candidate)
	if !res.Valid() {
		return nil, res.Reasons, nil
	}
	return res.Trip, nil, nil
}
