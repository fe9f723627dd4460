package generatetrip

import "trip-workers/internal/common/validation"

// GetInputSchema describes the job variables a generate-trip task reads.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"country", "numberOfDays", "interests", "userId"},
		Properties: map[string]validation.Property{
			"country": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(100),
			},
			"numberOfDays": {
				Type:    "integer",
				Minimum: validation.FloatPtr(1),
			},
			"travelStyle": {Type: "string", MaxLength: validation.IntPtr(100)},
			"interests": {
				Types: []string{"string", "array"},
				Items: &validation.Property{Type: "string"},
			},
			"budget":    {Type: "string", MaxLength: validation.IntPtr(100)},
			"groupType": {Type: "string", MaxLength: validation.IntPtr(100)},
			"userId": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
			},
		},
		AdditionalProperties: true,
	}
}
