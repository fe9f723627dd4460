package attachpaymentlink

import "trip-workers/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"tripId"},
		Properties: map[string]validation.Property{
			"tripId": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(64),
			},
		},
		AdditionalProperties: true,
	}
}
