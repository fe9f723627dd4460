package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() JSONSchema {
	return JSONSchema{
		Type:     "object",
		Required: []string{"country", "numberOfDays"},
		Properties: map[string]Property{
			"country":      {Type: "string", MinLength: IntPtr(1)},
			"numberOfDays": {Type: "integer", Minimum: FloatPtr(1)},
			"interests": {
				Types: []string{"string", "array"},
				Items: &Property{Type: "string"},
			},
			"tripId": {Type: "string", Pattern: StringPtr(`^[0-9a-f-]{36}$`)},
		},
		AdditionalProperties: true,
	}
}

func decode(t *testing.T, raw string) map[string]interface{} {
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &vars))
	return vars
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		valid        bool
		failedFields []string
	}{
		{
			name:  "valid with interest list",
			input: `{"country":"Japan","numberOfDays":3,"interests":["Food","Art"],"otherTaskVar":true}`,
			valid: true,
		},
		{
			name:  "valid with comma separated interests",
			input: `{"country":"Japan","numberOfDays":3,"interests":"Food, Art"}`,
			valid: true,
		},
		{
			name:         "missing required fields",
			input:        `{"interests":["Food"]}`,
			failedFields: []string{"country", "numberOfDays"},
		},
		{
			name:         "fractional day count",
			input:        `{"country":"Japan","numberOfDays":2.5}`,
			failedFields: []string{"numberOfDays"},
		},
		{
			name:         "zero days",
			input:        `{"country":"Japan","numberOfDays":0}`,
			failedFields: []string{"numberOfDays"},
		},
		{
			name:         "blank country",
			input:        `{"country":"   ","numberOfDays":2}`,
			failedFields: []string{"country"},
		},
		{
			name:         "non-string interest",
			input:        `{"country":"Japan","numberOfDays":2,"interests":["Food",3]}`,
			failedFields: []string{"interests"},
		},
		{
			name:         "bad trip id",
			input:        `{"country":"Japan","numberOfDays":2,"tripId":"abc"}`,
			failedFields: []string{"tripId"},
		},
		{
			name:         "null required field",
			input:        `{"country":null,"numberOfDays":2}`,
			failedFields: []string{"country"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateInput(decode(t, tt.input), testSchema())

			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
			for _, field := range tt.failedFields {
				assert.True(t, result.HasErrors(field), "expected error on %s", field)
			}
		})
	}
}

func TestValidateInput_RejectsExtraFields(t *testing.T) {
	schema := testSchema()
	schema.AdditionalProperties = false

	result := ValidateInput(decode(t, `{"country":"Japan","numberOfDays":2,"extra":1}`), schema)

	assert.False(t, result.Valid)
	assert.True(t, result.HasErrors("extra"))
	assert.Equal(t, "EXTRA_FIELD", result.Errors[0].Code)
}
