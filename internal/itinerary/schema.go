package itinerary

// tripSchema is the structural contract for AI output. Itinerary length is not
// tied to duration, and day numbers may repeat, skip or be fractional.
const tripSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "name", "description", "estimatedPrice", "duration", "budget", "travelStyle",
    "country", "interests", "groupType", "bestTimeToVisit", "weatherInfo",
    "location", "itinerary"
  ],
  "properties": {
    "name":           { "type": "string" },
    "description":    { "type": "string" },
    "estimatedPrice": { "type": "string" },
    "duration":       { "type": "number" },
    "budget":         { "type": "string" },
    "travelStyle":    { "type": "string" },
    "country":        { "type": "string" },
    "interests": {
      "oneOf": [
        { "type": "string" },
        { "type": "array", "items": { "type": "string" } }
      ]
    },
    "groupType":       { "type": "string" },
    "bestTimeToVisit": { "type": "array", "items": { "type": "string" } },
    "weatherInfo":     { "type": "array", "items": { "type": "string" } },
    "location": {
      "type": "object",
      "required": ["city", "coordinates", "openStreetMap"],
      "properties": {
        "city": { "type": "string" },
        "coordinates": {
          "type": "array",
          "minItems": 2,
          "maxItems": 2,
          "items": { "type": "number" }
        },
        "openStreetMap": { "type": "string" }
      }
    },
    "itinerary": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["day", "location", "activities"],
        "properties": {
          "day":      { "type": "number" },
          "location": { "type": "string" },
          "activities": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["time", "description"],
              "properties": {
                "time":        { "type": "string" },
                "description": { "type": "string" }
              }
            }
          }
        }
      }
    }
  }
}`
