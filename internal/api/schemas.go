package api

import (
	"fmt"
	"strings"

	"agrichat/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Request body schemas, compiled once at process start.
var (
	startSessionSchema = mustCompile(`{
		"type": "object",
		"properties": {
			"context": {
				"type": "object",
				"properties": {
					"soilType":   {"type": "string"},
					"experience": {"type": "string", "enum": ["beginner", "intermediate", "expert"]},
					"farmSize":   {"type": "number", "minimum": 0},
					"location": {
						"type": "object",
						"properties": {"address": {"type": "string"}},
						"required": ["address"]
					},
					"cropPreferences": {"type": "array", "items": {"type": "string"}}
				},
				"additionalProperties": false
			}
		},
		"additionalProperties": false
	}`)

	sendMessageSchema = mustCompile(`{
		"type": "object",
		"properties": {
			"message": {"type": "string", "minLength": 1, "maxLength": 1000}
		},
		"required": ["message"],
		"additionalProperties": false
	}`)

	feedbackSchema = mustCompile(`{
		"type": "object",
		"properties": {
			"rating": {"type": "integer", "minimum": 1, "maximum": 5}
		},
		"required": ["rating"],
		"additionalProperties": false
	}`)
)

func mustCompile(schema string) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return compiled
}

// validateBody checks a raw JSON body against a schema, reporting all schema
// violations in one validation error.
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errors.NewValidationError(fmt.Sprintf("malformed JSON body: %v", err))
	}
	if !result.Valid() {
		details := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			details[i] = desc.String()
		}
		return errors.NewValidationError(strings.Join(details, "; "))
	}
	return nil
}
