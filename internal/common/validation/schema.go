// Package validation checks server response payloads against JSON schemas at
// the client boundary, so a malformed body surfaces as one structured error
// instead of a zero-valued struct leaking into the submission flow.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ApplicationSchema describes the minimum shape of a created or fetched
// application record.
var ApplicationSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"id", "program", "status"},
	"properties": map[string]interface{}{
		"id":      map[string]interface{}{"type": "integer"},
		"program": map[string]interface{}{"type": "integer"},
		"status": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"pending", "under_review", "approved", "rejected"},
		},
	},
}

// DocumentSchema describes the minimum shape of an uploaded document record.
var DocumentSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"id"},
	"properties": map[string]interface{}{
		"id": map[string]interface{}{"type": "integer"},
	},
}

// DocumentTypeSchema describes one entry of the document-type listing.
var DocumentTypeSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"id", "name"},
	"properties": map[string]interface{}{
		"id":          map[string]interface{}{"type": "integer"},
		"name":        map[string]interface{}{"type": "string"},
		"is_required": map[string]interface{}{"type": "boolean"},
	},
}

// CheckShape validates a decoded JSON document against a schema map.
func CheckShape(schemaMap map[string]interface{}, data interface{}) error {
	if len(schemaMap) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("response shape validation failed: %v", errs)
	}

	return nil
}
