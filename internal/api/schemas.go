// internal/api/schemas.go
package api

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// Section patch schemas. Step screens evolve independently of this
// service, so every schema types the fields it knows about and lets
// unknown fields through untouched.
var sectionSchemas = map[string]map[string]interface{}{
	"personal": {
		"type": "object",
		"properties": map[string]interface{}{
			"fullName":    map[string]interface{}{"type": "string"},
			"firstName":   map[string]interface{}{"type": "string"},
			"lastName":    map[string]interface{}{"type": "string"},
			"email":       map[string]interface{}{"type": "string"},
			"phoneNumber": map[string]interface{}{"type": "string"},
			"phone":       map[string]interface{}{"type": "string"},
			"dob":         map[string]interface{}{"type": "string"},
			"dateOfBirth": map[string]interface{}{"type": "string"},
			"ssn":         map[string]interface{}{"type": "string"},
			"city":        map[string]interface{}{"type": "string"},
			"state":       map[string]interface{}{"type": "string"},
			"zipCode":     map[string]interface{}{"type": "string"},
			"loanAmount":  map[string]interface{}{"type": "number"},
			"loanTerm":    map[string]interface{}{"type": "number"},
		},
		"additionalProperties": true,
	},
	"income": {
		"type": "object",
		"properties": map[string]interface{}{
			"employmentStatus": map[string]interface{}{"type": "string"},
			"employerName":     map[string]interface{}{"type": "string"},
			"monthlyIncome":    map[string]interface{}{"type": "number"},
			"annualIncome":     map[string]interface{}{"type": "number"},
			"payFrequency":     map[string]interface{}{"type": "string"},
		},
		"additionalProperties": true,
	},
	"vehicle": {
		"type": "object",
		"properties": map[string]interface{}{
			"make":            map[string]interface{}{"type": "string"},
			"model":           map[string]interface{}{"type": "string"},
			"vin":             map[string]interface{}{"type": "string"},
			"odometerMileage": map[string]interface{}{"type": "number"},
			"mileage":         map[string]interface{}{"type": "number"},
		},
		"additionalProperties": true,
	},
	"coApplicant": {
		"type":                 "object",
		"additionalProperties": true,
	},
	"condition": {
		"type":                 "object",
		"additionalProperties": true,
	},
}

// validateSectionPatch checks a patch against its section schema.
// Unnamed sections are rejected outright.
func validateSectionPatch(section string, patch map[string]interface{}) error {
	schema, ok := sectionSchemas[section]
	if !ok {
		return fmt.Errorf("unknown section: %s", section)
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(patch)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("section patch invalid: %v", errs)
	}
	return nil
}
