// Package facts validates caller-supplied business facts against an embedded
// JSON schema before any generator sees them.
package facts

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"github.com/pagelift/pagelift/internal/models"
)

//go:embed schema/business_facts.schema.json
var schemaJSON []byte

// Validator holds the compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded schema. Compilation failure means the
// embedded schema itself is broken, so this only errors on a bad build.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile business facts schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks raw JSON against the schema.
func (v *Validator) Validate(data []byte) error {
	result := v.schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("business facts validation failed: %v", result.Errors)
}

// Parse validates and decodes business facts in one step.
func (v *Validator) Parse(data []byte) (*models.BusinessFacts, error) {
	if err := v.Validate(data); err != nil {
		return nil, err
	}
	var f models.BusinessFacts
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode business facts: %w", err)
	}
	return &f, nil
}
