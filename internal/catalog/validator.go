package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/machine-catalog-v1.json
var machineCatalogSchemaJSON string

// MachineDefinition describes one machine/process station on the floor.
type MachineDefinition struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Stages      []string `json:"stages,omitempty"`
}

type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("machine-catalog-v1.json",
		strings.NewReader(machineCatalogSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("machine-catalog-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

func (v *Validator) ValidateDefinition(data []byte) error {
	var def interface{}
	if err := json.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := v.schema.Validate(def); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}
