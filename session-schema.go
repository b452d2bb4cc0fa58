package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	log "github.com/sirupsen/logrus"
)

// LoadMinimumSchema reads the minimum object schema for one charge session
// from disk and compiles it wrapped as an array-of-objects contract. File and
// parse errors propagate verbatim so callers see the root cause.
func LoadMinimumSchema(path string) (*jsonschema.Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Errorf("minimum schema not found at %s: %s", path, err.Error())
		return nil, err
	}
	objectSchema, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		log.Errorf("error reading minimum schema at %s: %s", path, err.Error())
		return nil, err
	}

	arraySchema := map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "array",
		"items":   objectSchema,
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ohme_minimum_schema.json", arraySchema); err != nil {
		log.Errorf("error building array schema: %s", err.Error())
		return nil, err
	}
	schema, err := compiler.Compile("ohme_minimum_schema.json")
	if err != nil {
		log.Errorf("error compiling array schema: %s", err.Error())
		return nil, err
	}
	return schema, nil
}

// ValidateSessions checks the payload against the minimum-shape contract and
// returns the validated array unchanged. No coercion, no defaulting.
func ValidateSessions(schema *jsonschema.Schema, payload any) ([]ChargeSession, error) {
	if err := schema.Validate(payload); err != nil {
		log.Errorf("Schema validation failed: %s", err.Error())
		return nil, &SchemaValidationError{Detail: err.Error(), Err: err}
	}
	items, ok := payload.([]any)
	if !ok {
		return nil, &SchemaValidationError{Detail: fmt.Sprintf("%T is not an array", payload)}
	}
	sessions := make([]ChargeSession, 0, len(items))
	for _, item := range items {
		obj, _ := item.(map[string]any)
		sessions = append(sessions, ChargeSession(obj))
	}
	return sessions, nil
}
