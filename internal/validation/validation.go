// Package validation checks request bodies against JSON schemas before
// they are decoded into models.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

var ErrUnknownSchema = errors.New("unknown schema")

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries every schema violation of one document.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type Validator struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// New compiles the given schemas. Schemas are plain Go maps in JSON schema
// draft 7 form.
func New(schemas map[string]map[string]interface{}) (*Validator, error) {
	v := &Validator{schemas: make(map[string]*gojsonschema.Schema, len(schemas))}
	for name, s := range schemas {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = compiled
	}
	return v, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns the validator holding the request schemas of the API.
func Default() *Validator {
	defaultOnce.Do(func() {
		v, err := New(requestSchemas)
		if err != nil {
			panic(err)
		}
		defaultValidator = v
	})
	return defaultValidator
}

// Validate checks a raw JSON document. Malformed JSON is reported as a
// violation of the body itself.
func (v *Validator) Validate(name string, body []byte) error {
	v.mu.RLock()
	schema, ok := v.schemas[name]
	v.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &Error{Fields: []FieldError{{Field: "(root)", Message: "body is not valid JSON"}}}
	}
	if result.Valid() {
		return nil
	}

	fields := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
				if parent := desc.Field(); parent != "(root)" {
					field = parent + "." + p
				}
			}
		}
		fields = append(fields, FieldError{Field: field, Message: desc.Description()})
	}
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &Error{Fields: fields}
}
