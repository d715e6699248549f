package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas
var schemaFiles embed.FS

const clientSchemaURL = "https://casinoholdem.dev/schemas/client_message.json"

// Validator checks client websocket messages against the embedded schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded client message schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	data, err := schemaFiles.ReadFile("schemas/client_message.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if err := compiler.AddResource(clientSchemaURL, strings.NewReader(string(data))); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}

	schema, err := compiler.Compile(clientSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// ParseClientMessage validates raw message bytes and decodes them.
func (v *Validator) ParseClientMessage(data []byte) (ClientMessage, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return ClientMessage{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return ClientMessage{}, fmt.Errorf("schema validation failed: %w", err)
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("invalid message: %w", err)
	}
	return msg, nil
}
