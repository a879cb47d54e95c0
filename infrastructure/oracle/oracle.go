// Package oracle provides clients for vision-capable reasoning services that
// answer with schema-constrained JSON.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Common oracle errors.
var (
	ErrUnavailable   = errors.New("oracle service is currently unavailable")
	ErrEmptyResponse = errors.New("oracle returned an empty response")
	ErrMalformed     = errors.New("oracle response does not match schema")
)

// Client submits a structured request to a reasoning service.
type Client interface {
	// Submit sends req and decodes the structured answer into out.
	// The answer must carry every required property of req.Schema with a
	// non-null value; unknown fields are rejected.
	Submit(ctx context.Context, req *Request, out any) error
}

// Request is one structured query.
type Request struct {
	// Instruction is the system instruction.
	Instruction string

	// Text is the user message.
	Text string

	// Image is an optional picture attached to the user message.
	Image *Image

	// Schema constrains the response.
	Schema *Schema

	// SchemaName names the schema for services that require one.
	SchemaName string
}

// Image is an encoded picture.
type Image struct {
	Data     []byte
	MIMEType string
}

// Validate checks that the request can be sent.
func (r *Request) Validate() error {
	if r == nil {
		return errors.New("nil request")
	}
	if strings.TrimSpace(r.Text) == "" && r.Image == nil {
		return errors.New("request has no content")
	}
	if r.Schema == nil {
		return errors.New("request has no response schema")
	}
	if r.Image != nil && len(r.Image.Data) == 0 {
		return errors.New("request image is empty")
	}
	return nil
}

func (r *Request) schemaName() string {
	if r.SchemaName != "" {
		return r.SchemaName
	}
	return "response"
}

// decodeStrict decodes a structured answer, rejecting unknown fields,
// trailing data, and required properties of schema that are absent or null.
func decodeStrict(text string, schema *Schema, out any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyResponse
	}

	if err := checkRequired(text, schema); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON value", ErrMalformed)
	}
	return nil
}

func checkRequired(text string, schema *Schema) error {
	if schema == nil || schema.Type != TypeObject {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(strings.NewReader(text)).Decode(&fields); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: expected an object, got null", ErrMalformed)
	}
	for _, name := range schema.Required {
		raw, ok := fields[name]
		if !ok {
			return fmt.Errorf("%w: missing required property %q", ErrMalformed, name)
		}
		if string(bytes.TrimSpace(raw)) == "null" {
			return fmt.Errorf("%w: required property %q is null", ErrMalformed, name)
		}
	}
	return nil
}
