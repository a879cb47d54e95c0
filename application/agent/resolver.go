package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"webpilot-go/domain/action"
	"webpilot-go/domain/prompt"
	"webpilot-go/infrastructure/oracle"
)

const resolutionSchemaName = "element_choice"

type resolution struct {
	SelectedElementIdx *int `json:"selected_element_idx"`
}

// ElementResolver maps a free-text target onto one descriptor index.
type ElementResolver struct {
	oracle oracle.Client
	prompt *prompt.Prompt
	schema *oracle.Schema
}

// NewElementResolver creates a resolver using the resolve prompt.
func NewElementResolver(client oracle.Client, prompts *prompt.Registry) (*ElementResolver, error) {
	p, err := prompts.Require(prompt.NameResolve)
	if err != nil {
		return nil, err
	}
	return &ElementResolver{
		oracle: client,
		prompt: p,
		schema: oracle.Object(oracle.Property{
			Name:   "selected_element_idx",
			Schema: oracle.Integer("The idx of the best matching element."),
		}),
	}, nil
}

// Resolve returns the index in descriptors that best matches target.
// An index outside [0, len(descriptors)) is an error, never clamped.
func (r *ElementResolver) Resolve(ctx context.Context, target string, descriptors []action.Descriptor) (int, error) {
	instruction, err := r.prompt.Render(map[string]string{"Target": target})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", action.ErrResolution, err)
	}

	list, err := json.Marshal(descriptors)
	if err != nil {
		return 0, fmt.Errorf("%w: encode descriptors: %w", action.ErrResolution, err)
	}

	req := &oracle.Request{
		Instruction: instruction,
		Text:        "Elements: " + string(list),
		Schema:      r.schema,
		SchemaName:  resolutionSchemaName,
	}

	var res resolution
	if err := r.oracle.Submit(ctx, req, &res); err != nil {
		return 0, fmt.Errorf("%w: %w", action.ErrResolution, err)
	}

	if res.SelectedElementIdx == nil {
		return 0, fmt.Errorf("%w: %w: no selected_element_idx", action.ErrResolution, oracle.ErrMalformed)
	}
	idx := *res.SelectedElementIdx
	if idx < 0 || idx >= len(descriptors) {
		return 0, fmt.Errorf("%w: index %d out of range [0, %d)", action.ErrResolution, idx, len(descriptors))
	}
	return idx, nil
}
