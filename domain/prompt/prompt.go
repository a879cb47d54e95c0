// Package prompt defines the system instructions sent to the reasoning service.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Well-known prompt names.
const (
	NameDecide  = "decide"
	NameResolve = "resolve"
)

// Prompt is a named system instruction template.
type Prompt struct {
	// Name is the unique identifier for this prompt
	Name string

	// Description explains where the prompt is used
	Description string

	// Version is the prompt version for tracking changes
	Version string

	// Instruction is the template text, rendered with text/template
	Instruction string

	tmpl *template.Template
}

// New parses the instruction template and returns a ready prompt.
func New(name, description, version, instruction string) (*Prompt, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(instruction)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt %s: %w", name, err)
	}
	return &Prompt{
		Name:        name,
		Description: description,
		Version:     version,
		Instruction: instruction,
		tmpl:        tmpl,
	}, nil
}

// Render executes the instruction template with data.
func (p *Prompt) Render(data any) (string, error) {
	if p.tmpl == nil {
		return strings.TrimSpace(p.Instruction), nil
	}
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", p.Name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
