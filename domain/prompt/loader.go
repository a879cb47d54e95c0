package prompt

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// yamlPrompt is the YAML structure for prompt definitions.
type yamlPrompt struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
	Instruction string `yaml:"instruction"`
}

// Loader handles loading prompt definitions from various sources.
type Loader struct {
	registry *Registry
}

// NewLoader creates a new prompt loader that populates the given registry.
func NewLoader(registry *Registry) *Loader {
	return &Loader{registry: registry}
}

// LoadFromFS loads prompt definitions from an embedded or real filesystem.
// It expects YAML files in a "prompts" subdirectory.
func (l *Loader) LoadFromFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, "prompts")
	if err != nil {
		return fmt.Errorf("failed to read prompts directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		if err := l.loadFile(fsys, "prompts/"+entry.Name()); err != nil {
			return err
		}
	}

	return nil
}

// loadFile loads a single prompt definition file.
func (l *Loader) loadFile(fsys fs.FS, path string) error {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}

	var yp yamlPrompt
	if err := yaml.Unmarshal(data, &yp); err != nil {
		return fmt.Errorf("failed to parse prompt file %s: %w", path, err)
	}

	if yp.Name == "" {
		return fmt.Errorf("prompt file %s has no name", path)
	}
	if yp.Instruction == "" {
		return fmt.Errorf("prompt %s has an empty instruction", yp.Name)
	}

	p, err := New(yp.Name, yp.Description, yp.Version, yp.Instruction)
	if err != nil {
		return err
	}
	l.registry.Register(p)

	return nil
}
