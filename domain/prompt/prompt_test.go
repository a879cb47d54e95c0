package prompt

import (
	"strings"
	"testing"
	"testing/fstest"

	"webpilot-go/resources"
)

func TestPrompt_Render(t *testing.T) {
	p, err := New("resolve", "", "1", "Match: {{.Target}}\n")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := p.Render(map[string]string{"Target": "the search box"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "Match: the search box" {
		t.Errorf("Render() = %q, want %q", got, "Match: the search box")
	}
}

func TestPrompt_Render_MissingKey(t *testing.T) {
	p, err := New("resolve", "", "1", "Match: {{.Target}}")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := p.Render(map[string]string{}); err == nil {
		t.Error("Expected error for missing template key")
	}
}

func TestNew_InvalidTemplate(t *testing.T) {
	if _, err := New("broken", "", "1", "{{.Target"); err == nil {
		t.Error("Expected parse error")
	}
}

func TestLoader_LoadFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"prompts/decide.yaml": &fstest.MapFile{Data: []byte(`
name: decide
description: next action
version: "2"
instruction: |
  Pick the next action.
`)},
		"prompts/notes.txt": &fstest.MapFile{Data: []byte("ignored")},
	}

	registry := NewRegistry()
	if err := NewLoader(registry).LoadFromFS(fsys); err != nil {
		t.Fatalf("LoadFromFS() error = %v", err)
	}

	if registry.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", registry.Count())
	}

	p := registry.Get(NameDecide)
	if p == nil {
		t.Fatal("decide prompt not registered")
	}
	if p.Version != "2" {
		t.Errorf("Version = %q, want 2", p.Version)
	}

	got, err := p.Render(nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got != "Pick the next action." {
		t.Errorf("Render() = %q", got)
	}
}

func TestLoader_LoadFromFS_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"missing directory", fstest.MapFS{}},
		{"invalid yaml", fstest.MapFS{"prompts/a.yaml": &fstest.MapFile{Data: []byte("name: [")}}},
		{"no name", fstest.MapFS{"prompts/a.yaml": &fstest.MapFile{Data: []byte("instruction: hi")}}},
		{"no instruction", fstest.MapFS{"prompts/a.yaml": &fstest.MapFile{Data: []byte("name: a")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewLoader(NewRegistry()).LoadFromFS(tt.fsys); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoader_EmbeddedPrompts(t *testing.T) {
	registry := NewRegistry()
	if err := NewLoader(registry).LoadFromFS(resources.PromptFiles); err != nil {
		t.Fatalf("LoadFromFS() error = %v", err)
	}

	decide, err := registry.Require(NameDecide)
	if err != nil {
		t.Fatal(err)
	}
	text, err := decide.Render(nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(text, "cookie") {
		t.Errorf("decide prompt should mention cookie banners, got %q", text)
	}

	resolve, err := registry.Require(NameResolve)
	if err != nil {
		t.Fatal(err)
	}
	text, err = resolve.Render(map[string]string{"Target": "Accept cookies"})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(text, "Accept cookies") {
		t.Errorf("resolve prompt should contain the target, got %q", text)
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	a, _ := New("b", "", "", "x")
	b, _ := New("a", "", "", "y")
	registry.Register(a)
	registry.Register(b)

	names := registry.List()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("List() = %v, want [a b]", names)
	}

	if _, err := registry.Require("missing"); err == nil {
		t.Error("Require() should fail for unknown prompt")
	}
}
