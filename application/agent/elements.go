package agent

import (
	"context"
	"fmt"

	"webpilot-go/domain/action"
	"webpilot-go/infrastructure/browser"
)

// textInputSelector matches input elements that accept typed text.
const textInputSelector = "input:not([type=checkbox]):not([type=radio]):not([type=submit])" +
	":not([type=button]):not([type=reset]):not([type=file]):not([type=image])" +
	":not([type=hidden]):not([type=range]):not([type=color])"

// Selectors per element kind, enumerated in this order and concatenated.
var elementSelectors = map[action.ElementKind][]string{
	action.ElementClickable: {"button", "a"},
	action.ElementInput:     {textInputSelector, "textarea"},
}

// Candidate pairs an oracle-facing descriptor with the live element it
// describes.
type Candidate struct {
	Descriptor action.Descriptor
	Ref        browser.ElementRef
}

// ElementIndex enumerates the visible interactive elements of a page.
// Results are never cached.
type ElementIndex struct {
	driver browser.Driver
}

// NewElementIndex creates a new element index.
func NewElementIndex(driver browser.Driver) *ElementIndex {
	return &ElementIndex{driver: driver}
}

// Enumerate returns the visible elements of kind in document order.
// Indices are assigned over the visible elements only.
func (x *ElementIndex) Enumerate(ctx context.Context, kind action.ElementKind) ([]Candidate, error) {
	selectors, ok := elementSelectors[kind]
	if !ok {
		return nil, fmt.Errorf("unknown element kind %s", kind)
	}

	var candidates []Candidate
	for _, sel := range selectors {
		elements, err := x.driver.Elements(ctx, sel)
		if err != nil {
			return nil, fmt.Errorf("%w: enumerate %s: %w", action.ErrActionFailed, sel, err)
		}
		for _, el := range elements {
			if !el.Visible {
				continue
			}
			candidates = append(candidates, Candidate{
				Descriptor: action.Descriptor{
					Index:      len(candidates),
					Tag:        el.Tag,
					Attributes: describe(kind, el),
				},
				Ref: el.Ref,
			})
		}
	}
	return candidates, nil
}

// Descriptors returns the descriptors of candidates in order.
func Descriptors(candidates []Candidate) []action.Descriptor {
	out := make([]action.Descriptor, len(candidates))
	for i, c := range candidates {
		out[i] = c.Descriptor
	}
	return out
}

func describe(kind action.ElementKind, el browser.Element) map[string]*string {
	if kind == action.ElementClickable {
		text := el.Text
		return map[string]*string{"text": &text}
	}

	attrs := make(map[string]*string, 2)
	for _, name := range []string{"name", "placeholder"} {
		if v, ok := el.Attr(name); ok {
			attrs[name] = &v
		} else {
			attrs[name] = nil
		}
	}
	return attrs
}
