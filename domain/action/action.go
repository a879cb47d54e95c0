// Package action defines the next-action decision taxonomy and the element
// descriptors the agent exchanges with the reasoning service.
package action

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind is the type of a decided action.
type Kind string

const (
	KindClick     Kind = "click"
	KindTypeText  Kind = "type_text"
	KindTypeEnter Kind = "type_enter"
	KindWait      Kind = "wait"
	KindNone      Kind = "none"
)

// Kinds returns the closed action taxonomy in a stable order.
func Kinds() []Kind {
	return []Kind{KindClick, KindTypeText, KindTypeEnter, KindWait, KindNone}
}

// IsTerminal returns true for the kind that ends a run.
func (k Kind) IsTerminal() bool {
	return k == KindNone
}

// ElementKind returns the element pool a targeted kind is resolved against.
// The second result is false for kinds that carry no target.
func (k Kind) ElementKind() (ElementKind, bool) {
	switch k {
	case KindClick:
		return ElementClickable, true
	case KindTypeText, KindTypeEnter:
		return ElementInput, true
	default:
		return 0, false
	}
}

// Decision is a single next-action decision produced by the reasoning service.
type Decision struct {
	Kind               Kind   `json:"action"`
	Target             string `json:"target"`
	Content            string `json:"content"`
	TerminationMessage string `json:"termination_message"`
}

// Validate checks the invariants that do not depend on the taxonomy.
// Unknown kinds pass validation; they are rejected when executed.
func (d Decision) Validate() error {
	if d.Kind == "" {
		return fmt.Errorf("decision has no action")
	}
	if _, targeted := d.Kind.ElementKind(); targeted && strings.TrimSpace(d.Target) == "" {
		return fmt.Errorf("%s decision requires a target", d.Kind)
	}
	if d.Kind == KindNone && strings.TrimSpace(d.TerminationMessage) == "" {
		return fmt.Errorf("none decision requires a termination message")
	}
	return nil
}

func (d Decision) String() string {
	switch d.Kind {
	case KindNone:
		return fmt.Sprintf("none(%q)", d.TerminationMessage)
	case KindTypeText:
		return fmt.Sprintf("type_text(%q, %q)", d.Target, d.Content)
	case KindWait:
		return "wait"
	default:
		return fmt.Sprintf("%s(%q)", d.Kind, d.Target)
	}
}

// ElementKind selects which interactive elements are enumerated.
type ElementKind int

const (
	// ElementClickable covers buttons and hyperlinks.
	ElementClickable ElementKind = iota
	// ElementInput covers text-entry elements.
	ElementInput
)

func (k ElementKind) String() string {
	switch k {
	case ElementClickable:
		return "clickable"
	case ElementInput:
		return "input"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// Descriptor is the compact, oracle-facing view of one visible element.
// Index is only meaningful against the enumeration that produced it.
type Descriptor struct {
	Index      int
	Tag        string
	Attributes map[string]*string
}

// MarshalJSON flattens the descriptor into {"idx": n, <attributes>...}.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Attributes)+1)
	for k, v := range d.Attributes {
		if v == nil {
			m[k] = nil
			continue
		}
		m[k] = *v
	}
	m["idx"] = d.Index
	return json.Marshal(m)
}

// Attr returns an attribute value, or "" when it is absent or null.
func (d Descriptor) Attr(name string) string {
	if v := d.Attributes[name]; v != nil {
		return *v
	}
	return ""
}

// String renders the descriptor for human-readable result messages,
// e.g. `<button text="Accept cookies">`.
func (d Descriptor) String() string {
	keys := make([]string, 0, len(d.Attributes))
	for k := range d.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("<")
	if d.Tag != "" {
		b.WriteString(d.Tag)
	} else {
		b.WriteString("element")
	}
	for _, k := range keys {
		v := d.Attributes[k]
		if v == nil || *v == "" {
			continue
		}
		fmt.Fprintf(&b, " %s=%q", k, *v)
	}
	b.WriteString(">")
	return b.String()
}
