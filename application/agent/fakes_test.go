package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"webpilot-go/domain/action"
	"webpilot-go/domain/prompt"
	"webpilot-go/infrastructure/browser"
	"webpilot-go/infrastructure/oracle"
	"webpilot-go/resources"
)

// fakeDriver is an in-memory browser.Driver for testing.
type fakeDriver struct {
	mu sync.Mutex

	running     bool
	elements    map[string][]browser.Element
	capture     []byte
	captureErr  error
	elementsErr error
	navigateErr error
	clickErr    error
	keysErr     error

	navigated []string
	clicks    []browser.ElementRef
	keys      []sentKeys
}

type sentKeys struct {
	Ref  browser.ElementRef
	Text string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		running: true,
		capture: []byte("\x89PNG page"),
		elements: map[string][]browser.Element{
			"body": {{Ref: 1, Tag: "body", Visible: true}},
		},
	}
}

func (d *fakeDriver) Start(ctx context.Context) error { d.running = true; return nil }
func (d *fakeDriver) Stop() error                     { d.running = false; return nil }
func (d *fakeDriver) IsRunning() bool                 { return d.running }

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.navigateErr != nil {
		return d.navigateErr
	}
	d.navigated = append(d.navigated, url)
	return nil
}

func (d *fakeDriver) CaptureElement(ctx context.Context, selector string) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.captureErr != nil {
		return nil, d.captureErr
	}
	return append([]byte(nil), d.capture...), nil
}

func (d *fakeDriver) Elements(ctx context.Context, selector string) ([]browser.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.elementsErr != nil {
		return nil, d.elementsErr
	}
	return d.elements[selector], nil
}

func (d *fakeDriver) ClickElement(ctx context.Context, ref browser.ElementRef) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.clickErr != nil {
		return d.clickErr
	}
	d.clicks = append(d.clicks, ref)
	return nil
}

func (d *fakeDriver) SendKeys(ctx context.Context, ref browser.ElementRef, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keysErr != nil {
		return d.keysErr
	}
	d.keys = append(d.keys, sentKeys{Ref: ref, Text: text})
	return nil
}

// mutations returns the number of click and keystroke calls.
func (d *fakeDriver) mutations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clicks) + len(d.keys)
}

func (d *fakeDriver) clickCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.clicks)
}

// fakeOracle answers decision and resolution requests from scripted values.
type fakeOracle struct {
	mu sync.Mutex

	// decisions are returned in order; the last one repeats.
	decisions  []action.Decision
	decideFunc func(req *oracle.Request) action.Decision
	decideErr  error
	decideRaw  string

	resolveIdx int
	resolveErr error
	resolveRaw string

	requests []*oracle.Request
	calls    int

	inFlight    int
	maxInFlight int
	delay       time.Duration
}

func (o *fakeOracle) Submit(ctx context.Context, req *oracle.Request, out any) error {
	o.mu.Lock()
	o.requests = append(o.requests, req)
	o.inFlight++
	if o.inFlight > o.maxInFlight {
		o.maxInFlight = o.inFlight
	}
	delay := o.delay
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight--
		o.mu.Unlock()
	}()

	if delay > 0 {
		time.Sleep(delay)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	var answer any
	switch req.SchemaName {
	case decisionSchemaName:
		if o.decideErr != nil {
			return o.decideErr
		}
		if o.decideRaw != "" {
			return json.Unmarshal([]byte(o.decideRaw), out)
		}
		switch {
		case o.decideFunc != nil:
			answer = o.decideFunc(req)
		case len(o.decisions) == 0:
			return errors.New("no scripted decision")
		default:
			i := min(o.calls, len(o.decisions)-1)
			answer = o.decisions[i]
			o.calls++
		}
	case resolutionSchemaName:
		if o.resolveErr != nil {
			return o.resolveErr
		}
		if o.resolveRaw != "" {
			return json.Unmarshal([]byte(o.resolveRaw), out)
		}
		answer = map[string]int{"selected_element_idx": o.resolveIdx}
	default:
		return errors.New("unexpected schema " + req.SchemaName)
	}

	data, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (o *fakeOracle) requestsFor(schema string) []*oracle.Request {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*oracle.Request
	for _, r := range o.requests {
		if r.SchemaName == schema {
			out = append(out, r)
		}
	}
	return out
}

func testPrompts(t *testing.T) *prompt.Registry {
	t.Helper()
	registry := prompt.NewRegistry()
	if err := prompt.NewLoader(registry).LoadFromFS(resources.PromptFiles); err != nil {
		t.Fatalf("LoadFromFS() error = %v", err)
	}
	return registry
}

// recordingSleep records requested pauses without sleeping.
type recordingSleep struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.pauses = append(s.pauses, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *recordingSleep) count(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pauses {
		if p == d {
			n++
		}
	}
	return n
}

func visible(ref browser.ElementRef, tag, text string) browser.Element {
	return browser.Element{Ref: ref, Tag: tag, Visible: true, Text: text, Attributes: map[string]string{}}
}

func hidden(ref browser.ElementRef, tag, text string) browser.Element {
	el := visible(ref, tag, text)
	el.Visible = false
	return el
}

func input(ref browser.ElementRef, name, placeholder string) browser.Element {
	attrs := map[string]string{}
	if name != "" {
		attrs["name"] = name
	}
	if placeholder != "" {
		attrs["placeholder"] = placeholder
	}
	return browser.Element{Ref: ref, Tag: "input", Visible: true, Attributes: attrs}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
