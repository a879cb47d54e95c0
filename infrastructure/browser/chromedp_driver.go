package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// inspectElementJS reports rendering state for the element it is called on.
const inspectElementJS = `function() {
	const style = window.getComputedStyle(this);
	const rect = this.getBoundingClientRect();
	return {
		visible: this.isConnected && style.display !== 'none' && style.visibility !== 'hidden' && rect.width > 0 && rect.height > 0,
		text: (this.innerText || this.textContent || '').trim()
	};
}`

// ChromeDPDriver implements Driver using chromedp.
type ChromeDPDriver struct {
	config      *DriverConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.Mutex
	running     bool
}

// NewChromeDPDriver creates a new ChromeDP-based browser driver.
func NewChromeDPDriver(config *DriverConfig) *ChromeDPDriver {
	if config == nil {
		config = DefaultDriverConfig()
	}
	return &ChromeDPDriver{
		config: config,
	}
}

// buildExecAllocatorOptions builds chromedp options from config.
func (d *ChromeDPDriver) buildExecAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", d.config.Headless),
		chromedp.Flag("hide-scrollbars", d.config.HideScrollbars),
		chromedp.Flag("mute-audio", d.config.MuteAudio),
		chromedp.Flag("disable-gpu", d.config.DisableGPU),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(d.config.WindowWidth, d.config.WindowHeight),
	)

	if d.config.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(d.config.UserDataDir))
	}

	return opts
}

// Start initializes the browser instance.
func (d *ChromeDPDriver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("browser already running")
	}

	// The browser lifecycle is independent of the caller's context.
	d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(
		context.Background(),
		d.buildExecAllocatorOptions()...,
	)

	d.ctx, d.cancel = chromedp.NewContext(d.allocCtx)

	// Launch the browser now so configuration errors surface here.
	if err := chromedp.Run(d.ctx); err != nil {
		d.cleanup()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	d.running = true
	return nil
}

// Stop closes the browser and releases resources.
func (d *ChromeDPDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.cleanup()
	return nil
}

func (d *ChromeDPDriver) cleanup() {
	d.running = false
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.allocCancel != nil {
		d.allocCancel()
		d.allocCancel = nil
	}
	d.ctx = nil
	d.allocCtx = nil
}

// IsRunning returns true if the browser is active.
func (d *ChromeDPDriver) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// execContext derives a context from the browser context that expires after
// timeout or when ctx is cancelled, whichever comes first.
func (d *ChromeDPDriver) execContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	d.mu.Lock()
	browserCtx := d.ctx
	running := d.running
	d.mu.Unlock()

	if !running || browserCtx == nil {
		return nil, nil, ErrNotRunning
	}

	execCtx, cancel := context.WithTimeout(browserCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return execCtx, func() {
		stop()
		cancel()
	}, nil
}

// Navigate navigates to the specified URL.
func (d *ChromeDPDriver) Navigate(ctx context.Context, url string) error {
	execCtx, cancel, err := d.execContext(ctx, d.config.NavigateTimeout)
	if err != nil {
		return err
	}
	defer cancel()

	return chromedp.Run(execCtx,
		chromedp.EmulateViewport(int64(d.config.ViewportWidth), int64(d.config.ViewportHeight)),
		chromedp.Navigate(url),
	)
}

// CaptureElement returns a PNG image of the first element matching selector.
func (d *ChromeDPDriver) CaptureElement(ctx context.Context, selector string) ([]byte, error) {
	execCtx, cancel, err := d.execContext(ctx, d.config.CaptureTimeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(execCtx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)),
	); err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, selector)
	}

	var buf []byte
	if err := chromedp.Run(execCtx,
		chromedp.Screenshot([]cdp.NodeID{nodes[0].NodeID}, &buf, chromedp.ByNodeID),
	); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}

	return buf, nil
}

// Elements returns every element matching selector in document order.
// Elements detached while being inspected are reported as not visible.
func (d *ChromeDPDriver) Elements(ctx context.Context, selector string) ([]Element, error) {
	execCtx, cancel, err := d.execContext(ctx, d.config.CaptureTimeout)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var nodes []*cdp.Node
	if err := chromedp.Run(execCtx,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}

	elements := make([]Element, 0, len(nodes))
	err = chromedp.Run(execCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, node := range nodes {
			el := Element{
				Ref:        ElementRef(node.NodeID),
				Tag:        node.LocalName,
				Attributes: nodeAttributes(node),
			}
			if info, err := inspectNode(ctx, node.NodeID); err == nil {
				el.Visible = info.Visible
				el.Text = info.Text
			}
			elements = append(elements, el)
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	return elements, nil
}

type nodeInfo struct {
	Visible bool   `json:"visible"`
	Text    string `json:"text"`
}

func inspectNode(ctx context.Context, id cdp.NodeID) (*nodeInfo, error) {
	obj, err := dom.ResolveNode().WithNodeID(id).Do(ctx)
	if err != nil {
		return nil, err
	}

	res, exc, err := runtime.CallFunctionOn(inspectElementJS).
		WithObjectID(obj.ObjectID).
		WithReturnByValue(true).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		return nil, fmt.Errorf("inspect element: %s", exc.Text)
	}

	var info nodeInfo
	if err := json.Unmarshal(res.Value, &info); err != nil {
		return nil, fmt.Errorf("decode element info: %w", err)
	}
	return &info, nil
}

func nodeAttributes(node *cdp.Node) map[string]string {
	attrs := make(map[string]string, len(node.Attributes)/2)
	for i := 0; i+1 < len(node.Attributes); i += 2 {
		attrs[node.Attributes[i]] = node.Attributes[i+1]
	}
	return attrs
}

// ClickElement clicks on the referenced element.
func (d *ChromeDPDriver) ClickElement(ctx context.Context, ref ElementRef) error {
	execCtx, cancel, err := d.execContext(ctx, d.config.ActionTimeout)
	if err != nil {
		return err
	}
	defer cancel()

	return chromedp.Run(execCtx,
		chromedp.Click([]cdp.NodeID{cdp.NodeID(ref)}, chromedp.ByNodeID),
	)
}

// SendKeys sends keystrokes to the referenced element.
func (d *ChromeDPDriver) SendKeys(ctx context.Context, ref ElementRef, text string) error {
	execCtx, cancel, err := d.execContext(ctx, d.config.ActionTimeout)
	if err != nil {
		return err
	}
	defer cancel()

	return chromedp.Run(execCtx,
		chromedp.SendKeys([]cdp.NodeID{cdp.NodeID(ref)}, text, chromedp.ByNodeID),
	)
}

// Ensure ChromeDPDriver implements Driver
var _ Driver = (*ChromeDPDriver)(nil)
