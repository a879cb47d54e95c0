package eventbus

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"webpilot-go/core/event"
)

// subscription represents a single event subscription.
type subscription struct {
	id      string
	handler EventHandler
	agentID string // Empty string means subscribe to all events
}

// Option configures the event bus.
type Option func(*channelEventBus)

// WithLogger sets the logger used for dropped events and handler panics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *channelEventBus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// channelEventBus is a channel-based implementation of EventBus.
type channelEventBus struct {
	eventChan     chan event.Event
	subscriptions map[string]*subscription
	mu            sync.RWMutex
	closeMu       sync.RWMutex
	closed        atomic.Bool
	wg            sync.WaitGroup
	logger        *slog.Logger
}

// New creates a new EventBus with the specified buffer size.
func New(bufferSize int, opts ...Option) EventBus {
	if bufferSize <= 0 {
		bufferSize = 256
	}

	bus := &channelEventBus{
		eventChan:     make(chan event.Event, bufferSize),
		subscriptions: make(map[string]*subscription),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(bus)
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

// Publish publishes an event to all subscribers.
func (b *channelEventBus) Publish(e event.Event) {
	b.closeMu.RLock()
	defer b.closeMu.RUnlock()

	if b.closed.Load() {
		return
	}

	// Non-blocking send with select to avoid blocking if buffer is full
	select {
	case b.eventChan <- e:
	default:
		b.logger.Warn("Event dropped, buffer full", "event", e.EventName())
	}
}

// Subscribe subscribes to all events.
func (b *channelEventBus) Subscribe(handler EventHandler) string {
	return b.subscribe("", handler)
}

// SubscribeAgent subscribes to events from a specific agent.
func (b *channelEventBus) SubscribeAgent(agentID string, handler EventHandler) string {
	return b.subscribe(agentID, handler)
}

func (b *channelEventBus) subscribe(agentID string, handler EventHandler) string {
	id := uuid.NewString()

	b.mu.Lock()
	b.subscriptions[id] = &subscription{
		id:      id,
		handler: handler,
		agentID: agentID,
	}
	b.mu.Unlock()

	return id
}

// Unsubscribe removes a subscription by its ID.
func (b *channelEventBus) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	delete(b.subscriptions, subscriptionID)
	b.mu.Unlock()
}

// Close shuts down the event bus.
func (b *channelEventBus) Close() {
	b.closeMu.Lock()
	if b.closed.Swap(true) {
		b.closeMu.Unlock()
		return // Already closed
	}
	close(b.eventChan)
	b.closeMu.Unlock()

	b.wg.Wait()
}

// dispatch is the main event dispatch loop.
func (b *channelEventBus) dispatch() {
	defer b.wg.Done()

	for e := range b.eventChan {
		b.deliverEvent(e)
	}
}

// deliverEvent delivers an event to all matching subscribers.
func (b *channelEventBus) deliverEvent(e event.Event) {
	b.mu.RLock()
	// Copy subscriptions to avoid holding lock during handler execution
	subs := make([]*subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	var eventAgentID string
	if ae, ok := e.(event.AgentEvent); ok {
		eventAgentID = ae.AgentID()
	}

	for _, sub := range subs {
		if sub.agentID != "" {
			if eventAgentID == "" || sub.agentID != eventAgentID {
				continue
			}
		}

		// Call handler (catch panics to prevent one bad handler from affecting others)
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("Event handler panicked", "event", e.EventName(), "panic", r)
				}
			}()
			sub.handler(e)
		}()
	}
}
