package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type BaseEvent struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func NewBaseEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e BaseEvent) Payload() interface{} {
	return e.Data
}

// CompanyTopic is the room every member of a company listens on.
func CompanyTopic(companyID string) string {
	return "company:" + companyID
}

// Broadcaster is what services depend on to notify company-scoped subscribers.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, event Event) error
}

type Handler func(ctx context.Context, event Event) error

type subscription struct {
	id      uint64
	handler Handler
}

type EventBus struct {
	handlers map[string][]subscription
	nextID   uint64
	logger   *slog.Logger
	mu       sync.RWMutex
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[string][]subscription),
		logger:   logger,
	}
}

// Subscribe registers handler on topic and returns a function that removes it.
func (eb *EventBus) Subscribe(topic string, handler Handler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.handlers[topic] = append(eb.handlers[topic], subscription{id: id, handler: handler})
	eb.logger.Debug("event handler registered",
		"topic", topic,
		"total_handlers", len(eb.handlers[topic]))

	return func() { eb.unsubscribe(topic, id) }
}

func (eb *EventBus) unsubscribe(topic string, id uint64) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.handlers[topic]
	for i, s := range subs {
		if s.id == id {
			eb.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(eb.handlers[topic]) == 0 {
		delete(eb.handlers, topic)
	}
}

// SubscribeChan delivers topic events on a buffered channel. Events are dropped
// when the reader falls behind.
func (eb *EventBus) SubscribeChan(topic string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)
	var once sync.Once
	var closed bool
	var mu sync.Mutex

	unsubscribe := eb.Subscribe(topic, func(_ context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return nil
		}
		select {
		case ch <- event:
		default:
			eb.logger.Warn("dropping event for slow subscriber", "topic", topic, "event_type", event.EventType())
		}
		return nil
	})

	return ch, func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
}

func (eb *EventBus) handlersFor(topic string) []Handler {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	subs := eb.handlers[topic]
	handlers := make([]Handler, len(subs))
	for i, s := range subs {
		handlers[i] = s.handler
	}
	return handlers
}

// Publish fans the event out asynchronously. Delivery is at-most-once and
// handler errors are only logged.
func (eb *EventBus) Publish(ctx context.Context, topic string, event Event) error {
	handlers := eb.handlersFor(topic)
	if len(handlers) == 0 {
		eb.logger.Debug("no handlers for topic", "topic", topic, "event_type", event.EventType())
		return nil
	}

	eb.logger.Debug("publishing event",
		"topic", topic,
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"handlers_count", len(handlers))

	// handlers outlive the request that triggered them
	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		go func(h Handler) {
			if err := h(detached, event); err != nil {
				eb.logger.Error("event handler failed",
					"topic", topic,
					"event_type", event.EventType(),
					"event_id", event.EventID(),
					"error", err)
			}
		}(handler)
	}

	return nil
}

func (eb *EventBus) PublishSync(ctx context.Context, topic string, event Event) error {
	handlers := eb.handlersFor(topic)
	if len(handlers) == 0 {
		eb.logger.Debug("no handlers for topic", "topic", topic, "event_type", event.EventType())
		return nil
	}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			eb.logger.Error("event handler failed",
				"topic", topic,
				"event_type", event.EventType(),
				"event_id", event.EventID(),
				"error", err)
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}

	return nil
}

func (eb *EventBus) SubscriberCount(topic string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[topic])
}
