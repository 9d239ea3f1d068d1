package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
)

type EventType string

const (
	// EventTypeTurn is published once per processed user message.
	EventTypeTurn EventType = "turn"
)

// Event is one item on the per-conversation stream.
type Event struct {
	Conversation domain.ConversationID `json:"conversation_id"`
	Type         EventType             `json:"type"`
	Action       domain.ActionType     `json:"action"`
	Language     domain.Language       `json:"language"`
	Reply        string                `json:"reply"`
	Timestamp    time.Time             `json:"timestamp"`
}

// EventBus fans turn events out to subscribers of a conversation.
type EventBus struct {
	logger *slog.Logger
	mu     sync.RWMutex
	subs   map[domain.ConversationID][]chan Event
}

func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		logger: logger,
		subs:   make(map[domain.ConversationID][]chan Event),
	}
}

// Subscribe returns a channel receiving events for one conversation and an
// unsubscribe function that closes it.
func (b *EventBus) Subscribe(id domain.ConversationID) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16) // buffer to prevent blocking the publisher
	b.subs[id] = append(b.subs[id], ch)

	unsub := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subscribers := b.subs[id]
		for i, sub := range subscribers {
			if sub == ch {
				close(ch)
				b.subs[id] = append(subscribers[:i], subscribers[i+1:]...)
				break
			}
		}
		if len(b.subs[id]) == 0 {
			delete(b.subs, id)
		}
	}

	return ch, unsub
}

// Publish sends an event to all subscribers of the conversation. Slow
// subscribers drop events rather than blocking message processing.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[e.Conversation] {
		select {
		case ch <- e:
		default:
			b.logger.Warn("event bus channel full, dropping event", "conversation_id", e.Conversation)
		}
	}
}
