package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
	"github.com/Tafzeel99/todo-agent/internal/core/parser"
)

// Reply is one turn's result for the caller: the rendered text plus the
// structured outcome for programmatic use.
type Reply struct {
	ConversationID domain.ConversationID     `json:"conversation_id"`
	Text           string                    `json:"reply"`
	Language       domain.Language           `json:"language"`
	Action         domain.ActionType         `json:"action"`
	Task           *domain.Task              `json:"task,omitempty"`
	Spawned        *domain.Task              `json:"spawned_task,omitempty"`
	Tasks          []domain.Task             `json:"tasks,omitempty"`
	Analytics      *domain.AnalyticsSnapshot `json:"analytics,omitempty"`
}

// Agent runs the full turn pipeline: parse, dispatch, compose, then record
// the turn in the context tracker and publish it on the event bus. Turns in
// one conversation are serialized; different conversations run in parallel.
type Agent struct {
	logger     *slog.Logger
	parser     *parser.Parser
	dispatcher *Dispatcher
	composer   *Composer
	tracker    *ContextTracker
	bus        *EventBus

	now func() time.Time

	mu    sync.Mutex
	locks map[domain.ConversationID]*sync.Mutex
}

func NewAgent(logger *slog.Logger, p *parser.Parser, d *Dispatcher, tracker *ContextTracker, bus *EventBus) *Agent {
	return &Agent{
		logger:     logger,
		parser:     p,
		dispatcher: d,
		composer:   NewComposer(),
		tracker:    tracker,
		bus:        bus,
		now:        time.Now,
		locks:      make(map[domain.ConversationID]*sync.Mutex),
	}
}

// HandleMessage processes one user message to completion. An empty
// conversation id starts a new conversation; the assigned id is returned in
// the reply.
func (a *Agent) HandleMessage(ctx context.Context, owner domain.OwnerID, conv domain.ConversationID, message string) Reply {
	if conv == "" {
		conv = domain.NewConversationID()
	}

	lock := a.convLock(conv)
	lock.Lock()
	defer lock.Unlock()

	recent, lastLang := a.tracker.Snapshot(conv)
	req := a.parser.Parse(message, a.now(), parser.Context{RecentTasks: recent, LastLanguage: lastLang})

	a.logger.Info("turn parsed",
		"conversation_id", conv,
		"owner_id", owner,
		"action", req.Type,
		"language", req.Language,
	)

	out := a.dispatcher.Dispatch(ctx, owner, req)
	text := a.composer.Compose(out)

	// Even a failed turn records the attempted reference; only the refs
	// change, never the rest of the conversation state.
	evicted := a.tracker.Record(conv, req.Language, out.Touched...)
	a.releaseLocks(evicted)
	if len(out.Removed) > 0 {
		// Deleted tasks must not linger as referents for "that one".
		a.tracker.Drop(conv, out.Removed...)
	}

	a.bus.Publish(Event{
		Conversation: conv,
		Type:         EventTypeTurn,
		Action:       out.Action,
		Language:     out.Language,
		Reply:        text,
		Timestamp:    a.now(),
	})

	return Reply{
		ConversationID: conv,
		Text:           text,
		Language:       out.Language,
		Action:         out.Action,
		Task:           out.Task,
		Spawned:        out.Spawned,
		Tasks:          out.Tasks,
		Analytics:      out.Analytics,
	}
}

// EndConversation drops the conversation's short-term context.
func (a *Agent) EndConversation(conv domain.ConversationID) {
	a.tracker.Forget(conv)

	a.mu.Lock()
	delete(a.locks, conv)
	a.mu.Unlock()
}

// Events exposes the per-conversation event stream.
func (a *Agent) Events(conv domain.ConversationID) (<-chan Event, func()) {
	return a.bus.Subscribe(conv)
}

// releaseLocks frees the mutexes of conversations the tracker evicted, so the
// lock map stays bounded by the tracker's conversation capacity.
func (a *Agent) releaseLocks(evicted []domain.ConversationID) {
	if len(evicted) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range evicted {
		delete(a.locks, id)
	}
}

func (a *Agent) convLock(conv domain.ConversationID) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.locks[conv]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[conv] = lock
	}
	return lock
}
