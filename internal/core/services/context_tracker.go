package services

import (
	"sync"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
)

// ContextTracker keeps the short-term memory of each conversation: the last
// few task ids mentioned or created (newest first) and the last detected
// language. Hot conversations stay in memory; the oldest conversation is
// evicted when the cache is full.
type ContextTracker struct {
	mu sync.Mutex

	refCap   int // task refs kept per conversation
	maxConvs int // conversations kept in memory

	entries map[domain.ConversationID]*convContext
	order   []domain.ConversationID // LRU order, most recent last
}

type convContext struct {
	tasks    []domain.TaskID
	language domain.Language
}

// NewContextTracker creates a tracker holding refCap task refs per
// conversation across at most maxConvs conversations.
func NewContextTracker(refCap, maxConvs int) *ContextTracker {
	if refCap <= 0 {
		refCap = 5
	}
	if maxConvs <= 0 {
		maxConvs = 256
	}
	return &ContextTracker{
		refCap:   refCap,
		maxConvs: maxConvs,
		entries:  make(map[domain.ConversationID]*convContext, maxConvs),
		order:    make([]domain.ConversationID, 0, maxConvs),
	}
}

// Snapshot returns the conversation's recent task ids (newest first) and last
// language. The slice is a copy; mutating it does not affect the tracker.
func (t *ContextTracker) Snapshot(id domain.ConversationID) ([]domain.TaskID, domain.Language) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return nil, ""
	}
	tasks := make([]domain.TaskID, len(e.tasks))
	copy(tasks, e.tasks)
	return tasks, e.language
}

// Record notes the outcome of one turn: the response language and any task
// ids the turn touched. refs[0] ends up newest. Duplicate ids move to the
// front instead of repeating. It returns the ids of conversations evicted to
// stay within capacity, so callers can release any state keyed on them.
func (t *ContextTracker) Record(id domain.ConversationID, language domain.Language, refs ...domain.TaskID) []domain.ConversationID {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		e = &convContext{}
		t.entries[id] = e
	}
	if language != "" {
		e.language = language
	}
	for i := len(refs) - 1; i >= 0; i-- {
		e.pushFront(refs[i], t.refCap)
	}

	t.touchLocked(id)
	return t.evictLocked()
}

// Drop removes task refs from a conversation's context, for tasks that no
// longer exist. The conversation's LRU position is left alone.
func (t *ContextTracker) Drop(id domain.ConversationID, refs ...domain.TaskID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return
	}
	for _, ref := range refs {
		for i, v := range e.tasks {
			if v == ref {
				e.tasks = append(e.tasks[:i], e.tasks[i+1:]...)
				break
			}
		}
	}
}

// Forget drops a conversation's context, for external lifecycle ends.
func (t *ContextTracker) Forget(id domain.ConversationID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, id)
	t.removeLRULocked(id)
}

func (e *convContext) pushFront(id domain.TaskID, limit int) {
	if id == "" {
		return
	}
	for i, v := range e.tasks {
		if v == id {
			e.tasks = append(e.tasks[:i], e.tasks[i+1:]...)
			break
		}
	}
	e.tasks = append([]domain.TaskID{id}, e.tasks...)
	if len(e.tasks) > limit {
		e.tasks = e.tasks[:limit]
	}
}

// --- LRU helpers (must be called with mu held) ---

func (t *ContextTracker) touchLocked(id domain.ConversationID) {
	t.removeLRULocked(id)
	t.order = append(t.order, id)
}

func (t *ContextTracker) removeLRULocked(id domain.ConversationID) {
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func (t *ContextTracker) evictLocked() []domain.ConversationID {
	var evicted []domain.ConversationID
	for len(t.order) > t.maxConvs {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.entries, oldest)
		evicted = append(evicted, oldest)
	}
	return evicted
}
