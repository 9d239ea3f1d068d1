package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
	"github.com/Tafzeel99/todo-agent/internal/core/lang"
	"github.com/Tafzeel99/todo-agent/internal/core/parser"
)

func newTestAgent(store *fakeStore) *Agent {
	logger := testLogger()
	a := NewAgent(
		logger,
		parser.New(lang.MustLoad()),
		newTestDispatcher(store),
		NewContextTracker(5, 16),
		NewEventBus(logger),
	)
	// Saturday 2026-01-24, the fixed reference for date assertions.
	a.now = func() time.Time { return time.Date(2026, 1, 24, 10, 0, 0, 0, time.UTC) }
	a.dispatcher.now = a.now
	store.now = a.now
	return a
}

func TestAgent_CreateThenCompleteViaAnaphora(t *testing.T) {
	store := newFakeStore()
	a := newTestAgent(store)
	ctx := context.Background()

	reply := a.HandleMessage(ctx, testOwner, "", "Add task fix bug due tomorrow")
	require.Equal(t, domain.ActionCreateTask, reply.Action)
	require.NotNil(t, reply.Task)
	require.NotEmpty(t, reply.ConversationID)
	assert.Equal(t, "fix bug", reply.Task.Title)
	require.NotNil(t, reply.Task.DueDate)
	assert.Equal(t, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), *reply.Task.DueDate)

	// Same conversation: "that" binds the task just created.
	conv := reply.ConversationID
	reply = a.HandleMessage(ctx, testOwner, conv, "mark that done")
	require.Equal(t, domain.ActionCompleteTask, reply.Action)
	require.NotNil(t, reply.Task)
	assert.True(t, reply.Task.Completed)
	assert.Equal(t, "fix bug", reply.Task.Title)
}

func TestAgent_RomanUrduTurn(t *testing.T) {
	store := newFakeStore()
	a := newTestAgent(store)

	reply := a.HandleMessage(context.Background(), testOwner, "", "Mujhe kal grocery leni hai")
	require.Equal(t, domain.ActionCreateTask, reply.Action)
	assert.Equal(t, domain.LangRomanUrdu, reply.Language)
	assert.Equal(t, "grocery", reply.Task.Title)
	assert.Contains(t, reply.Text, "add kar diya")
}

func TestAgent_LanguagePersistsAcrossTurns(t *testing.T) {
	store := newFakeStore()
	a := newTestAgent(store)
	ctx := context.Background()

	reply := a.HandleMessage(ctx, testOwner, "", "Mujhe kal grocery leni hai")
	conv := reply.ConversationID

	// "ok" is detectable in no language; the conversation's last language wins.
	reply = a.HandleMessage(ctx, testOwner, conv, "ok")
	assert.Equal(t, domain.LangRomanUrdu, reply.Language)
}

func TestAgent_ListThenOrdinalComplete(t *testing.T) {
	store := newFakeStore()
	a := newTestAgent(store)
	ctx := context.Background()

	reply := a.HandleMessage(ctx, testOwner, "", "add task buy milk")
	conv := reply.ConversationID
	a.HandleMessage(ctx, testOwner, conv, "add task pay rent")
	listed := a.HandleMessage(ctx, testOwner, conv, "show my tasks")
	require.Equal(t, domain.ActionListTasks, listed.Action)
	require.Len(t, listed.Tasks, 2)

	// "task 2" means the second line of the listing just shown.
	done := a.HandleMessage(ctx, testOwner, conv, "complete task 2")
	require.Equal(t, domain.ActionCompleteTask, done.Action)
	assert.Equal(t, listed.Tasks[1].Title, done.Task.Title)
}

func TestAgent_ClarifyWritesNothing(t *testing.T) {
	store := newFakeStore()
	a := newTestAgent(store)

	reply := a.HandleMessage(context.Background(), testOwner, "", "mark that done")
	require.Equal(t, domain.ActionClarify, reply.Action)
	assert.Zero(t, store.calls)
	assert.Contains(t, reply.Text, "Which task")
}

func TestAgent_PublishesTurnEvents(t *testing.T) {
	store := newFakeStore()
	a := newTestAgent(store)
	conv := domain.NewConversationID()

	ch, unsub := a.Events(conv)
	defer unsub()

	a.HandleMessage(context.Background(), testOwner, conv, "add task buy milk")

	select {
	case e := <-ch:
		assert.Equal(t, EventTypeTurn, e.Type)
		assert.Equal(t, domain.ActionCreateTask, e.Action)
		assert.NotEmpty(t, e.Reply)
	case <-time.After(time.Second):
		t.Fatal("no turn event published")
	}
}

func TestAgent_SeparateConversationsDoNotShareContext(t *testing.T) {
	store := newFakeStore()
	a := newTestAgent(store)
	ctx := context.Background()

	first := a.HandleMessage(ctx, testOwner, "", "add task buy milk")
	require.Equal(t, domain.ActionCreateTask, first.Action)

	// A fresh conversation has no referent for "that".
	other := a.HandleMessage(ctx, testOwner, "", "mark that done")
	assert.Equal(t, domain.ActionClarify, other.Action)
}

func TestAgent_EvictedConversationsReleaseLocks(t *testing.T) {
	store := newFakeStore()
	logger := testLogger()
	a := NewAgent(
		logger,
		parser.New(lang.MustLoad()),
		newTestDispatcher(store),
		NewContextTracker(5, 2),
		NewEventBus(logger),
	)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		a.HandleMessage(ctx, testOwner, "", "add task buy milk")
	}

	a.mu.Lock()
	held := len(a.locks)
	a.mu.Unlock()
	assert.Equal(t, 2, held, "lock map stays within the tracker's conversation capacity")
}

func TestAgent_DeletedTaskDropsOutOfContext(t *testing.T) {
	store := newFakeStore()
	a := newTestAgent(store)
	ctx := context.Background()

	reply := a.HandleMessage(ctx, testOwner, "", "add task buy milk")
	conv := reply.ConversationID

	deleted := a.HandleMessage(ctx, testOwner, conv, "delete that")
	require.Equal(t, domain.ActionDeleteTask, deleted.Action)

	// The dead id is no longer a referent for the demonstrative.
	after := a.HandleMessage(ctx, testOwner, conv, "mark that done")
	assert.Equal(t, domain.ActionClarify, after.Action)
}

func TestAgent_EndConversationForgetsContext(t *testing.T) {
	store := newFakeStore()
	a := newTestAgent(store)
	ctx := context.Background()

	reply := a.HandleMessage(ctx, testOwner, "", "add task buy milk")
	conv := reply.ConversationID
	a.EndConversation(conv)

	after := a.HandleMessage(ctx, testOwner, conv, "mark that done")
	assert.Equal(t, domain.ActionClarify, after.Action)
}
