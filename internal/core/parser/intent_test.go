package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
	"github.com/Tafzeel99/todo-agent/internal/core/lang"
)

var ref = time.Date(2026, 1, 24, 10, 0, 0, 0, time.UTC)

func newParser(t *testing.T) *Parser {
	t.Helper()
	return New(lang.MustLoad())
}

func TestParse_CreateWithDueDate(t *testing.T) {
	req := newParser(t).Parse("Add task call mom due tomorrow", ref, Context{})

	require.Equal(t, domain.ActionCreateTask, req.Type)
	require.NotNil(t, req.Create)
	assert.Equal(t, "call mom", req.Create.Title)
	assert.Equal(t, domain.PriorityMedium, req.Create.Priority)
	assert.False(t, req.Create.Suggested)
	require.NotNil(t, req.Create.DueDate)
	assert.Equal(t, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), *req.Create.DueDate)
	assert.False(t, req.Create.DueInPast)
	assert.Equal(t, domain.LangEnglish, req.Language)
}

func TestParse_CreateRomanUrdu(t *testing.T) {
	req := newParser(t).Parse("Mujhe kal grocery leni hai", ref, Context{})

	require.Equal(t, domain.ActionCreateTask, req.Type)
	assert.Equal(t, "grocery", req.Create.Title)
	require.NotNil(t, req.Create.DueDate)
	assert.Equal(t, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), *req.Create.DueDate)
	assert.Equal(t, domain.LangRomanUrdu, req.Language)
}

func TestParse_UrgencySuggestsHigh(t *testing.T) {
	p := newParser(t)

	req := p.Parse("Add urgent task fix prod outage", ref, Context{})
	require.Equal(t, domain.ActionCreateTask, req.Type)
	assert.Equal(t, "fix prod outage", req.Create.Title)
	assert.Equal(t, domain.PriorityHigh, req.Create.Priority)
	assert.True(t, req.Create.Suggested)

	// Explicit priority always beats the urgency hint.
	req = p.Parse("Add urgent task fix prod outage low priority", ref, Context{})
	assert.Equal(t, domain.PriorityLow, req.Create.Priority)
	assert.False(t, req.Create.Suggested)

	req = p.Parse("Add task buy milk", ref, Context{})
	assert.Equal(t, domain.PriorityMedium, req.Create.Priority)
	assert.False(t, req.Create.Suggested)
}

func TestParse_CreateRecurring(t *testing.T) {
	req := newParser(t).Parse("add task water plants every day", ref, Context{})

	require.Equal(t, domain.ActionCreateTask, req.Type)
	assert.Equal(t, "water plants", req.Create.Title)
	assert.Equal(t, domain.RecurrenceDaily, req.Create.Recurrence)
}

func TestParse_CreateWithTags(t *testing.T) {
	req := newParser(t).Parse("add task buy milk tag grocery and errands", ref, Context{})

	require.Equal(t, domain.ActionCreateTask, req.Type)
	assert.Equal(t, "buy milk", req.Create.Title)
	assert.Equal(t, []string{"grocery", "errands"}, req.Create.Tags)
}

func TestParse_PastDueDateFlagged(t *testing.T) {
	req := newParser(t).Parse("add task pay rent due yesterday", ref, Context{})

	require.Equal(t, domain.ActionCreateTask, req.Type)
	assert.Equal(t, "pay rent", req.Create.Title)
	assert.True(t, req.Create.DueInPast)
}

func TestParse_List(t *testing.T) {
	p := newParser(t)

	req := p.Parse("show my tasks", ref, Context{})
	require.Equal(t, domain.ActionListTasks, req.Type)
	assert.Equal(t, domain.StatusAll, req.List.Filter.Status)
	assert.Empty(t, req.List.Filter.Search)

	req = p.Parse("show pending tasks", ref, Context{})
	assert.Equal(t, domain.StatusPending, req.List.Filter.Status)

	req = p.Parse("list completed tasks", ref, Context{})
	assert.Equal(t, domain.StatusCompleted, req.List.Filter.Status)

	req = p.Parse("show overdue tasks", ref, Context{})
	assert.True(t, req.List.Filter.OverdueOnly)

	req = p.Parse("show tasks due today", ref, Context{})
	require.NotNil(t, req.List.Filter.DueAfter)
	require.NotNil(t, req.List.Filter.DueBefore)
	assert.Equal(t, time.Date(2026, 1, 24, 0, 0, 0, 0, time.UTC), *req.List.Filter.DueAfter)
	assert.Equal(t, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), *req.List.Filter.DueBefore)
}

func TestParse_AnaphoraBindsSingleCandidate(t *testing.T) {
	id := domain.NewTaskID()
	req := newParser(t).Parse("mark that done", ref, Context{RecentTasks: []domain.TaskID{id}})

	require.Equal(t, domain.ActionCompleteTask, req.Type)
	assert.Equal(t, id, req.Complete.Target.ID)
	assert.True(t, req.Complete.Target.FromContext)
}

func TestParse_AnaphoraWithoutContextClarifies(t *testing.T) {
	req := newParser(t).Parse("mark that done", ref, Context{})

	require.Equal(t, domain.ActionClarify, req.Type)
	assert.Equal(t, domain.ClarifyNoReference, req.Clarify.Reason)
}

func TestParse_AnaphoraAmbiguousAmongSeveral(t *testing.T) {
	ctx := Context{RecentTasks: []domain.TaskID{domain.NewTaskID(), domain.NewTaskID()}}
	req := newParser(t).Parse("wo wala hata do", ref, ctx)

	require.Equal(t, domain.ActionClarify, req.Type)
	assert.Equal(t, domain.ClarifyAmbiguousReference, req.Clarify.Reason)
}

func TestParse_LastOneSelectsNewestAmongSeveral(t *testing.T) {
	newest := domain.NewTaskID()
	ctx := Context{RecentTasks: []domain.TaskID{newest, domain.NewTaskID()}}
	req := newParser(t).Parse("delete the last one", ref, ctx)

	require.Equal(t, domain.ActionDeleteTask, req.Type)
	assert.Equal(t, newest, req.Delete.Target.ID)
}

func TestParse_OrdinalBindsByPosition(t *testing.T) {
	a, b := domain.NewTaskID(), domain.NewTaskID()
	ctx := Context{RecentTasks: []domain.TaskID{a, b}}
	req := newParser(t).Parse("complete task 2", ref, ctx)

	require.Equal(t, domain.ActionCompleteTask, req.Type)
	assert.Equal(t, b, req.Complete.Target.ID)

	req = newParser(t).Parse("complete task 9", ref, ctx)
	require.Equal(t, domain.ActionClarify, req.Type)
	assert.Equal(t, domain.ClarifyNoReference, req.Clarify.Reason)
}

func TestParse_TitleQueryTarget(t *testing.T) {
	req := newParser(t).Parse("delete the groceries task", ref, Context{})

	require.Equal(t, domain.ActionDeleteTask, req.Type)
	assert.Equal(t, "groceries", req.Delete.Target.TitleQuery)
	assert.Empty(t, req.Delete.Target.ID)
}

func TestParse_BareVerbBindsSoleTask(t *testing.T) {
	id := domain.NewTaskID()
	req := newParser(t).Parse("ho gaya", ref, Context{RecentTasks: []domain.TaskID{id}})

	require.Equal(t, domain.ActionCompleteTask, req.Type)
	assert.Equal(t, id, req.Complete.Target.ID)
	assert.Equal(t, domain.LangRomanUrdu, req.Language)
}

func TestParse_UpdateDueDateAndPriority(t *testing.T) {
	id := domain.NewTaskID()
	ctx := Context{RecentTasks: []domain.TaskID{id}}
	req := newParser(t).Parse("update task 1 high priority", ref, ctx)

	require.Equal(t, domain.ActionUpdateTask, req.Type)
	assert.Equal(t, id, req.Update.Target.ID)
	require.NotNil(t, req.Update.Patch.Priority)
	assert.Equal(t, domain.PriorityHigh, *req.Update.Patch.Priority)

	req = newParser(t).Parse("reschedule gym to tomorrow", ref, Context{})
	require.Equal(t, domain.ActionUpdateTask, req.Type)
	assert.Equal(t, "gym", req.Update.Target.TitleQuery)
	require.NotNil(t, req.Update.Patch.DueDate)
	assert.Equal(t, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), *req.Update.Patch.DueDate)
}

func TestParse_Analytics(t *testing.T) {
	req := newParser(t).Parse("how am I doing", ref, Context{})
	assert.Equal(t, domain.ActionGetAnalytics, req.Type)
}

func TestParse_UnknownIntent(t *testing.T) {
	req := newParser(t).Parse("good morning", ref, Context{})

	require.Equal(t, domain.ActionClarify, req.Type)
	assert.Equal(t, domain.ClarifyUnknownIntent, req.Clarify.Reason)
}

func TestParse_AmbiguousDate(t *testing.T) {
	req := newParser(t).Parse("add task party on 2026-02-30", ref, Context{})

	require.Equal(t, domain.ActionClarify, req.Type)
	assert.Equal(t, domain.ClarifyAmbiguousDate, req.Clarify.Reason)
	assert.Equal(t, "2026-02-30", req.Clarify.Detail)
}

func TestParse_LanguageFallsBackToConversation(t *testing.T) {
	req := newParser(t).Parse("ok", ref, Context{LastLanguage: domain.LangRomanUrdu})
	assert.Equal(t, domain.LangRomanUrdu, req.Language)

	req = newParser(t).Parse("ok", ref, Context{})
	assert.Equal(t, domain.LangEnglish, req.Language)
}
