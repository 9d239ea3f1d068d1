package domain

import "time"

// ActionType selects the variant of an ActionRequest.
type ActionType string

const (
	ActionCreateTask   ActionType = "create_task"
	ActionListTasks    ActionType = "list_tasks"
	ActionUpdateTask   ActionType = "update_task"
	ActionCompleteTask ActionType = "complete_task"
	ActionDeleteTask   ActionType = "delete_task"
	ActionGetAnalytics ActionType = "get_analytics"
	ActionClarify      ActionType = "clarify"
)

// ActionRequest is one canonicalized user intent, produced by the intent
// parser and consumed exactly once by the dispatcher. Only the field matching
// Type is set.
type ActionRequest struct {
	Type     ActionType
	Language Language // resolved response language for this turn

	Create    *CreateTask
	List      *ListTasks
	Update    *UpdateTask
	Complete  *CompleteTask
	Delete    *DeleteTask
	Analytics *GetAnalytics
	Clarify   *Clarify
}

// CreateTask carries everything needed for a create_task call.
type CreateTask struct {
	Title         string
	Description   string
	Priority      Priority
	Suggested     bool // priority came from an urgency keyword, not the user
	Tags          []string
	DueDate       *time.Time
	DueInPast     bool // accepted, but the reply carries a warning
	Recurrence    Recurrence
	RecurrenceEnd *time.Time
	ReminderAt    *time.Time
}

// ListTasks carries the filter for a list_tasks call.
type ListTasks struct {
	Filter TaskFilter
}

// TaskTarget names the task an update/complete/delete acts on. Either ID is
// bound (directly or via the context tracker) or TitleQuery holds leftover
// text for the dispatcher to resolve against the store.
type TaskTarget struct {
	ID         TaskID
	TitleQuery string
	// FromContext is set when the id was bound through anaphora resolution.
	FromContext bool
}

type UpdateTask struct {
	Target TaskTarget
	Patch  TaskPatch
	// DueInPast mirrors CreateTask: a past date is applied but warned about.
	DueInPast bool
}

type CompleteTask struct {
	Target TaskTarget
}

type DeleteTask struct {
	Target TaskTarget
}

type GetAnalytics struct{}

// ClarifyReason says why the turn could not be dispatched.
type ClarifyReason string

const (
	ClarifyNoReference        ClarifyReason = "no_reference"        // "that task" with empty context
	ClarifyAmbiguousReference ClarifyReason = "ambiguous_reference" // several plausible tasks
	ClarifyAmbiguousDate      ClarifyReason = "ambiguous_date"      // unparseable date phrase
	ClarifyUnknownIntent      ClarifyReason = "unknown_intent"      // no verb detected
)

// Clarify is a deterministic re-ask. It must never cause a write.
type Clarify struct {
	Reason ClarifyReason
	// Detail is the offending fragment of the user message, if any.
	Detail string
}
