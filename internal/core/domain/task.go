package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID types to prevent stringly-typed confusion
type TaskID string

// OwnerID identifies the user a task belongs to. Every store operation is
// scoped to exactly one owner.
type OwnerID string

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether p is one of the three known levels.
func ValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Recurrence pattern of a task
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// ValidRecurrence reports whether r is a known pattern.
func ValidRecurrence(r Recurrence) bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Field limits enforced by the dispatcher before any store call.
const (
	TitleMaxLen       = 200
	DescriptionMaxLen = 1000
	MaxTags           = 10
	TagMaxLen         = 30
)

// Task is the unit of work managed through the tool protocol.
type Task struct {
	ID            TaskID     `json:"id"`
	OwnerID       OwnerID    `json:"owner_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Completed     bool       `json:"completed"`
	Priority      Priority   `json:"priority"`
	Tags          []string   `json:"tags,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Recurrence    Recurrence `json:"recurrence_pattern"`
	RecurrenceEnd *time.Time `json:"recurrence_end_date,omitempty"`
	ParentTaskID  *TaskID    `json:"parent_task_id,omitempty"`
	ReminderAt    *time.Time `json:"reminder_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsOverdue is derived, never stored: past due and not completed.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Completed
}

// NewTaskID generates a random task identifier.
func NewTaskID() TaskID {
	return TaskID(uuid.NewString())
}

// TaskStatus filters a listing by completion state.
type TaskStatus string

const (
	StatusAll       TaskStatus = "all"
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// TaskFilter narrows a list_tasks call. Zero value means "everything".
type TaskFilter struct {
	Status      TaskStatus
	Priority    Priority // empty = any
	Tags        []string // any-match
	DueBefore   *time.Time // exclusive, so day windows are [midnight, next-midnight)
	DueAfter    *time.Time // inclusive
	OverdueOnly bool
	Search      string // case-insensitive substring over title and description
}

// Matches reports whether the task passes the filter as of now.
// Adapters may push parts of this into SQL; this is the reference semantics.
func (f TaskFilter) Matches(t Task, now time.Time) bool {
	switch f.Status {
	case StatusPending:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if len(f.Tags) > 0 && !anyTagMatch(t.Tags, f.Tags) {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore)) {
		return false
	}
	if f.DueAfter != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueAfter)) {
		return false
	}
	if f.OverdueOnly && !t.IsOverdue(now) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	return true
}

func anyTagMatch(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// TaskPatch is a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title         *string
	Description   *string
	Priority      *Priority
	Tags          *[]string
	DueDate       *time.Time
	Recurrence    *Recurrence
	RecurrenceEnd *time.Time
	ReminderAt    *time.Time
}

// IsEmpty reports whether the patch would change nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Tags == nil && p.DueDate == nil && p.Recurrence == nil &&
		p.RecurrenceEnd == nil && p.ReminderAt == nil
}

// Apply copies the non-nil patch fields onto the task.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		t.Tags = *p.Tags
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.Recurrence != nil {
		t.Recurrence = *p.Recurrence
	}
	if p.RecurrenceEnd != nil {
		t.RecurrenceEnd = p.RecurrenceEnd
	}
	if p.ReminderAt != nil {
		t.ReminderAt = p.ReminderAt
	}
}

// SortTasks orders a listing the way the UI expects: pending before completed,
// then earliest due date (tasks without one last), then newest created first.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Completed != b.Completed {
			return !a.Completed
		}
		switch {
		case a.DueDate == nil && b.DueDate == nil:
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
