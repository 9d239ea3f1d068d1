package ports

import (
	"context"
	"time"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
)

// CompletionResult is what complete_task returns: the completed task plus the
// next occurrence when the recurrence rule fired.
type CompletionResult struct {
	Completed domain.Task
	// Spawned is non-nil iff the task recurs and the chain has not ended.
	Spawned *domain.Task
	// AlreadyCompleted marks a repeat completion; no child is spawned then.
	AlreadyCompleted bool
}

// TaskStore is the tool contract with the external task store. Every
// operation is scoped to one owner; no operation ever touches another owner's
// tasks. Errors use the domain taxonomy: domain.ErrTaskNotFound for unknown
// ids, domain.ErrStoreUnavailable (wrapped) for timeouts and transient
// failures.
type TaskStore interface {
	// CreateTask persists a new task. The store assigns ID, CreatedAt and
	// UpdatedAt; other fields are taken from the draft as-is.
	CreateTask(ctx context.Context, draft domain.Task) (domain.Task, error)

	// GetTask fetches one task by id for the owner.
	GetTask(ctx context.Context, owner domain.OwnerID, id domain.TaskID) (domain.Task, error)

	// ListTasks returns the owner's tasks passing the filter, sorted pending
	// first, then due date ascending (unset last), then newest created.
	ListTasks(ctx context.Context, owner domain.OwnerID, f domain.TaskFilter) ([]domain.Task, error)

	// UpdateTask applies the patch and returns the updated task.
	UpdateTask(ctx context.Context, owner domain.OwnerID, id domain.TaskID, patch domain.TaskPatch) (domain.Task, error)

	// CompleteTask marks the task done and, for recurring tasks, atomically
	// inserts the next occurrence per domain.NextOccurrence.
	CompleteTask(ctx context.Context, owner domain.OwnerID, id domain.TaskID, now time.Time) (CompletionResult, error)

	// DeleteTask removes the task.
	DeleteTask(ctx context.Context, owner domain.OwnerID, id domain.TaskID) error
}
