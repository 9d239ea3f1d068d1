package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
	"github.com/Tafzeel99/todo-agent/internal/core/ports"
)

// Outcome is everything the composer needs to phrase one turn's reply. At
// most one of Task/Tasks/Analytics is meaningful, selected by Action; Err
// carries the turn-scoped failure, if any.
type Outcome struct {
	Action   domain.ActionType
	Language domain.Language

	Task      *domain.Task
	Spawned   *domain.Task
	Tasks     []domain.Task
	Analytics *domain.AnalyticsSnapshot
	Clarify   *domain.Clarify

	AlreadyCompleted  bool
	DueInPast         bool
	SuggestedPriority bool

	// Touched lists task ids this turn referenced, newest-relevance first,
	// for the context tracker. Removed lists ids that ceased to exist and
	// must be dropped from the conversation context.
	Touched []domain.TaskID
	Removed []domain.TaskID

	Err error
}

// Dispatcher is the single choke point between action requests and the task
// store. It validates every field before any store call, guaranteeing at most
// one mutation per well-formed request, and retries a transient store failure
// exactly once.
type Dispatcher struct {
	store     ports.TaskStore
	aggregate *Aggregator
	logger    *slog.Logger

	timeout time.Duration
	backoff time.Duration
	now     func() time.Time
}

func NewDispatcher(store ports.TaskStore, logger *slog.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		store:     store,
		aggregate: NewAggregator(store),
		logger:    logger,
		timeout:   timeout,
		backoff:   200 * time.Millisecond,
		now:       time.Now,
	}
}

// Dispatch executes one action request. It never returns a Go error to the
// caller: every failure is turn-scoped and lands in Outcome.Err for the
// composer to phrase.
func (d *Dispatcher) Dispatch(ctx context.Context, owner domain.OwnerID, req domain.ActionRequest) Outcome {
	out := Outcome{Action: req.Type, Language: req.Language}

	switch req.Type {
	case domain.ActionClarify:
		// Clarify never writes, by contract.
		out.Clarify = req.Clarify
	case domain.ActionCreateTask:
		d.dispatchCreate(ctx, owner, req.Create, &out)
	case domain.ActionListTasks:
		d.dispatchList(ctx, owner, req.List, &out)
	case domain.ActionUpdateTask:
		d.dispatchUpdate(ctx, owner, req.Update, &out)
	case domain.ActionCompleteTask:
		d.dispatchComplete(ctx, owner, req.Complete, &out)
	case domain.ActionDeleteTask:
		d.dispatchDelete(ctx, owner, req.Delete, &out)
	case domain.ActionGetAnalytics:
		d.dispatchAnalytics(ctx, owner, &out)
	default:
		out.Err = fmt.Errorf("unknown action type %q", req.Type)
	}

	if out.Err != nil {
		d.logger.Warn("dispatch failed", "action", req.Type, "owner_id", owner, "error", out.Err)
	}
	return out
}

func (d *Dispatcher) dispatchCreate(ctx context.Context, owner domain.OwnerID, c *domain.CreateTask, out *Outcome) {
	if err := validateCreate(c); err != nil {
		out.Err = err
		return
	}

	draft := domain.Task{
		OwnerID:       owner,
		Title:         c.Title,
		Description:   c.Description,
		Priority:      c.Priority,
		Tags:          c.Tags,
		DueDate:       c.DueDate,
		Recurrence:    c.Recurrence,
		RecurrenceEnd: c.RecurrenceEnd,
		ReminderAt:    c.ReminderAt,
	}
	if draft.Priority == "" {
		draft.Priority = domain.PriorityMedium
	}
	if draft.Recurrence == "" {
		draft.Recurrence = domain.RecurrenceNone
	}

	var task domain.Task
	err := d.withRetry(ctx, "create_task", func(ctx context.Context) error {
		var err error
		task, err = d.store.CreateTask(ctx, draft)
		return err
	})
	if err != nil {
		out.Err = err
		return
	}

	out.Task = &task
	out.Touched = []domain.TaskID{task.ID}
	out.DueInPast = c.DueInPast
	out.SuggestedPriority = c.Suggested
}

func (d *Dispatcher) dispatchList(ctx context.Context, owner domain.OwnerID, l *domain.ListTasks, out *Outcome) {
	var tasks []domain.Task
	err := d.withRetry(ctx, "list_tasks", func(ctx context.Context) error {
		var err error
		tasks, err = d.store.ListTasks(ctx, owner, l.Filter)
		return err
	})
	if err != nil {
		out.Err = err
		return
	}

	domain.SortTasks(tasks)
	out.Tasks = tasks
	// Listed tasks become ordinal references ("task 2") for later turns.
	for _, t := range tasks {
		out.Touched = append(out.Touched, t.ID)
	}
}

func (d *Dispatcher) dispatchUpdate(ctx context.Context, owner domain.OwnerID, u *domain.UpdateTask, out *Outcome) {
	if u.Patch.IsEmpty() {
		out.Err = domain.NewValidationError("update", "no changes given")
		return
	}
	if err := validatePatch(u.Patch); err != nil {
		out.Err = err
		return
	}

	target, clar, err := d.resolveTarget(ctx, owner, u.Target)
	if clar != nil || err != nil {
		out.Clarify, out.Err = clar, err
		return
	}

	var task domain.Task
	err = d.withRetry(ctx, "update_task", func(ctx context.Context) error {
		var err error
		task, err = d.store.UpdateTask(ctx, owner, target.ID, u.Patch)
		return err
	})
	if err != nil {
		out.Err = err
		out.Touched = []domain.TaskID{target.ID}
		return
	}

	out.Task = &task
	out.Touched = []domain.TaskID{task.ID}
	out.DueInPast = u.DueInPast
}

func (d *Dispatcher) dispatchComplete(ctx context.Context, owner domain.OwnerID, c *domain.CompleteTask, out *Outcome) {
	target, clar, err := d.resolveTarget(ctx, owner, c.Target)
	if clar != nil || err != nil {
		out.Clarify, out.Err = clar, err
		return
	}

	var res ports.CompletionResult
	err = d.withRetry(ctx, "complete_task", func(ctx context.Context) error {
		var err error
		res, err = d.store.CompleteTask(ctx, owner, target.ID, d.now())
		return err
	})
	if err != nil {
		out.Err = err
		out.Touched = []domain.TaskID{target.ID}
		return
	}

	out.Task = &res.Completed
	out.Spawned = res.Spawned
	out.AlreadyCompleted = res.AlreadyCompleted
	out.Touched = []domain.TaskID{res.Completed.ID}
	if res.Spawned != nil {
		out.Touched = []domain.TaskID{res.Spawned.ID, res.Completed.ID}
	}
}

func (d *Dispatcher) dispatchDelete(ctx context.Context, owner domain.OwnerID, del *domain.DeleteTask, out *Outcome) {
	target, clar, err := d.resolveTarget(ctx, owner, del.Target)
	if clar != nil || err != nil {
		out.Clarify, out.Err = clar, err
		return
	}

	err = d.withRetry(ctx, "delete_task", func(ctx context.Context) error {
		return d.store.DeleteTask(ctx, owner, target.ID)
	})
	if err != nil {
		out.Err = err
		return
	}

	out.Task = &target
	out.Removed = []domain.TaskID{target.ID}
}

func (d *Dispatcher) dispatchAnalytics(ctx context.Context, owner domain.OwnerID, out *Outcome) {
	var snap domain.AnalyticsSnapshot
	err := d.withRetry(ctx, "get_analytics", func(ctx context.Context) error {
		var err error
		snap, err = d.aggregate.Compute(ctx, owner, d.now())
		return err
	})
	if err != nil {
		out.Err = err
		return
	}
	out.Analytics = &snap
}

// resolveTarget turns a task reference into a concrete task. A title query is
// resolved by substring search: one match binds, zero is not-found, several
// fall back to the pending subset and otherwise ask the user.
func (d *Dispatcher) resolveTarget(ctx context.Context, owner domain.OwnerID, target domain.TaskTarget) (domain.Task, *domain.Clarify, error) {
	if target.ID != "" {
		var task domain.Task
		err := d.withRetry(ctx, "get_task", func(ctx context.Context) error {
			var err error
			task, err = d.store.GetTask(ctx, owner, target.ID)
			return err
		})
		return task, nil, err
	}

	if target.TitleQuery == "" {
		return domain.Task{}, &domain.Clarify{Reason: domain.ClarifyNoReference}, nil
	}

	var matches []domain.Task
	err := d.withRetry(ctx, "search_tasks", func(ctx context.Context) error {
		var err error
		matches, err = d.store.ListTasks(ctx, owner, domain.TaskFilter{Status: domain.StatusAll, Search: target.TitleQuery})
		return err
	})
	if err != nil {
		return domain.Task{}, nil, err
	}

	switch len(matches) {
	case 0:
		return domain.Task{}, nil, fmt.Errorf("no task matching %q: %w", target.TitleQuery, domain.ErrTaskNotFound)
	case 1:
		return matches[0], nil, nil
	}

	var pending []domain.Task
	for _, t := range matches {
		if !t.Completed {
			pending = append(pending, t)
		}
	}
	if len(pending) == 1 {
		return pending[0], nil, nil
	}
	return domain.Task{}, &domain.Clarify{Reason: domain.ClarifyAmbiguousReference, Detail: target.TitleQuery}, nil
}

// withRetry runs one store call under the dispatcher timeout and retries a
// transient failure exactly once after a short backoff.
func (d *Dispatcher) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	call := func() error {
		cctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		return fn(cctx)
	}

	err := call()
	if err == nil || !errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}

	d.logger.Warn("store unavailable, retrying once", "op", op, "error", err)
	select {
	case <-time.After(d.backoff):
	case <-ctx.Done():
		return err
	}
	return call()
}

func validateCreate(c *domain.CreateTask) error {
	if err := validateTitle(c.Title); err != nil {
		return err
	}
	if utf8.RuneCountInString(c.Description) > domain.DescriptionMaxLen {
		return domain.NewValidationError("description", fmt.Sprintf("longer than %d characters", domain.DescriptionMaxLen))
	}
	if c.Priority != "" && !domain.ValidPriority(c.Priority) {
		return domain.NewValidationError("priority", "must be low, medium or high")
	}
	if c.Recurrence != "" && !domain.ValidRecurrence(c.Recurrence) {
		return domain.NewValidationError("recurrence_pattern", "must be none, daily, weekly or monthly")
	}
	if err := validateTags(c.Tags); err != nil {
		return err
	}
	if c.RecurrenceEnd != nil {
		if c.DueDate == nil {
			return domain.NewValidationError("recurrence_end_date", "requires a due date")
		}
		if c.RecurrenceEnd.Before(*c.DueDate) {
			return domain.NewValidationError("recurrence_end_date", "must not be before the due date")
		}
	}
	if c.ReminderAt != nil {
		if c.DueDate == nil {
			return domain.NewValidationError("reminder_at", "requires a due date")
		}
		if c.ReminderAt.After(*c.DueDate) {
			return domain.NewValidationError("reminder_at", "must not be after the due date")
		}
	}
	return nil
}

func validatePatch(p domain.TaskPatch) error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > domain.DescriptionMaxLen {
		return domain.NewValidationError("description", fmt.Sprintf("longer than %d characters", domain.DescriptionMaxLen))
	}
	if p.Priority != nil && !domain.ValidPriority(*p.Priority) {
		return domain.NewValidationError("priority", "must be low, medium or high")
	}
	if p.Recurrence != nil && !domain.ValidRecurrence(*p.Recurrence) {
		return domain.NewValidationError("recurrence_pattern", "must be none, daily, weekly or monthly")
	}
	if p.Tags != nil {
		if err := validateTags(*p.Tags); err != nil {
			return err
		}
	}
	if p.RecurrenceEnd != nil && p.DueDate != nil && p.RecurrenceEnd.Before(*p.DueDate) {
		return domain.NewValidationError("recurrence_end_date", "must not be before the due date")
	}
	if p.ReminderAt != nil && p.DueDate != nil && p.ReminderAt.After(*p.DueDate) {
		return domain.NewValidationError("reminder_at", "must not be after the due date")
	}
	return nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n == 0 {
		return domain.NewValidationError("title", "must not be empty")
	}
	if n > domain.TitleMaxLen {
		return domain.NewValidationError("title", fmt.Sprintf("longer than %d characters", domain.TitleMaxLen))
	}
	return nil
}

func validateTags(tags []string) error {
	if len(tags) > domain.MaxTags {
		return domain.NewValidationError("tags", fmt.Sprintf("more than %d tags", domain.MaxTags))
	}
	for _, tag := range tags {
		if tag == "" {
			return domain.NewValidationError("tags", "empty tag")
		}
		if utf8.RuneCountInString(tag) > domain.TagMaxLen {
			return domain.NewValidationError("tags", fmt.Sprintf("tag %q longer than %d characters", tag, domain.TagMaxLen))
		}
	}
	return nil
}
