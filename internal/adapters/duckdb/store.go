// Package duckdb implements the task store port on DuckDB. Tags are stored
// as a JSON text column; everything else maps to plain columns.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
	"github.com/Tafzeel99/todo-agent/internal/core/ports"
)

type Store struct {
	db *sql.DB
}

var _ ports.TaskStore = (*Store)(nil)

// New opens (or creates) the database at path and bootstraps the schema.
// An empty path opens an in-memory database.
func New(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		completed BOOLEAN NOT NULL DEFAULT false,
		priority TEXT NOT NULL DEFAULT 'medium',
		tags TEXT NOT NULL DEFAULT '[]',
		due_date TIMESTAMP,
		recurrence TEXT NOT NULL DEFAULT 'none',
		recurrence_end TIMESTAMP,
		parent_task_id TEXT,
		reminder_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

const taskColumns = `id, owner_id, title, description, completed, priority, tags, due_date, recurrence, recurrence_end, parent_task_id, reminder_at, created_at, updated_at`

func (s *Store) CreateTask(ctx context.Context, draft domain.Task) (domain.Task, error) {
	draft.ID = domain.NewTaskID()
	now := time.Now().UTC()
	draft.CreatedAt = now
	draft.UpdatedAt = now
	if draft.Priority == "" {
		draft.Priority = domain.PriorityMedium
	}
	if draft.Recurrence == "" {
		draft.Recurrence = domain.RecurrenceNone
	}

	if err := s.insert(ctx, s.db, draft); err != nil {
		return domain.Task{}, wrapErr("create task", err)
	}
	return draft, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, db execer, t domain.Task) error {
	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	var parent *string
	if t.ParentTaskID != nil {
		p := string(*t.ParentTaskID)
		parent = &p
	}

	query := `
	INSERT INTO tasks (` + taskColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, query,
		t.ID, t.OwnerID, t.Title, t.Description, t.Completed, t.Priority,
		string(tags), t.DueDate, t.Recurrence, t.RecurrenceEnd,
		parent, t.ReminderAt, t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (s *Store) GetTask(ctx context.Context, owner domain.OwnerID, id domain.TaskID) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND owner_id = ?`, id, owner)

	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, fmt.Errorf("task %s: %w", id, domain.ErrTaskNotFound)
		}
		return domain.Task{}, wrapErr("get task", err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, owner domain.OwnerID, f domain.TaskFilter) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ?`
	args := []any{owner}

	switch f.Status {
	case domain.StatusPending:
		query += ` AND NOT completed`
	case domain.StatusCompleted:
		query += ` AND completed`
	}
	if f.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, f.Priority)
	}
	if f.DueBefore != nil {
		query += ` AND due_date IS NOT NULL AND due_date < ?`
		args = append(args, *f.DueBefore)
	}
	if f.DueAfter != nil {
		query += ` AND due_date IS NOT NULL AND due_date >= ?`
		args = append(args, *f.DueAfter)
	}
	if f.OverdueOnly {
		query += ` AND NOT completed AND due_date IS NOT NULL AND due_date < ?`
		args = append(args, time.Now().UTC())
	}
	if f.Search != "" {
		query += ` AND (lower(title) LIKE ? OR lower(description) LIKE ?)`
		needle := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, needle, needle)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list tasks", err)
	}
	defer rows.Close()

	now := time.Now()
	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, wrapErr("list tasks", err)
		}
		// Tag matching stays in Go; the column is opaque JSON to SQL.
		if f.Matches(t, now) {
			tasks = append(tasks, t)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list tasks", err)
	}

	domain.SortTasks(tasks)
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, owner domain.OwnerID, id domain.TaskID, patch domain.TaskPatch) (domain.Task, error) {
	t, err := s.GetTask(ctx, owner, id)
	if err != nil {
		return domain.Task{}, err
	}

	patch.Apply(&t)
	t.UpdatedAt = time.Now().UTC()

	tags, err := json.Marshal(t.Tags)
	if err != nil {
		return domain.Task{}, fmt.Errorf("encode tags: %w", err)
	}

	query := `
	UPDATE tasks
	SET title = ?, description = ?, completed = ?, priority = ?, tags = ?,
		due_date = ?, recurrence = ?, recurrence_end = ?, reminder_at = ?, updated_at = ?
	WHERE id = ? AND owner_id = ?`
	_, err = s.db.ExecContext(ctx, query,
		t.Title, t.Description, t.Completed, t.Priority, string(tags),
		t.DueDate, t.Recurrence, t.RecurrenceEnd, t.ReminderAt, t.UpdatedAt,
		id, owner,
	)
	if err != nil {
		return domain.Task{}, wrapErr("update task", err)
	}
	return t, nil
}

// CompleteTask marks the task done and spawns the next occurrence of a
// recurring task in the same transaction, so a crash never yields a completed
// parent without its child.
func (s *Store) CompleteTask(ctx context.Context, owner domain.OwnerID, id domain.TaskID, now time.Time) (ports.CompletionResult, error) {
	t, err := s.GetTask(ctx, owner, id)
	if err != nil {
		return ports.CompletionResult{}, err
	}
	if t.Completed {
		return ports.CompletionResult{Completed: t, AlreadyCompleted: true}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ports.CompletionResult{}, wrapErr("complete task", err)
	}
	defer tx.Rollback()

	t.Completed = true
	t.UpdatedAt = now.UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET completed = true, updated_at = ? WHERE id = ? AND owner_id = ?`,
		t.UpdatedAt, id, owner); err != nil {
		return ports.CompletionResult{}, wrapErr("complete task", err)
	}

	res := ports.CompletionResult{Completed: t}
	if child, ok := domain.NextOccurrence(t, now); ok {
		child.ID = domain.NewTaskID()
		child.CreatedAt = now.UTC()
		child.UpdatedAt = child.CreatedAt
		if err := s.insert(ctx, tx, child); err != nil {
			return ports.CompletionResult{}, wrapErr("spawn next occurrence", err)
		}
		res.Spawned = &child
	}

	if err := tx.Commit(); err != nil {
		return ports.CompletionResult{}, wrapErr("complete task", err)
	}
	return res, nil
}

func (s *Store) DeleteTask(ctx context.Context, owner domain.OwnerID, id domain.TaskID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return wrapErr("delete task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("delete task", err)
	}
	if n == 0 {
		return fmt.Errorf("task %s: %w", id, domain.ErrTaskNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (domain.Task, error) {
	var t domain.Task
	var idStr, ownerStr, priorityStr, recurrenceStr, tagsJSON string
	var parent *string

	err := row.Scan(
		&idStr, &ownerStr, &t.Title, &t.Description, &t.Completed, &priorityStr,
		&tagsJSON, &t.DueDate, &recurrenceStr, &t.RecurrenceEnd,
		&parent, &t.ReminderAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return domain.Task{}, err
	}

	t.ID = domain.TaskID(idStr)
	t.OwnerID = domain.OwnerID(ownerStr)
	t.Priority = domain.Priority(priorityStr)
	t.Recurrence = domain.Recurrence(recurrenceStr)
	if parent != nil {
		pid := domain.TaskID(*parent)
		t.ParentTaskID = &pid
	}
	if err := json.Unmarshal([]byte(tagsJSON), &t.Tags); err != nil {
		return domain.Task{}, fmt.Errorf("decode tags: %w", err)
	}
	return t, nil
}

// wrapErr maps transport-level failures onto the retryable taxonomy; other
// errors pass through wrapped.
func wrapErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%s: %v: %w", op, err, domain.ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
