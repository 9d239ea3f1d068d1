package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
	"github.com/Tafzeel99/todo-agent/internal/core/ports"
)

// fakeStore is an in-memory TaskStore following the reference filter and
// recurrence semantics. failN makes the next N calls return
// ErrStoreUnavailable, for retry tests.
type fakeStore struct {
	mu    sync.Mutex
	tasks map[domain.TaskID]domain.Task
	seq   int
	failN int
	calls int
	now   func() time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks: make(map[domain.TaskID]domain.Task),
		now:   time.Now,
	}
}

func (s *fakeStore) maybeFail() error {
	s.calls++
	if s.failN > 0 {
		s.failN--
		return fmt.Errorf("injected outage: %w", domain.ErrStoreUnavailable)
	}
	return nil
}

func (s *fakeStore) CreateTask(_ context.Context, draft domain.Task) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return domain.Task{}, err
	}

	s.seq++
	draft.ID = domain.TaskID(fmt.Sprintf("task-%d", s.seq))
	draft.CreatedAt = s.now()
	draft.UpdatedAt = draft.CreatedAt
	s.tasks[draft.ID] = draft
	return draft, nil
}

func (s *fakeStore) GetTask(_ context.Context, owner domain.OwnerID, id domain.TaskID) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return domain.Task{}, err
	}

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != owner {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return t, nil
}

func (s *fakeStore) ListTasks(_ context.Context, owner domain.OwnerID, f domain.TaskFilter) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return nil, err
	}

	now := s.now()
	var out []domain.Task
	for _, t := range s.tasks {
		if t.OwnerID == owner && f.Matches(t, now) {
			out = append(out, t)
		}
	}
	domain.SortTasks(out)
	return out, nil
}

func (s *fakeStore) UpdateTask(_ context.Context, owner domain.OwnerID, id domain.TaskID, patch domain.TaskPatch) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return domain.Task{}, err
	}

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != owner {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	patch.Apply(&t)
	t.UpdatedAt = s.now()
	s.tasks[id] = t
	return t, nil
}

func (s *fakeStore) CompleteTask(_ context.Context, owner domain.OwnerID, id domain.TaskID, now time.Time) (ports.CompletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return ports.CompletionResult{}, err
	}

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != owner {
		return ports.CompletionResult{}, domain.ErrTaskNotFound
	}
	if t.Completed {
		return ports.CompletionResult{Completed: t, AlreadyCompleted: true}, nil
	}

	t.Completed = true
	t.UpdatedAt = now
	s.tasks[id] = t

	res := ports.CompletionResult{Completed: t}
	if child, ok := domain.NextOccurrence(t, now); ok {
		s.seq++
		child.ID = domain.TaskID(fmt.Sprintf("task-%d", s.seq))
		child.CreatedAt = now
		child.UpdatedAt = now
		s.tasks[child.ID] = child
		res.Spawned = &child
	}
	return res, nil
}

func (s *fakeStore) DeleteTask(_ context.Context, owner domain.OwnerID, id domain.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.maybeFail(); err != nil {
		return err
	}

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != owner {
		return domain.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}
