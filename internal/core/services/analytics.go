package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
	"github.com/Tafzeel99/todo-agent/internal/core/ports"
)

// Aggregator computes analytics snapshots. Pure read: it never mutates the
// store, and every snapshot is recomputed from scratch at query time.
type Aggregator struct {
	store ports.TaskStore
}

func NewAggregator(store ports.TaskStore) *Aggregator {
	return &Aggregator{store: store}
}

// Compute folds the owner's full task list into a snapshot as of the given
// instant.
func (a *Aggregator) Compute(ctx context.Context, owner domain.OwnerID, asOf time.Time) (domain.AnalyticsSnapshot, error) {
	tasks, err := a.store.ListTasks(ctx, owner, domain.TaskFilter{Status: domain.StatusAll})
	if err != nil {
		return domain.AnalyticsSnapshot{}, fmt.Errorf("list tasks for analytics: %w", err)
	}
	return domain.ComputeAnalytics(tasks, asOf), nil
}
