package domain

import "time"

// TaskDigest is a short task summary carried inside an analytics snapshot.
type TaskDigest struct {
	ID       TaskID     `json:"id"`
	Title    string     `json:"title"`
	Priority Priority   `json:"priority"`
	DueDate  *time.Time `json:"due_date,omitempty"`
}

// AnalyticsSnapshot is computed on demand and never persisted.
type AnalyticsSnapshot struct {
	TotalTasks     int     `json:"total_tasks"`
	CompletedCount int     `json:"completed_count"`
	PendingCount   int     `json:"pending_count"`
	OverdueCount   int     `json:"overdue_count"`
	CompletionRate float64 `json:"completion_rate"` // 0..1, exactly 0 when no tasks

	DueTodayCount     int `json:"due_today_count"`
	DueThisWeekCount  int `json:"due_this_week_count"`
	CompletedThisWeek int `json:"completed_this_week"`

	ByPriority map[Priority]int `json:"by_priority"` // pending tasks per priority

	OverdueTasks  []TaskDigest `json:"overdue_tasks,omitempty"`  // at most 5
	DueTodayTasks []TaskDigest `json:"due_today_tasks,omitempty"` // at most 5
}

const digestLimit = 5

// ComputeAnalytics folds one owner's tasks into a snapshot as of the given
// instant. Pure function; the caller supplies a fresh listing.
func ComputeAnalytics(tasks []Task, asOf time.Time) AnalyticsSnapshot {
	snap := AnalyticsSnapshot{
		ByPriority: map[Priority]int{PriorityLow: 0, PriorityMedium: 0, PriorityHigh: 0},
	}

	dayStart := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)
	weekEnd := asOf.AddDate(0, 0, 7)
	weekAgo := asOf.AddDate(0, 0, -7)

	for _, t := range tasks {
		snap.TotalTasks++
		if t.Completed {
			snap.CompletedCount++
			if !t.UpdatedAt.Before(weekAgo) && !t.UpdatedAt.After(asOf) {
				snap.CompletedThisWeek++
			}
			continue
		}

		snap.PendingCount++
		snap.ByPriority[t.Priority]++

		if t.IsOverdue(asOf) {
			snap.OverdueCount++
			if len(snap.OverdueTasks) < digestLimit {
				snap.OverdueTasks = append(snap.OverdueTasks, digest(t))
			}
		}
		if t.DueDate != nil {
			if !t.DueDate.Before(dayStart) && t.DueDate.Before(dayEnd) {
				snap.DueTodayCount++
				if len(snap.DueTodayTasks) < digestLimit {
					snap.DueTodayTasks = append(snap.DueTodayTasks, digest(t))
				}
			}
			if !t.DueDate.Before(asOf) && t.DueDate.Before(weekEnd) {
				snap.DueThisWeekCount++
			}
		}
	}

	if snap.TotalTasks > 0 {
		snap.CompletionRate = float64(snap.CompletedCount) / float64(snap.TotalTasks)
	}
	return snap
}

func digest(t Task) TaskDigest {
	return TaskDigest{ID: t.ID, Title: t.Title, Priority: t.Priority, DueDate: t.DueDate}
}
