package domain

import "time"

// NextDueDate advances a due date by one recurrence step. Monthly keeps the
// day-of-month, clamped to the last day of the target month (Jan 31 -> Feb 28,
// or Feb 29 in a leap year).
func NextDueDate(due time.Time, r Recurrence) time.Time {
	switch r {
	case RecurrenceDaily:
		return due.AddDate(0, 0, 1)
	case RecurrenceWeekly:
		return due.AddDate(0, 0, 7)
	case RecurrenceMonthly:
		y, m, d := due.Date()
		last := lastDayOfMonth(y, m+1)
		if d > last {
			d = last
		}
		return time.Date(y, m+1, d, due.Hour(), due.Minute(), due.Second(), due.Nanosecond(), due.Location())
	}
	return due
}

func lastDayOfMonth(year int, month time.Month) int {
	// Day 0 of the following month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextOccurrence computes the child task spawned when a recurring task is
// completed. It returns false when the task does not recur or the chain has
// reached its end date. The child gets no ID or timestamps; the store assigns
// those on insert. Exactly one child per completion event.
func NextOccurrence(completed Task, now time.Time) (Task, bool) {
	if completed.Recurrence == RecurrenceNone || completed.Recurrence == "" {
		return Task{}, false
	}

	base := now
	if completed.DueDate != nil {
		base = *completed.DueDate
	}
	nextDue := NextDueDate(base, completed.Recurrence)

	if completed.RecurrenceEnd != nil && nextDue.After(*completed.RecurrenceEnd) {
		return Task{}, false
	}

	parent := completed.ID
	child := Task{
		OwnerID:       completed.OwnerID,
		Title:         completed.Title,
		Description:   completed.Description,
		Priority:      completed.Priority,
		Tags:          append([]string(nil), completed.Tags...),
		DueDate:       &nextDue,
		Recurrence:    completed.Recurrence,
		RecurrenceEnd: completed.RecurrenceEnd,
		ParentTaskID:  &parent,
	}

	// Keep the reminder at the same offset before the new due date.
	if completed.ReminderAt != nil && completed.DueDate != nil {
		offset := completed.DueDate.Sub(*completed.ReminderAt)
		next := nextDue.Add(-offset)
		child.ReminderAt = &next
	}

	return child, true
}
