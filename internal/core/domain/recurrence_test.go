package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDate(t *testing.T) {
	tests := []struct {
		name    string
		due     time.Time
		pattern Recurrence
		want    time.Time
	}{
		{"daily", date(2026, time.January, 24), RecurrenceDaily, date(2026, time.January, 25)},
		{"weekly", date(2026, time.January, 24), RecurrenceWeekly, date(2026, time.January, 31)},
		{"monthly same day", date(2026, time.March, 15), RecurrenceMonthly, date(2026, time.April, 15)},
		{"monthly clamp jan31", date(2026, time.January, 31), RecurrenceMonthly, date(2026, time.February, 28)},
		{"monthly clamp leap year", date(2028, time.January, 31), RecurrenceMonthly, date(2028, time.February, 29)},
		{"monthly clamp 31 to 30", date(2026, time.March, 31), RecurrenceMonthly, date(2026, time.April, 30)},
		{"monthly december rollover", date(2026, time.December, 31), RecurrenceMonthly, date(2027, time.January, 31)},
		{"none unchanged", date(2026, time.January, 24), RecurrenceNone, date(2026, time.January, 24)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextDueDate(tt.due, tt.pattern))
		})
	}
}

func TestNextOccurrence_SpawnsChild(t *testing.T) {
	due := date(2026, time.January, 24)
	reminder := due.Add(-2 * time.Hour)
	parent := Task{
		ID:         TaskID("parent-1"),
		OwnerID:    OwnerID("u1"),
		Title:      "Water plants",
		Priority:   PriorityMedium,
		Tags:       []string{"home"},
		DueDate:    &due,
		Recurrence: RecurrenceDaily,
		ReminderAt: &reminder,
	}

	child, ok := NextOccurrence(parent, due)
	require.True(t, ok)
	assert.Equal(t, parent.Title, child.Title)
	assert.Equal(t, parent.Priority, child.Priority)
	assert.Equal(t, parent.Tags, child.Tags)
	assert.Equal(t, parent.Recurrence, child.Recurrence)
	require.NotNil(t, child.DueDate)
	assert.Equal(t, date(2026, time.January, 25), *child.DueDate)
	require.NotNil(t, child.ParentTaskID)
	assert.Equal(t, parent.ID, *child.ParentTaskID)
	// Reminder keeps the same offset before the new due date.
	require.NotNil(t, child.ReminderAt)
	assert.Equal(t, child.DueDate.Add(-2*time.Hour), *child.ReminderAt)
	// Store assigns identity.
	assert.Empty(t, child.ID)
	assert.False(t, child.Completed)
}

func TestNextOccurrence_NoSpawnForNonRecurring(t *testing.T) {
	due := date(2026, time.January, 24)
	_, ok := NextOccurrence(Task{DueDate: &due, Recurrence: RecurrenceNone}, due)
	assert.False(t, ok)

	_, ok = NextOccurrence(Task{DueDate: &due}, due)
	assert.False(t, ok)
}

func TestNextOccurrence_ChainEndsAtRecurrenceEnd(t *testing.T) {
	due := date(2026, time.January, 30)
	end := date(2026, time.January, 31)

	// Next due Jan 31 == end date: still spawns.
	child, ok := NextOccurrence(Task{DueDate: &due, Recurrence: RecurrenceDaily, RecurrenceEnd: &end}, due)
	require.True(t, ok)
	assert.Equal(t, end, *child.DueDate)

	// Completing the child: next due Feb 1 > end, chain terminates.
	child.ID = TaskID("child-1")
	_, ok = NextOccurrence(child, end)
	assert.False(t, ok)
}

func TestNextOccurrence_NoDueDateUsesNow(t *testing.T) {
	now := date(2026, time.June, 1)
	child, ok := NextOccurrence(Task{Recurrence: RecurrenceWeekly}, now)
	require.True(t, ok)
	assert.Equal(t, now.AddDate(0, 0, 7), *child.DueDate)
	assert.Nil(t, child.ReminderAt)
}
