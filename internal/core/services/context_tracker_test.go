package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tafzeel99/todo-agent/internal/core/domain"
)

func TestContextTracker_NewestFirstAndCapacity(t *testing.T) {
	tr := NewContextTracker(5, 10)
	conv := domain.NewConversationID()

	for i := 1; i <= 7; i++ {
		tr.Record(conv, domain.LangEnglish, domain.TaskID(fmt.Sprintf("t%d", i)))
	}

	tasks, lang := tr.Snapshot(conv)
	assert.Equal(t, domain.LangEnglish, lang)
	require.Len(t, tasks, 5)
	assert.Equal(t, domain.TaskID("t7"), tasks[0])
	assert.Equal(t, domain.TaskID("t3"), tasks[4])
}

func TestContextTracker_RecordBatchKeepsGivenOrder(t *testing.T) {
	tr := NewContextTracker(5, 10)
	conv := domain.NewConversationID()

	// A listing records its first tasks so ordinals line up with the reply.
	tr.Record(conv, domain.LangEnglish, "a", "b", "c")

	tasks, _ := tr.Snapshot(conv)
	assert.Equal(t, []domain.TaskID{"a", "b", "c"}, tasks)
}

func TestContextTracker_DuplicateMovesToFront(t *testing.T) {
	tr := NewContextTracker(5, 10)
	conv := domain.NewConversationID()

	tr.Record(conv, "", "a", "b", "c")
	tr.Record(conv, "", "c")

	tasks, _ := tr.Snapshot(conv)
	assert.Equal(t, []domain.TaskID{"c", "a", "b"}, tasks)
}

func TestContextTracker_LanguageSticksAcrossTurns(t *testing.T) {
	tr := NewContextTracker(5, 10)
	conv := domain.NewConversationID()

	tr.Record(conv, domain.LangRomanUrdu, "a")
	tr.Record(conv, "", "b")

	_, lang := tr.Snapshot(conv)
	assert.Equal(t, domain.LangRomanUrdu, lang)
}

func TestContextTracker_EvictsOldestConversation(t *testing.T) {
	tr := NewContextTracker(5, 2)
	c1, c2, c3 := domain.NewConversationID(), domain.NewConversationID(), domain.NewConversationID()

	tr.Record(c1, domain.LangEnglish, "a")
	tr.Record(c2, domain.LangEnglish, "b")
	evicted := tr.Record(c3, domain.LangEnglish, "c")
	assert.Equal(t, []domain.ConversationID{c1}, evicted, "eviction is reported to the caller")

	tasks, _ := tr.Snapshot(c1)
	assert.Empty(t, tasks, "oldest conversation evicted")
	tasks, _ = tr.Snapshot(c3)
	assert.Len(t, tasks, 1)
}

func TestContextTracker_DropRemovesRefs(t *testing.T) {
	tr := NewContextTracker(5, 10)
	conv := domain.NewConversationID()

	tr.Record(conv, domain.LangEnglish, "a", "b", "c")
	tr.Drop(conv, "b")

	tasks, _ := tr.Snapshot(conv)
	assert.Equal(t, []domain.TaskID{"a", "c"}, tasks)

	// Dropping from an unknown conversation is a no-op.
	tr.Drop(domain.NewConversationID(), "a")
}

func TestContextTracker_Forget(t *testing.T) {
	tr := NewContextTracker(5, 10)
	conv := domain.NewConversationID()

	tr.Record(conv, domain.LangEnglish, "a")
	tr.Forget(conv)

	tasks, lang := tr.Snapshot(conv)
	assert.Empty(t, tasks)
	assert.Empty(t, lang)
}
