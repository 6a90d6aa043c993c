package history

import (
	"fmt"
	"testing"

	"github.com/rcliao/podcaster/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(n int) model.HistoryEntry {
	return model.HistoryEntry{Speaker: model.SpeakerLabel(n%2 + 1), Content: fmt.Sprintf("push %d", n)}
}

func TestWindow_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	w := New(5)
	for i := 1; i <= 7; i++ {
		w.Push(entry(i))
	}

	require.Equal(t, 5, w.Len())
	got := w.Recent(5)
	require.Len(t, got, 5)
	for i, e := range got {
		assert.Equal(t, fmt.Sprintf("push %d", i+3), e.Content)
	}

	assert.Equal(t, got, w.Recent(10), "recent beyond size returns only held entries")
}

func TestWindow_RecentSubset(t *testing.T) {
	t.Parallel()

	w := New(3)
	w.Push(entry(1))
	w.Push(entry(2))

	got := w.Recent(1)
	require.Len(t, got, 1)
	assert.Equal(t, "push 2", got[0].Content)

	assert.Empty(t, w.Recent(0))
	assert.Empty(t, New(3).Recent(2))
}

func TestWindow_RecentDoesNotMutate(t *testing.T) {
	t.Parallel()

	w := New(2)
	w.Push(entry(1))
	w.Push(entry(2))

	first := w.Recent(2)
	first[0].Content = "changed"

	assert.Equal(t, "push 1", w.Recent(2)[0].Content)
	assert.Equal(t, 2, w.Len())
}

func TestWindow_DefaultCapacity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultCapacity, New(0).Cap())
	assert.Equal(t, DefaultCapacity, New(-1).Cap())
	assert.Equal(t, 7, New(7).Cap())
}

func TestWindow_NeverExceedsCapacity(t *testing.T) {
	t.Parallel()

	w := New(4)
	for i := 0; i < 50; i++ {
		w.Push(entry(i))
		assert.LessOrEqual(t, w.Len(), w.Cap())
	}
	got := w.Recent(4)
	assert.Equal(t, "push 46", got[0].Content)
	assert.Equal(t, "push 49", got[3].Content)
}

func TestRender(t *testing.T) {
	t.Parallel()

	out := Render([]model.HistoryEntry{
		{Speaker: "Speaker 1", Content: "Hi"},
		{Speaker: "Speaker 2", Content: "Hello"},
	})
	assert.Equal(t, "Speaker 1: Hi Speaker 2: Hello", out)
	assert.Empty(t, Render(nil))
}
