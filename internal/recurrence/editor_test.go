package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditorLifecycle(t *testing.T) {
	editor := NewEditor()
	assert.Equal(t, PhaseOff, editor.Phase())

	editor.Enable()
	assert.Equal(t, PhaseEditing, editor.Phase())
	assert.True(t, editor.State().Recurring)

	err := editor.Update(func(s *EditorState) {
		s.SetFrequency(FrequencyCustom)
		s.SetInterval(2, UnitWeeks)
		s.ToggleWeekday("Monday")
		s.SetUntil(until())
	})
	require.NoError(t, err)

	rule, err := editor.Submit()
	require.NoError(t, err)
	assert.Equal(t, PhaseSubmitted, editor.Phase())
	assert.Equal(t, FrequencyWeekly, rule.Frequency)
	assert.Equal(t, 2, rule.Interval)
	assert.Equal(t, []string{"Monday"}, rule.Weekdays)

	// Submitted is terminal.
	_, err = editor.Submit()
	assert.ErrorIs(t, err, ErrNotEditing)
	assert.ErrorIs(t, editor.Update(func(*EditorState) {}), ErrNotEditing)
}

func TestEditorCancelDiscardsState(t *testing.T) {
	editor := NewEditor()
	editor.Enable()
	require.NoError(t, editor.Update(func(s *EditorState) {
		s.SetFrequency(FrequencyMonthly)
	}))

	editor.Cancel()
	assert.Equal(t, PhaseCancelled, editor.Phase())
	assert.False(t, editor.State().Recurring)

	_, err := editor.Submit()
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestEditorUpdateBeforeEnable(t *testing.T) {
	editor := NewEditor()
	err := editor.Update(func(s *EditorState) { s.SetFrequency(FrequencyDaily) })
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestEditorStateCopyIsDetached(t *testing.T) {
	editor := NewEditor()
	editor.Enable()
	require.NoError(t, editor.Update(func(s *EditorState) {
		s.SetFrequency(FrequencyCustom)
		s.ToggleWeekday("Friday")
	}))

	copied := editor.State()
	copied.Weekdays["Friday"] = false

	assert.True(t, editor.State().Weekdays["Friday"])
}

func TestEditorStoreReplacesTerminalSessions(t *testing.T) {
	store := NewEditorStore(time.Minute)

	first := store.GetOrCreate(42)
	first.Enable()
	_, err := first.Submit()
	require.NoError(t, err)

	second := store.GetOrCreate(42)
	assert.NotSame(t, first, second)
	assert.Equal(t, PhaseOff, second.Phase())

	// A live session is reused.
	second.Enable()
	assert.Same(t, second, store.GetOrCreate(42))
}

func TestEditorStoreCleanup(t *testing.T) {
	store := NewEditorStore(time.Nanosecond)

	store.GetOrCreate(1)
	store.GetOrCreate(2)
	time.Sleep(2 * time.Millisecond)

	removed := store.Cleanup()
	assert.Equal(t, 2, removed)
	assert.Nil(t, store.Get(1))
	assert.Nil(t, store.Get(2))
}
