package ui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-app/internal/models"
)

func typeText(f Form, s string) Form {
	for _, r := range s {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		if r == ' ' {
			msg.Type = tea.KeySpace
		}
		f, _ = f.Update(msg)
	}
	return f
}

func press(f Form, keyType tea.KeyType) Form {
	f, _ = f.Update(tea.KeyMsg{Type: keyType})
	return f
}

func TestForm_RejectsBlankTitle(t *testing.T) {
	calls := 0
	f := NewForm(func(models.CreateTodoInput) tea.Cmd { calls++; return nil })
	f.Focus()

	f = typeText(f, "   ")
	f = press(f, tea.KeyEnter)

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, f.Err(), ErrBlankTitle)
	assert.False(t, f.Pending())
	assert.Contains(t, f.View(), ErrBlankTitle.Error())
}

func TestForm_SubmitLifecycle(t *testing.T) {
	var submitted []models.CreateTodoInput
	f := NewForm(func(in models.CreateTodoInput) tea.Cmd {
		submitted = append(submitted, in)
		return nil
	})
	f.Focus()

	f = typeText(f, "  Buy milk ")
	f = press(f, tea.KeyTab)
	f = typeText(f, "two litres")
	f = press(f, tea.KeyTab)
	f = press(f, tea.KeyRight)
	f = press(f, tea.KeyEnter)

	require.Len(t, submitted, 1)
	assert.Equal(t, models.CreateTodoInput{
		Title:       "Buy milk",
		Description: "two litres",
		Priority:    models.PriorityHigh,
	}, submitted[0])
	assert.True(t, f.Pending())
	assert.Contains(t, f.View(), "Saving")

	t.Run("Repeat submits are ignored while pending", func(t *testing.T) {
		g := press(f, tea.KeyEnter)
		assert.Len(t, submitted, 1)
		assert.True(t, g.Pending())
	})

	t.Run("Failure keeps the fields", func(t *testing.T) {
		g, _ := f.Update(SubmitResultMsg{Err: errors.New("server down")})
		assert.False(t, g.Pending())
		assert.EqualError(t, g.Err(), "server down")
		title, description, priority := g.Values()
		assert.Equal(t, "  Buy milk ", title)
		assert.Equal(t, "two litres", description)
		assert.Equal(t, models.PriorityHigh, priority)
	})

	t.Run("Success clears the fields", func(t *testing.T) {
		g, _ := f.Update(SubmitResultMsg{})
		assert.False(t, g.Pending())
		assert.NoError(t, g.Err())
		title, description, priority := g.Values()
		assert.Empty(t, title)
		assert.Empty(t, description)
		assert.Equal(t, models.PriorityMedium, priority)
	})
}

func TestForm_PriorityCycle(t *testing.T) {
	f := NewForm(nil)
	f.Focus()
	f = press(f, tea.KeyShiftTab)

	f = press(f, tea.KeyLeft)
	_, _, p := f.Values()
	assert.Equal(t, models.PriorityLow, p)

	f = press(f, tea.KeyLeft)
	_, _, p = f.Values()
	assert.Equal(t, models.PriorityHigh, p)

	f = press(f, tea.KeyRight)
	_, _, p = f.Values()
	assert.Equal(t, models.PriorityLow, p)
}
