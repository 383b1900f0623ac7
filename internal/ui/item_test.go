package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-todo-app/internal/models"
)

func TestDueText(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		due     time.Time
		want    string
		overdue bool
	}{
		{"later today", time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC), "due today", false},
		{"earlier today", time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC), "due today", false},
		{"tomorrow", time.Date(2026, 3, 11, 0, 30, 0, 0, time.UTC), "due tomorrow", false},
		{"next week", time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC), "due in 5 days", false},
		{"yesterday", time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC), "overdue by 1 day", true},
		{"long ago", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), "overdue by 9 days", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, overdue := DueText(tc.due, now)
			assert.Equal(t, tc.want, text)
			assert.Equal(t, tc.overdue, overdue)
		})
	}
}

func TestDueText_UsesLocalCalendar(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, tokyo)
	// UTCでは翌日だが、東京では同じ日
	due := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)

	text, overdue := DueText(due, now)
	assert.Equal(t, "due today", text)
	assert.False(t, overdue)
}

func TestRenderItem(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)
	todo := models.Todo{
		ID:          "1",
		Title:       "Buy milk",
		Description: "2 litres",
		Status:      models.StatusActive,
		Priority:    models.PriorityHigh,
		DueDate:     &due,
	}

	out := RenderItem(todo, now, false)
	assert.Contains(t, out, boxUnchecked)
	assert.Contains(t, out, "Buy milk")
	assert.Contains(t, out, "[high]")
	assert.Contains(t, out, "due tomorrow")
	assert.Contains(t, out, "2 litres")
	assert.NotContains(t, out, ">")

	todo.Status = models.StatusCompleted
	todo.DueDate = nil
	todo.Description = ""
	out = RenderItem(todo, now, true)
	assert.Contains(t, out, boxChecked)
	assert.Contains(t, out, ">")
	assert.NotContains(t, out, "due")
}
