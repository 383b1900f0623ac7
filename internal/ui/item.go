package ui

import (
	"fmt"
	"strings"
	"time"

	"go-todo-app/internal/models"
)

// DueText は期限の相対表記を返します。期限切れの場合 overdue は true です。
// 日数は now のタイムゾーンの暦日で数えます。
func DueText(due, now time.Time) (text string, overdue bool) {
	days := calendarDays(now, due)
	switch {
	case days == 0:
		return "due today", false
	case days == 1:
		return "due tomorrow", false
	case days > 1:
		return fmt.Sprintf("due in %d days", days), false
	case days == -1:
		return "overdue by 1 day", true
	default:
		return fmt.Sprintf("overdue by %d days", -days), true
	}
}

func calendarDays(from, to time.Time) int {
	loc := from.Location()
	y1, m1, d1 := from.Date()
	y2, m2, d2 := to.In(loc).Date()
	a := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	b := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// RenderItem は1件のTodoを描画します。
func RenderItem(todo models.Todo, now time.Time, selected bool) string {
	box := mutedStyle.Render(boxUnchecked)
	title := todo.Title
	if todo.Status == models.StatusCompleted {
		box = successStyle.Render(boxChecked)
		title = doneStyle.Render(title)
	}

	prefix := "  "
	if selected {
		prefix = accentStyle.Render("> ")
		title = selectedStyle.Render(title)
	}

	badge := mutedStyle.Render("[" + string(todo.Priority) + "]")
	if style, ok := priorityStyles[todo.Priority]; ok {
		badge = style.Render("[" + string(todo.Priority) + "]")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s %s %s", prefix, box, title, badge)

	// 完了済みのTodoは期限切れとして強調しない
	if todo.DueDate != nil {
		text, overdue := DueText(*todo.DueDate, now)
		if overdue && todo.Status != models.StatusCompleted {
			text = overdueStyle.Render(text)
		} else {
			text = mutedStyle.Render(text)
		}
		b.WriteString(" " + text)
	}
	if todo.Description != "" {
		b.WriteString("\n      " + mutedStyle.Render(todo.Description))
	}
	return b.String()
}
