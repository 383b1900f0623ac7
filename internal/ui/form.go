package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"go-todo-app/internal/models"
)

// ErrBlankTitle は空のタイトルで送信しようとした場合のエラーです。
var ErrBlankTitle = errors.New("title is required")

// SubmitResultMsg は OnSubmit の結果をFormに伝えます。
type SubmitResultMsg struct {
	Err error
}

const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldCount
)

var priorityOrder = []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}

// Form はTodo作成フォームです。入力値はフォーム内だけで保持します。
type Form struct {
	title       textinput.Model
	description textinput.Model
	priority    models.Priority
	focus       int
	pending     bool
	err         error
	help        help.Model

	OnSubmit func(in models.CreateTodoInput) tea.Cmd
}

// NewForm は空のFormを作成します。
func NewForm(onSubmit func(in models.CreateTodoInput) tea.Cmd) Form {
	title := textinput.New()
	title.Prompt = "Title: "
	title.Placeholder = "What needs to be done?"
	title.CharLimit = models.MaxTitleLength

	description := textinput.New()
	description.Prompt = "Notes: "
	description.Placeholder = "optional"

	return Form{
		title:       title,
		description: description,
		priority:    models.PriorityMedium,
		help:        newHelp(),
		OnSubmit:    onSubmit,
	}
}

// Focus はタイトル欄にフォーカスします。
func (f *Form) Focus() tea.Cmd {
	f.focus = fieldTitle
	f.description.Blur()
	return f.title.Focus()
}

func (f *Form) Blur() {
	f.title.Blur()
	f.description.Blur()
}

// Pending は送信中かどうかを返します。
func (f Form) Pending() bool { return f.pending }

func (f Form) Err() error { return f.err }

func (f Form) Values() (title, description string, priority models.Priority) {
	return f.title.Value(), f.description.Value(), f.priority
}

func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	switch msg := msg.(type) {
	case SubmitResultMsg:
		f.pending = false
		if msg.Err != nil {
			f.err = msg.Err
			return f, nil
		}
		f.err = nil
		f.title.Reset()
		f.description.Reset()
		f.priority = models.PriorityMedium
		return f, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Submit):
			return f.submit()
		case key.Matches(msg, keys.Next):
			return f, f.setFocus((f.focus + 1) % fieldCount)
		case key.Matches(msg, keys.Prev):
			return f, f.setFocus((f.focus + fieldCount - 1) % fieldCount)
		}
		if f.focus == fieldPriority {
			if key.Matches(msg, keys.Cycle) {
				step := 1
				if msg.String() == "left" {
					step = len(priorityOrder) - 1
				}
				f.priority = cyclePriority(f.priority, step)
			}
			return f, nil
		}
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	}
	return f, cmd
}

func (f Form) submit() (Form, tea.Cmd) {
	if f.pending {
		return f, nil
	}
	title := strings.TrimSpace(f.title.Value())
	if title == "" {
		f.err = ErrBlankTitle
		return f, nil
	}
	f.err = nil
	if f.OnSubmit == nil {
		return f, nil
	}
	f.pending = true
	return f, f.OnSubmit(models.CreateTodoInput{
		Title:       title,
		Description: strings.TrimSpace(f.description.Value()),
		Priority:    f.priority,
	})
}

func (f *Form) setFocus(field int) tea.Cmd {
	f.focus = field
	f.title.Blur()
	f.description.Blur()
	switch field {
	case fieldTitle:
		return f.title.Focus()
	case fieldDescription:
		return f.description.Focus()
	}
	return nil
}

func cyclePriority(p models.Priority, step int) models.Priority {
	for i, candidate := range priorityOrder {
		if candidate == p {
			return priorityOrder[(i+step)%len(priorityOrder)]
		}
	}
	return models.PriorityMedium
}

func (f Form) View() string {
	priority := "Priority: " + priorityStyles[f.priority].Render(string(f.priority))
	if f.focus == fieldPriority {
		priority = accentStyle.Render("> ") + priority
	} else {
		priority = "  " + priority
	}

	lines := []string{f.title.View(), f.description.View(), priority}
	switch {
	case f.pending:
		lines = append(lines, mutedStyle.Render("Saving..."))
	case f.err != nil:
		lines = append(lines, errorStyle.Render(f.err.Error()))
	default:
		lines = append(lines, f.help.ShortHelpView(keys.formHelp()))
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}
