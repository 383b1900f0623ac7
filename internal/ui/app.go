package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-todo-app/internal/events"
	"go-todo-app/internal/models"
)

// Backend はUIが呼び出すTodoストアです。
type Backend interface {
	List(ctx context.Context) ([]models.Todo, error)
	Create(ctx context.Context, in models.CreateTodoInput) (string, error)
	Toggle(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) (string, error)
}

// Watcher を実装したBackendからは変更イベントを受け取って再読み込みします。
type Watcher interface {
	Watch(ctx context.Context) (<-chan events.Event, error)
}

// Filter は一覧に表示する状態です。
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

func (f Filter) String() string {
	switch f {
	case FilterActive:
		return "active"
	case FilterCompleted:
		return "completed"
	}
	return "all"
}

func (f Filter) Next() Filter {
	return (f + 1) % 3
}

// Apply は条件に合うTodoだけを返します。
func (f Filter) Apply(todos []models.Todo) []models.Todo {
	if f == FilterAll {
		return todos
	}
	want := models.StatusActive
	if f == FilterCompleted {
		want = models.StatusCompleted
	}
	out := make([]models.Todo, 0, len(todos))
	for _, t := range todos {
		if t.Status == want {
			out = append(out, t)
		}
	}
	return out
}

type loadedMsg struct {
	todos []models.Todo
	err   error
}

type mutatedMsg struct {
	action string
	done   string
	err    error
}

type watchingMsg struct {
	ch  <-chan events.Event
	err error
}

type changedMsg struct {
	event events.Event
	ch    <-chan events.Event
}

type streamClosedMsg struct{}

type reconnectMsg struct{}

// ErrStreamClosed は変更イベントの接続が切れたことを表します。
var ErrStreamClosed = errors.New("event stream closed")

const defaultReconnectDelay = 3 * time.Second

type mode int

const (
	modeList mode = iota
	modeForm
)

// App は作成フォームと一覧を組み合わせたモデルです。
type App struct {
	ctx     context.Context
	backend Backend

	list   List
	form   Form
	filter Filter
	todos  []models.Todo
	mode   mode

	notice    string
	noticeErr bool

	help          help.Model
	width, height int

	reconnectDelay time.Duration
	reconnecting   bool
}

// NewApp は backend を使うAppを作成します。
func NewApp(ctx context.Context, backend Backend) App {
	a := App{ctx: ctx, backend: backend, help: newHelp(), reconnectDelay: defaultReconnectDelay}
	a.list = NewList(a.toggle, a.delete)
	a.form = NewForm(a.create)
	return a
}

func (a App) Init() tea.Cmd {
	if _, ok := a.backend.(Watcher); ok {
		return tea.Batch(a.load(), a.watch())
	}
	return a.load()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			a.fail("load todos", msg.err)
			return a, nil
		}
		a.todos = msg.todos
		a.list.SetTodos(a.filter.Apply(a.todos))
		return a, nil

	case mutatedMsg:
		if msg.err != nil {
			a.fail(msg.action, msg.err)
			return a, nil
		}
		a.inform(msg.done)
		return a, a.load()

	case SubmitResultMsg:
		var cmd tea.Cmd
		a.form, cmd = a.form.Update(msg)
		if msg.Err != nil {
			a.fail("create todo", msg.Err)
			return a, cmd
		}
		a.inform("todo created")
		return a, tea.Batch(cmd, a.load())

	case watchingMsg:
		if msg.err != nil {
			a.fail("watch changes", msg.err)
			return a, nil
		}
		if a.reconnecting {
			// 切断中の変更を取りこぼさないよう読み直す
			a.reconnecting = false
			a.inform("live updates resumed")
			return a, tea.Batch(a.load(), waitForEvent(msg.ch))
		}
		return a, waitForEvent(msg.ch)

	case changedMsg:
		return a, tea.Batch(a.load(), waitForEvent(msg.ch))

	case streamClosedMsg:
		a.fail("watch changes", ErrStreamClosed)
		a.reconnecting = true
		return a, tea.Tick(a.reconnectDelay, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return a, a.watch()

	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		a.resize()
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.ForceQ) {
			return a, tea.Quit
		}
		if a.mode == modeForm {
			return a.updateForm(msg)
		}
		return a.updateList(msg)
	}
	return a, nil
}

func (a App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, keys.Add):
		a.mode = modeForm
		a.resize()
		return a, a.form.Focus()
	case key.Matches(msg, keys.Filter):
		a.filter = a.filter.Next()
		if a.list.Loaded() {
			a.list.SetTodos(a.filter.Apply(a.todos))
		}
		return a, nil
	case key.Matches(msg, keys.Reload):
		return a, a.load()
	}

	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

func (a App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Back) {
		a.mode = modeList
		a.form.Blur()
		a.resize()
		return a, nil
	}
	var cmd tea.Cmd
	a.form, cmd = a.form.Update(msg)
	return a, cmd
}

// resize は見出しやフォーム、ヘルプを除いた高さを一覧に渡します。
func (a *App) resize() {
	if a.width == 0 || a.height == 0 {
		return
	}
	// 見出しと空行、通知、ヘルプの分
	used := 5
	if a.mode == modeForm {
		used += lipgloss.Height(a.form.View()) + 1
	}
	a.list.SetSize(a.width, max(a.height-used, 2))
}

func (a *App) fail(action string, err error) {
	a.notice = fmt.Sprintf("%s failed: %v", action, err)
	a.noticeErr = true
}

func (a *App) inform(text string) {
	a.notice = text
	a.noticeErr = false
}

func (a App) View() string {
	var b strings.Builder
	header := titleStyle.Render("Todos") + "  " + mutedStyle.Render("filter: ") + accentStyle.Render(a.filter.String())
	b.WriteString(header + "\n\n")

	if a.mode == modeForm {
		b.WriteString(a.form.View() + "\n\n")
	}
	b.WriteString(a.list.View() + "\n\n")

	if a.notice != "" {
		if a.noticeErr {
			b.WriteString(errorStyle.Render(a.notice) + "\n")
		} else {
			b.WriteString(successStyle.Render(a.notice) + "\n")
		}
	}
	if a.mode == modeList {
		b.WriteString(a.help.ShortHelpView(keys.listHelp()))
	}
	return b.String()
}

func (a App) load() tea.Cmd {
	ctx, backend := a.ctx, a.backend
	return func() tea.Msg {
		todos, err := backend.List(ctx)
		return loadedMsg{todos: todos, err: err}
	}
}

func (a App) create(in models.CreateTodoInput) tea.Cmd {
	ctx, backend := a.ctx, a.backend
	return func() tea.Msg {
		_, err := backend.Create(ctx, in)
		return SubmitResultMsg{Err: err}
	}
}

func (a App) toggle(id string) tea.Cmd {
	ctx, backend := a.ctx, a.backend
	return func() tea.Msg {
		_, err := backend.Toggle(ctx, id)
		return mutatedMsg{action: "toggle todo", done: "todo toggled", err: err}
	}
}

func (a App) delete(id string) tea.Cmd {
	ctx, backend := a.ctx, a.backend
	return func() tea.Msg {
		_, err := backend.Delete(ctx, id)
		return mutatedMsg{action: "delete todo", done: "todo deleted", err: err}
	}
}

func (a App) watch() tea.Cmd {
	ctx, watcher := a.ctx, a.backend.(Watcher)
	return func() tea.Msg {
		ch, err := watcher.Watch(ctx)
		return watchingMsg{ch: ch, err: err}
	}
}

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return changedMsg{event: e, ch: ch}
	}
}
