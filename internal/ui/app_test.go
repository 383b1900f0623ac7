package ui

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-todo-app/internal/events"
	"go-todo-app/internal/models"
)

type fakeBackend struct {
	todos     []models.Todo
	lists     int
	listErr   error
	createErr error
	toggleErr error
	nextID    int
}

func (b *fakeBackend) List(context.Context) ([]models.Todo, error) {
	b.lists++
	if b.listErr != nil {
		return nil, b.listErr
	}
	return append([]models.Todo(nil), b.todos...), nil
}

func (b *fakeBackend) Create(_ context.Context, in models.CreateTodoInput) (string, error) {
	if b.createErr != nil {
		return "", b.createErr
	}
	b.nextID++
	id := fmt.Sprintf("t%d", b.nextID)
	b.todos = append([]models.Todo{{ID: id, Title: in.Title, Priority: in.Priority, Status: models.StatusActive}}, b.todos...)
	return id, nil
}

func (b *fakeBackend) Toggle(_ context.Context, id string) (string, error) {
	if b.toggleErr != nil {
		return "", b.toggleErr
	}
	for i := range b.todos {
		if b.todos[i].ID == id {
			b.todos[i].Status = b.todos[i].Status.Toggled()
		}
	}
	return id, nil
}

func (b *fakeBackend) Delete(_ context.Context, id string) (string, error) {
	for i := range b.todos {
		if b.todos[i].ID == id {
			b.todos = append(b.todos[:i], b.todos[i+1:]...)
			return id, nil
		}
	}
	return "", errors.New("not found")
}

type watchingBackend struct {
	*fakeBackend
	streams []chan events.Event
	watches int
}

func (b *watchingBackend) Watch(context.Context) (<-chan events.Event, error) {
	if b.watches >= len(b.streams) {
		return nil, errors.New("connection refused")
	}
	ch := b.streams[b.watches]
	b.watches++
	return ch, nil
}

func closedStream(evs ...events.Event) chan events.Event {
	ch := make(chan events.Event, len(evs))
	for _, e := range evs {
		ch <- e
	}
	close(ch)
	return ch
}

// run はコマンドを実行し、App宛のメッセージを順に処理します。
// カーソル点滅などApp外のメッセージは捨てます。
func run(t *testing.T, m tea.Model, cmd tea.Cmd) App {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case loadedMsg, mutatedMsg, SubmitResultMsg, watchingMsg, changedMsg, streamClosedMsg:
			var c tea.Cmd
			m, c = m.Update(msg)
			queue = append(queue, c)
		}
	}
	app, ok := m.(App)
	require.True(t, ok)
	return app
}

func send(m tea.Model, msgs ...tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		m, cmd = m.Update(msg)
	}
	return m, cmd
}

func startApp(t *testing.T, backend Backend) App {
	t.Helper()
	app := NewApp(context.Background(), backend)
	app.reconnectDelay = time.Millisecond
	assert.Contains(t, app.View(), "Loading")
	return run(t, app, app.Init())
}

func TestApp_LoadAndFilter(t *testing.T) {
	backend := &fakeBackend{todos: sampleTodos()}
	app := startApp(t, backend)

	view := app.View()
	assert.Contains(t, view, "First")
	assert.Contains(t, view, "Second")
	assert.Equal(t, FilterAll, app.filter)

	m, _ := send(app, runes("f"))
	app = m.(App)
	assert.Equal(t, FilterActive, app.filter)
	assert.Contains(t, app.View(), "First")
	assert.NotContains(t, app.View(), "Second")

	m, _ = send(app, runes("f"))
	app = m.(App)
	assert.Equal(t, FilterCompleted, app.filter)
	assert.NotContains(t, app.View(), "First")
	assert.Contains(t, app.View(), "Second")

	m, _ = send(app, runes("f"))
	assert.Equal(t, FilterAll, m.(App).filter)
}

func TestApp_EmptyState(t *testing.T) {
	app := startApp(t, &fakeBackend{})
	assert.Contains(t, app.View(), "No todos yet")
}

func TestApp_ToggleAndDeleteReload(t *testing.T) {
	backend := &fakeBackend{todos: sampleTodos()}
	app := startApp(t, backend)
	loads := backend.lists

	m, cmd := send(app, runes("x"))
	app = run(t, m, cmd)
	assert.Equal(t, models.StatusCompleted, backend.todos[0].Status)
	assert.Equal(t, loads+1, backend.lists, "a successful mutation reloads the list")
	assert.Equal(t, "todo toggled", app.notice)

	m, cmd = send(app, runes("d"))
	app = run(t, m, cmd)
	require.Len(t, backend.todos, 1)
	assert.Equal(t, "b", backend.todos[0].ID)
	assert.NotContains(t, app.View(), "First")
}

func TestApp_FailuresAreNotified(t *testing.T) {
	t.Run("Load", func(t *testing.T) {
		app := startApp(t, &fakeBackend{listErr: errors.New("connection refused")})
		assert.True(t, app.noticeErr)
		assert.Contains(t, app.View(), "connection refused")
	})

	t.Run("Toggle", func(t *testing.T) {
		backend := &fakeBackend{todos: sampleTodos(), toggleErr: errors.New("forbidden")}
		app := startApp(t, backend)
		loads := backend.lists

		m, cmd := send(app, runes("x"))
		app = run(t, m, cmd)
		assert.True(t, app.noticeErr)
		assert.Contains(t, app.View(), "toggle todo failed: forbidden")
		assert.Equal(t, loads, backend.lists)
	})
}

func TestApp_CreateThroughForm(t *testing.T) {
	backend := &fakeBackend{}
	app := startApp(t, backend)

	m, _ := send(app, runes("a"))
	assert.Equal(t, modeForm, m.(App).mode)

	// フォーム入力中の q は終了ではなく文字入力
	m, _ = send(m, runes("q"), runes("u"), runes("i"), runes("z"))
	m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
	app = run(t, m, cmd)

	require.Len(t, backend.todos, 1)
	assert.Equal(t, "quiz", backend.todos[0].Title)
	assert.Contains(t, app.View(), "quiz")
	assert.Equal(t, "todo created", app.notice)
	title, _, _ := app.form.Values()
	assert.Empty(t, title)

	t.Run("Failure keeps the form", func(t *testing.T) {
		backend.createErr = errors.New("server down")
		m, _ := send(app, runes("o"), runes("k"))
		m, cmd := send(m, tea.KeyMsg{Type: tea.KeyEnter})
		failed := run(t, m, cmd)

		assert.True(t, failed.noticeErr)
		title, _, _ := failed.form.Values()
		assert.Equal(t, "ok", title)
		assert.Len(t, backend.todos, 1)
	})

	m, _ = send(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, modeList, m.(App).mode)
}

func TestApp_QuitKeys(t *testing.T) {
	app := startApp(t, &fakeBackend{})

	_, cmd := send(app, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	_, cmd = send(app, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestApp_ReloadsOnPushedChange(t *testing.T) {
	backend := &fakeBackend{todos: sampleTodos()}
	watcher := &watchingBackend{
		fakeBackend: backend,
		streams:     []chan events.Event{closedStream(events.Event{Type: events.TodoCreated, TodoID: "c"})},
	}

	app := startApp(t, watcher)
	assert.Equal(t, 2, backend.lists, "initial load plus one reload for the pushed event")

	// 切断はユーザーに通知され、再接続が予約される
	assert.True(t, app.noticeErr)
	assert.Contains(t, app.View(), ErrStreamClosed.Error())
	assert.True(t, app.reconnecting)
}

func TestApp_ReconnectsAfterStreamCloses(t *testing.T) {
	backend := &fakeBackend{todos: sampleTodos()}
	watcher := &watchingBackend{
		fakeBackend: backend,
		streams:     []chan events.Event{closedStream(), closedStream()},
	}

	app := startApp(t, watcher)
	require.Equal(t, 1, watcher.watches)
	loads := backend.lists

	m, cmd := app.Update(reconnectMsg{})
	app = run(t, m, cmd)
	assert.Equal(t, 2, watcher.watches)
	assert.Equal(t, loads+1, backend.lists, "reconnecting reloads to catch missed changes")

	t.Run("Failed reconnect is reported", func(t *testing.T) {
		m, cmd := app.Update(reconnectMsg{})
		failed := run(t, m, cmd)
		assert.True(t, failed.noticeErr)
		assert.Contains(t, failed.View(), "watch changes failed: connection refused")
	})
}

func TestApp_WindowSizeLimitsList(t *testing.T) {
	backend := &fakeBackend{todos: manyTodos(10)}
	app := startApp(t, backend)

	m, _ := app.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	app = m.(App)
	assert.Equal(t, 60, app.help.Width)
	view := app.View()
	assert.Contains(t, view, "Task A")
	assert.NotContains(t, view, "Task J")

	// フォームを開くと一覧の高さが減る
	before := app.list.model.Height()
	m, _ = send(app, runes("a"))
	app = m.(App)
	assert.Less(t, app.list.model.Height(), before)

	m, _ = send(app, tea.KeyMsg{Type: tea.KeyEsc})
	app = m.(App)
	assert.Equal(t, before, app.list.model.Height())
}

func TestApp_HelpFollowsMode(t *testing.T) {
	app := startApp(t, &fakeBackend{todos: sampleTodos()})
	view := app.View()
	assert.Contains(t, view, "toggle")
	assert.Contains(t, view, "reload")
	assert.NotContains(t, view, "save")

	m, _ := send(app, runes("a"))
	view = m.(App).View()
	assert.Contains(t, view, "save")
	assert.Contains(t, view, "priority")
	assert.NotContains(t, view, "reload")
}
