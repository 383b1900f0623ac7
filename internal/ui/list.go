package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"go-todo-app/internal/models"
)

const (
	defaultListWidth  = 80
	defaultListHeight = 20
)

// todoItem は models.Todo を list.Item に合わせます。
type todoItem struct {
	todo models.Todo
}

func (i todoItem) FilterValue() string { return i.todo.Title }

// itemDelegate は各行を RenderItem で描画します。説明の有無に関わらず2行です。
type itemDelegate struct {
	now func() time.Time
}

func (d itemDelegate) Height() int                             { return 2 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(todoItem)
	if !ok {
		return
	}
	out := RenderItem(it.todo, d.now(), index == m.Index())
	if !strings.Contains(out, "\n") {
		out += "\n"
	}
	fmt.Fprint(w, out)
}

// List はTodoの一覧を描画します。絞り込みは呼び出し側で行います。
type List struct {
	model  list.Model
	loaded bool

	// OnToggle と OnDelete は選択中のTodoに対して呼ばれます。
	OnToggle func(id string) tea.Cmd
	OnDelete func(id string) tea.Cmd
}

// NewList は読み込み前の状態のListを作成します。
func NewList(onToggle, onDelete func(id string) tea.Cmd) List {
	m := list.New(nil, itemDelegate{now: time.Now}, defaultListWidth, defaultListHeight)
	m.SetShowTitle(false)
	m.SetShowStatusBar(false)
	m.SetShowHelp(false)
	m.SetFilteringEnabled(false)
	m.DisableQuitKeybindings()
	// f と d はApp側のキーなのでページ送りから外す
	m.KeyMap.NextPage = key.NewBinding(key.WithKeys("right", "l", "pgdown"))
	m.KeyMap.PrevPage = key.NewBinding(key.WithKeys("left", "h", "pgup"))
	m.KeyMap.ShowFullHelp.SetEnabled(false)
	m.KeyMap.CloseFullHelp.SetEnabled(false)

	return List{model: m, OnToggle: onToggle, OnDelete: onDelete}
}

// SetTodos は表示するTodoを設定します。nil でも読み込み済みになります。
func (l *List) SetTodos(todos []models.Todo) {
	items := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		items = append(items, todoItem{todo: t})
	}
	l.model.SetItems(items)
	l.loaded = true
	if l.model.Index() >= len(items) {
		l.model.Select(max(len(items)-1, 0))
	}
}

// SetSize は描画領域を設定します。
func (l *List) SetSize(width, height int) {
	l.model.SetSize(width, height)
}

func (l List) Loaded() bool { return l.loaded }

func (l List) Len() int { return len(l.model.Items()) }

// Selected は選択中のTodoを返します。
func (l List) Selected() (models.Todo, bool) {
	if !l.loaded {
		return models.Todo{}, false
	}
	it, ok := l.model.SelectedItem().(todoItem)
	if !ok {
		return models.Todo{}, false
	}
	return it.todo, true
}

func (l List) Update(msg tea.Msg) (List, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, keys.Toggle):
			if todo, ok := l.Selected(); ok && l.OnToggle != nil {
				return l, l.OnToggle(todo.ID)
			}
			return l, nil
		case key.Matches(keyMsg, keys.Delete):
			if todo, ok := l.Selected(); ok && l.OnDelete != nil {
				return l, l.OnDelete(todo.ID)
			}
			return l, nil
		}
	}

	var cmd tea.Cmd
	l.model, cmd = l.model.Update(msg)
	return l, cmd
}

func (l List) View() string {
	if !l.loaded {
		return mutedStyle.Render("Loading todos...")
	}
	if l.Len() == 0 {
		return mutedStyle.Render("No todos yet. Press a to add one.")
	}
	return l.model.View()
}
