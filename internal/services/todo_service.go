package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"go-todo-app/internal/events"
	"go-todo-app/internal/identity"
	"go-todo-app/internal/models"
	"go-todo-app/internal/repositories"
)

var (
	// ErrValidation は入力が不正な場合のエラーです。
	ErrValidation = errors.New("validation error")
	// ErrForbidden はTodoが存在するが呼び出し元の所有でない場合のエラーです。
	ErrForbidden = errors.New("forbidden")
)

// TodoService はTodo関連のビジネスロジックを扱います。
type TodoService struct {
	todoRepo  repositories.TodoRepository
	resolver  identity.Resolver
	publisher events.Publisher
	now       func() time.Time

	// created_at が同じ時刻にならないよう最後の作成時刻を覚えておく
	mu          sync.Mutex
	lastCreated time.Time
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo repositories.TodoRepository, resolver identity.Resolver, publisher events.Publisher) *TodoService {
	return &TodoService{
		todoRepo:  todoRepo,
		resolver:  resolver,
		publisher: publisher,
		now:       time.Now,
	}
}

// WithClock は時刻の取得元を差し替えます。テスト用です。
func (s *TodoService) WithClock(now func() time.Time) *TodoService {
	s.now = now
	return s
}

// List は呼び出し元のTodoを新しい順に返します。
func (s *TodoService) List(ctx context.Context) ([]*models.Todo, error) {
	owner, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return s.todoRepo.FindByOwner(ctx, owner)
}

// Get は指定IDのTodoを取得し、認可チェックを行います。
func (s *TodoService) Get(ctx context.Context, id string) (*models.Todo, error) {
	return s.authorize(ctx, id)
}

// Create は新しいTodoを作成し、IDを返します。
func (s *TodoService) Create(ctx context.Context, in models.CreateTodoInput) (string, error) {
	owner, err := s.caller(ctx)
	if err != nil {
		return "", err
	}

	title, err := normalizeTitle(in.Title)
	if err != nil {
		return "", err
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.IsValid() {
		return "", fmt.Errorf("%w: invalid priority %q", ErrValidation, priority)
	}

	now := s.createdStamp()
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("could not generate todo id: %w", err)
	}
	todo := &models.Todo{
		ID:          id.String(),
		OwnerID:     owner,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      models.StatusActive,
		Priority:    priority,
		DueDate:     utcPtr(in.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.todoRepo.Create(ctx, todo); err != nil {
		return "", err
	}

	log.Info("Todo created", "todo_id", todo.ID, "owner_id", owner)
	s.publish(events.TodoCreated, todo)
	return todo.ID, nil
}

// Update は指定されたフィールドだけを変更します。updated_at は常に更新されます。
func (s *TodoService) Update(ctx context.Context, id string, in models.UpdateTodoInput) (string, error) {
	todo, err := s.authorize(ctx, id)
	if err != nil {
		return "", err
	}

	if in.Title != nil {
		title, err := normalizeTitle(*in.Title)
		if err != nil {
			return "", err
		}
		todo.Title = title
	}
	if in.Description != nil {
		// 空文字は説明のクリアとして扱う
		todo.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return "", fmt.Errorf("%w: invalid status %q", ErrValidation, *in.Status)
		}
		todo.Status = *in.Status
	}
	if in.Priority != nil {
		if !in.Priority.IsValid() {
			return "", fmt.Errorf("%w: invalid priority %q", ErrValidation, *in.Priority)
		}
		todo.Priority = *in.Priority
	}
	if in.DueDate.Set {
		// null は期限のクリア
		todo.DueDate = utcPtr(in.DueDate.Value)
	}

	todo.UpdatedAt = s.stamp(todo.UpdatedAt)
	if err := s.todoRepo.Update(ctx, todo); err != nil {
		return "", err
	}

	s.publish(events.TodoUpdated, todo)
	return todo.ID, nil
}

// ToggleStatus は active と completed を切り替えます。
func (s *TodoService) ToggleStatus(ctx context.Context, id string) (string, error) {
	todo, err := s.authorize(ctx, id)
	if err != nil {
		return "", err
	}

	todo.Status = todo.Status.Toggled()
	todo.UpdatedAt = s.stamp(todo.UpdatedAt)
	if err := s.todoRepo.Update(ctx, todo); err != nil {
		return "", err
	}

	s.publish(events.TodoToggled, todo)
	return todo.ID, nil
}

// Delete はTodoを完全に削除します。
func (s *TodoService) Delete(ctx context.Context, id string) (string, error) {
	todo, err := s.authorize(ctx, id)
	if err != nil {
		return "", err
	}

	if err := s.todoRepo.Delete(ctx, todo.ID, todo.OwnerID); err != nil {
		return "", err
	}

	log.Info("Todo deleted", "todo_id", todo.ID, "owner_id", todo.OwnerID)
	s.publish(events.TodoDeleted, todo)
	return todo.ID, nil
}

// caller は呼び出し元のオーナーIDを解決します。すべての操作がここを通ります。
func (s *TodoService) caller(ctx context.Context) (string, error) {
	owner, err := s.resolver.Resolve(ctx)
	if err != nil {
		return "", err
	}
	if owner == "" {
		return "", identity.ErrUnauthenticated
	}
	return owner, nil
}

// authorize は呼び出し元を解決し、Todoを読み込んで所有者を確認します。
// 存在しなければ ErrTodoNotFound、他人のものなら ErrForbidden を返します。
func (s *TodoService) authorize(ctx context.Context, id string) (*models.Todo, error) {
	owner, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, repositories.ErrTodoNotFound
	}

	todo, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo.OwnerID != owner {
		log.Warn("Todo access denied", "todo_id", id, "owner_id", owner)
		return nil, ErrForbidden
	}
	return todo, nil
}

// stamp は現在時刻を返します。prev 以下にならないよう1マイクロ秒ずつ進めます。
func (s *TodoService) stamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// createdStamp は直前の作成時刻より必ず後の時刻を返します。
func (s *TodoService) createdStamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCreated = s.stamp(s.lastCreated)
	return s.lastCreated
}

func (s *TodoService) publish(typ events.Type, todo *models.Todo) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(events.Event{
		Type:    typ,
		TodoID:  todo.ID,
		OwnerID: todo.OwnerID,
		At:      todo.UpdatedAt,
	})
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	if n := utf8.RuneCountInString(title); n > models.MaxTitleLength {
		return "", fmt.Errorf("%w: title exceeds maximum length: %d > %d", ErrValidation, n, models.MaxTitleLength)
	}
	return title, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Microsecond)
	return &u
}
