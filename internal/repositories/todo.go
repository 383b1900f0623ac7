// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"go-todo-app/internal/models"
)

// ErrTodoNotFound はTODOが見つからない場合のエラーです。
var ErrTodoNotFound = errors.New("todo not found")

// TodoRepository はTodoの永続化を扱います。
// 所有者チェックは呼び出し側 (services) の責務ですが、
// Update と Delete は owner_id でも絞り込みます。
type TodoRepository interface {
	Create(ctx context.Context, t *models.Todo) error
	FindByID(ctx context.Context, id string) (*models.Todo, error)
	FindByOwner(ctx context.Context, ownerID string) ([]*models.Todo, error)
	Update(ctx context.Context, t *models.Todo) error
	Delete(ctx context.Context, id, ownerID string) error
}

// SQLTodoRepository は database/sql を使った TodoRepository の実装です。
// クエリは MySQL と SQLite の両方で動きます。
type SQLTodoRepository struct {
	DB *sql.DB
}

// NewTodoRepository は新しいSQLTodoRepositoryインスタンスを作成します。
func NewTodoRepository(db *sql.DB) *SQLTodoRepository {
	return &SQLTodoRepository{DB: db}
}

const todoColumns = "id, owner_id, title, description, status, priority, due_date, created_at, updated_at"

// Create は新しいTodoタスクをデータベースに挿入します。
func (r *SQLTodoRepository) Create(ctx context.Context, t *models.Todo) error {
	query := "INSERT INTO todos (" + todoColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.DB.ExecContext(ctx, query,
		t.ID, t.OwnerID, t.Title, t.Description, string(t.Status), string(t.Priority),
		nullTime(t.DueDate), t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		log.Error("Failed to insert todo", "err", err)
		return fmt.Errorf("could not insert todo: %w", err)
	}
	return nil
}

// FindByID は指定されたIDのTodoタスクをデータベースから取得します。
func (r *SQLTodoRepository) FindByID(ctx context.Context, id string) (*models.Todo, error) {
	query := "SELECT " + todoColumns + " FROM todos WHERE id = ?"

	t, err := scanTodo(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		log.Error("Failed to query todo by ID", "id", id, "err", err)
		return nil, fmt.Errorf("could not query todo: %w", err)
	}
	return t, nil
}

// FindByOwner は所有者のTodoを新しい順に取得します。
// idx_todos_owner_created インデックスを使います。
func (r *SQLTodoRepository) FindByOwner(ctx context.Context, ownerID string) ([]*models.Todo, error) {
	query := "SELECT " + todoColumns + " FROM todos WHERE owner_id = ? ORDER BY created_at DESC, id DESC"

	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("Failed to query todos", "owner_id", ownerID, "err", err)
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	todos := []*models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			log.Error("Failed to scan todo", "err", err)
			return nil, fmt.Errorf("could not scan todo: %w", err)
		}
		todos = append(todos, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}
	return todos, nil
}

// Update は変更可能なフィールドをすべて書き込みます。ID・所有者・作成日時は変更しません。
func (r *SQLTodoRepository) Update(ctx context.Context, t *models.Todo) error {
	query := `UPDATE todos
		SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`

	result, err := r.DB.ExecContext(ctx, query,
		t.Title, t.Description, string(t.Status), string(t.Priority), nullTime(t.DueDate), t.UpdatedAt,
		t.ID, t.OwnerID,
	)
	if err != nil {
		log.Error("Failed to update todo", "id", t.ID, "err", err)
		return fmt.Errorf("could not update todo: %w", err)
	}

	// 更新された行数を確認
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// Delete は指定されたIDのTodoタスクを削除します。
func (r *SQLTodoRepository) Delete(ctx context.Context, id, ownerID string) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM todos WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		log.Error("Failed to delete todo", "id", id, "err", err)
		return fmt.Errorf("could not delete todo: %w", err)
	}

	// 削除された行数を確認
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var (
		t                models.Todo
		status, priority string
		due              sql.NullTime
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &status, &priority, &due, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = models.Status(status)
	t.Priority = models.Priority(priority)
	if due.Valid {
		d := due.Time.UTC()
		t.DueDate = &d
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
