// Package modelsはTodoとUserを定義します。
package models

import (
	"encoding/json"
	"time"
)

// Status はTodoの状態です。
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// IsValid は既知の状態かどうかを返します。
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusCompleted
}

// Toggled は反対の状態を返します。
func (s Status) Toggled() Status {
	if s == StatusCompleted {
		return StatusActive
	}
	return StatusCompleted
}

// Priority はTodoの優先度です。
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium" // デフォルト
	PriorityHigh   Priority = "high"
)

// IsValid は既知の優先度かどうかを返します。
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// MaxTitleLength はタイトルの最大文字数です。
const MaxTitleLength = 500

type Todo struct {
	ID          string     `json:"id"`                    // 主キー (UUID)
	OwnerID     string     `json:"owner_id"`              // 所有者 (作成後は不変)
	Title       string     `json:"title"`                 // タスクのタイトル（必須）
	Description string     `json:"description,omitempty"` // 説明 (任意)
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"` // 作成日時
	UpdatedAt   time.Time  `json:"updated_at"` // 更新日時
}

// CreateTodoInput はTodo作成リクエストの構造体です。
type CreateTodoInput struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTodoInput は部分更新リクエストの構造体です。
// nil のフィールドは変更しません。DueDate は null でクリアできます。
type UpdateTodoInput struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Status      *Status             `json:"status" binding:"omitempty,oneof=active completed"`
	Priority    *Priority           `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     Optional[time.Time] `json:"due_date,omitzero"`
}

// Optional は「未指定」「null (クリア)」「値あり」を区別するフィールドです。
// JSON でキーが無ければ Set は false、null なら Set が true で Value が nil です。
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some は値ありの Optional を返します。
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null はクリアを表す Optional を返します。
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// IDResponse はミューテーションのレスポンスです。
type IDResponse struct {
	ID string `json:"id"`
}
