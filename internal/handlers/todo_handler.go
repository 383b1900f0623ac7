package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"go-todo-app/internal/identity"
	"go-todo-app/internal/models"
	"go-todo-app/internal/repositories"
	"go-todo-app/internal/services"
)

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// GetTodosHandler はTodoリストを取得します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	todos, err := h.todoService.List(c.Request.Context())
	if err != nil {
		writeTodoError(c, err, "Failed to fetch todos")
		return
	}
	c.JSON(http.StatusOK, todos)
}

// GetTodoByIDHandler は指定IDのTodoを取得します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	todo, err := h.todoService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeTodoError(c, err, "Failed to fetch todo")
		return
	}
	c.JSON(http.StatusOK, todo)
}

// CreateTodoHandler は新しいTodoを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	var req models.CreateTodoInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	id, err := h.todoService.Create(c.Request.Context(), req)
	if err != nil {
		writeTodoError(c, err, "Failed to save todo to database")
		return
	}
	c.JSON(http.StatusCreated, models.IDResponse{ID: id})
}

// UpdateTodoHandler はTodoを部分更新します。
func (h *TodoHandler) UpdateTodoHandler(c *gin.Context) {
	var req models.UpdateTodoInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	id, err := h.todoService.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeTodoError(c, err, "Failed to update todo")
		return
	}
	c.JSON(http.StatusOK, models.IDResponse{ID: id})
}

// ToggleTodoHandler はTodoの状態を切り替えます。
func (h *TodoHandler) ToggleTodoHandler(c *gin.Context) {
	id, err := h.todoService.ToggleStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeTodoError(c, err, "Failed to toggle todo")
		return
	}
	c.JSON(http.StatusOK, models.IDResponse{ID: id})
}

// DeleteTodoHandler はTodoを削除します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	id, err := h.todoService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeTodoError(c, err, "Failed to delete todo")
		return
	}
	c.JSON(http.StatusOK, models.IDResponse{ID: id})
}

// writeTodoError はサービスのエラーをHTTPステータスに変換します。
func writeTodoError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid todo", "details": err.Error()})
	case errors.Is(err, identity.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, repositories.ErrTodoNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
	default:
		log.Error(fallback, "err", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
