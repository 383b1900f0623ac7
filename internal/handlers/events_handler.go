package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-todo-app/internal/events"
	"go-todo-app/internal/identity"
)

// EventsHandler は呼び出し元のTodo変更を Server-Sent Events で配信します。
type EventsHandler struct {
	broker    *events.Broker
	resolver  identity.Resolver
	keepAlive time.Duration
}

// NewEventsHandler は新しいEventsHandlerを作成します。
func NewEventsHandler(broker *events.Broker, resolver identity.Resolver) *EventsHandler {
	return &EventsHandler{broker: broker, resolver: resolver, keepAlive: 30 * time.Second}
}

// StreamHandler はクライアントが切断するまでイベントを送り続けます。
func (h *EventsHandler) StreamHandler(c *gin.Context) {
	ctx := c.Request.Context()
	owner, err := h.resolver.Resolve(ctx)
	if err != nil {
		if errors.Is(err, identity.ErrUnauthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve caller"})
		return
	}

	ch, cancel := h.broker.Subscribe(owner)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.SSEvent("ping", "")
			c.Writer.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent("todo", e)
			c.Writer.Flush()
		}
	}
}
