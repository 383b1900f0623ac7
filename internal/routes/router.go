// Package routesはroutingを行います。
package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"go-todo-app/internal/config"
	"go-todo-app/internal/events"
	"go-todo-app/internal/handlers"
	"go-todo-app/internal/identity"
	"go-todo-app/internal/repositories"
	"go-todo-app/internal/services"
)

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(db *sql.DB, cfg *config.Config, broker *events.Broker) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log.Default()))

	// CORS対策
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	// 認証方式によって呼び出し元の解決方法を切り替える
	var resolver identity.Resolver = identity.ContextResolver{}
	if cfg.Auth.Mode == config.AuthModeStub {
		resolver = identity.StubResolver{OwnerID: cfg.Auth.StubOwnerID}
	}

	// リポジトリ
	todoRepo := repositories.NewTodoRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// サービス
	todoService := services.NewTodoService(todoRepo, resolver, broker)
	userService := services.NewUserService(userRepo)
	jwtService := services.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// ハンドラー
	userHandler := handlers.NewUserHandler(userService, jwtService, resolver)
	todoHandler := handlers.NewTodoHandler(todoService)
	eventsHandler := handlers.NewEventsHandler(broker, resolver)

	// ルーティング
	r.GET("/api/hello", HelloHandler)
	r.GET("/api/dbcheck", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Database connection failed", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Database connection is healthy"})
	})
	r.POST("/api/register", userHandler.RegisterHandler)
	r.POST("/api/login", userHandler.LoginHandler)

	authorized := r.Group("/api")
	if cfg.Auth.Mode == config.AuthModeJWT {
		authorized.Use(AuthMiddleware(jwtService))
	}
	{
		authorized.GET("/me", userHandler.MeHandler)
		authorized.GET("/todos", todoHandler.GetTodosHandler)
		authorized.GET("/todos/events", eventsHandler.StreamHandler)
		authorized.GET("/todos/:id", todoHandler.GetTodoByIDHandler)
		authorized.POST("/todos", todoHandler.CreateTodoHandler)
		authorized.PATCH("/todos/:id", todoHandler.UpdateTodoHandler)
		authorized.PUT("/todos/:id", todoHandler.UpdateTodoHandler)
		authorized.POST("/todos/:id/toggle", todoHandler.ToggleTodoHandler)
		authorized.DELETE("/todos/:id", todoHandler.DeleteTodoHandler)
	}

	return r
}

func HelloHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello from Go Backend!"})
}
