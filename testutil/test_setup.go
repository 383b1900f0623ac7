package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"go-todo-app/internal/config"
	"go-todo-app/internal/database"
	"go-todo-app/internal/events"
	"go-todo-app/internal/models"
	"go-todo-app/internal/repositories"
	"go-todo-app/internal/routes"
)

const (
	NormalUserEmail    = "normal_user@example.com"
	NormalUserPassword = "password123"
	OtherUserEmail     = "other_user@example.com"
	OtherUserPassword  = "password456"
	TestJWTSecret      = "test-secret"
)

// TestConfig はテスト用の設定を返します。
func TestConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = ":memory:"
	cfg.Auth.JWTSecret = TestJWTSecret
	return cfg
}

// OpenTestDB はテストごとに独立したインメモリSQLiteを開き、マイグレーションを実行します。
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open(config.DriverSQLite, "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to open database connection")
	// 接続ごとに別のDBになるため1本に固定する
	database.Configure(db, config.DriverSQLite)
	require.NoError(t, db.Ping(), "Failed to ping database")
	require.NoError(t, database.Migrate(context.Background(), db, config.DriverSQLite))

	t.Cleanup(func() { db.Close() })
	return db
}

// SetupTestDB はテスト用のデータベースとルーターを作成し、テストユーザーを投入します。
func SetupTestDB(t *testing.T) (*sql.DB, *gin.Engine, *repositories.SQLTodoRepository, *repositories.UserRepository) {
	return SetupTestDBWithConfig(t, TestConfig())
}

// SetupTestDBWithConfig は SetupTestDB の設定指定版です。
func SetupTestDBWithConfig(t *testing.T, cfg *config.Config) (*sql.DB, *gin.Engine, *repositories.SQLTodoRepository, *repositories.UserRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := OpenTestDB(t)
	userRepo := repositories.NewUserRepository(db)
	CreateTestUser(t, userRepo, "normal_user", NormalUserEmail, NormalUserPassword)
	CreateTestUser(t, userRepo, "other_user", OtherUserEmail, OtherUserPassword)

	router := routes.SetupRouter(db, cfg, events.NewBroker(cfg.Events.Buffer))
	return db, router, repositories.NewTodoRepository(db), userRepo
}

// CreateTestUser はユーザーを直接データベースに作成します。
func CreateTestUser(t *testing.T, userRepo *repositories.UserRepository, username, email, password string) *models.User {
	t.Helper()

	hashedPassword, err := repositories.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	newUser := &models.User{
		ID:           fmt.Sprintf("user-%s", username),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, userRepo.Create(context.Background(), newUser))
	return newUser
}

// CreateTestTodo はAPI経由でTODOを作成し、そのIDを返します。
func CreateTestTodo(t *testing.T, router *gin.Engine, token, title string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]any{"title": title})
	req, _ := http.NewRequest(http.MethodPost, "/api/todos", bytes.NewBuffer(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, "TODO作成に失敗しました: %s", resp.Body.String())

	var created models.IDResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

// LoginAndGetToken はログインしてJWTを取得します。
func LoginAndGetToken(t *testing.T, router *gin.Engine, email, password string) (string, error) {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	req, _ := http.NewRequest(http.MethodPost, "/api/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d: %s", resp.Code, resp.Body.String())
	}

	var loginRes map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &loginRes); err != nil {
		return "", fmt.Errorf("failed to unmarshal login response: %w", err)
	}

	token, ok := loginRes["token"].(string)
	if !ok {
		return "", errors.New("token not found or not a string in login response")
	}
	return token, nil
}
