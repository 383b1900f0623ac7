package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"go-todo-app/internal/config"
)

// GetDSN は設定からデータベース接続文字列 (DSN) を構築します。
func GetDSN(cfg config.DatabaseConfig) string {
	if cfg.Driver == config.DriverSQLite {
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", cfg.Path)
	}

	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Pass
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	c.DBName = cfg.Name
	c.ParseTime = true
	c.Loc = time.UTC
	// 接続の文字コードはテーブルと同じ utf8mb4
	c.Collation = "utf8mb4_unicode_ci"
	// updated_at は必ず進むが、念のため変更なしでも一致行数を返す
	c.ClientFoundRows = true
	return c.FormatDSN()
}

// Open はデータベース接続を初期化します。
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, GetDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	Configure(db, cfg.Driver)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info("Successfully connected to database", "driver", cfg.Driver)
	return db, nil
}

// Configure はドライバに合わせてコネクションプールを設定します。
func Configure(db *sql.DB, driver string) {
	if driver == config.DriverSQLite {
		// SQLite は書き込みが1つに限られるため接続を1本にする
		db.SetMaxOpenConns(1)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
}
