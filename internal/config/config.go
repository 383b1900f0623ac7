// Package config はサーバー設定を .env / TOML ファイル / 環境変数から読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"

	AuthModeJWT  = "jwt"
	AuthModeStub = "stub"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Log      LogConfig      `toml:"log"`
	Events   EventsConfig   `toml:"events"`
}

type ServerConfig struct {
	Addr         string   `toml:"addr"`
	AllowOrigins []string `toml:"allow-origins"`
}

type DatabaseConfig struct {
	Driver string `toml:"driver"`
	User   string `toml:"user"`
	Pass   string `toml:"pass"`
	Host   string `toml:"host"`
	Port   string `toml:"port"`
	Name   string `toml:"name"`
	// Path は sqlite3 のファイルパスです。
	Path        string `toml:"path"`
	AutoMigrate bool   `toml:"auto-migrate"`
}

type AuthConfig struct {
	Mode        string        `toml:"mode"`
	JWTSecret   string        `toml:"jwt-secret"`
	TokenTTL    time.Duration `toml:"token-ttl"`
	StubOwnerID string        `toml:"stub-owner-id"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type EventsConfig struct {
	Buffer int `toml:"buffer"`
}

// Default はデフォルト設定を返します。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			AllowOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver:      DriverMySQL,
			Host:        "127.0.0.1",
			Port:        "3306",
			Path:        "todo.db",
			AutoMigrate: true,
		},
		Auth: AuthConfig{
			Mode:        AuthModeJWT,
			TokenTTL:    24 * time.Hour,
			StubOwnerID: "local-user",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Events: EventsConfig{Buffer: 16},
	}
}

// Load は設定を読み込みます。
// 優先順位: 環境変数 > TOMLファイル (path が空なら読まない) > デフォルト。
// カレントディレクトリの .env は環境変数として先に読み込まれます。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "SERVER_ADDR")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.AllowOrigins = splitList(v)
	}

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Pass, "DB_PASS")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.Path, "DB_PATH")
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DB_AUTO_MIGRATE %q: %w", v, err)
		}
		c.Database.AutoMigrate = b
	}

	setString(&c.Auth.Mode, "AUTH_MODE")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.StubOwnerID, "STUB_OWNER_ID")
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		c.Auth.TokenTTL = d
	}

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	return nil
}

// Validate は設定の整合性を確認します。
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	switch c.Auth.Mode {
	case AuthModeJWT:
		if c.Auth.JWTSecret == "" {
			return errors.New("JWT_SECRET environment variable not set")
		}
		if c.Auth.TokenTTL <= 0 {
			return errors.New("token ttl must be positive")
		}
	case AuthModeStub:
		if c.Auth.StubOwnerID == "" {
			return errors.New("stub owner id is empty")
		}
	default:
		return fmt.Errorf("unsupported auth mode %q", c.Auth.Mode)
	}

	if c.Events.Buffer < 1 {
		return fmt.Errorf("events buffer must be at least 1, got %d", c.Events.Buffer)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
