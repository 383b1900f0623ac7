// Package logging は charmbracelet/log のロガーを設定します。
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"go-todo-app/internal/config"
)

// New は設定に従ってロガーを作成します。
func New(w io.Writer, cfg config.LogConfig) (*log.Logger, error) {
	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var formatter log.Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = log.TextFormatter
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
		Prefix:          "todo",
	}), nil
}

// Setup はロガーを作成し、パッケージのデフォルトロガーに設定します。
func Setup(w io.Writer, cfg config.LogConfig) (*log.Logger, error) {
	logger, err := New(w, cfg)
	if err != nil {
		return nil, err
	}
	log.SetDefault(logger)
	return logger, nil
}
