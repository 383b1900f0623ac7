// Package main はTodo APIのターミナルクライアントです。
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-todo-app/internal/client"
	"go-todo-app/internal/ui"
)

var (
	apiURL   string
	email    string
	password string
	token    string
)

var rootCmd = &cobra.Command{
	Use:          "todo",
	Short:        "Terminal UI for the Todo API",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&apiURL, "api", envOr("TODO_API_URL", "http://localhost:8080"), "Todo API base URL")
	rootCmd.Flags().StringVar(&email, "email", os.Getenv("TODO_EMAIL"), "Log in with this email")
	rootCmd.Flags().StringVar(&password, "password", os.Getenv("TODO_PASSWORD"), "Password for --email")
	rootCmd.Flags().StringVar(&token, "token", os.Getenv("TODO_TOKEN"), "Use an existing JWT instead of logging in")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	c := client.New(apiURL)
	switch {
	case token != "":
		c.SetToken(token)
	case email != "":
		if err := c.Login(ctx, email, password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	p := tea.NewProgram(ui.NewApp(ctx, c), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
