// Package client はTodo APIのHTTPクライアントです。
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-todo-app/internal/events"
	"go-todo-app/internal/models"
)

// APIError は2xx以外のレスポンスです。
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client はTodo APIを呼び出します。
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// New は新しいClientを作成します。
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken は以降のリクエストで使うJWTを設定します。
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login はログインしてトークンを保存します。
func (c *Client) Login(ctx context.Context, email, password string) error {
	var res struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", models.UserLoginRequest{Email: email, Password: password}, &res); err != nil {
		return err
	}
	c.token = res.Token
	return nil
}

func (c *Client) List(ctx context.Context) ([]models.Todo, error) {
	var todos []models.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (c *Client) Get(ctx context.Context, id string) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos/"+url.PathEscape(id), nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (c *Client) Create(ctx context.Context, in models.CreateTodoInput) (string, error) {
	return c.doID(ctx, http.MethodPost, "/api/todos", in)
}

func (c *Client) Update(ctx context.Context, id string, in models.UpdateTodoInput) (string, error) {
	return c.doID(ctx, http.MethodPatch, "/api/todos/"+url.PathEscape(id), in)
}

func (c *Client) Toggle(ctx context.Context, id string) (string, error) {
	return c.doID(ctx, http.MethodPost, "/api/todos/"+url.PathEscape(id)+"/toggle", nil)
}

func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	return c.doID(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), nil)
}

// Watch は変更イベントのストリームを購読します。
// ctx がキャンセルされるか接続が切れるとチャネルは閉じられます。
func (c *Client) Watch(ctx context.Context) (<-chan events.Event, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/todos/events", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// ストリームなのでタイムアウトなしのクライアントを使う
	streamClient := *c.httpClient
	streamClient.Timeout = 0
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watch todos: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}

	ch := make(chan events.Event)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		var name, data string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if name == "todo" && data != "" {
					var e events.Event
					if err := json.Unmarshal([]byte(data), &e); err == nil {
						select {
						case ch <- e:
						case <-ctx.Done():
							return
						}
					}
				}
				name, data = "", ""
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
	}()
	return ch, nil
}

func (c *Client) doID(ctx context.Context, method, path string, body any) (string, error) {
	var res models.IDResponse
	if err := c.do(ctx, method, path, body, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	msg := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		msg = body.Error
		if body.Details != "" {
			msg += ": " + body.Details
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
