package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/medchat/internal/common"
)

type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type SendResult struct {
	Response string    `json:"response"`
	History  []Message `json:"history"`
}

type SessionSummary struct {
	SessionID          string  `json:"session_id"`
	MessageCount       int     `json:"message_count"`
	LastMessage        *string `json:"last_message"`
	LastMessageContent *string `json:"last_message_content"`
}

type SessionList struct {
	TotalSessions int              `json:"total_sessions"`
	Sessions      []SessionSummary `json:"sessions"`
}

type Health struct {
	Status    string `json:"status"`
	AIService string `json:"ai_service"`
	Timestamp string `json:"timestamp"`
}

type Info struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// APIClient talks to one medchat server. It is safe for concurrent use.
type APIClient struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Logout discards the token locally. The server keeps no token state.
func (c *APIClient) Logout() {
	c.SetToken("")
}

func (c *APIClient) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", false, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *APIClient) Info(ctx context.Context) (*Info, error) {
	var i Info
	if err := c.do(ctx, http.MethodGet, "/", false, nil, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

func (c *APIClient) Register(ctx context.Context, username string, password []byte) error {
	return c.authenticate(ctx, "/auth/register", username, password)
}

func (c *APIClient) Login(ctx context.Context, username string, password []byte) error {
	return c.authenticate(ctx, "/auth/login", username, password)
}

func (c *APIClient) authenticate(ctx context.Context, path, username string, password []byte) error {
	body := map[string]string{"username": username, "password": string(password)}

	var tr tokenResponse
	if err := c.do(ctx, http.MethodPost, path, false, body, &tr); err != nil {
		return err
	}
	if tr.AccessToken == "" {
		return errors.New("server returned an empty access token")
	}
	c.SetToken(tr.AccessToken)
	return nil
}

func (c *APIClient) Send(ctx context.Context, sessionID, message string) (*SendResult, error) {
	body := map[string]string{"message": message, "session_id": sessionID}

	var r SendResult
	if err := c.do(ctx, http.MethodPost, "/send", true, body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *APIClient) History(ctx context.Context, sessionID string) ([]Message, error) {
	var msgs []Message
	if err := c.do(ctx, http.MethodGet, "/history/"+url.PathEscape(sessionID), true, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *APIClient) Sessions(ctx context.Context) (*SessionList, error) {
	var l SessionList
	if err := c.do(ctx, http.MethodGet, "/sessions", true, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *APIClient) DeleteSession(ctx context.Context, sessionID string) (string, error) {
	var m messageResponse
	if err := c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(sessionID), true, nil, &m); err != nil {
		return "", err
	}
	return m.Message, nil
}

func (c *APIClient) ClearSessions(ctx context.Context) (string, error) {
	var m messageResponse
	if err := c.do(ctx, http.MethodDelete, "/sessions", true, nil, &m); err != nil {
		return "", err
	}
	return m.Message, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())

	if authed {
		token := c.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		if json.Unmarshal(data, &er) != nil || er.Detail == "" {
			er.Detail = http.StatusText(resp.StatusCode)
		}
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: er.Detail}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
