// Package api is an HTTP client for the Thought Board API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// Error is a non-2xx response from the server.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// User is the public view of an account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Thought is a posted message.
type Thought struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	OwnerID   *int64    `json:"owner_id"`
}

// Token is a bearer access token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// Client talks to a single server.
type Client struct {
	http *resty.Client
}

// New returns a Client for baseURL, e.g. "http://localhost:8000".
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password string) (*User, error) {
	var out User
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/users/")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	var out Token
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/token")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the account owning token.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var out User
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		SetError(&errorBody{}).
		Get("/users/me")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// PostThought publishes content as the owner of token.
func (c *Client) PostThought(ctx context.Context, token, content string) (*Thought, error) {
	var out Thought
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(map[string]string{"content": content}).
		SetResult(&out).
		SetError(&errorBody{}).
		Post("/thoughts/")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListThoughts returns a page of thoughts, newest first. A zero limit lets the
// server pick its default page size.
func (c *Client) ListThoughts(ctx context.Context, skip, limit int) ([]Thought, error) {
	var out []Thought
	req := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorBody{})
	if skip > 0 {
		req.SetQueryParam("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := req.Get("/thoughts/")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out, nil
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	e := &Error{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok {
		e.Detail = detailText(body.Detail)
	}
	return e
}

// detailText flattens the detail field, which is either a string or a list
// of field errors.
func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var fields []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &fields); err == nil && len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		return strings.Join(parts, "; ")
	}
	return string(raw)
}
