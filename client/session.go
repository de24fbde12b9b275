package client

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"taskflow/domain"
)

// TokenStore persists the session bearer token across restarts.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryTokenStore keeps the token for the lifetime of the process.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	return m.Save("")
}

// FileTokenStore persists the token to a file so a session survives
// process restarts, the CLI equivalent of a browser reload.
type FileTokenStore struct {
	Path string
}

func (f *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FileTokenStore) Save(token string) error {
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(f.Path, []byte(token), 0o600)
}

func (f *FileTokenStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// RegisterInput is the payload for Register.
type RegisterInput struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
	Password string      `json:"password"`
}

type authResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        domain.User `json:"user"`
}

// Login exchanges credentials for a bearer token and opens the session.
// All subsequent requests carry the token until Logout.
func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return domain.User{}, err
	}
	c.openSession(resp)
	return resp.User, nil
}

// Register creates an account and opens the session.
func (c *Client) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", input, &resp); err != nil {
		return domain.User{}, err
	}
	c.openSession(resp)
	return resp.User, nil
}

// Logout clears all session state, in memory and in the token store.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.mu.Unlock()
	return c.tokens.Clear()
}

// Restore loads a persisted token and validates it against /api/auth/me.
// An expired or rejected token clears the session and reports no session
// rather than an error; transport failures are returned as errors.
func (c *Client) Restore(ctx context.Context) (domain.User, bool, error) {
	token, err := c.tokens.Load()
	if err != nil {
		return domain.User{}, false, err
	}
	if token == "" {
		return domain.User{}, false, nil
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	user, err := c.Me(ctx)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			_ = c.Logout()
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return user, true, nil
}

func (c *Client) openSession(resp authResponse) {
	c.mu.Lock()
	c.token = resp.AccessToken
	user := resp.User
	c.user = &user
	c.mu.Unlock()
	_ = c.tokens.Save(resp.AccessToken)
}

// SessionExpiry is a helper for UIs that want to schedule a re-login
// prompt; it reports the exp claim of the current token without
// validating the signature.
func (c *Client) SessionExpiry() (time.Time, bool) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return time.Time{}, false
	}
	return tokenExpiry(token)
}
