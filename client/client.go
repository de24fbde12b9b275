// Package client is the Go SDK for the taskflow API. It implements the
// dashboard-side behavior: an explicit session (no ambient globals), the
// hierarchy-filtered candidate list, task partitions, and guarded mutations.
// The client keeps no durable state beyond the bearer token; callers refetch
// after every mutation.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"taskflow/domain"
)

// ErrNotAuthenticated is returned when an authenticated call is made
// without an active session.
var ErrNotAuthenticated = errors.New("client: not authenticated")

// ErrNotAssignee is returned when a status update is attempted by a user
// who is not the task's assignee.
var ErrNotAssignee = errors.New("client: only the assignee may update task status")

// APIError is a structured backend failure with the detail string the
// server attached, or a generic fallback.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Detail)
}

// Config carries the explicit dependencies of a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	TokenStore TokenStore
}

// Client talks to the taskflow API on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	mu    sync.Mutex
	token string
	user  *domain.User
}

// New creates a Client. A nil HTTPClient falls back to a default with a
// request timeout; a nil TokenStore keeps the token in memory only.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: BaseURL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	tokens := cfg.TokenStore
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
	}, nil
}

// CurrentUser returns the session profile when logged in.
func (c *Client) CurrentUser() (domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return domain.User{}, false
	}
	return *c.user, true
}

// Me fetches the profile for the session token and refreshes the cached user.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return domain.User{}, err
	}
	c.mu.Lock()
	c.user = &user
	c.mu.Unlock()
	return user, nil
}

// Users fetches the full roster.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// AssignableUsers returns the hierarchy-filtered candidate list for the
// session user: peers and juniors only, never the user itself. Since the
// list is the only assignment path, a superior can never be submitted.
func (c *Client) AssignableUsers(ctx context.Context) ([]domain.User, error) {
	actor, ok := c.CurrentUser()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	roster, err := c.Users(ctx)
	if err != nil {
		return nil, err
	}
	return domain.AssignableUsers(roster, actor), nil
}

// TeamOverview returns the roster slice shown on the team tab.
func (c *Client) TeamOverview(ctx context.Context) ([]domain.User, error) {
	return c.AssignableUsers(ctx)
}

// FilterByQuery narrows a candidate list by a case-insensitive substring
// match on name or email. An empty query keeps everyone.
func FilterByQuery(users []domain.User, query string) []domain.User {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return users
	}
	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), query) || strings.Contains(strings.ToLower(u.Email), query) {
			out = append(out, u)
		}
	}
	return out
}

// Tasks fetches every task the session user participates in.
func (c *Client) Tasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Task fetches a single task.
func (c *Client) Task(ctx context.Context, id string) (domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+id, nil, &task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// Dashboard fetches the task list and derives the dashboard tabs.
func (c *Client) Dashboard(ctx context.Context) (domain.DashboardPartition, error) {
	actor, ok := c.CurrentUser()
	if !ok {
		return domain.DashboardPartition{}, ErrNotAuthenticated
	}
	tasks, err := c.Tasks(ctx)
	if err != nil {
		return domain.DashboardPartition{}, err
	}
	return domain.PartitionTasks(tasks, actor.ID), nil
}

// CreateTaskInput is the payload for CreateTask. Priority defaults to
// medium, the due date is optional.
type CreateTaskInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	AssignedTo  string          `json:"assigned_to"`
	Priority    domain.Priority `json:"priority"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
}

// CreateTask posts a new task. Callers refetch the task list afterwards.
func (c *Client) CreateTask(ctx context.Context, input CreateTaskInput) (domain.Task, error) {
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", input, &task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// UpdateTaskStatus moves a task to the given status. The update is only
// permitted when the session user is the task's assignee; otherwise
// ErrNotAssignee is returned without a request being sent.
func (c *Client) UpdateTaskStatus(ctx context.Context, task domain.Task, status domain.Status) (domain.Task, error) {
	actor, ok := c.CurrentUser()
	if !ok {
		return domain.Task{}, ErrNotAuthenticated
	}
	if task.AssignedTo != actor.ID {
		return domain.Task{}, ErrNotAssignee
	}
	body := struct {
		Status domain.Status `json:"status"`
	}{status}
	var updated domain.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+task.ID, body, &updated); err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

// AddComment appends a comment to the task thread. Empty or
// whitespace-only text is a no-op and returns nil.
func (c *Client) AddComment(ctx context.Context, taskID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	body := struct {
		Text string `json:"text"`
	}{text}
	var comment domain.Comment
	if err := c.do(ctx, http.MethodPost, "/api/tasks/"+taskID+"/comments", body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// do issues a JSON request with the session bearer token and decodes the
// response. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	buf := new(bytes.Buffer)
	if body != nil {
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return err
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var wire struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wire); err == nil && wire.Detail != "" {
		apiErr.Detail = wire.Detail
	} else {
		apiErr.Detail = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return apiErr
}
