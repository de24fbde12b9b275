package api

import (
	"context"

	"taskflow/domain"
)

// Storage abstracts persistence for handlers.
type Storage interface {
	CreateUser(ctx context.Context, user domain.User, passwordHash string) error
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetCredentials(ctx context.Context, email string) (domain.User, string, error)
	ListUsers(ctx context.Context) ([]domain.User, error)

	CreateTask(ctx context.Context, task domain.Task) error
	GetTask(ctx context.Context, id string) (domain.Task, error)
	UpdateTask(ctx context.Context, task domain.Task) error
	ListTasksForUser(ctx context.Context, userID string) ([]domain.Task, error)
}

// NotFoundError is returned by Storage when the requested entity does not exist.
type NotFoundError interface {
	error
	NotFound()
}

// AlreadyExistsError is returned by Storage when a unique constraint is violated.
type AlreadyExistsError interface {
	error
	AlreadyExists()
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	IssueToken(userID string) (string, error)
}

// EventPublisher ships mutation events to the activity feed. Implementations
// must not block the request path; delivery failures are logged, not surfaced.
type EventPublisher interface {
	Publish(userID string, ev domain.Event)
}
