package api

import (
	"time"

	"taskflow/domain"
)

const requestBodyMaxSize = 64 * 1024 // 64 KiB

type errorResponse struct {
	Detail string `json:"detail"`
}

type registerRequest struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
	Password string      `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse is returned by both /api/auth/register and /api/auth/login.
type authResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        domain.User `json:"user"`
}

type createTaskRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	AssignedTo  string          `json:"assigned_to"`
	Priority    domain.Priority `json:"priority"`
	DueDate     *time.Time      `json:"due_date"`
}

// updateTaskRequest carries a partial task update; nil fields are untouched.
type updateTaskRequest struct {
	Status      *domain.Status   `json:"status"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *domain.Priority `json:"priority"`
	DueDate     *time.Time       `json:"due_date"`
}

type commentRequest struct {
	Text string `json:"text"`
}
