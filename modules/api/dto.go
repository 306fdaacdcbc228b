package api

import (
	"time"

	taskdomain "github.com/kaiodadalt/task-management-system/domain/task"
	userdomain "github.com/kaiodadalt/task-management-system/domain/user"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// UserResponse represents a user response.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ChannelAuthRequest asks whether the caller may subscribe to a channel.
type ChannelAuthRequest struct {
	ChannelName string `json:"channel_name" form:"channel_name"`
}

// ChannelAuthResponse confirms a channel subscription.
type ChannelAuthResponse struct {
	Channel string `json:"channel"`
	UserID  uint   `json:"user_id"`
}

// TaskResponse is the public representation of a task.
type TaskResponse struct {
	ID          uint       `json:"id"`
	CreatedBy   uint       `json:"created_by"`
	AssignedTo  *uint      `json:"assigned_to"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskEnvelope wraps a single task.
type TaskEnvelope struct {
	Task TaskResponse `json:"task"`
}

// PageMeta describes where a page sits in the full result set.
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// PageLinks holds absolute URLs to neighbouring pages.
type PageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// SearchResponse is a page of tasks.
type SearchResponse struct {
	Data  []TaskResponse `json:"data"`
	Meta  PageMeta       `json:"meta"`
	Links PageLinks      `json:"links"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func toTaskResponse(t *taskdomain.Task) TaskResponse {
	s := t.Snapshot()
	return TaskResponse{
		ID:          s.ID,
		CreatedBy:   s.CreatedBy,
		AssignedTo:  s.AssignedTo,
		Title:       s.Title,
		Description: s.Description,
		Status:      string(s.Status),
		Priority:    string(s.Priority),
		DueDate:     s.DueDate,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func toUserResponse(u *userdomain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func toTokenResponse(p *userdomain.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    p.ExpiresIn,
		TokenType:    p.TokenType,
	}
}
