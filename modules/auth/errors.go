package auth

import (
	"errors"

	"github.com/kaiodadalt/task-management-system/reply"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when a user already exists.
	ErrUserExists = errors.New("user with this email already exists")
	// ErrInvalidCredentials is returned when login credentials are invalid.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidEmail is returned when email format is invalid.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrNameRequired is returned when the display name is blank.
	ErrNameRequired = errors.New("name is required")
	// ErrWeakPassword is returned when password is too weak.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
	// ErrPasswordTooLong is returned when password exceeds bcrypt's 72-byte limit.
	ErrPasswordTooLong = errors.New("password must be at most 72 characters")
)

// replyCodec carries auth failures across request-reply calls.
var replyCodec = reply.NewCodec(map[string]error{
	"user_not_found":      ErrUserNotFound,
	"user_exists":         ErrUserExists,
	"invalid_credentials": ErrInvalidCredentials,
	"invalid_email":       ErrInvalidEmail,
	"name_required":       ErrNameRequired,
	"weak_password":       ErrWeakPassword,
	"password_too_long":   ErrPasswordTooLong,
	"invalid_token":       ErrInvalidToken,
	"expired_token":       ErrExpiredToken,
})
