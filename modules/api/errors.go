package api

import (
	"errors"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	taskdomain "github.com/kaiodadalt/task-management-system/domain/task"
	"github.com/kaiodadalt/task-management-system/modules/auth"
)

var errInvalidClaims = errors.New("invalid token claims")

// writeTaskError maps a task failure onto its HTTP response. Anything
// unrecognized is logged and reported as a 500 without details.
func writeTaskError(c *fiber.Ctx, logger types.Logger, err error) error {
	var verr *taskdomain.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{
			Error:   "validation_failed",
			Message: "The given data was invalid.",
			Errors:  verr.Fields,
		})
	case errors.Is(err, taskdomain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	case errors.Is(err, taskdomain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "This action is unauthorized.",
		})
	case errors.Is(err, taskdomain.ErrUnauthenticated):
		return unauthorized(c, "Unauthenticated.")
	default:
		return internalError(c, logger, err)
	}
}

// writeAuthError maps an auth failure onto its HTTP response.
func writeAuthError(c *fiber.Ctx, logger types.Logger, err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return unauthorized(c, "Invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrExpiredToken):
		return unauthorized(c, "Invalid or expired refresh token")
	case errors.Is(err, auth.ErrUserExists):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "User with this email already exists",
		})
	case errors.Is(err, auth.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "User not found",
		})
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrNameRequired),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong):
		return badRequest(c, capitalize(err.Error()))
	default:
		return internalError(c, logger, err)
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func internalError(c *fiber.Ctx, logger types.Logger, err error) error {
	logger.Error("Internal error", "method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// customErrorHandler handles errors returned from Fiber handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
