package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	domain "github.com/kaiodadalt/task-management-system/domain/user"
	"golang.org/x/sync/singleflight"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

// TokenValidator validates access tokens.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
}

// tokenGate validates tokens, collapsing concurrent checks of the same
// token into one validate-token call.
type tokenGate struct {
	validator TokenValidator
	group     singleflight.Group
}

func newTokenGate(validator TokenValidator) *tokenGate {
	return &tokenGate{validator: validator}
}

// validate shares one lookup among concurrent callers, so the lookup runs
// detached from the first caller's cancellation.
func (g *tokenGate) validate(ctx context.Context, token string) (*domain.Claims, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := g.group.Do(token, func() (any, error) {
		return g.validator.ValidateToken(shared, token)
	})
	if err != nil {
		return nil, err
	}
	claims, ok := v.(*domain.Claims)
	if !ok || claims == nil || claims.UserID == 0 {
		return nil, errInvalidClaims
	}
	copied := *claims
	return &copied, nil
}

// AuthMiddleware creates a middleware that validates bearer tokens.
func AuthMiddleware(validator TokenValidator) fiber.Handler {
	return newTokenGate(validator).middleware()
}

func (g *tokenGate) middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Use: Bearer <token>")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return unauthorized(c, "Token is required")
		}

		claims, err := g.validate(c.UserContext(), token)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// queryTokenMiddleware authenticates from the token query parameter, for
// clients such as browsers that cannot set headers on a websocket upgrade.
func (g *tokenGate) queryTokenMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return unauthorized(c, "Token is required")
		}
		claims, err := g.validate(c.UserContext(), token)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}
		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

func claimsFrom(c *fiber.Ctx) (*domain.Claims, bool) {
	claims, ok := c.Locals(UserContextKey).(*domain.Claims)
	return claims, ok && claims != nil
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}
