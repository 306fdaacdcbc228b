package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	domain "github.com/kaiodadalt/task-management-system/domain/user"
)

// AuthPort is the identity surface the HTTP layer depends on.
type AuthPort interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID uint) (*domain.User, error)
}

// UserPort is what other domain modules need to know about users.
type UserPort interface {
	UserExists(ctx context.Context, userID uint) (bool, error)
}

// AuthAdapter implements AuthPort and UserPort over the auth module's
// request-reply services.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)
var _ UserPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
// container is the ServiceContainer received via SetDependencyServiceContainer.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	if container == nil {
		panic("auth adapter requires non-nil ServiceContainer")
	}
	return &AuthAdapter{container: container}
}

// Register creates a user account.
func (a *AuthAdapter) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	req := RegisterRequest{Name: name, Email: email, Password: password}
	var resp UserResponse
	if err := callService(ctx, a.container, ServiceRegister, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, replyCodec.Decode(resp.Error)
	}
	return fromUserResponse(resp), nil
}

// Login exchanges credentials for tokens.
func (a *AuthAdapter) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	req := LoginRequest{Email: email, Password: password}
	var resp TokenResponse
	if err := callService(ctx, a.container, ServiceLogin, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, replyCodec.Decode(resp.Error)
	}
	return fromTokenResponse(resp), nil
}

// Refresh exchanges a refresh token for a new pair.
func (a *AuthAdapter) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	req := RefreshRequest{RefreshToken: refreshToken}
	var resp TokenResponse
	if err := callService(ctx, a.container, ServiceRefreshToken, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, replyCodec.Decode(resp.Error)
	}
	return fromTokenResponse(resp), nil
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse
	if err := callService(ctx, a.container, ServiceValidateToken, &req, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		if resp.Error == "token expired" {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	return &domain.Claims{UserID: resp.UserID, Email: resp.Email}, nil
}

// GetUser retrieves a user by id.
func (a *AuthAdapter) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp UserResponse
	if err := callService(ctx, a.container, ServiceGetUser, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, replyCodec.Decode(resp.Error)
	}
	return fromUserResponse(resp), nil
}

// UserExists reports whether a user with the id exists.
func (a *AuthAdapter) UserExists(ctx context.Context, userID uint) (bool, error) {
	req := ValidateUserRequest{UserID: userID}
	var resp ValidateUserResponse
	if err := callService(ctx, a.container, ServiceValidateUser, &req, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// callService runs one request-reply round trip with JSON on both legs.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

func fromUserResponse(resp UserResponse) *domain.User {
	return &domain.User{
		ID:        resp.ID,
		Name:      resp.Name,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
	}
}

func fromTokenResponse(resp TokenResponse) *domain.TokenPair {
	return &domain.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	}
}
