package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/kaiodadalt/task-management-system/config"
	"github.com/kaiodadalt/task-management-system/database"
	domain "github.com/kaiodadalt/task-management-system/domain/user"
	"github.com/kaiodadalt/task-management-system/reply"
	"gorm.io/gorm"
)

// Service names registered by the auth module.
const (
	ServiceRegister      = "register"
	ServiceLogin         = "login"
	ServiceRefreshToken  = "refresh-token"
	ServiceValidateToken = "validate-token"
	ServiceGetUser       = "get-user"
	ServiceValidateUser  = "validate-user"
)

// AuthModule owns users and the actor identity services.
type AuthModule struct {
	cfg     config.Config
	db      *gorm.DB
	service *AuthService
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(cfg config.Config, logger types.Logger) *AuthModule {
	return &AuthModule{cfg: cfg, logger: logger}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// RegisterServices registers request-reply services in the service container.
// Handlers close over m.service, which is set in Start before any request arrives.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRegister, json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRegister, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRefreshToken, json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRefreshToken, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceValidateToken, json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceValidateToken, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceValidateUser, json.Unmarshal, json.Marshal, m.handleValidateUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceValidateUser, err)
	}

	m.logger.Info("Registered services",
		"services", []string{ServiceRegister, ServiceLogin, ServiceRefreshToken, ServiceValidateToken, ServiceGetUser, ServiceValidateUser})
	return nil
}

// Start opens the user store and builds the service.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := database.Open(m.cfg.DBPath, m.cfg.DBDebug, &domain.User{})
	if err != nil {
		return err
	}
	m.db = db

	jwtManager := NewJWTManager(JWTConfig{
		SecretKey:            m.cfg.JWTSecret,
		AccessTokenDuration:  m.cfg.AccessTokenTTL,
		RefreshTokenDuration: m.cfg.RefreshTokenTTL,
		Issuer:               m.cfg.JWTIssuer,
	})
	m.service = NewAuthService(NewUserRepository(db), NewPasswordHasher(DefaultBcryptCost), jwtManager)

	m.logger.Info("Module started", "database", m.cfg.DBPath)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if err := database.Close(m.db); err != nil {
		m.logger.Warn("Failed to close database", "error", err)
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.cfg.DBPath,
		},
	}
}

// Service returns the underlying service. It is nil until Start.
func (m *AuthModule) Service() *AuthService {
	return m.service
}

// replyFailure turns a known auth failure into a reply error. Unknown
// errors are returned as transport errors.
func replyFailure(err error) (*reply.Error, error) {
	if encoded := replyCodec.Encode(err); encoded != nil {
		return encoded, nil
	}
	return nil, err
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		failure, err := replyFailure(err)
		return UserResponse{Error: failure}, err
	}
	m.logger.Info("User registered", "user_id", user.ID)
	return toUserResponse(user), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		failure, err := replyFailure(err)
		return TokenResponse{Error: failure}, err
	}
	return toTokenResponse(tokens), nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (TokenResponse, error) {
	tokens, err := m.service.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		failure, err := replyFailure(err)
		return TokenResponse{Error: failure}, err
	}
	return toTokenResponse(tokens), nil
}

func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		errMsg := "invalid token"
		if errors.Is(err, ErrExpiredToken) {
			errMsg = "token expired"
		}
		// Validation failures are a normal answer, not a service error.
		return ValidateTokenResponse{Valid: false, Error: errMsg}, nil
	}
	return ValidateTokenResponse{Valid: true, UserID: claims.UserID, Email: claims.Email}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (UserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		failure, err := replyFailure(err)
		return UserResponse{Error: failure}, err
	}
	return toUserResponse(user), nil
}

func (m *AuthModule) handleValidateUser(ctx context.Context, req ValidateUserRequest, _ *mono.Msg) (ValidateUserResponse, error) {
	exists, err := m.service.UserExists(ctx, req.UserID)
	if err != nil {
		return ValidateUserResponse{}, fmt.Errorf("failed to look up user %d: %w", req.UserID, err)
	}
	return ValidateUserResponse{Exists: exists}, nil
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func toTokenResponse(tokens *domain.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		TokenType:    tokens.TokenType,
	}
}
