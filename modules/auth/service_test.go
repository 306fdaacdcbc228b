package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/kaiodadalt/task-management-system/database"
	domain "github.com/kaiodadalt/task-management-system/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(":memory:", false, &domain.User{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(
		NewUserRepository(setupTestDB(t)),
		NewPasswordHasher(bcrypt.MinCost),
		NewJWTManager(testJWTConfig()),
	)
}

func TestAuthService_RegisterLoginValidate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	user, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 {
		t.Fatal("Register() did not assign an id")
	}

	tokens, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tokens.TokenType != "Bearer" {
		t.Errorf("TokenType = %q, want Bearer", tokens.TokenType)
	}

	claims, err := svc.ValidateToken(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %d, want %d", claims.UserID, user.ID)
	}

	refreshed, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens() error = %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("RefreshTokens() returned an empty access token")
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.Register(ctx, "Bob", "bob@example.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"blank name", "  ", "c@example.com", "password123", ErrNameRequired},
		{"bad email", "Carol", "not-an-email", "password123", ErrInvalidEmail},
		{"display-name email", "Carol", "Carol <c@example.com>", "password123", ErrInvalidEmail},
		{"short password", "Carol", "c@example.com", "short", ErrWeakPassword},
		{"long password", "Carol", "c@example.com", string(make([]byte, 73)), ErrPasswordTooLong},
		{"duplicate email", "Bobby", "bob@example.com", "password123", ErrUserExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	if _, err := svc.Register(ctx, "Dan", "dan@example.com", "password123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.Login(ctx, "dan@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong password) error = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(unknown email) error = %v, want %v", err, ErrInvalidCredentials)
	}
}

func TestAuthService_UserExists(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	user, err := svc.Register(ctx, "Eve", "eve@example.com", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		id   uint
		want bool
	}{
		{user.ID, true},
		{user.ID + 100, false},
		{0, false},
	}
	for _, tt := range tests {
		got, err := svc.UserExists(ctx, tt.id)
		if err != nil {
			t.Fatalf("UserExists(%d) error = %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("UserExists(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}

	if _, err := svc.GetUser(ctx, user.ID+100); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser(missing) error = %v, want %v", err, ErrUserNotFound)
	}
}

func TestReplyCodecRoundTrip(t *testing.T) {
	for _, sentinel := range []error{ErrUserExists, ErrInvalidCredentials, ErrWeakPassword, ErrExpiredToken} {
		encoded, err := replyFailure(sentinel)
		if err != nil || encoded == nil {
			t.Fatalf("replyFailure(%v) = %v, %v", sentinel, encoded, err)
		}
		if got := replyCodec.Decode(encoded); !errors.Is(got, sentinel) {
			t.Errorf("Decode(%q) = %v, want %v", encoded.Code, got, sentinel)
		}
	}

	unknown := errors.New("disk on fire")
	if encoded, err := replyFailure(unknown); encoded != nil || !errors.Is(err, unknown) {
		t.Errorf("replyFailure(unknown) = %v, %v", encoded, err)
	}
}
