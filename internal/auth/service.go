package auth

import (
	"context"
	"fmt"

	"github.com/floortrack/floortrack/internal/config"
	"github.com/floortrack/floortrack/internal/storage"
)

// AuthService authenticates operators by phone number and password and
// issues the signed identity token the dashboard carries as a cookie.
type AuthService struct {
	storage        *storage.PostgresClient
	jwtHandler     *JWTHandler
	passwordHasher *PasswordHasher
}

func NewAuthService(store *storage.PostgresClient, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		storage:        store,
		jwtHandler:     NewJWTHandler(cfg.GetJWTSecret(), cfg.AccessTokenTTL),
		passwordHasher: NewPasswordHasher(),
	}
}

// Login authenticates an operator and returns a signed token.
func (a *AuthService) Login(ctx context.Context, phone, password string) (string, *storage.Operator, error) {
	operator, err := a.storage.GetOperatorByPhone(ctx, phone)
	if err != nil {
		// Same message for unknown phone and bad password
		return "", nil, fmt.Errorf("invalid credentials")
	}

	valid, err := a.passwordHasher.VerifyPassword(password, operator.PasswordHash)
	if err != nil || !valid {
		return "", nil, fmt.Errorf("invalid credentials")
	}

	token, err := a.jwtHandler.GenerateToken(operator.Phone, operator.Username)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, operator, nil
}

// ResolveOperator maps a token's phone claim to the operator profile.
func (a *AuthService) ResolveOperator(ctx context.Context, claims *OperatorClaims) (*storage.Operator, error) {
	return a.storage.GetOperatorByPhone(ctx, claims.Phone)
}

// ValidateToken exposes token validation to transports (REST middleware,
// websocket handshake).
func (a *AuthService) ValidateToken(token string) (*OperatorClaims, error) {
	return a.jwtHandler.ValidateToken(token)
}
