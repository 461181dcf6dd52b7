package auth

import (
	"context"
	"errors"
	"strings"

	"chat-backend/internal/apperrors"
)

// Principal is the identity attached to a request or connection.
type Principal struct {
	UserID    int
	Email     string
	FirstName string
	LastName  string
}

// Authenticator validates bearer credentials for both transports.
type Authenticator struct {
	tokens *TokenService
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(tokens *TokenService) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Authenticate decodes an Authorization header value ("Bearer <token>").
func (a *Authenticator) Authenticate(ctx context.Context, header string) (Principal, error) {
	token, err := BearerToken(header)
	if err != nil {
		return Principal{}, err
	}
	return a.AuthenticateToken(ctx, token)
}

// AuthenticateToken validates a raw access token.
func (a *Authenticator) AuthenticateToken(_ context.Context, token string) (Principal, error) {
	claims, err := a.tokens.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return Principal{}, &apperrors.Error{Kind: apperrors.KindUnauthenticated, Message: "access token expired", Err: err}
		}
		return Principal{}, &apperrors.Error{Kind: apperrors.KindUnauthenticated, Message: "invalid access token", Err: err}
	}
	return Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apperrors.Unauthenticated("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.Unauthenticated("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
