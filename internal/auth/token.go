package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chat-backend/internal/models"
)

var (
	ErrTokenInvalid = errors.New("token is invalid")
	ErrTokenExpired = errors.New("token has expired")
)

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

const issuer = "chat-backend"

// Claims are carried by both token types.
type Claims struct {
	UserID    int       `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	TokenType TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// TokenService issues and validates signed tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenService creates a TokenService. Access and refresh tokens use
// separate secrets.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// GenerateTokenPair signs an access and a refresh token for user.
func (s *TokenService) GenerateTokenPair(user models.User) (*TokenPair, error) {
	now := s.now()
	accessExpiresAt := now.Add(s.accessTTL)

	access, err := s.sign(Claims{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		TokenType: AccessToken,
	}, now, accessExpiresAt, s.accessSecret)
	if err != nil {
		return nil, err
	}

	refresh, err := s.sign(Claims{UserID: user.ID, TokenType: RefreshToken}, now, now.Add(s.refreshTTL), s.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: accessExpiresAt.Unix()}, nil
}

func (s *TokenService) sign(claims Claims, issuedAt, expiresAt time.Time, secret []byte) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		Issuer:    issuer,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(secret)
}

// ValidateAccessToken verifies an access token.
func (s *TokenService) ValidateAccessToken(token string) (*Claims, error) {
	return s.validate(token, AccessToken, s.accessSecret)
}

// ValidateRefreshToken verifies a refresh token.
func (s *TokenService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.validate(token, RefreshToken, s.refreshSecret)
}

func (s *TokenService) validate(tokenString string, expected TokenType, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != expected || claims.UserID <= 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
