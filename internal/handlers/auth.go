package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chat-backend/internal/apperrors"
	"chat-backend/internal/auth"
	"chat-backend/internal/models"
	"chat-backend/internal/repositories"
	"chat-backend/internal/telemetry"
)

// AuthHandler serves registration, login and token refresh.
type AuthHandler struct {
	auditor
	users  repositories.UserRepository
	tokens *auth.TokenService
}

func NewAuthHandler(users repositories.UserRepository, tokens *auth.TokenService, audit *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{auditor: auditor{audit: audit}, users: users, tokens: tokens}
}

// Register mounts the public auth routes.
func (h *AuthHandler) Register(r gin.IRoutes) {
	r.POST("/auth/register", h.RegisterUser)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
}

type registerRequest struct {
	FirstName     string  `json:"firstName" binding:"required,min=3"`
	LastName      string  `json:"lastName" binding:"required,min=3"`
	Email         string  `json:"email" binding:"required,email"`
	Phone         string  `json:"phone" binding:"required,min=6"`
	Password      string  `json:"password" binding:"required,min=6"`
	ProfilePicURL *string `json:"profilePicUrl"`
}

// RegisterUser handles POST /auth/register.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.fail(c, apperrors.Storage("failed to hash password", err))
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), models.User{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         strings.TrimSpace(req.Phone),
		PasswordHash:  hash,
		ProfilePicURL: req.ProfilePicURL,
	})
	switch {
	case errors.Is(err, repositories.ErrEmailTaken):
		h.fail(c, apperrors.Validation("Email already exists"))
		return
	case errors.Is(err, repositories.ErrPhoneTaken):
		h.fail(c, apperrors.Validation("Phone number already exists"))
		return
	case err != nil:
		h.fail(c, apperrors.Storage("failed to register user", err))
		return
	}

	h.emitAudit(c, "INFO", "User registered")
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "userId": user.ID})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	user, err := h.users.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		h.fail(c, apperrors.Storage("failed to load user", err))
		return
	}
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.fail(c, apperrors.Unauthenticated("Invalid email or password"))
		return
	}

	pair, err := h.tokens.GenerateTokenPair(user)
	if err != nil {
		h.fail(c, apperrors.Storage("failed to issue tokens", err))
		return
	}

	c.Set("userID", user.ID)
	h.emitAudit(c, "INFO", "User logged in")
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresAt":    pair.ExpiresAt,
		"message":      "Login successful",
		"user":         user.Public(),
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		h.fail(c, &apperrors.Error{Kind: apperrors.KindUnauthenticated, Message: "invalid refresh token", Err: err})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), claims.UserID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		h.fail(c, apperrors.Unauthenticated("invalid refresh token"))
		return
	}
	if err != nil {
		h.fail(c, apperrors.Storage("failed to load user", err))
		return
	}

	pair, err := h.tokens.GenerateTokenPair(user)
	if err != nil {
		h.fail(c, apperrors.Storage("failed to issue tokens", err))
		return
	}
	c.JSON(http.StatusOK, pair)
}
