package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chat-backend/internal/apperrors"
	"chat-backend/internal/models"
	"chat-backend/internal/repositories"
	"chat-backend/internal/telemetry"
)

const maxAvatarBytes = 5 << 20

var avatarExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// NotificationLister reads a user's notifications, newest first.
type NotificationLister interface {
	List(ctx context.Context, userID int) ([]models.Notification, error)
}

// UserHandler serves the user directory, profile and notifications.
type UserHandler struct {
	auditor
	users         repositories.UserRepository
	notifications NotificationLister
	uploadDir     string
}

func NewUserHandler(users repositories.UserRepository, notifications NotificationLister, uploadDir string, audit *telemetry.AuditEmitter) *UserHandler {
	return &UserHandler{auditor: auditor{audit: audit}, users: users, notifications: notifications, uploadDir: uploadDir}
}

// Register mounts the user routes on an authenticated router group.
func (h *UserHandler) Register(r gin.IRoutes) {
	r.GET("/users", h.ListUsers)
	r.GET("/users/search", h.SearchUsers)
	r.GET("/users/profile", h.GetProfile)
	r.PUT("/users/profile", h.UpdateProfile)
	r.POST("/users/profile/picture", h.UploadPicture)
	r.GET("/users/notifications", h.ListNotifications)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, apperrors.Storage("failed to load users", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// SearchUsers handles GET /users/search?q=.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		h.fail(c, apperrors.Validation("search query is required"))
		return
	}
	users, err := h.users.SearchUsers(c.Request.Context(), q, c.GetInt("userID"))
	if err != nil {
		h.fail(c, apperrors.Storage("failed to search users", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		h.fail(c, userError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile handles PUT /users/profile; absent fields are unchanged.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		FirstName *string `json:"firstName" binding:"omitempty,min=3"`
		LastName  *string `json:"lastName" binding:"omitempty,min=3"`
		Phone     *string `json:"phone" binding:"omitempty,min=6"`
		Theme     *string `json:"theme" binding:"omitempty,oneof=light dark"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), c.GetInt("userID"), models.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Theme:     req.Theme,
	})
	if err != nil {
		h.fail(c, userError(err))
		return
	}
	h.emitAudit(c, "INFO", "Profile updated")
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UploadPicture handles multipart POST /users/profile/picture with field profilePic.
func (h *UserHandler) UploadPicture(c *gin.Context) {
	file, err := c.FormFile("profilePic")
	if err != nil {
		h.fail(c, apperrors.Validation("profilePic file is required"))
		return
	}
	if file.Size > maxAvatarBytes {
		h.fail(c, apperrors.Validation("profile picture is too large"))
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !avatarExtensions[ext] {
		h.fail(c, apperrors.Validation("unsupported image type"))
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.fail(c, apperrors.Storage("failed to store picture", err))
		return
	}
	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, name)); err != nil {
		h.fail(c, apperrors.Storage("failed to store picture", err))
		return
	}

	user, err := h.users.UpdateProfilePicture(c.Request.Context(), c.GetInt("userID"), "/uploads/"+name)
	if err != nil {
		h.fail(c, userError(err))
		return
	}
	h.emitAudit(c, "INFO", "Profile picture updated")
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) ListNotifications(c *gin.Context) {
	list, err := h.notifications.List(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		h.fail(c, apperrors.Storage("failed to load notifications", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func userError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.NotFound("User not found")
	case errors.Is(err, repositories.ErrPhoneTaken):
		return apperrors.Validation("Phone number already exists")
	case errors.Is(err, repositories.ErrEmailTaken):
		return apperrors.Validation("Email already exists")
	}
	return apperrors.Storage("failed to load user", err)
}
