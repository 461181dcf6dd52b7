package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-backend/internal/friends"
	"chat-backend/internal/models"
	"chat-backend/internal/telemetry"
)

// FriendService is the friendship workflow behind the friend routes.
type FriendService interface {
	SendRequest(ctx context.Context, fromID, toID int) (friends.RequestStatus, error)
	Accept(ctx context.Context, userID, fromID int) error
	Reject(ctx context.Context, userID, fromID int) error
	ListFriends(ctx context.Context, userID int) ([]models.Friend, error)
	ListRequests(ctx context.Context, userID int) ([]models.Friend, error)
}

type FriendHandler struct {
	auditor
	friends FriendService
}

func NewFriendHandler(svc FriendService, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{auditor: auditor{audit: audit}, friends: svc}
}

// Register mounts the friend routes on an authenticated router group.
func (h *FriendHandler) Register(r gin.IRoutes) {
	r.GET("/users/friends", h.ListFriends)
	r.GET("/users/friend-requests", h.ListRequests)
	r.POST("/users/:user_id/friend-requests", h.SendRequest)
	r.POST("/users/:user_id/friend-requests/accept", h.Accept)
	r.POST("/users/:user_id/friend-requests/reject", h.Reject)
}

func (h *FriendHandler) ListFriends(c *gin.Context) {
	list, err := h.friends.ListFriends(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": list})
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	list, err := h.friends.ListRequests(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

// SendRequest handles POST /users/:user_id/friend-requests, where user_id is the target.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	targetID, err := paramID(c, "user_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	status, err := h.friends.SendRequest(c.Request.Context(), c.GetInt("userID"), targetID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if status == friends.RequestAlreadyPending {
		c.JSON(http.StatusOK, gin.H{"message": "Friend request already pending", "status": status})
		return
	}
	h.emitAudit(c, "INFO", "Friend request sent")
	c.JSON(http.StatusCreated, gin.H{"message": "Friend request sent", "status": status})
}

// Accept handles POST /users/:user_id/friend-requests/accept, where user_id sent the request.
func (h *FriendHandler) Accept(c *gin.Context) {
	fromID, err := paramID(c, "user_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.friends.Accept(c.Request.Context(), c.GetInt("userID"), fromID); err != nil {
		h.fail(c, err)
		return
	}
	h.emitAudit(c, "INFO", "Friend request accepted")
	c.JSON(http.StatusOK, gin.H{"message": "Friend request accepted"})
}

func (h *FriendHandler) Reject(c *gin.Context) {
	fromID, err := paramID(c, "user_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.friends.Reject(c.Request.Context(), c.GetInt("userID"), fromID); err != nil {
		h.fail(c, err)
		return
	}
	h.emitAudit(c, "INFO", "Friend request rejected")
	c.JSON(http.StatusOK, gin.H{"message": "Friend request rejected"})
}
