package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-backend/internal/models"
	"chat-backend/internal/observability"
	"chat-backend/internal/telemetry"
)

// GroupService is the membership side of the group routes.
type GroupService interface {
	CreateGroup(ctx context.Context, creatorID int, name string, memberIDs models.IDList) (models.GroupSummary, error)
	AddMembers(ctx context.Context, groupID, requesterID int, memberIDs models.IDList) ([]int, error)
	RemoveMembers(ctx context.Context, groupID, requesterID int, memberIDs models.IDList) (models.RemovalOutcome, error)
	DeleteGroup(ctx context.Context, groupID, requesterID int) error
	ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupSummary, error)
	ListMembers(ctx context.Context, groupID, viewerID int) ([]models.Member, error)
}

// MessageService stores and reads group messages.
type MessageService interface {
	SendMessage(ctx context.Context, groupID, senderID int, content, messageType string) (models.Message, error)
	ListMessages(ctx context.Context, groupID, viewerID int) ([]models.Message, error)
}

// GroupHandler manages group-related endpoints.
type GroupHandler struct {
	auditor
	groups   GroupService
	messages MessageService
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups GroupService, messages MessageService, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{auditor: auditor{audit: audit}, groups: groups, messages: messages}
}

// Register mounts the group routes on an authenticated router group.
func (h *GroupHandler) Register(r gin.IRoutes) {
	r.GET("/groups", h.ListGroups)
	r.POST("/groups", h.CreateGroup)
	r.GET("/groups/:group_id/members", h.ListMembers)
	r.POST("/groups/:group_id/members", h.AddMembers)
	r.DELETE("/groups/:group_id/members", h.RemoveMembers)
	r.DELETE("/groups/:group_id", h.DeleteGroup)
	r.GET("/groups/:group_id/messages", h.GetGroupMessages)
	r.POST("/groups/:group_id/messages", h.PostGroupMessage)
}

type memberIDsRequest struct {
	MemberIDs models.IDList `json:"memberIds"`
}

// ListGroups returns groups the caller belongs to.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groups.ListGroupsForUser(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// CreateGroup handles POST /groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req struct {
		GroupName string        `json:"groupName"`
		MemberIDs models.IDList `json:"memberIds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), c.GetInt("userID"), req.GroupName, req.MemberIDs)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group created")
	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// ListMembers handles GET /groups/:group_id/members.
func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID, err := paramID(c, "group_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	members, err := h.groups.ListMembers(c.Request.Context(), groupID, c.GetInt("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// AddMembers handles POST /groups/:group_id/members. Admin only.
func (h *GroupHandler) AddMembers(c *gin.Context) {
	groupID, req, ok := h.bindMembers(c)
	if !ok {
		return
	}
	added, err := h.groups.AddMembers(c.Request.Context(), groupID, c.GetInt("userID"), req.MemberIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.emitAudit(c, "INFO", "Group members added")
	c.JSON(http.StatusOK, gin.H{"message": "Members added successfully", "added": added})
}

// RemoveMembers handles DELETE /groups/:group_id/members. Admin only.
func (h *GroupHandler) RemoveMembers(c *gin.Context) {
	groupID, req, ok := h.bindMembers(c)
	if !ok {
		return
	}
	outcome, err := h.groups.RemoveMembers(c.Request.Context(), groupID, c.GetInt("userID"), req.MemberIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.emitAudit(c, "INFO", "Group members removed")
	c.JSON(http.StatusOK, gin.H{
		"message":       "Members removed successfully",
		"removed":       outcome.Removed,
		"group_deleted": outcome.Cascaded,
	})
}

// DeleteGroup handles DELETE /groups/:group_id. Admin only.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	groupID, err := paramID(c, "group_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.groups.DeleteGroup(c.Request.Context(), groupID, c.GetInt("userID")); err != nil {
		h.fail(c, err)
		return
	}
	h.emitAudit(c, "INFO", "Group deleted")
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}

// GetGroupMessages returns messages in the group, oldest first.
func (h *GroupHandler) GetGroupMessages(c *gin.Context) {
	groupID, err := paramID(c, "group_id")
	if err != nil {
		h.fail(c, err)
		return
	}
	msgs, err := h.messages.ListMessages(c.Request.Context(), groupID, c.GetInt("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostGroupMessage persists and broadcasts a group message.
func (h *GroupHandler) PostGroupMessage(c *gin.Context) {
	groupID, err := paramID(c, "group_id")
	if err != nil {
		h.fail(c, err)
		return
	}

	var req models.OutgoingMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return
	}

	msg, err := h.messages.SendMessage(c.Request.Context(), groupID, c.GetInt("userID"), req.Content, req.Type)
	if err != nil {
		h.fail(c, err)
		return
	}

	observability.IncMessagePersisted("http")
	h.emitAudit(c, "INFO", "Group message sent")
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *GroupHandler) bindMembers(c *gin.Context) (int, memberIDsRequest, bool) {
	var req memberIDsRequest
	groupID, err := paramID(c, "group_id")
	if err != nil {
		h.fail(c, err)
		return 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, bindError(err))
		return 0, req, false
	}
	return groupID, req, true
}
