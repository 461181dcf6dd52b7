package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chat-backend/internal/apperrors"
	"chat-backend/internal/auth"
	"chat-backend/internal/models"
	"chat-backend/internal/observability"
	"chat-backend/internal/telemetry"
)

// TokenAuthenticator validates the credential presented at handshake.
type TokenAuthenticator interface {
	AuthenticateToken(ctx context.Context, token string) (auth.Principal, error)
}

// MembershipChecker answers whether a user belongs to a group.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID int) (bool, error)
}

// MessageSender persists a message and fans it out to the group room.
type MessageSender interface {
	SendMessage(ctx context.Context, groupID, senderID int, content, messageType string) (models.Message, error)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler is the streaming transport.
type Handler struct {
	hub    *Hub
	authn  TokenAuthenticator
	groups MembershipChecker
	sender MessageSender
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, authn TokenAuthenticator, groups MembershipChecker, sender MessageSender) *Handler {
	return &Handler{hub: hub, authn: authn, groups: groups, sender: sender}
}

// Handle authenticates the handshake, upgrades and serves the connection.
// The credential comes from the Authorization header or the token query
// parameter.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := telemetry.Tracer().Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	token := c.Query("token")
	if header := c.GetHeader("Authorization"); header != "" {
		parsed, err := auth.BearerToken(header)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.Message(err)})
			return
		}
		token = parsed
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
		return
	}

	principal, err := h.authn.AuthenticateToken(ctx, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.Message(err)})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: user_id=%d err=%v", principal.UserID, err)
		return
	}

	meta := observability.ClientMetaFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      principal.UserID,
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		RequestID:   meta.RequestID,
		TraceID:     telemetry.TraceIDFromContext(ctx),
		ConnectedAt: time.Now(),
	}
	client := newClient(conn, info)
	h.hub.Register(client)

	observability.IncWSActive()
	connCtx := context.WithoutCancel(ctx)
	publishWSEvent(connCtx, "ws_connect", info, "")

	go client.writePump()
	go h.readPump(connCtx, client)
}

func (h *Handler) readPump(ctx context.Context, client *Client) {
	var closeReason string
	defer func() {
		h.hub.DropConnection(client)
		observability.DecWSActive()
		publishWSEvent(ctx, "ws_disconnect", client.info, closeReason)
	}()

	conn := client.conn
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishWSEvent(ctx, "ws_error", client.info, closeReason)
			}
			return
		}

		var frame models.Envelope
		if err := json.Unmarshal(data, &frame); err != nil {
			client.Emit(models.EventErrorMessage, models.ErrorPayload{Error: "invalid frame"})
			continue
		}

		switch frame.Event {
		case models.EventJoinGroup:
			h.handleJoin(ctx, client, frame.Data)
		case models.EventSendMessage:
			h.handleSend(ctx, client, frame.Data)
		default:
			client.Emit(models.EventErrorMessage, models.ErrorPayload{Error: "unknown event"})
		}
	}
}

func (h *Handler) handleJoin(ctx context.Context, client *Client, data json.RawMessage) {
	key, ok := models.RoomKey(data)
	if !ok {
		client.Emit(models.EventErrorMessage, models.ErrorPayload{Error: "invalid room"})
		return
	}
	groupID, userID, ok := models.ParseRoom(key)
	if !ok {
		client.Emit(models.EventErrorMessage, models.ErrorPayload{Error: "invalid room"})
		return
	}

	var room string
	if userID != 0 {
		if userID != client.UserID() {
			client.Emit(models.EventErrorMessage, models.ErrorPayload{Error: "not authorized to join room"})
			return
		}
		room = models.UserRoom(userID)
	} else {
		member, err := h.groups.IsMember(ctx, groupID, client.UserID())
		if err != nil {
			log.Printf("ws join membership check failed: group_id=%d user_id=%d err=%v", groupID, client.UserID(), err)
			client.Emit(models.EventErrorMessage, models.ErrorPayload{Error: "failed to join group"})
			return
		}
		if !member {
			client.Emit(models.EventErrorMessage, models.ErrorPayload{Error: "not a member of this group"})
			return
		}
		room = models.GroupRoom(groupID)
	}

	if !h.hub.Join(client, room) {
		return
	}
	observability.IncWSEvent(models.EventJoinGroup)
	client.Emit(models.EventJoinedGroup, models.JoinedGroupAck{GroupID: room, Status: "ok"})
}

func (h *Handler) handleSend(ctx context.Context, client *Client, data json.RawMessage) {
	var req models.SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		client.Emit(models.EventErrorMessage, models.ErrorPayload{Error: "invalid message payload"})
		return
	}

	_, err := h.sender.SendMessage(ctx, int(req.GroupID), client.UserID(), req.Message.Content, req.Message.Type)
	if err == nil {
		observability.IncMessagePersisted("ws")
		return
	}

	msg := "Failed to save message"
	if kind := apperrors.KindOf(err); kind != apperrors.KindStorage {
		msg = apperrors.Message(err)
	}
	client.Emit(models.EventErrorMessage, models.ErrorPayload{Error: msg})
}
