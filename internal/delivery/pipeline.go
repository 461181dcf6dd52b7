package delivery

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"chat-backend/internal/apperrors"
	"chat-backend/internal/models"
	"chat-backend/internal/observability"
	"chat-backend/internal/repositories"
	"chat-backend/internal/telemetry"
)

// Broadcaster fans an event out to the live connections of a room.
type Broadcaster interface {
	BroadcastToRoom(room, event string, payload any) int
}

// MembershipChecker answers whether a user belongs to a group.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID int) (bool, error)
}

// Pipeline validates, persists and broadcasts group messages. Both the
// HTTP and websocket transports send through it.
type Pipeline struct {
	messages    repositories.MessageRepository
	groups      MembershipChecker
	broadcaster Broadcaster
}

// NewPipeline constructs a Pipeline. broadcaster may be nil, in which case
// messages are stored but not pushed.
func NewPipeline(messages repositories.MessageRepository, groups MembershipChecker, broadcaster Broadcaster) *Pipeline {
	return &Pipeline{messages: messages, groups: groups, broadcaster: broadcaster}
}

// SendMessage stores a message from senderID and broadcasts it as
// new_message to the group room.
func (p *Pipeline) SendMessage(ctx context.Context, groupID, senderID int, content, messageType string) (models.Message, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "delivery.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.Int("group.id", groupID), attribute.Int("user.id", senderID))

	if groupID <= 0 {
		return models.Message{}, apperrors.Validation("groupId is required")
	}
	if content == "" {
		return models.Message{}, apperrors.Validation("message content is required")
	}
	if messageType == "" {
		return models.Message{}, apperrors.Validation("message type is required")
	}

	if err := p.requireMember(ctx, groupID, senderID); err != nil {
		return models.Message{}, err
	}

	msg, err := p.messages.CreateMessage(ctx, groupID, senderID, content, messageType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist message")
		log.Printf("message persist failed: group_id=%d sender_id=%d err=%v", groupID, senderID, err)
		return models.Message{}, apperrors.Storage("Failed to save message", err)
	}

	if p.broadcaster == nil {
		log.Printf("message stored without broadcast: no room registry group_id=%d message_id=%d", groupID, msg.ID)
	} else {
		delivered := p.broadcaster.BroadcastToRoom(models.GroupRoom(groupID), models.EventNewMessage, msg)
		span.SetAttributes(attribute.Int("delivered", delivered))
	}

	_ = observability.PublishEvent(ctx, observability.RoutingKeyMessageSaved,
		observability.NewEnvelope("message_events", "message_saved", map[string]int{
			"message_id": msg.ID,
			"group_id":   msg.GroupID,
			"sender_id":  msg.SenderID,
		}), observability.BuildHeaders("", telemetry.TraceIDFromContext(ctx)))

	return msg, nil
}

// ListMessages returns a group's history oldest first. The viewer must be a
// member.
func (p *Pipeline) ListMessages(ctx context.Context, groupID, viewerID int) ([]models.Message, error) {
	if err := p.requireMember(ctx, groupID, viewerID); err != nil {
		return nil, err
	}
	msgs, err := p.messages.ListMessages(ctx, groupID)
	if err != nil {
		return nil, apperrors.Storage("failed to load messages", err)
	}
	return msgs, nil
}

func (p *Pipeline) requireMember(ctx context.Context, groupID, userID int) error {
	member, err := p.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return apperrors.Storage("failed to check membership", err)
	}
	if !member {
		return apperrors.Forbidden("not a member of this group")
	}
	return nil
}
