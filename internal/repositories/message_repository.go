package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"chat-backend/internal/models"
)

// MessageRepository defines interactions for group messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, groupID int, senderID int, content string, messageType string) (models.Message, error)
	ListMessages(ctx context.Context, groupID int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed implementation.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `message_id, group_id, sender_id, content, message_type, timestamp`

// CreateMessage persists a message; the timestamp is assigned by the database.
func (r *MessageRepo) CreateMessage(ctx context.Context, groupID int, senderID int, content string, messageType string) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (group_id, sender_id, content, message_type) VALUES ($1, $2, $3, $4) RETURNING `+messageColumns,
		groupID, senderID, content, messageType).StructScan(&msg)
	return msg, err
}

// ListMessages returns a group's messages in timestamp order.
func (r *MessageRepo) ListMessages(ctx context.Context, groupID int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages WHERE group_id=$1 ORDER BY timestamp ASC, message_id ASC`, groupID)
	return msgs, err
}
