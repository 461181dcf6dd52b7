package models

import "time"

// Message represents a persisted group message.
type Message struct {
	ID        int       `db:"message_id" json:"message_id"`
	GroupID   int       `db:"group_id" json:"group_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	Type      string    `db:"message_type" json:"message_type"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// OutgoingMessage is the client supplied part of a message.
type OutgoingMessage struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}
