package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Websocket event names.
const (
	EventJoinGroup    = "join_group"
	EventJoinedGroup  = "joined_group"
	EventSendMessage  = "send_message"
	EventNewMessage   = "new_message"
	EventErrorMessage = "error_message"
	EventGroupCreated = "group_created"
	EventGroupAdded   = "group_added"
	EventGroupDeleted = "group_deleted"
)

const userRoomPrefix = "user_"

// GroupRoom is the room key for a chat group.
func GroupRoom(groupID int) string {
	return strconv.Itoa(groupID)
}

// UserRoom is the personal room key for a user.
func UserRoom(userID int) string {
	return userRoomPrefix + strconv.Itoa(userID)
}

// ParseRoom classifies a room key. Exactly one of groupID/userID is non-zero
// when ok is true.
func ParseRoom(key string) (groupID, userID int, ok bool) {
	key = strings.TrimSpace(key)
	if rest, found := strings.CutPrefix(key, userRoomPrefix); found {
		id, err := strconv.Atoi(rest)
		if err != nil || id <= 0 {
			return 0, 0, false
		}
		return 0, id, true
	}
	id, err := strconv.Atoi(key)
	if err != nil || id <= 0 {
		return 0, 0, false
	}
	return id, 0, true
}

// Envelope is a single websocket frame in either direction.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessageRequest is the payload of a send_message frame.
type SendMessageRequest struct {
	GroupID FlexibleID      `json:"groupId"`
	Message OutgoingMessage `json:"message"`
}

// JoinedGroupAck acknowledges a join_group frame.
type JoinedGroupAck struct {
	GroupID string `json:"groupId"`
	Status  string `json:"status"`
}

// ErrorPayload is sent to a single connection when a request fails.
type ErrorPayload struct {
	Error string `json:"error"`
}

// FlexibleID accepts a JSON number or a numeric string.
type FlexibleID int

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	id, ok := coerceID(b)
	if !ok {
		return fmt.Errorf("invalid id %s", string(b))
	}
	*f = FlexibleID(id)
	return nil
}

// RoomKey decodes the payload of a join_group frame, which may be a string or
// a number.
func RoomKey(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), s != ""
	}
	if id, ok := coerceID(raw); ok {
		return strconv.Itoa(id), true
	}
	return "", false
}
