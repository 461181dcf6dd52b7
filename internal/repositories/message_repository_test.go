package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var messageCols = []string{"message_id", "group_id", "sender_id", "content", "message_type", "timestamp"}

func TestCreateMessageReturnsPersistedRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO messages \(group_id, sender_id, content, message_type\)`).
		WithArgs(3, 1, "hi", "text").
		WillReturnRows(sqlmock.NewRows(messageCols).AddRow(10, 3, 1, "hi", "text", ts))

	msg, err := repo.CreateMessage(context.Background(), 3, 1, "hi", "text")
	require.NoError(t, err)
	require.Equal(t, 10, msg.ID)
	require.Equal(t, "text", msg.Type)
	require.Equal(t, ts, msg.Timestamp)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListMessagesOrdersByTimestamp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMessageRepo(db)
	t1 := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(`FROM messages WHERE group_id=\$1 ORDER BY timestamp ASC, message_id ASC`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(messageCols).
			AddRow(1, 3, 1, "first", "text", t1).
			AddRow(2, 3, 2, "second", "image", t1.Add(time.Second)))

	msgs, err := repo.ListMessages(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "first", msgs[0].Content)
	require.Equal(t, "second", msgs[1].Content)
	require.NoError(t, mock.ExpectationsWereMet())
}
