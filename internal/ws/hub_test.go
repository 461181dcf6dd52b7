package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-backend/internal/models"
)

func testClient(userID int) *Client {
	return newClient(nil, ConnInfo{ConnID: fmt.Sprintf("conn-%d", userID), UserID: userID})
}

func drain(c *Client) []models.Envelope {
	var frames []models.Envelope
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return frames
			}
			var env models.Envelope
			if err := json.Unmarshal(raw, &env); err == nil {
				frames = append(frames, env)
			}
		default:
			return frames
		}
	}
}

func TestBroadcastReachesOnlyJoinedConnections(t *testing.T) {
	hub := NewHub()
	joined, bystander := testClient(1), testClient(2)
	hub.Register(joined)
	hub.Register(bystander)

	require.True(t, hub.Join(joined, "5"))
	require.Equal(t, 1, hub.BroadcastToRoom("5", models.EventNewMessage, models.Message{ID: 9, GroupID: 5}))

	frames := drain(joined)
	require.Len(t, frames, 1)
	require.Equal(t, models.EventNewMessage, frames[0].Event)
	var msg models.Message
	require.NoError(t, json.Unmarshal(frames[0].Data, &msg))
	require.Equal(t, 9, msg.ID)

	require.Empty(t, drain(bystander))
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := testClient(1)
	require.True(t, hub.Join(c, "5"))
	require.True(t, hub.Join(c, "5"))
	require.Equal(t, 1, hub.Subscribers("5"))

	hub.BroadcastToRoom("5", models.EventNewMessage, map[string]int{"n": 1})
	require.Len(t, drain(c), 1)
}

func TestEmptyRoomBroadcastIsNoop(t *testing.T) {
	hub := NewHub()
	require.Equal(t, 0, hub.BroadcastToRoom("404", models.EventNewMessage, nil))
	_, rooms := hub.Stats()
	require.Zero(t, rooms)
}

func TestLeaveRemovesEmptyRoom(t *testing.T) {
	hub := NewHub()
	c := testClient(1)
	hub.Join(c, "5")
	hub.Join(c, "user_1")
	hub.Leave(c, "5")

	require.Zero(t, hub.Subscribers("5"))
	require.Equal(t, []string{"user_1"}, hub.RoomsOf(c))
	_, rooms := hub.Stats()
	require.Equal(t, 1, rooms)
}

func TestDropConnectionRemovesEverySubscription(t *testing.T) {
	hub := NewHub()
	c := testClient(1)
	hub.Register(c)
	hub.Join(c, "5")
	hub.Join(c, "6")
	hub.Join(c, models.UserRoom(1))

	hub.DropConnection(c)
	hub.DropConnection(c)

	require.Empty(t, hub.RoomsOf(c))
	require.Zero(t, hub.Subscribers("5"))
	require.Zero(t, hub.BroadcastToRoom("5", models.EventNewMessage, nil))
	connections, rooms := hub.Stats()
	require.Zero(t, connections)
	require.Zero(t, rooms)

	require.False(t, hub.Join(c, "5"), "dropped connection must not rejoin")
	require.Zero(t, hub.Subscribers("5"))
}

func TestSlowConnectionIsDropped(t *testing.T) {
	hub := NewHub()
	slow, healthy := testClient(1), testClient(2)
	hub.Join(slow, "5")
	hub.Join(healthy, "5")

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, slow.enqueue([]byte("{}")))
	}

	require.Equal(t, 1, hub.BroadcastToRoom("5", models.EventNewMessage, nil))
	require.True(t, slow.isClosed())
	require.Equal(t, 1, hub.Subscribers("5"))
	require.Len(t, drain(healthy), 1)
}

func TestConcurrentJoinBroadcastDrop(t *testing.T) {
	hub := NewHub()
	const n = 50
	clients := make([]*Client, n)
	for i := range clients {
		clients[i] = testClient(i + 1)
		hub.Register(clients[i])
	}

	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(3)
		go func(c *Client) {
			defer wg.Done()
			hub.Join(c, "room")
		}(c)
		go func() {
			defer wg.Done()
			hub.BroadcastToRoom("room", models.EventNewMessage, nil)
		}()
		go func(c *Client, drop bool) {
			defer wg.Done()
			if drop {
				hub.DropConnection(c)
			}
		}(c, i%2 == 0)
	}
	wg.Wait()

	for i, c := range clients {
		if i%2 == 0 {
			require.Empty(t, hub.RoomsOf(c))
		}
	}
	require.LessOrEqual(t, hub.Subscribers("room"), n/2)
}

func TestEvictUserLeavesOnlyThatUsersConnections(t *testing.T) {
	hub := NewHub()
	admin, phone, laptop := testClient(1), testClient(2), testClient(2)
	for _, c := range []*Client{admin, phone, laptop} {
		hub.Register(c)
		hub.Join(c, "7")
	}
	hub.Join(phone, models.UserRoom(2))

	require.Equal(t, 2, hub.EvictUser("7", 2))
	require.Zero(t, hub.EvictUser("7", 2))

	require.Equal(t, 1, hub.BroadcastToRoom("7", models.EventNewMessage, models.Message{ID: 5, GroupID: 7}))
	require.Len(t, drain(admin), 1)
	require.Empty(t, drain(phone))
	require.Empty(t, drain(laptop))

	require.Equal(t, []string{models.UserRoom(2)}, hub.RoomsOf(phone))
	require.Empty(t, hub.RoomsOf(laptop))
	require.False(t, phone.isClosed())
}

func TestShutdownClosesEveryConnection(t *testing.T) {
	hub := NewHub()
	a, b := testClient(1), testClient(2)
	hub.Register(a)
	hub.Register(b)
	hub.Join(a, "7")

	require.Equal(t, 2, hub.Shutdown())
	require.True(t, a.isClosed())
	require.True(t, b.isClosed())
	connections, rooms := hub.Stats()
	require.Zero(t, connections)
	require.Zero(t, rooms)
}
