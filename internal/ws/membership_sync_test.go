package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-backend/internal/delivery"
	"chat-backend/internal/membership"
	"chat-backend/internal/mocks"
	"chat-backend/internal/models"
)

type syncFixture struct {
	hub      *Hub
	groups   *mocks.GroupRepositoryMock
	messages *mocks.MessageRepositoryMock
	engine   *membership.Engine
	pipeline *delivery.Pipeline
	admin    *Client
	member   *Client
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		hub:      NewHub(),
		groups:   new(mocks.GroupRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
	}
	f.engine = membership.NewEngine(f.groups, new(mocks.UserRepositoryMock), f.hub, nil)
	f.pipeline = delivery.NewPipeline(f.messages, f.groups, f.hub)

	f.admin, f.member = testClient(1), testClient(2)
	for _, c := range []*Client{f.admin, f.member} {
		f.hub.Register(c)
		f.hub.Join(c, "7")
		f.hub.Join(c, models.UserRoom(c.UserID()))
	}
	f.groups.On("GetGroup", mock.Anything, 7).Return(models.Group{ID: 7, AdminID: 1}, nil)
	return f
}

func TestRemovedMemberStopsReceivingGroupMessages(t *testing.T) {
	f := newSyncFixture()
	f.groups.On("RemoveMembers", mock.Anything, 7, []int{2}).Return(models.RemovalOutcome{
		Removed:         []int{2},
		PreviousMembers: []int{1, 2, 3},
	}, nil)
	f.groups.On("IsMember", mock.Anything, 7, 1).Return(true, nil)
	f.messages.On("CreateMessage", mock.Anything, 7, 1, "after removal", "text").
		Return(models.Message{ID: 5, GroupID: 7, SenderID: 1, Content: "after removal", Type: "text"}, nil)

	_, err := f.engine.RemoveMembers(context.Background(), 7, 1, models.IDList{2})
	require.NoError(t, err)
	require.Equal(t, []string{models.UserRoom(2)}, f.hub.RoomsOf(f.member))

	_, err = f.pipeline.SendMessage(context.Background(), 7, 1, "after removal", "text")
	require.NoError(t, err)

	require.Empty(t, drain(f.member))
	frames := drain(f.admin)
	require.Len(t, frames, 1)
	require.Equal(t, models.EventNewMessage, frames[0].Event)
}

func TestDeletedGroupRoomIsEmptied(t *testing.T) {
	f := newSyncFixture()
	f.groups.On("DeleteGroup", mock.Anything, 7).Return([]int{1, 2}, nil)

	require.NoError(t, f.engine.DeleteGroup(context.Background(), 7, 1))

	require.Zero(t, f.hub.Subscribers("7"))
	require.Zero(t, f.hub.BroadcastToRoom("7", models.EventNewMessage, nil))
	for _, c := range []*Client{f.admin, f.member} {
		frames := drain(c)
		require.Len(t, frames, 1)
		require.Equal(t, models.EventGroupDeleted, frames[0].Event)
	}
}
