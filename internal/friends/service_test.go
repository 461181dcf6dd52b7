package friends

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-backend/internal/apperrors"
	"chat-backend/internal/mocks"
	"chat-backend/internal/models"
	"chat-backend/internal/repositories"
)

var (
	ann = models.User{ID: 1, FirstName: "Ann", LastName: "Lee", Email: "ann@x.io"}
	ben = models.User{ID: 2, FirstName: "Ben", LastName: "Ray"}
)

func newService() (*Service, *mocks.FriendRepositoryMock, *mocks.UserRepositoryMock, *mocks.NotifierMock) {
	friends := new(mocks.FriendRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	notifier := new(mocks.NotifierMock)
	users.On("GetUser", mock.Anything, 1).Return(ann, nil).Maybe()
	users.On("GetUser", mock.Anything, 2).Return(ben, nil).Maybe()
	users.On("GetUser", mock.Anything, 404).Return(nil, repositories.ErrUserNotFound).Maybe()
	return NewService(friends, users, notifier), friends, users, notifier
}

func TestSendRequestNotifiesTarget(t *testing.T) {
	svc, friends, _, notifier := newService()
	friends.On("GetFriendship", mock.Anything, 1, 2).Return(nil, repositories.ErrFriendshipNotFound)
	friends.On("GetFriendship", mock.Anything, 2, 1).Return(nil, repositories.ErrFriendshipNotFound)
	friends.On("CreateRequest", mock.Anything, 1, 2).Return(true, nil)
	notifier.On("Notify", mock.Anything, 2, mock.MatchedBy(func(n models.Notification) bool {
		return n.Type == models.NotificationFriendRequest &&
			n.Message == "Ann Lee sent you a friend request" &&
			n.FromUser.Email == "ann@x.io"
	})).Return(nil)

	status, err := svc.SendRequest(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, RequestSent, status)
	notifier.AssertExpectations(t)
}

func TestSendRequestWhilePendingIsNoop(t *testing.T) {
	svc, friends, _, notifier := newService()
	friends.On("GetFriendship", mock.Anything, 1, 2).Return(models.Friendship{Status: models.FriendshipPending}, nil)
	friends.On("GetFriendship", mock.Anything, 2, 1).Return(nil, repositories.ErrFriendshipNotFound)

	status, err := svc.SendRequest(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, RequestAlreadyPending, status)
	friends.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRequestRejections(t *testing.T) {
	svc, friends, _, _ := newService()

	_, err := svc.SendRequest(context.Background(), 1, 1)
	require.True(t, apperrors.Is(err, apperrors.KindValidation))

	_, err = svc.SendRequest(context.Background(), 1, 404)
	require.True(t, apperrors.Is(err, apperrors.KindNotFound))

	friends.On("GetFriendship", mock.Anything, 1, 2).Return(nil, repositories.ErrFriendshipNotFound)
	friends.On("GetFriendship", mock.Anything, 2, 1).Return(models.Friendship{Status: models.FriendshipAccepted}, nil)
	_, err = svc.SendRequest(context.Background(), 1, 2)
	require.True(t, apperrors.Is(err, apperrors.KindConflictState))
}

func TestAcceptAndReject(t *testing.T) {
	svc, friends, _, _ := newService()
	friends.On("AcceptRequest", mock.Anything, 1, 2).Return(nil)
	friends.On("AcceptRequest", mock.Anything, 3, 2).Return(repositories.ErrNoPendingRequest)
	friends.On("RejectRequest", mock.Anything, 1, 2).Return(int64(1), nil)
	friends.On("RejectRequest", mock.Anything, 3, 2).Return(int64(0), nil)
	friends.On("RejectRequest", mock.Anything, 4, 2).Return(int64(0), errors.New("conn reset"))

	require.NoError(t, svc.Accept(context.Background(), 2, 1))
	require.True(t, apperrors.Is(svc.Accept(context.Background(), 2, 3), apperrors.KindConflictState))

	require.NoError(t, svc.Reject(context.Background(), 2, 1))
	require.True(t, apperrors.Is(svc.Reject(context.Background(), 2, 3), apperrors.KindConflictState))
	require.True(t, apperrors.Is(svc.Reject(context.Background(), 2, 4), apperrors.KindStorage))
}

func TestListFriendsAndRequests(t *testing.T) {
	svc, friends, _, _ := newService()
	friends.On("ListFriends", mock.Anything, 1).Return([]models.Friend{{UserID: 2, Status: models.FriendshipAccepted}}, nil)
	friends.On("ListIncomingRequests", mock.Anything, 1).Return([]models.Friend{}, nil)

	list, err := svc.ListFriends(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	requests, err := svc.ListRequests(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, requests)
}
