package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-backend/internal/models"
	"chat-backend/internal/repositories"
)

var (
	_ repositories.GroupRepository   = (*GroupRepositoryMock)(nil)
	_ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
	_ repositories.UserRepository    = (*UserRepositoryMock)(nil)
	_ repositories.FriendRepository  = (*FriendRepositoryMock)(nil)
)

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, adminID int, name string, memberIDs []int) (models.Group, error) {
	args := m.Called(ctx, adminID, name, memberIDs)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupRow, error) {
	args := m.Called(ctx, userID)
	var list []models.GroupRow
	if val := args.Get(0); val != nil {
		list = val.([]models.GroupRow)
	}
	return list, args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) ListMembers(ctx context.Context, groupID int) ([]models.Member, error) {
	args := m.Called(ctx, groupID)
	var list []models.Member
	if val := args.Get(0); val != nil {
		list = val.([]models.Member)
	}
	return list, args.Error(1)
}

func (m *GroupRepositoryMock) AddMembers(ctx context.Context, groupID int, userIDs []int) ([]int, error) {
	args := m.Called(ctx, groupID, userIDs)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *GroupRepositoryMock) RemoveMembers(ctx context.Context, groupID int, userIDs []int) (models.RemovalOutcome, error) {
	args := m.Called(ctx, groupID, userIDs)
	var outcome models.RemovalOutcome
	if val := args.Get(0); val != nil {
		outcome = val.(models.RemovalOutcome)
	}
	return outcome, args.Error(1)
}

func (m *GroupRepositoryMock) DeleteGroup(ctx context.Context, groupID int) ([]int, error) {
	args := m.Called(ctx, groupID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, groupID int, senderID int, content string, messageType string) (models.Message, error) {
	args := m.Called(ctx, groupID, senderID, content, messageType)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, groupID int) ([]models.Message, error) {
	args := m.Called(ctx, groupID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) user(args mock.Arguments) (models.User, error) {
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) users(args mock.Arguments) ([]models.User, error) {
	var list []models.User
	if val := args.Get(0); val != nil {
		list = val.([]models.User)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	return m.user(m.Called(ctx, user))
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *UserRepositoryMock) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *UserRepositoryMock) GetUsersByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	return m.users(m.Called(ctx, ids))
}

func (m *UserRepositoryMock) ListUsers(ctx context.Context) ([]models.User, error) {
	return m.users(m.Called(ctx))
}

func (m *UserRepositoryMock) SearchUsers(ctx context.Context, query string, excludeID int) ([]models.User, error) {
	return m.users(m.Called(ctx, query, excludeID))
}

func (m *UserRepositoryMock) UpdateProfile(ctx context.Context, userID int, update models.ProfileUpdate) (models.User, error) {
	return m.user(m.Called(ctx, userID, update))
}

func (m *UserRepositoryMock) UpdateProfilePicture(ctx context.Context, userID int, url string) (models.User, error) {
	return m.user(m.Called(ctx, userID, url))
}

type FriendRepositoryMock struct {
	mock.Mock
}

func (m *FriendRepositoryMock) GetFriendship(ctx context.Context, userID int, friendID int) (models.Friendship, error) {
	args := m.Called(ctx, userID, friendID)
	var f models.Friendship
	if val := args.Get(0); val != nil {
		f = val.(models.Friendship)
	}
	return f, args.Error(1)
}

func (m *FriendRepositoryMock) CreateRequest(ctx context.Context, fromID int, toID int) (bool, error) {
	args := m.Called(ctx, fromID, toID)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) AcceptRequest(ctx context.Context, fromID int, toID int) error {
	args := m.Called(ctx, fromID, toID)
	return args.Error(0)
}

func (m *FriendRepositoryMock) RejectRequest(ctx context.Context, fromID int, toID int) (int64, error) {
	args := m.Called(ctx, fromID, toID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *FriendRepositoryMock) ListFriends(ctx context.Context, userID int) ([]models.Friend, error) {
	args := m.Called(ctx, userID)
	var list []models.Friend
	if val := args.Get(0); val != nil {
		list = val.([]models.Friend)
	}
	return list, args.Error(1)
}

func (m *FriendRepositoryMock) ListIncomingRequests(ctx context.Context, userID int) ([]models.Friend, error) {
	args := m.Called(ctx, userID)
	var list []models.Friend
	if val := args.Get(0); val != nil {
		list = val.([]models.Friend)
	}
	return list, args.Error(1)
}
