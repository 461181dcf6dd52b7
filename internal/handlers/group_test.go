package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-backend/internal/delivery"
	"chat-backend/internal/membership"
	"chat-backend/internal/mocks"
	"chat-backend/internal/models"
	"chat-backend/internal/repositories"
)

type groupDeps struct {
	groups   *mocks.GroupRepositoryMock
	messages *mocks.MessageRepositoryMock
	users    *mocks.UserRepositoryMock
	rec      *mocks.BroadcasterRecorder
	router   *gin.Engine
}

func setupGroupRouter(userID int) *groupDeps {
	gin.SetMode(gin.TestMode)
	d := &groupDeps{
		groups:   new(mocks.GroupRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		users:    new(mocks.UserRepositoryMock),
		rec:      &mocks.BroadcasterRecorder{},
	}
	engine := membership.NewEngine(d.groups, d.users, d.rec, nil)
	pipeline := delivery.NewPipeline(d.messages, d.groups, d.rec)
	handler := NewGroupHandler(engine, pipeline, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	handler.Register(r)
	d.router = r
	return d
}

func (d *groupDeps) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	d.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateDirectChatWithoutName(t *testing.T) {
	d := setupGroupRouter(1)
	d.users.On("GetUsersByIDs", mock.Anything, []int{1, 2}).
		Return([]models.User{{ID: 1, FirstName: "Ann"}, {ID: 2, FirstName: "Ben", LastName: "Ray"}}, nil).Once()
	d.groups.On("CreateGroup", mock.Anything, 1, "Ben Ray", []int{1, 2}).
		Return(models.Group{ID: 5, Name: "Ben Ray", AdminID: 1}, nil).Once()

	rec := d.do(http.MethodPost, "/groups", `{"memberIds":["2","abc",2]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Group models.GroupSummary `json:"group"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 5, resp.Group.ID)
	require.Equal(t, "Ben Ray", resp.Group.Name)
	require.True(t, resp.Group.IsDirect)
	require.Equal(t, []string{"user_2"}, d.rec.Rooms(models.EventGroupCreated))
	d.groups.AssertExpectations(t)
}

func TestCreateGroupMissingNameIsBadRequest(t *testing.T) {
	d := setupGroupRouter(1)
	d.users.On("GetUsersByIDs", mock.Anything, []int{1, 2, 3}).
		Return([]models.User{{ID: 1}, {ID: 2}, {ID: 3}}, nil).Once()

	rec := d.do(http.MethodPost, "/groups", `{"memberIds":[2,3]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "group name is required")
}

func TestCreateGroupInvalidBody(t *testing.T) {
	d := setupGroupRouter(1)
	rec := d.do(http.MethodPost, "/groups", `{"memberIds":5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminGuard(t *testing.T) {
	d := setupGroupRouter(2)
	d.groups.On("GetGroup", mock.Anything, 9).Return(models.Group{ID: 9, AdminID: 1}, nil)
	d.groups.On("GetGroup", mock.Anything, 404).Return(nil, repositories.ErrGroupNotFound)

	require.Equal(t, http.StatusForbidden, d.do(http.MethodPost, "/groups/9/members", `{"memberIds":[3]}`).Code)
	require.Equal(t, http.StatusForbidden, d.do(http.MethodDelete, "/groups/9/members", `{"memberIds":[3]}`).Code)
	require.Equal(t, http.StatusForbidden, d.do(http.MethodDelete, "/groups/9", "").Code)
	require.Equal(t, http.StatusNotFound, d.do(http.MethodDelete, "/groups/404", "").Code)

	d.groups.AssertNotCalled(t, "AddMembers", mock.Anything, mock.Anything, mock.Anything)
	d.groups.AssertNotCalled(t, "RemoveMembers", mock.Anything, mock.Anything, mock.Anything)
	d.groups.AssertNotCalled(t, "DeleteGroup", mock.Anything, mock.Anything)
}

func TestRemoveAdminIsBadRequest(t *testing.T) {
	d := setupGroupRouter(1)
	d.groups.On("GetGroup", mock.Anything, 9).Return(models.Group{ID: 9, AdminID: 1}, nil)

	rec := d.do(http.MethodDelete, "/groups/9/members", `{"memberIds":[1]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "cannot remove group admin")
}

func TestRemoveMembersReportsCascade(t *testing.T) {
	d := setupGroupRouter(1)
	d.groups.On("GetGroup", mock.Anything, 9).Return(models.Group{ID: 9, AdminID: 1}, nil)
	d.groups.On("RemoveMembers", mock.Anything, 9, []int{2}).
		Return(models.RemovalOutcome{Removed: []int{2}, PreviousMembers: []int{1, 2}, Cascaded: true}, nil)

	rec := d.do(http.MethodDelete, "/groups/9/members", `{"memberIds":[1,"2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"group_deleted":true`)
	require.Equal(t, []string{"user_1", "user_2"}, d.rec.Rooms(models.EventGroupDeleted))
}

func TestPostGroupMessage(t *testing.T) {
	d := setupGroupRouter(1)
	d.groups.On("IsMember", mock.Anything, 9, 1).Return(true, nil)
	d.messages.On("CreateMessage", mock.Anything, 9, 1, "hello", "text").
		Return(models.Message{ID: 4, GroupID: 9, SenderID: 1, Content: "hello", Type: "text"}, nil).Once()

	rec := d.do(http.MethodPost, "/groups/9/messages", `{"content":"hello","type":"text"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message models.Message `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 4, resp.Message.ID)
	require.Equal(t, []string{"9"}, d.rec.Rooms(models.EventNewMessage))
}

func TestPostGroupMessageValidation(t *testing.T) {
	d := setupGroupRouter(1)
	rec := d.do(http.MethodPost, "/groups/9/messages", `{"content":"hello"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	d.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	rec = d.do(http.MethodPost, "/groups/abc/messages", `{"content":"hello","type":"text"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGroupMessagesRequiresMembership(t *testing.T) {
	d := setupGroupRouter(1)
	d.groups.On("IsMember", mock.Anything, 9, 1).Return(true, nil)
	d.groups.On("IsMember", mock.Anything, 8, 1).Return(false, nil)
	d.messages.On("ListMessages", mock.Anything, 9).Return([]models.Message{{ID: 1}, {ID: 2}}, nil)

	rec := d.do(http.MethodGet, "/groups/9/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)

	require.Equal(t, http.StatusForbidden, d.do(http.MethodGet, "/groups/8/messages", "").Code)
	require.Equal(t, http.StatusForbidden, d.do(http.MethodGet, "/groups/8/members", "").Code)
}

func TestListGroups(t *testing.T) {
	d := setupGroupRouter(1)
	d.groups.On("ListGroupsForUser", mock.Anything, 1).Return([]models.GroupRow{
		{Group: models.Group{ID: 3, Name: "Team"}, MemberCount: 4},
	}, nil)

	rec := d.do(http.MethodGet, "/groups", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"name":"Team"`)
}
