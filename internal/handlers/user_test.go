package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-backend/internal/friends"
	"chat-backend/internal/mocks"
	"chat-backend/internal/models"
	"chat-backend/internal/notifications"
	"chat-backend/internal/repositories"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func setupUserRouter(t *testing.T) (*gin.Engine, *mocks.UserRepositoryMock, *mocks.FriendRepositoryMock, *notifications.MemoryStore, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	users := new(mocks.UserRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	store := notifications.NewMemoryStore()
	dir := t.TempDir()

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	NewUserHandler(users, store, dir, nil).Register(r)
	NewFriendHandler(friends.NewService(friendRepo, users, store), nil).Register(r)
	return r, users, friendRepo, store, dir
}

func TestSearchUsers(t *testing.T) {
	r, users, _, _, _ := setupUserRouter(t)
	users.On("SearchUsers", mock.Anything, "ben", 1).Return([]models.User{{ID: 2, FirstName: "Ben"}}, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/search?q=ben", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"first_name":"Ben"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/search", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	r, users, _, _, _ := setupUserRouter(t)
	users.On("UpdateProfile", mock.Anything, 1, mock.MatchedBy(func(u models.ProfileUpdate) bool {
		return u.Theme != nil && *u.Theme == "dark" && u.FirstName == nil
	})).Return(models.User{ID: 1, Theme: "dark"}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/users/profile", bytes.NewBufferString(`{"theme":"dark"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPut, "/users/profile", bytes.NewBufferString(`{"theme":"neon"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertExpectations(t)
}

func TestGetProfileNotFound(t *testing.T) {
	r, users, _, _, _ := setupUserRouter(t)
	users.On("GetUser", mock.Anything, 1).Return(nil, repositories.ErrUserNotFound)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/profile", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadPicture(t *testing.T) {
	r, users, _, _, dir := setupUserRouter(t)
	users.On("UpdateProfilePicture", mock.Anything, 1, mock.MatchedBy(func(url string) bool {
		return strings.HasPrefix(url, "/uploads/") && strings.HasSuffix(url, ".png")
	})).Return(models.User{ID: 1}, nil).Once()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("profilePic", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/users/profile/picture", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ".png", filepath.Ext(entries[0].Name()))
	users.AssertExpectations(t)
}

func TestFriendRequestFlowNotifies(t *testing.T) {
	r, users, friendRepo, store, _ := setupUserRouter(t)
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, FirstName: "Ann", LastName: "Lee"}, nil)
	users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, FirstName: "Ben", LastName: "Ray"}, nil)
	friendRepo.On("GetFriendship", mock.Anything, 1, 2).Return(nil, repositories.ErrFriendshipNotFound)
	friendRepo.On("GetFriendship", mock.Anything, 2, 1).Return(nil, repositories.ErrFriendshipNotFound)
	friendRepo.On("CreateRequest", mock.Anything, 1, 2).Return(true, nil)
	friendRepo.On("AcceptRequest", mock.Anything, 3, 1).Return(repositories.ErrNoPendingRequest)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/2/friend-requests", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	list, err := store.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Ann Lee sent you a friend request", list[0].Message)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/1/friend-requests", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users/3/friend-requests/accept", nil))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestListNotifications(t *testing.T) {
	r, _, _, store, _ := setupUserRouter(t)
	require.NoError(t, store.Notify(context.Background(), 1, models.Notification{Type: models.NotificationGroupInvite, Message: "x"}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/notifications", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), models.NotificationGroupInvite)
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health(stubPinger{}))
	r.GET("/health-down", Health(stubPinger{err: errors.New("down")}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"OK"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-down", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
