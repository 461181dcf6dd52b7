package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"chat-backend/internal/models"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any, headers map[string]string) error {
	args := m.Called(ctx, routingKey, event, headers)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, userID int, n models.Notification) error {
	args := m.Called(ctx, userID, n)
	return args.Error(0)
}

func (m *NotifierMock) List(ctx context.Context, userID int) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

// Broadcast is one recorded BroadcastToRoom call.
type Broadcast struct {
	Room    string
	Event   string
	Payload any
}

// Eviction is one recorded EvictUser call.
type Eviction struct {
	Room   string
	UserID int
}

// BroadcasterRecorder records room broadcasts and evictions instead of
// touching live connections.
type BroadcasterRecorder struct {
	mu        sync.Mutex
	calls     []Broadcast
	evictions []Eviction
}

func (r *BroadcasterRecorder) EvictUser(room string, userID int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictions = append(r.evictions, Eviction{Room: room, UserID: userID})
	return 1
}

// Evicted lists the users evicted from room, in call order.
func (r *BroadcasterRecorder) Evicted(room string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int
	for _, ev := range r.evictions {
		if ev.Room == room {
			ids = append(ids, ev.UserID)
		}
	}
	return ids
}

func (r *BroadcasterRecorder) BroadcastToRoom(room, event string, payload any) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Broadcast{Room: room, Event: event, Payload: payload})
	return 1
}

func (r *BroadcasterRecorder) Calls() []Broadcast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Broadcast, len(r.calls))
	copy(out, r.calls)
	return out
}

// Rooms lists the rooms that received event, in call order.
func (r *BroadcasterRecorder) Rooms(event string) []string {
	var rooms []string
	for _, c := range r.Calls() {
		if c.Event == event {
			rooms = append(rooms, c.Room)
		}
	}
	return rooms
}
