package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"chat-backend/internal/models"
)

// maxPerUser bounds how many notifications are kept for one user.
const maxPerUser = 100

// Store keeps per-user notification lists, newest first.
type Store interface {
	Notify(ctx context.Context, userID int, n models.Notification) error
	List(ctx context.Context, userID int) ([]models.Notification, error)
}

func stamp(n models.Notification, now time.Time) models.Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt == "" {
		n.CreatedAt = now.UTC().Format(time.RFC3339Nano)
	}
	return n
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[int][]models.Notification
	now   func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[int][]models.Notification), now: time.Now}
}

func (s *MemoryStore) Notify(_ context.Context, userID int, n models.Notification) error {
	n = stamp(n, s.now())
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append([]models.Notification{n}, s.lists[userID]...)
	if len(list) > maxPerUser {
		list = list[:maxPerUser]
	}
	s.lists[userID] = list
	return nil
}

func (s *MemoryStore) List(_ context.Context, userID int) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.lists[userID]))
	copy(out, s.lists[userID])
	return out, nil
}
