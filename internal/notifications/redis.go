package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-backend/internal/models"
)

// RedisStore keeps each user's notifications in a capped Redis list.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func redisKey(userID int) string {
	return fmt.Sprintf("notifications:%d", userID)
}

func (s *RedisStore) Notify(ctx context.Context, userID int, n models.Notification) error {
	n = stamp(n, s.now())
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	key := redisKey(userID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, body)
		pipe.LTrim(ctx, key, 0, maxPerUser-1)
		return nil
	})
	return err
}

func (s *RedisStore) List(ctx context.Context, userID int) ([]models.Notification, error) {
	raw, err := s.client.LRange(ctx, redisKey(userID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.Notification, 0, len(raw))
	for _, item := range raw {
		var n models.Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			log.Printf("notifications: skipping corrupt entry user_id=%d err=%v", userID, err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// NewStore picks Redis when addr is set and reachable, memory otherwise.
func NewStore(ctx context.Context, addr string) Store {
	if addr == "" {
		log.Printf("notifications using memory store: empty redis addr")
		return NewMemoryStore()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("notifications using memory store: redis ping failed addr=%s err=%v", addr, err)
		_ = client.Close()
		return NewMemoryStore()
	}
	log.Printf("notifications using redis store addr=%s", addr)
	return NewRedisStore(client)
}
