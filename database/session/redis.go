package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"courtbook/models"
	"courtbook/utils"
)

// RedisStore keeps conversations in Redis with a TTL, so idle conversations
// expire outside the workflow engine. Event serialization per user is still
// an in-process lock: the bot holds the only writer for its users.
type RedisStore struct {
	client *redis.Client
	locks  *userLocks
}

// NewRedisStore wraps an initialized Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		locks:  newUserLocks(),
	}
}

func (s *RedisStore) Lock(userID string) func() {
	return s.locks.lock(userID)
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*models.Conversation, error) {
	data, err := s.client.Get(ctx, utils.SessionCachePrefix+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	var conv models.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (s *RedisStore) Save(ctx context.Context, conv *models.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if err := s.client.Set(ctx, utils.SessionCachePrefix+conv.UserID, data, utils.SessionCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}
