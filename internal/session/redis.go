package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/BuzzLyutic/todo-list/internal/model"
)

// RedisStore keeps sessions under "session:<id>" and lets Redis expire them.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, sess model.Session) error {
	body, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, redisKey(sess.ID), body, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (model.Session, error) {
	body, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Session{}, ErrNotFound
	}
	if err != nil {
		return model.Session{}, err
	}

	var sess model.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return model.Session{}, err
	}
	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKey(id)).Err()
}

func redisKey(id string) string {
	return "session:" + id
}
