package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ivgord/stockfolio/config"
	"github.com/ivgord/stockfolio/internal/model"
)

var ErrNotFound = errors.New("session not found")

// RedisSession stores the logged-in user per CLI run. Keys expire with the
// configured session lifetime, so an abandoned terminal logs itself out.
type RedisSession struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisSession(redisClient *redis.Client, cfg *config.Config) *RedisSession {
	return &RedisSession{redis: redisClient, cfg: cfg}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *RedisSession) GetSession(ctx context.Context, sessionID string) (model.Session, error) {
	res, err := s.redis.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, err
	}

	sess := model.Session{}
	if err := json.Unmarshal([]byte(res), &sess); err != nil {
		return model.Session{}, err
	}

	return sess, nil
}

func (s *RedisSession) SetSession(ctx context.Context, sessionID string, sess model.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	return s.redis.Set(ctx, sessionKey(sessionID), payload, s.cfg.SessionExpiration).Err()
}

func (s *RedisSession) DeleteSession(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, sessionKey(sessionID)).Err()
}
