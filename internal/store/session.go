package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SessionStore resolves session IDs to user identifiers kept in Redis by the
// hosting application.
type SessionStore struct {
	rdb    redis.Cmdable
	prefix string
}

func NewSessionStore(rdb redis.Cmdable, prefix string) *SessionStore {
	return &SessionStore{rdb: rdb, prefix: prefix}
}

// CurrentUser returns the user stored for sessionID, or "" if the session is
// unknown or expired.
func (s *SessionStore) CurrentUser(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	user, err := s.rdb.Get(ctx, s.prefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session lookup: %w", err)
	}
	return user, nil
}
