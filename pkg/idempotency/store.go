package idempotency

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Header is read by HTTP handlers that want request-level deduplication.
const Header = "Idempotency-Key"

func FromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// MessageKey identifies a consumed Kafka message.
func (s *Store) MessageKey(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:msg:%s:%d:%d", topic, partition, offset)
}

// RequestKey identifies a client-supplied idempotency key scoped to a session.
func (s *Store) RequestKey(sessionID, key string) string {
	return fmt.Sprintf("idem:req:%s:%s", sessionID, key)
}

// Seen reports whether the key has been marked. It never marks; callers
// that want check-and-mark in one step use Mark.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records the key and reports whether this call was the first to do so.
func (s *Store) Mark(ctx context.Context, key string) (bool, error) {
	return s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
}
