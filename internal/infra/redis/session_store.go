package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"quizdeck/internal/app"
	"quizdeck/internal/infra/memory"
)

// SessionStore is a Redis-aware session repository. Sessions themselves stay
// in-process (the broadcast gateway needs the channels local); Redis only
// marks room liveness so operators can see active codes across restarts.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	local  *memory.SessionStore
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
		local:  memory.NewSessionStore(),
	}
}

func (s *SessionStore) Create(code string) *app.Session {
	session := s.local.Create(code)
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(code), "1", s.ttl).Err()
	return session
}

func (s *SessionStore) Get(code string) (*app.Session, bool) {
	return s.local.Get(code)
}

func (s *SessionStore) key(code string) string {
	return "quiz:room:" + code
}
