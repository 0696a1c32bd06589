package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizdeck/internal/domain"
)

// CatalogRepository mirrors quiz definitions into Redis so a restarted
// process can still resolve codes cached there (bounded by TTL). The inner
// in-memory catalog stays authoritative while the process lives.
type Catalog struct {
	client *redis.Client
	inner  inner
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

type inner interface {
	Put(ctx context.Context, quiz domain.Quiz) error
	Get(ctx context.Context, code string) (domain.Quiz, error)
}

func NewCatalog(client *redis.Client, delegate inner, ttl time.Duration) *Catalog {
	return &Catalog{
		client: client,
		inner:  delegate,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *Catalog) Put(ctx context.Context, quiz domain.Quiz) error {
	if err := c.inner.Put(ctx, quiz); err != nil {
		return err
	}
	raw, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	// Best-effort mirror; the in-process catalog already holds the quiz.
	_ = c.client.Set(ctx, c.key(quiz.Code), raw, c.ttlWithJitter()).Err()
	return nil
}

func (c *Catalog) Get(ctx context.Context, code string) (domain.Quiz, error) {
	quiz, err := c.inner.Get(ctx, code)
	if err == nil {
		return quiz, nil
	}
	if !errors.Is(err, domain.ErrQuizNotFound) {
		return domain.Quiz{}, err
	}

	result, err, _ := c.sf.Do(strings.ToUpper(code), func() (interface{}, error) {
		raw, err := c.client.Get(ctx, c.key(code)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.Quiz{}, domain.ErrQuizNotFound
			}
			return domain.Quiz{}, fmt.Errorf("redis get: %w", err)
		}
		var quiz domain.Quiz
		if err := json.Unmarshal(raw, &quiz); err != nil {
			return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
		}
		if err := c.inner.Put(ctx, quiz); err != nil {
			return domain.Quiz{}, err
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *Catalog) key(code string) string {
	return "quiz:def:" + strings.ToUpper(code)
}

func (c *Catalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
