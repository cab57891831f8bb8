package posting

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "placement/pkg/domain"
)

const postingKeyPrefix = "posting:job:"

// CachedStore is a read-through cache over a posting Store. Postings are
// read often and written rarely, so a lookup populates the cache
// and a TTL bounds staleness. Cache failures degrade to the backing store.
type CachedStore struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps a Store with a Redis read-through cache.
func NewCached(inner Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *CachedStore) Create(ctx context.Context, posting *Posting) error {
	if err := c.inner.Create(ctx, posting); err != nil {
		return err
	}
	c.set(ctx, posting)
	return nil
}

func (c *CachedStore) Find(ctx context.Context, jobID id.JobID) (*Posting, error) {
	key := postingKeyPrefix + jobID.String()
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var posting Posting
		if err := json.Unmarshal(raw, &posting); err == nil {
			return &posting, nil
		}
		// Corrupt entry; fall through to the store and rewrite it.
		c.logger.WarnContext(ctx, "dropping corrupt posting cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "posting cache read failed", "key", key, "error", err)
	}

	posting, err := c.inner.Find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, posting)
	return posting, nil
}

// List always hits the backing store; the listing is unbounded and the cache
// only holds single postings.
func (c *CachedStore) List(ctx context.Context) ([]*Posting, error) {
	return c.inner.List(ctx)
}

// Execute delegates to the backing store and rewrites the cached entry so a
// close is visible before the TTL expires.
func (c *CachedStore) Execute(ctx context.Context, jobID id.JobID, validate func(*Posting) error, mutate func(*Posting)) (*Posting, error) {
	posting, err := c.inner.Execute(ctx, jobID, validate, mutate)
	if err != nil {
		return nil, err
	}
	c.set(ctx, posting)
	return posting, nil
}

func (c *CachedStore) set(ctx context.Context, posting *Posting) {
	raw, err := json.Marshal(posting)
	if err != nil {
		return
	}
	key := postingKeyPrefix + posting.ID.String()
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "posting cache write failed", "key", key, "error", err)
	}
}
