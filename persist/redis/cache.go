// Package redis caches raw permission rows of another rule source in redis
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
	"github.com/supremind/ability/types"
)

// DefaultPrefix prefixes keys of cached rows
const DefaultPrefix = "ability:rules:"

var _ types.RuleSource = (*CachedRuleSource)(nil)

// CachedRuleSource serves rows from redis, and loads them from the inner source on misses.
// Redis failures are never fatal: the inner source is asked instead. Failed loads are not cached.
type CachedRuleSource struct {
	inner  types.RuleSource
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    logr.Logger
}

// Option configures a CachedRuleSource
type Option func(*CachedRuleSource)

// WithPrefix sets the key prefix
func WithPrefix(prefix string) Option {
	return func(c *CachedRuleSource) {
		c.prefix = prefix
	}
}

// WithLogger sets logger for the cache
func WithLogger(l logr.Logger) Option {
	return func(c *CachedRuleSource) {
		c.log = l
	}
}

// NewCachedRuleSource caches rows loaded from inner for ttl
func NewCachedRuleSource(inner types.RuleSource, client redis.UniversalClient, ttl time.Duration, opts ...Option) (*CachedRuleSource, error) {
	c := &CachedRuleSource{
		inner:  inner,
		client: client,
		ttl:    ttl,
		prefix: DefaultPrefix,
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if inner == nil {
		return nil, types.ErrNoRuleSource
	}
	if client == nil {
		return nil, errors.New("nil redis client")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive: %s", ttl)
	}

	return c, nil
}

func (c *CachedRuleSource) key(id types.Identity) string {
	return fmt.Sprintf("%s%d", c.prefix, int64(id))
}

// RawRules serves cached rows of id, or loads and caches them
func (c *CachedRuleSource) RawRules(ctx context.Context, id types.Identity) ([]types.RawRule, error) {
	key := c.key(id)

	b, e := c.client.Get(ctx, key).Bytes()
	switch {
	case e == nil:
		var raws []types.RawRule
		if e := json.Unmarshal(b, &raws); e != nil {
			c.log.Error(e, "decode cached rows, reload", "key", key)
			break
		}
		c.log.V(6).Info("cache hit", "identity", id)
		return raws, nil
	case errors.Is(e, redis.Nil):
		c.log.V(6).Info("cache miss", "identity", id)
	default:
		c.log.Error(e, "read cached rows, fall back to source", "key", key)
	}

	raws, e := c.inner.RawRules(ctx, id)
	if e != nil {
		return nil, e
	}
	if raws == nil {
		raws = make([]types.RawRule, 0)
	}

	if b, e := json.Marshal(raws); e != nil {
		c.log.Error(e, "encode rows", "identity", id)
	} else if e := c.client.Set(ctx, key, b, c.ttl).Err(); e != nil {
		c.log.Error(e, "cache rows", "key", key)
	}

	return raws, nil
}

// Invalidate drops the cached rows of ids, the next loads go to the inner source
func (c *CachedRuleSource) Invalidate(ctx context.Context, ids ...types.Identity) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.key(id))
	}

	c.log.V(4).Info("invalidate cached rows", "identities", ids)
	return c.client.Del(ctx, keys...).Err()
}
