package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/syllabus/core"
	"github.com/trezcool/syllabus/core/syllabus"
)

const (
	keyPrefix  = "syllabus:"
	defaultTTL = 10 * time.Minute
)

// kv is the part of the redis client used by the cache.
type kv interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// NewClient connects to the redis server configured in conf.
func NewClient(ctx context.Context, conf *core.Config) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        conf.Redis.Address,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return rdb, nil
}

// documentCache is a read-through cache of syllabus documents keyed by owner and month.
// Concurrent misses on the same key share one load. A loaded document is only added when the key is
// still empty: a document stored by a writer meanwhile is newer than what the reader loaded.
type documentCache struct {
	rdb    kv
	ttl    time.Duration
	group  singleflight.Group
	logger core.Logger
}

var _ syllabus.Cache = (*documentCache)(nil)

func NewDocumentCache(rdb kv, ttl time.Duration, logger core.Logger) *documentCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &documentCache{rdb: rdb, ttl: ttl, logger: logger}
}

func redisKey(key syllabus.Key) string {
	return keyPrefix + key.String()
}

func (c *documentCache) Fetch(
	ctx context.Context,
	key syllabus.Key,
	load func(ctx context.Context) (syllabus.Document, error),
) (syllabus.Document, error) {
	k := redisKey(key)

	data, err := c.rdb.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		var d syllabus.Document
		if err = json.Unmarshal(data, &d); err == nil {
			return d, nil
		}
		c.logger.Warn(fmt.Sprintf("decoding cached syllabus %s: %v", k, err), err)
	case err != goredis.Nil:
		c.logger.Warn(fmt.Sprintf("reading cached syllabus %s: %v", k, err), err)
	}

	v, err, _ := c.group.Do(k, func() (interface{}, error) {
		d, err := load(ctx)
		if err != nil {
			return syllabus.Document{}, err
		}
		if err = c.add(ctx, d); err != nil {
			c.logger.Warn(fmt.Sprintf("caching syllabus %s: %v", k, err), err)
		}
		return d, nil
	})
	if err != nil {
		return syllabus.Document{}, err
	}
	return v.(syllabus.Document), nil
}

// Store replaces the cached document with d, which was just written.
func (c *documentCache) Store(ctx context.Context, d syllabus.Document) error {
	data, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "encoding syllabus")
	}
	return errors.Wrap(c.rdb.Set(ctx, redisKey(syllabus.KeyOf(d)), data, c.ttl).Err(), "storing syllabus")
}

// add caches a loaded document unless the key was filled in the meantime.
func (c *documentCache) add(ctx context.Context, d syllabus.Document) error {
	data, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "encoding syllabus")
	}
	return errors.Wrap(c.rdb.SetNX(ctx, redisKey(syllabus.KeyOf(d)), data, c.ttl).Err(), "adding syllabus")
}

func (c *documentCache) Invalidate(ctx context.Context, key syllabus.Key) error {
	return errors.Wrap(c.rdb.Del(ctx, redisKey(key)).Err(), "invalidating syllabus")
}
