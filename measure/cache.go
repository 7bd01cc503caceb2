package measure

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ByLCY/quire/document"
	"github.com/ByLCY/quire/layout"
)

// Store keeps measured heights by key.
type Store interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, height float64) error
	Close() error
}

// Cached wraps a measurer with a Store. A height depends only on the block
// kind, its text and the style/page setup, so the scope string must change
// whenever the style sheet or geometry does.
//
// Store failures are logged and fall through to the wrapped measurer: a cache
// never turns a measurable block into a failed pass.
type Cached struct {
	next  layout.Measurer
	store Store
	scope string
	log   *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

var _ layout.Measurer = (*Cached)(nil)

// NewCached returns a caching measurer. scope is usually
// Scope(styles, geometry).
func NewCached(next layout.Measurer, store Store, scope string, log *zap.Logger) *Cached {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{next: next, store: store, scope: scope, log: log}
}

// Scope derives a cache scope from the inputs that affect measured heights.
func Scope(styles layout.StyleSheet, geo layout.Geometry) string {
	return strconv.FormatUint(xxhash.Sum64String(styles.Fingerprint()+"|"+strconv.FormatFloat(geo.ContentWidth(), 'g', -1, 64)), 16)
}

// Key returns the cache key for one measurement.
func (c *Cached) Key(kind document.Kind, text string) string {
	d := xxhash.New()
	_, _ = d.WriteString(c.scope)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(string(kind))
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(text)
	return "quire:h:" + strconv.FormatUint(d.Sum64(), 16)
}

func (c *Cached) MeasureHeight(ctx context.Context, kind document.Kind, text string) (float64, error) {
	key := c.Key(kind, text)
	h, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("Measurement cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		c.hits.Add(1)
		return h, nil
	}
	c.misses.Add(1)
	h, err = c.next.MeasureHeight(ctx, kind, text)
	if err != nil {
		return 0, err
	}
	if err := c.store.Set(ctx, key, h); err != nil {
		c.log.Warn("Measurement cache write failed", zap.String("key", key), zap.Error(err))
	}
	return h, nil
}

// Stats returns cache hits and misses since creation.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close closes the underlying store.
func (c *Cached) Close() error { return c.store.Close() }

// MemoryStore is a process-local store.
type MemoryStore struct {
	m *xsync.Map[string, float64]
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: xsync.NewMap[string, float64]()}
}

func (s *MemoryStore) Get(_ context.Context, key string) (float64, bool, error) {
	h, ok := s.m.Load(key)
	return h, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, height float64) error {
	s.m.Store(key, height)
	return nil
}

// Len returns the number of cached heights.
func (s *MemoryStore) Len() int { return s.m.Size() }

func (s *MemoryStore) Close() error { return nil }

// RedisStore shares measured heights between processes.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // zero means no expiry
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisStore{client: client, ttl: opts.TTL}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (float64, bool, error) {
	h, err := s.client.Get(ctx, key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return h, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, height float64) error {
	return s.client.Set(ctx, key, height, s.ttl).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }
