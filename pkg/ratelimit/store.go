package ratelimit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"busline/internal/shared/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store counts hits in a sliding window. A hit that would exceed limit is not recorded.
type Store interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (count int, allowed bool, err error)
}

// NewStore builds the store named by cfg.Store. A nil client forces the memory store.
func NewStore(cfg config.RateLimitConfig, client *redis.Client) Store {
	if cfg.Store == "redis" && client != nil {
		return NewRedisStore(client)
	}
	return NewMemoryStore(cfg.MaxKeys)
}

// sliding window over a sorted set scored in milliseconds
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local window_start = tonumber(ARGV[1])
local now = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local window_ms = tonumber(ARGV[4])
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
local count = redis.call('ZCARD', key)
if count >= limit then
	redis.call('PEXPIRE', key, window_ms)
	return {count, 0}
end

redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window_ms)
return {count + 1, 1}
`)

type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (int, bool, error) {
	now := s.now()
	res, err := slidingWindow.Run(ctx, s.client, []string{key},
		now.Add(-window).UnixMilli(),
		now.UnixMilli(),
		limit,
		window.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("redis eval failed: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("unexpected redis response %v", res)
	}
	return int(res[0]), res[1] == 1, nil
}

// MemoryStore keeps windows in process. It holds at most maxKeys keys: expired windows are
// evicted first, then the least recently hit key.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
	maxKeys int
	now     func() time.Time
}

type memoryWindow struct {
	hits    []time.Time
	lastHit time.Time
	window  time.Duration
}

func NewMemoryStore(maxKeys int) *MemoryStore {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &MemoryStore{windows: make(map[string]*memoryWindow), maxKeys: maxKeys, now: time.Now}
}

func (s *MemoryStore) Hit(_ context.Context, key string, limit int, window time.Duration) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok {
		if len(s.windows) >= s.maxKeys {
			s.evict(now)
		}
		w = &memoryWindow{}
		s.windows[key] = w
	}
	w.window = window
	w.lastHit = now
	w.hits = prune(w.hits, now.Add(-window))

	if len(w.hits) >= limit {
		return len(w.hits), false, nil
	}
	w.hits = append(w.hits, now)
	return len(w.hits), true, nil
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

func (s *MemoryStore) evict(now time.Time) {
	for key, w := range s.windows {
		if len(prune(w.hits, now.Add(-w.window))) == 0 {
			delete(s.windows, key)
		}
	}
	if len(s.windows) < s.maxKeys {
		return
	}

	keys := make([]string, 0, len(s.windows))
	for key := range s.windows {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.windows[keys[i]].lastHit.Before(s.windows[keys[j]].lastHit)
	})
	for _, key := range keys[:len(keys)-s.maxKeys+1] {
		delete(s.windows, key)
	}
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}
