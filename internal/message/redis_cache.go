package message

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// cacheTTL bounds how long a cached history page survives without a
// rejoin. Stale pages are only ever shown until the server's history
// frame arrives and replaces them wholesale.
const cacheTTL = 15 * time.Minute

const cacheOpTimeout = 2 * time.Second

// cacheKey returns the Redis key for a room's cached history page.
func cacheKey(roomID string) string {
	return "room:" + roomID + ":history"
}

// Cache keeps the last rendered history page per room in Redis so a
// rejoined room view can paint immediately while the real history
// fetch is in flight. All failures are logged and swallowed; the cache
// is an optimization, never a source of truth.
type Cache struct {
	client  redis.Cmdable
	maxSize int64
}

// NewCache creates a Cache retaining up to maxSize messages per room.
func NewCache(client redis.Cmdable, maxSize int) *Cache {
	return &Cache{
		client:  client,
		maxSize: int64(maxSize),
	}
}

// Put replaces the cached page for a room.
func (c *Cache) Put(roomID string, msgs []Message) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	key := cacheKey(roomID)
	pipe := c.client.Pipeline()
	pipe.Del(ctx, key)
	for i := range msgs {
		data, err := json.Marshal(&msgs[i])
		if err != nil {
			log.Warn().Err(err).Str("id", msgs[i].ID).Msg("cache: marshal message")
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, -c.maxSize, -1)
	pipe.Expire(ctx, key, cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("cache: put history")
	}
}

// Append adds one live message to the cached page, trimming to maxSize.
func (c *Cache) Append(roomID string, msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	data, err := json.Marshal(&msg)
	if err != nil {
		log.Warn().Err(err).Str("id", msg.ID).Msg("cache: marshal message")
		return
	}

	key := cacheKey(roomID)
	pipe := c.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -c.maxSize, -1)
	pipe.Expire(ctx, key, cacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("cache: append message")
	}
}

// Get returns the cached page for a room, oldest first. A miss or any
// error returns nil.
func (c *Cache) Get(roomID string) []Message {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	vals, err := c.client.LRange(ctx, cacheKey(roomID), 0, -1).Result()
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("cache: read history")
		return nil
	}
	if len(vals) == 0 {
		return nil
	}

	msgs := make([]Message, 0, len(vals))
	for _, v := range vals {
		var m Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs
}

// Clear drops the cached page for a room.
func (c *Cache) Clear(roomID string) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	if err := c.client.Del(ctx, cacheKey(roomID)).Err(); err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("cache: clear history")
	}
}

// Count returns the number of cached messages for a room.
func (c *Cache) Count(roomID string) int {
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()

	n, err := c.client.LLen(ctx, cacheKey(roomID)).Result()
	if err != nil {
		log.Warn().Err(err).Str("room", roomID).Msg("cache: count history")
		return 0
	}
	return int(n)
}
