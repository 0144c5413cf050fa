package services

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/parley-chat/parley-backend/internal/database"
	"github.com/parley-chat/parley-backend/internal/models"
)

const (
	chatRecentKeyPrefix = "chat:conv:"
	chatRecentKeySuffix = ":recent"
	chatRecentMaxLen    = 50
	chatRecentTTL       = 1 * time.Hour
)

// conversationKey is order-independent so both participants share one
// cache entry.
func conversationKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return chatRecentKeyPrefix + strings.Join(pair, ":") + chatRecentKeySuffix
}

// PushMessageToRecentCache adds a direct message to the Redis recent cache
// (newest at head). Call after saving to Mongo. LPUSH + LTRIM keeps last 50.
func PushMessageToRecentCache(msg *models.Message) {
	if database.RedisClient == nil || !msg.IsDirect() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	key := conversationKey(msg.SenderID, msg.ReceiverID)
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	pipe := database.RedisClient.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, chatRecentMaxLen-1)
	pipe.Expire(ctx, key, chatRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: push failed for %s: %v", key, err)
	}
}

// InvalidateRecentCache drops the cached window, used after edits and
// deletes so stale content never comes back from Redis.
func InvalidateRecentCache(userA, userB string) {
	if database.RedisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := database.RedisClient.Del(ctx, conversationKey(userA, userB)).Err(); err != nil {
		log.Printf("chat_cache: invalidate failed: %v", err)
	}
}

// getRecentMessagesFromCache returns the most recent direct messages for a
// pair (oldest-first). Returns (messages, true) on hit, (nil, false) on miss.
func getRecentMessagesFromCache(ctx context.Context, userA, userB string) ([]models.Message, bool) {
	if database.RedisClient == nil {
		return nil, false
	}

	raw, err := database.RedisClient.LRange(ctx, conversationKey(userA, userB), 0, -1).Result()
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	var msgs []models.Message
	for i := len(raw) - 1; i >= 0; i-- {
		var m models.Message
		if json.Unmarshal([]byte(raw[i]), &m) != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, true
}

// LoadDirectMessagesWithCache returns history for a pair. For the initial
// load (before==nil), tries Redis first. On miss, fetches from Mongo and
// warms the cache.
func (s *MessageService) LoadDirectMessagesWithCache(ctx context.Context, userA, userB string, before *time.Time, limit int64) ([]models.Message, bool, error) {
	if before == nil && limit > 0 && limit <= chatRecentMaxLen {
		if cached, ok := getRecentMessagesFromCache(ctx, userA, userB); ok {
			out := cached
			if int64(len(cached)) > limit {
				out = cached[int64(len(cached))-limit:]
			}
			hasMore := int64(len(cached)) >= limit
			return out, hasMore, nil
		}
	}

	msgs, hasMore, err := s.LoadDirectMessages(ctx, userA, userB, before, limit)
	if err != nil {
		return nil, false, err
	}
	if before == nil && len(msgs) > 0 {
		warmRecentCache(ctx, userA, userB, msgs)
	}
	return msgs, hasMore, nil
}

// warmRecentCache stores messages in Redis (oldest at tail).
func warmRecentCache(ctx context.Context, userA, userB string, msgs []models.Message) {
	if database.RedisClient == nil || len(msgs) == 0 {
		return
	}

	key := conversationKey(userA, userB)
	pipe := database.RedisClient.Pipeline()
	for i := len(msgs) - 1; i >= 0; i-- {
		data, err := json.Marshal(msgs[i])
		if err != nil {
			continue
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, chatRecentMaxLen-1)
	pipe.Expire(ctx, key, chatRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("chat_cache: warm failed for %s: %v", key, err)
	}
}
