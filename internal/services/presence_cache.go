package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/parley-chat/parley-backend/internal/database"
)

const (
	presenceKeyPrefix = "presence:"
	// PresenceTTL is refreshed by socket pings; a crashed instance's users
	// fall offline when it lapses.
	PresenceTTL = 90 * time.Second
)

// SetUserPresence marks a user online across instances with a TTL key.
// Called on connect and on every ping from the socket loop.
func SetUserPresence(ctx context.Context, userID string) {
	if database.RedisClient == nil {
		return
	}
	if err := database.RedisClient.Set(ctx, presenceKeyPrefix+userID, "online", PresenceTTL).Err(); err != nil {
		log.Printf("presence: failed to set for %s: %v", userID, err)
	}
}

// ClearUserPresence removes the presence key on disconnect so peers see
// the transition immediately instead of waiting out the TTL.
func ClearUserPresence(ctx context.Context, userID string) {
	if database.RedisClient == nil {
		return
	}
	if err := database.RedisClient.Del(ctx, presenceKeyPrefix+userID).Err(); err != nil {
		log.Printf("presence: failed to clear for %s: %v", userID, err)
	}
}

// PresenceDirectory enumerates online users from the shared presence keys,
// so presence announcements reach peers connected on other instances. It
// satisfies the realtime coordinator's directory interface.
type PresenceDirectory struct{}

func (PresenceDirectory) OnlineUserIDs(ctx context.Context) []string {
	if database.RedisClient == nil {
		return nil
	}
	var ids []string
	iter := database.RedisClient.Scan(ctx, 0, presenceKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), presenceKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		log.Printf("presence: scan failed: %v", err)
	}
	return ids
}

// IsUserOnline reports cross-instance presence, used by REST payloads.
func IsUserOnline(ctx context.Context, userID string) bool {
	if database.RedisClient == nil {
		return false
	}
	n, err := database.RedisClient.Exists(ctx, presenceKeyPrefix+userID).Result()
	if err != nil {
		return false
	}
	return n > 0
}
