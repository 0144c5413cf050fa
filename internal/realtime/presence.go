package realtime

import (
	"context"
	"log"
	"time"
)

// AnnouncePresence notifies every interested peer of a user's online/offline
// transition. Interested peers come from the presence directory (all online
// users, across instances when the Redis directory is wired) minus the user
// themselves and anyone with a block relationship in either direction.
// A user who disabled show_online_status gets no announcements at all, in
// either direction of the transition. Best-effort: peers who drop off
// between the snapshot and the write simply miss the event.
func (c *Coordinator) AnnouncePresence(ctx context.Context, userID string, online bool) {
	visible, err := c.social.ShowsOnlineStatus(ctx, userID)
	if err != nil {
		log.Printf("realtime: presence visibility lookup for %s failed: %v", userID, err)
		return
	}
	if !visible {
		return
	}

	payload := UserStatusPayload{UserID: userID, IsOnline: online}
	if !online {
		now := time.Now().UTC()
		payload.LastSeen = &now
	}
	evt := Event{Name: EventUserStatus, Data: payload}

	for _, peerID := range c.peers.OnlineUserIDs(ctx) {
		if peerID == userID {
			continue
		}
		blocked, err := c.social.HasBlockRelationship(ctx, userID, peerID)
		if err != nil {
			log.Printf("realtime: block lookup (%s, %s) failed: %v", userID, peerID, err)
			continue
		}
		if blocked {
			continue
		}
		c.emit(ctx, peerID, evt)
	}
}
