package realtime

import (
	"context"
	"log"

	"github.com/parley-chat/parley-backend/internal/models"
)

// MessageStore is the persistence boundary for the relay. Implemented by
// the MongoDB message service; the relay never sees query specifics.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	// AdvanceMessageStatus conditionally moves a message addressed to
	// receiverID forward to the requested status. Returns the message and
	// whether the stored status actually changed, so replays and duplicate
	// registrations cannot double-notify.
	AdvanceMessageStatus(ctx context.Context, messageID, receiverID string, to models.MessageStatus) (*models.Message, bool, error)
	// MarkConversationRead bulk-advances every message from senderID to
	// readerID that is not yet read. Returns the number changed.
	MarkConversationRead(ctx context.Context, senderID, readerID string) (int64, error)
	// FindPendingForUser returns direct messages addressed to userID still
	// in the sent state.
	FindPendingForUser(ctx context.Context, userID string) ([]models.Message, error)
	EditMessage(ctx context.Context, messageID, senderID, content string) (*models.Message, error)
	SoftDeleteMessage(ctx context.Context, messageID, senderID string) (*models.Message, error)
}

// SocialStore answers relationship questions the relay needs: blocks,
// privacy settings, group membership. Implemented over PostgreSQL.
type SocialStore interface {
	// HasBlockRelationship reports whether a block exists between the two
	// users in either direction.
	HasBlockRelationship(ctx context.Context, a, b string) (bool, error)
	ShowsOnlineStatus(ctx context.Context, userID string) (bool, error)
	GroupMemberIDs(ctx context.Context, groupID string) ([]string, error)
	TouchLastSeen(ctx context.Context, userID string) error
}

// EventBus carries server events to a user's connection. The Hub itself is
// a single-instance bus; the Redis bridge implements the same interface for
// multi-instance fan-out.
type EventBus interface {
	Publish(ctx context.Context, userID string, evt Event) error
}

// PresenceDirectory lists the users currently online anywhere, used as the
// audience for presence announcements. Defaults to the local hub; the
// Redis presence cache implements it so transitions reach peers connected
// on other instances.
type PresenceDirectory interface {
	OnlineUserIDs(ctx context.Context) []string
}

// localDirectory adapts the hub's registry to the directory interface.
type localDirectory struct {
	hub *Hub
}

func (d localDirectory) OnlineUserIDs(context.Context) []string {
	return d.hub.OnlineUserIDs()
}

// Coordinator owns the realtime behavior: presence, message relay, the
// delivery/read state machine, and call signaling. All collaborators are
// injected.
type Coordinator struct {
	hub    *Hub
	store  MessageStore
	social SocialStore
	bus    EventBus
	peers  PresenceDirectory
}

// NewCoordinator wires the coordinator. A nil bus falls back to direct
// local delivery through the hub.
func NewCoordinator(hub *Hub, store MessageStore, social SocialStore, bus EventBus) *Coordinator {
	if bus == nil {
		bus = hub
	}
	return &Coordinator{hub: hub, store: store, social: social, bus: bus, peers: localDirectory{hub}}
}

// SetPresenceDirectory widens the presence audience beyond this instance's
// hub. Call before serving traffic.
func (c *Coordinator) SetPresenceDirectory(d PresenceDirectory) {
	if d != nil {
		c.peers = d
	}
}

// Hub exposes the registry, mainly for connection accounting in handlers.
func (c *Coordinator) Hub() *Hub {
	return c.hub
}

// Connect registers the user's connection (closing any previous one),
// announces the user online, and flushes messages that arrived while the
// user was offline.
func (c *Coordinator) Connect(ctx context.Context, userID string, conn Conn) {
	if prev := c.hub.Register(userID, conn); prev != nil {
		_ = prev.Close()
	}
	c.AnnouncePresence(ctx, userID, true)
	c.flushPending(ctx, userID)
}

// Disconnect releases the connection if the hub still owns it. A handle
// already replaced by a newer login is a no-op, so the stale connection's
// teardown cannot knock the new one offline. Returns the owning user and
// whether anything was released, so callers only tear down shared state
// (like the cross-instance presence key) for connections the hub still
// owned.
func (c *Coordinator) Disconnect(ctx context.Context, conn Conn) (string, bool) {
	userID, ok := c.hub.Unregister(conn)
	if !ok {
		return "", false
	}
	if err := c.social.TouchLastSeen(ctx, userID); err != nil {
		log.Printf("realtime: failed to update last_seen for %s: %v", userID, err)
	}
	c.AnnouncePresence(ctx, userID, false)
	return userID, true
}

// emit sends one event, logging instead of propagating failures: a write
// error to one peer must not affect the rest of the fan-out.
func (c *Coordinator) emit(ctx context.Context, userID string, evt Event) {
	if err := c.bus.Publish(ctx, userID, evt); err != nil {
		log.Printf("realtime: emit %s to %s failed: %v", evt.Name, userID, err)
	}
}

// flushPending sweeps messages that were sent while the user was offline,
// marking each delivered and notifying its original sender. The conditional
// status update reports whether this sweep actually changed the document,
// so a user registering twice in quick succession produces exactly one
// notification per message.
func (c *Coordinator) flushPending(ctx context.Context, userID string) {
	pending, err := c.store.FindPendingForUser(ctx, userID)
	if err != nil {
		log.Printf("realtime: pending sweep for %s failed: %v", userID, err)
		return
	}
	for _, msg := range pending {
		id := msg.ID.Hex()
		updated, changed, err := c.store.AdvanceMessageStatus(ctx, id, userID, models.MessageStatusDelivered)
		if err != nil {
			log.Printf("realtime: deliver sweep for message %s failed: %v", id, err)
			continue
		}
		if !changed {
			continue
		}
		c.emit(ctx, updated.SenderID, Event{
			Name: EventMessageStatusUpdate,
			Data: MessageStatusUpdatePayload{MessageID: id, Status: models.MessageStatusDelivered},
		})
	}
}
