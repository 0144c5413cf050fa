package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/parley-chat/parley-backend/internal/models"
)

// SendMessage persists an inbound message and relays it. Direct messages
// between blocked users are dropped without any signal back to the sender:
// the sender must not be able to learn they are blocked. Persistence
// failures are returned (and logged by the caller) but never reach the
// receiver as a partial event.
func (c *Coordinator) SendMessage(ctx context.Context, senderID, senderUsername string, p *SendMessagePayload) error {
	if p.ReceiverID != "" {
		return c.sendDirect(ctx, senderID, senderUsername, p)
	}
	return c.sendGroup(ctx, senderID, senderUsername, p)
}

func (c *Coordinator) sendDirect(ctx context.Context, senderID, senderUsername string, p *SendMessagePayload) error {
	blocked, err := c.social.HasBlockRelationship(ctx, senderID, p.ReceiverID)
	if err != nil {
		return fmt.Errorf("block check: %w", err)
	}
	if blocked {
		// Deliberate silence.
		return nil
	}

	msg := &models.Message{
		SenderID:       senderID,
		SenderUsername: senderUsername,
		ReceiverID:     p.ReceiverID,
		Content:        p.Content,
		Attachment:     p.Attachment,
		Status:         models.MessageStatusSent,
		CreatedAt:      time.Now().UTC(),
	}
	saved, err := c.store.CreateMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("persist message: %w", err)
	}

	c.emit(ctx, p.ReceiverID, Event{Name: EventReceiveMessage, Data: saved})
	// Echo to the sender's own connection so other devices stay in sync.
	c.emit(ctx, senderID, Event{Name: EventMessageSent, Data: saved})
	return nil
}

func (c *Coordinator) sendGroup(ctx context.Context, senderID, senderUsername string, p *SendMessagePayload) error {
	members, err := c.social.GroupMemberIDs(ctx, p.GroupID)
	if err != nil {
		return fmt.Errorf("group members: %w", err)
	}
	if !contains(members, senderID) {
		// Not a member; drop.
		return nil
	}

	msg := &models.Message{
		SenderID:       senderID,
		SenderUsername: senderUsername,
		GroupID:        p.GroupID,
		Content:        p.Content,
		Attachment:     p.Attachment,
		Status:         models.MessageStatusSent,
		CreatedAt:      time.Now().UTC(),
	}
	saved, err := c.store.CreateMessage(ctx, msg)
	if err != nil {
		return fmt.Errorf("persist message: %w", err)
	}

	for _, memberID := range members {
		if memberID == senderID {
			continue
		}
		c.emit(ctx, memberID, Event{Name: EventReceiveMessage, Data: saved})
	}
	c.emit(ctx, senderID, Event{Name: EventMessageSent, Data: saved})
	return nil
}

// EditMessage updates the content of the sender's own message and relays
// message_updated to everyone who saw the original.
func (c *Coordinator) EditMessage(ctx context.Context, senderID string, p *EditMessagePayload) error {
	updated, err := c.store.EditMessage(ctx, p.MessageID, senderID, p.Content)
	if err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	if updated == nil {
		// Not the sender's message, or already deleted.
		return nil
	}
	c.relayToAudience(ctx, updated, Event{Name: EventMessageUpdated, Data: updated})
	return nil
}

// DeleteMessage soft-deletes the sender's own message and relays
// message_deleted. The document stays in storage with deleted_at set.
func (c *Coordinator) DeleteMessage(ctx context.Context, senderID string, p *DeleteMessagePayload) error {
	deleted, err := c.store.SoftDeleteMessage(ctx, p.MessageID, senderID)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if deleted == nil {
		return nil
	}
	c.relayToAudience(ctx, deleted, Event{Name: EventMessageDeleted, Data: MessageDeletedPayload{
		MessageID:  p.MessageID,
		SenderID:   deleted.SenderID,
		ReceiverID: deleted.ReceiverID,
		GroupID:    deleted.GroupID,
	}})
	return nil
}

// RelayIndicator forwards typing/recording indicators. Nothing is
// persisted; offline or blocked targets are silent drops.
func (c *Coordinator) RelayIndicator(ctx context.Context, fromID, fromUsername, eventName string, p *IndicatorPayload) error {
	notice := Event{Name: eventName, Data: IndicatorNoticePayload{
		UserID:   fromID,
		Username: fromUsername,
		GroupID:  p.GroupID,
	}}

	if p.ReceiverID != "" {
		blocked, err := c.social.HasBlockRelationship(ctx, fromID, p.ReceiverID)
		if err != nil {
			return fmt.Errorf("block check: %w", err)
		}
		if blocked {
			return nil
		}
		c.emit(ctx, p.ReceiverID, notice)
		return nil
	}

	members, err := c.social.GroupMemberIDs(ctx, p.GroupID)
	if err != nil {
		return fmt.Errorf("group members: %w", err)
	}
	if !contains(members, fromID) {
		return nil
	}
	for _, memberID := range members {
		if memberID == fromID {
			continue
		}
		c.emit(ctx, memberID, notice)
	}
	return nil
}

// NotifyBlockingUpdate tells both parties their block relationship changed,
// so connected clients refresh conversation state immediately.
func (c *Coordinator) NotifyBlockingUpdate(ctx context.Context, blockerID, blockedID string, blocked bool) {
	c.emit(ctx, blockerID, Event{Name: EventBlockingUpdate, Data: BlockingUpdatePayload{UserID: blockedID, Blocked: blocked}})
	c.emit(ctx, blockedID, Event{Name: EventBlockingUpdate, Data: BlockingUpdatePayload{UserID: blockerID, Blocked: blocked}})
}

// relayToAudience sends an event to everyone party to the message,
// including the sender's own connection.
func (c *Coordinator) relayToAudience(ctx context.Context, msg *models.Message, evt Event) {
	if msg.IsDirect() {
		c.emit(ctx, msg.ReceiverID, evt)
		c.emit(ctx, msg.SenderID, evt)
		return
	}
	members, err := c.social.GroupMemberIDs(ctx, msg.GroupID)
	if err != nil {
		c.emit(ctx, msg.SenderID, evt)
		return
	}
	for _, memberID := range members {
		c.emit(ctx, memberID, evt)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
