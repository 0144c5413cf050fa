package realtime

import (
	"context"
	"fmt"

	"github.com/parley-chat/parley-backend/internal/models"
)

// MarkDelivered advances a single message to delivered on behalf of its
// receiver and notifies the original sender. Replayed acknowledgments are
// no-ops: the store only reports a change for the transition that actually
// moved the document forward.
func (c *Coordinator) MarkDelivered(ctx context.Context, receiverID, messageID string) error {
	return c.advance(ctx, receiverID, messageID, models.MessageStatusDelivered)
}

// MarkRead advances a single message to read. Valid from both sent and
// delivered, so a receiver opening the conversation before their delivery
// ack was processed still lands on read.
func (c *Coordinator) MarkRead(ctx context.Context, receiverID, messageID string) error {
	return c.advance(ctx, receiverID, messageID, models.MessageStatusRead)
}

func (c *Coordinator) advance(ctx context.Context, receiverID, messageID string, to models.MessageStatus) error {
	msg, changed, err := c.store.AdvanceMessageStatus(ctx, messageID, receiverID, to)
	if err != nil {
		return fmt.Errorf("advance status: %w", err)
	}
	if !changed {
		return nil
	}
	c.emit(ctx, msg.SenderID, Event{
		Name: EventMessageStatusUpdate,
		Data: MessageStatusUpdatePayload{MessageID: messageID, Status: to},
	})
	return nil
}

// MarkAllRead bulk-advances every message from senderID to readerID that is
// not yet read, then emits a single aggregate event to the sender. When
// nothing changed (repeat call, empty conversation) no event is emitted.
func (c *Coordinator) MarkAllRead(ctx context.Context, readerID, senderID string) error {
	changed, err := c.store.MarkConversationRead(ctx, senderID, readerID)
	if err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	if changed == 0 {
		return nil
	}
	c.emit(ctx, senderID, Event{
		Name: EventAllMessagesRead,
		Data: AllMessagesReadPayload{ReaderID: readerID},
	})
	return nil
}
