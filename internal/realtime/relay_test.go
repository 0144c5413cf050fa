package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley-backend/internal/models"
)

func TestSendDirectMessage(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	alice := rig.connect("alice")
	bob := rig.connect("bob")

	err := rig.coord.SendMessage(ctx, "alice", "alice", &SendMessagePayload{
		ReceiverID: "bob",
		Content:    "ciphertext-1",
	})
	require.NoError(t, err)

	received := bob.eventsNamed(EventReceiveMessage)
	require.Len(t, received, 1)
	msg := received[0].Data.(*models.Message)
	assert.Equal(t, "alice", msg.SenderID)
	assert.Equal(t, models.MessageStatusSent, msg.Status)

	// Sender gets the multi-device echo.
	assert.Len(t, alice.eventsNamed(EventMessageSent), 1)
}

func TestSendBlockedIsSilent(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	bob := rig.connect("bob")
	alice := rig.connect("alice")
	rig.social.block("alice", "bob")

	// Blocked in either direction: bob sending to alice must also be
	// dropped, and bob must not get an error or any event back.
	err := rig.coord.SendMessage(ctx, "bob", "bob", &SendMessagePayload{
		ReceiverID: "alice",
		Content:    "ciphertext",
	})
	require.NoError(t, err)

	assert.Empty(t, alice.eventsNamed(EventReceiveMessage))
	assert.Empty(t, bob.eventsNamed(EventMessageSent))
	// Nothing persisted either.
	pending, err := rig.store.FindPendingForUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOfflineReceiverFlushOnConnect(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	alice := rig.connect("alice")

	// Bob is offline: message persists with status sent, no delivery yet.
	err := rig.coord.SendMessage(ctx, "alice", "alice", &SendMessagePayload{
		ReceiverID: "bob",
		Content:    "ciphertext",
	})
	require.NoError(t, err)
	assert.Empty(t, alice.eventsNamed(EventMessageStatusUpdate))

	// Bob registers twice in quick succession; the conditional update
	// guarantees exactly one delivered notification for the sender.
	rig.connect("bob")
	rig.connect("bob")

	updates := alice.eventsNamed(EventMessageStatusUpdate)
	require.Len(t, updates, 1)
	payload := updates[0].Data.(MessageStatusUpdatePayload)
	assert.Equal(t, models.MessageStatusDelivered, payload.Status)
}

func TestSendGroupMessage(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.social.groups["g1"] = []string{"alice", "bob", "carol"}

	alice := rig.connect("alice")
	bob := rig.connect("bob")
	// carol stays offline

	err := rig.coord.SendMessage(ctx, "alice", "alice", &SendMessagePayload{
		GroupID: "g1",
		Content: "ciphertext",
	})
	require.NoError(t, err)

	assert.Len(t, bob.eventsNamed(EventReceiveMessage), 1)
	assert.Len(t, alice.eventsNamed(EventMessageSent), 1)
	assert.Empty(t, alice.eventsNamed(EventReceiveMessage))
}

func TestSendGroupNonMemberDropped(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()
	rig.social.groups["g1"] = []string{"bob", "carol"}

	bob := rig.connect("bob")
	alice := rig.connect("alice")

	err := rig.coord.SendMessage(ctx, "alice", "alice", &SendMessagePayload{
		GroupID: "g1",
		Content: "ciphertext",
	})
	require.NoError(t, err)
	assert.Empty(t, bob.eventsNamed(EventReceiveMessage))
	assert.Empty(t, alice.eventsNamed(EventMessageSent))
}

func TestEditMessage(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	alice := rig.connect("alice")
	bob := rig.connect("bob")

	require.NoError(t, rig.coord.SendMessage(ctx, "alice", "alice", &SendMessagePayload{
		ReceiverID: "bob", Content: "v1",
	}))
	sent := alice.eventsNamed(EventMessageSent)[0].Data.(*models.Message)

	require.NoError(t, rig.coord.EditMessage(ctx, "alice", &EditMessagePayload{
		MessageID: sent.ID.Hex(), Content: "v2",
	}))

	updated := bob.eventsNamed(EventMessageUpdated)
	require.Len(t, updated, 1)
	msg := updated[0].Data.(*models.Message)
	assert.Equal(t, "v2", msg.Content)
	assert.True(t, msg.IsEdited)

	// Only the sender may edit.
	require.NoError(t, rig.coord.EditMessage(ctx, "bob", &EditMessagePayload{
		MessageID: sent.ID.Hex(), Content: "hijack",
	}))
	assert.Len(t, bob.eventsNamed(EventMessageUpdated), 1)
	assert.Equal(t, "v2", rig.store.get(sent.ID.Hex()).Content)
}

func TestDeleteMessage(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	alice := rig.connect("alice")
	bob := rig.connect("bob")

	require.NoError(t, rig.coord.SendMessage(ctx, "alice", "alice", &SendMessagePayload{
		ReceiverID: "bob", Content: "oops",
	}))
	sent := alice.eventsNamed(EventMessageSent)[0].Data.(*models.Message)

	require.NoError(t, rig.coord.DeleteMessage(ctx, "alice", &DeleteMessagePayload{MessageID: sent.ID.Hex()}))

	deleted := bob.eventsNamed(EventMessageDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, sent.ID.Hex(), deleted[0].Data.(MessageDeletedPayload).MessageID)

	// Soft delete: document survives with deleted_at set.
	stored := rig.store.get(sent.ID.Hex())
	require.NotNil(t, stored)
	assert.NotNil(t, stored.DeletedAt)

	// Deleting again is a no-op, no second event.
	require.NoError(t, rig.coord.DeleteMessage(ctx, "alice", &DeleteMessagePayload{MessageID: sent.ID.Hex()}))
	assert.Len(t, bob.eventsNamed(EventMessageDeleted), 1)
}

func TestRelayIndicator(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	bob := rig.connect("bob")
	rig.connect("alice")

	require.NoError(t, rig.coord.RelayIndicator(ctx, "alice", "alice", EventUserTyping, &IndicatorPayload{ReceiverID: "bob"}))
	require.Len(t, bob.eventsNamed(EventUserTyping), 1)
	assert.Equal(t, "alice", bob.eventsNamed(EventUserTyping)[0].Data.(IndicatorNoticePayload).UserID)

	// Blocked pairs see no indicators.
	rig.social.block("bob", "alice")
	require.NoError(t, rig.coord.RelayIndicator(ctx, "alice", "alice", EventUserRecording, &IndicatorPayload{ReceiverID: "bob"}))
	assert.Empty(t, bob.eventsNamed(EventUserRecording))
}

func TestNotifyBlockingUpdate(t *testing.T) {
	rig := newTestRig()
	alice := rig.connect("alice")
	bob := rig.connect("bob")

	rig.coord.NotifyBlockingUpdate(context.Background(), "alice", "bob", true)

	require.Len(t, alice.eventsNamed(EventBlockingUpdate), 1)
	require.Len(t, bob.eventsNamed(EventBlockingUpdate), 1)
	assert.Equal(t, "bob", alice.eventsNamed(EventBlockingUpdate)[0].Data.(BlockingUpdatePayload).UserID)
	assert.Equal(t, "alice", bob.eventsNamed(EventBlockingUpdate)[0].Data.(BlockingUpdatePayload).UserID)
}
