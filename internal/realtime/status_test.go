package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/parley-backend/internal/models"
)

func sendOne(t *testing.T, rig *testRig, sender *fakeConn, from, to string) string {
	t.Helper()
	require.NoError(t, rig.coord.SendMessage(context.Background(), from, from, &SendMessagePayload{
		ReceiverID: to, Content: "ciphertext",
	}))
	sent := sender.eventsNamed(EventMessageSent)
	return sent[len(sent)-1].Data.(*models.Message).ID.Hex()
}

func TestMarkDelivered(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	alice := rig.connect("alice")
	rig.connect("bob")
	id := sendOne(t, rig, alice, "alice", "bob")

	require.NoError(t, rig.coord.MarkDelivered(ctx, "bob", id))
	updates := alice.eventsNamed(EventMessageStatusUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, models.MessageStatusDelivered, updates[0].Data.(MessageStatusUpdatePayload).Status)

	// Replayed ack: no second event, status unchanged.
	require.NoError(t, rig.coord.MarkDelivered(ctx, "bob", id))
	assert.Len(t, alice.eventsNamed(EventMessageStatusUpdate), 1)
	assert.Equal(t, models.MessageStatusDelivered, rig.store.get(id).Status)
}

func TestMarkReadFromSent(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	alice := rig.connect("alice")
	rig.connect("bob")
	id := sendOne(t, rig, alice, "alice", "bob")

	// read straight from sent (conversation opened before delivery ack)
	require.NoError(t, rig.coord.MarkRead(ctx, "bob", id))
	updates := alice.eventsNamed(EventMessageStatusUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, models.MessageStatusRead, updates[0].Data.(MessageStatusUpdatePayload).Status)

	// A late delivered ack never regresses read.
	require.NoError(t, rig.coord.MarkDelivered(ctx, "bob", id))
	assert.Len(t, alice.eventsNamed(EventMessageStatusUpdate), 1)
	assert.Equal(t, models.MessageStatusRead, rig.store.get(id).Status)
}

func TestMarkStatusWrongReceiver(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	alice := rig.connect("alice")
	rig.connect("bob")
	rig.connect("mallory")
	id := sendOne(t, rig, alice, "alice", "bob")

	// Only the addressed receiver can advance the status.
	require.NoError(t, rig.coord.MarkRead(ctx, "mallory", id))
	assert.Empty(t, alice.eventsNamed(EventMessageStatusUpdate))
	assert.Equal(t, models.MessageStatusSent, rig.store.get(id).Status)
}

func TestMarkAllRead(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	alice := rig.connect("alice")
	rig.connect("bob")
	sendOne(t, rig, alice, "alice", "bob")
	sendOne(t, rig, alice, "alice", "bob")

	require.NoError(t, rig.coord.MarkAllRead(ctx, "bob", "alice"))
	events := alice.eventsNamed(EventAllMessagesRead)
	require.Len(t, events, 1)
	assert.Equal(t, "bob", events[0].Data.(AllMessagesReadPayload).ReaderID)

	// Second identical call with no new messages: no further events.
	require.NoError(t, rig.coord.MarkAllRead(ctx, "bob", "alice"))
	assert.Len(t, alice.eventsNamed(EventAllMessagesRead), 1)
}
