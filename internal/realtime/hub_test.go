package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRegisterLastJoinWins(t *testing.T) {
	hub := NewHub()
	first := &fakeConn{}
	second := &fakeConn{}

	assert.Nil(t, hub.Register("alice", first))
	prev := hub.Register("alice", second)
	assert.Same(t, first, prev)

	conn, ok := hub.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, second, conn)

	// The replaced handle no longer belongs to the hub; its teardown must
	// not unregister the new connection.
	_, ok = hub.Unregister(first)
	assert.False(t, ok)
	assert.True(t, hub.IsOnline("alice"))
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Register("alice", conn)

	userID, ok := hub.Unregister(conn)
	require.True(t, ok)
	assert.Equal(t, "alice", userID)
	assert.False(t, hub.IsOnline("alice"))

	// Unknown handles are a no-op.
	_, ok = hub.Unregister(&fakeConn{})
	assert.False(t, ok)
}

func TestHubPublish(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}
	hub.Register("alice", conn)

	require.NoError(t, hub.Publish(context.Background(), "alice", Event{Name: EventUserStatus}))
	assert.Len(t, conn.eventsNamed(EventUserStatus), 1)

	// Offline target is a silent drop, not an error.
	require.NoError(t, hub.Publish(context.Background(), "nobody", Event{Name: EventUserStatus}))
}

func TestHubOnlineUserIDs(t *testing.T) {
	hub := NewHub()
	hub.Register("alice", &fakeConn{})
	hub.Register("bob", &fakeConn{})

	ids := hub.OnlineUserIDs()
	assert.ElementsMatch(t, []string{"alice", "bob"}, ids)
}
