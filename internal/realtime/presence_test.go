package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceAnnouncedToPeers(t *testing.T) {
	rig := newTestRig()

	bob := rig.connect("bob")
	carol := rig.connect("carol")
	rig.connect("alice")

	for _, conn := range []*fakeConn{bob, carol} {
		events := conn.eventsNamed(EventUserStatus)
		require.Len(t, events, 1)
		payload := events[0].Data.(UserStatusPayload)
		assert.Equal(t, "alice", payload.UserID)
		assert.True(t, payload.IsOnline)
	}
}

func TestPresenceOfflineOnDisconnect(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	bob := rig.connect("bob")
	aliceConn := rig.connect("alice")

	rig.coord.Disconnect(ctx, aliceConn)

	events := bob.eventsNamed(EventUserStatus)
	require.Len(t, events, 2)
	payload := events[1].Data.(UserStatusPayload)
	assert.Equal(t, "alice", payload.UserID)
	assert.False(t, payload.IsOnline)
	assert.NotNil(t, payload.LastSeen)
	assert.Equal(t, 1, rig.social.lastSeen["alice"])
}

func TestPresenceSuppressedWhenHidden(t *testing.T) {
	rig := newTestRig()
	rig.social.hidden["alice"] = true

	bob := rig.connect("bob")
	aliceConn := rig.connect("alice")
	rig.coord.Disconnect(context.Background(), aliceConn)

	// Neither transition of a hidden user produces any user_status event.
	assert.Empty(t, bob.eventsNamed(EventUserStatus))
}

func TestPresenceSkipsBlockedPeers(t *testing.T) {
	rig := newTestRig()
	rig.social.block("bob", "alice")

	bob := rig.connect("bob")
	carol := rig.connect("carol")
	rig.connect("alice")

	assert.Empty(t, bob.eventsNamed(EventUserStatus))
	require.Len(t, carol.eventsNamed(EventUserStatus), 1)
}

func TestStaleDisconnectAfterReplacement(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	bob := rig.connect("bob")
	old := rig.connect("alice")
	rig.connect("alice") // new device replaces old

	// The replaced connection's read loop winds down and disconnects; the
	// hub no longer owns it, so alice stays online and no offline
	// broadcast goes out.
	rig.coord.Disconnect(ctx, old)

	assert.True(t, rig.coord.Hub().IsOnline("alice"))
	for _, e := range bob.eventsNamed(EventUserStatus) {
		assert.True(t, e.Data.(UserStatusPayload).IsOnline)
	}
}

func TestDisconnectReportsOwnership(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	old := rig.connect("alice")
	current := rig.connect("alice") // new device replaces old

	// The stale handle's teardown must not release anything: callers use
	// the returned ownership to decide whether to clear shared presence
	// state, and clearing it here would mark the still-connected user
	// offline.
	owner, ok := rig.coord.Disconnect(ctx, old)
	require.False(t, ok)
	assert.Empty(t, owner)
	assert.True(t, rig.coord.Hub().IsOnline("alice"))

	owner, ok = rig.coord.Disconnect(ctx, current)
	require.True(t, ok)
	assert.Equal(t, "alice", owner)
	assert.False(t, rig.coord.Hub().IsOnline("alice"))
}

func TestPresenceReachesDirectoryPeers(t *testing.T) {
	store := newFakeStore()
	social := newFakeSocial()
	bus := newRecordingBus()
	hub := NewHub()
	coord := NewCoordinator(hub, store, social, bus)

	// carol has no connection on this instance; only the directory knows
	// about her, the way the shared presence keys do in a multi-instance
	// deployment.
	coord.SetPresenceDirectory(staticDirectory{ids: []string{"alice", "bob", "carol"}})

	coord.Connect(context.Background(), "alice", &fakeConn{})

	for _, peer := range []string{"bob", "carol"} {
		events := bus.eventsFor(peer)
		require.Len(t, events, 1, "peer %s", peer)
		assert.Equal(t, EventUserStatus, events[0].Name)
		assert.True(t, events[0].Data.(UserStatusPayload).IsOnline)
	}
	assert.Empty(t, bus.eventsFor("alice"))
}
