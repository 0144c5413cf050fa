package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallSignalingRoundTrip(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	alice := rig.connect("alice")
	bob := rig.connect("bob")

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	require.NoError(t, rig.coord.CallUser(ctx, "alice", "Alice", &CallSignalPayload{
		TargetID: "bob", Signal: offer, CallType: "video",
	}))

	incoming := bob.eventsNamed(EventCallUser)
	require.Len(t, incoming, 1)
	payload := incoming[0].Data.(IncomingCallPayload)
	assert.Equal(t, "alice", payload.CallerID)
	assert.Equal(t, "Alice", payload.CallerName)
	assert.Equal(t, "video", payload.CallType)
	assert.JSONEq(t, string(offer), string(payload.Signal))

	answer := json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	rig.coord.AnswerCall(ctx, "bob", &CallSignalPayload{TargetID: "alice", Signal: answer})

	accepted := alice.eventsNamed(EventCallAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, "bob", accepted[0].Data.(CallAcceptedPayload).CalleeID)

	candidate := json.RawMessage(`{"candidate":"candidate:1"}`)
	rig.coord.RelayIceCandidate(ctx, "alice", &IceCandidatePayload{TargetID: "bob", Candidate: candidate})
	require.Len(t, bob.eventsNamed(EventIceCandidate), 1)

	rig.coord.EndCall(ctx, "alice", &EndCallPayload{TargetID: "bob"})
	ended := bob.eventsNamed(EventEndCall)
	require.Len(t, ended, 1)
	assert.Equal(t, "alice", ended[0].Data.(EndCallNoticePayload).FromID)
}

func TestCallOfflineCallee(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	alice := rig.connect("alice")

	// Calling an offline user: no error back, no call_accepted ever; the
	// caller rings until its own client-side timeout.
	require.NoError(t, rig.coord.CallUser(ctx, "alice", "Alice", &CallSignalPayload{
		TargetID: "bob", Signal: json.RawMessage(`{}`), CallType: "audio",
	}))
	assert.Empty(t, alice.eventsNamed(EventCallAccepted))

	// Hanging up on an offline target is a no-op too.
	rig.coord.EndCall(ctx, "alice", &EndCallPayload{TargetID: "bob"})
	assert.Empty(t, alice.eventsNamed(EventEndCall))
}

func TestCallBlockedPair(t *testing.T) {
	rig := newTestRig()
	ctx := context.Background()

	rig.social.block("bob", "alice")
	rig.connect("alice")
	bob := rig.connect("bob")

	require.NoError(t, rig.coord.CallUser(ctx, "alice", "Alice", &CallSignalPayload{
		TargetID: "bob", CallType: "audio",
	}))
	assert.Empty(t, bob.eventsNamed(EventCallUser))
}
