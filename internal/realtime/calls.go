package realtime

import (
	"context"
	"fmt"
)

// Call signaling is a stateless relay: the server forwards session
// descriptions and ICE candidates between two connections without
// interpreting them, and keeps no per-call state. Offline targets are
// silent drops; the caller's own client-side timeout ends perpetual
// ringing. Call state correctness lives in the two clients.

// CallUser forwards a call offer to the target, annotated with the caller's
// identity and call type. Blocked pairs cannot ring each other; like
// message relay, the caller is not told why nothing happened.
func (c *Coordinator) CallUser(ctx context.Context, callerID, callerName string, p *CallSignalPayload) error {
	blocked, err := c.social.HasBlockRelationship(ctx, callerID, p.TargetID)
	if err != nil {
		return fmt.Errorf("block check: %w", err)
	}
	if blocked {
		return nil
	}
	c.emit(ctx, p.TargetID, Event{Name: EventCallUser, Data: IncomingCallPayload{
		CallerID:   callerID,
		CallerName: callerName,
		CallType:   p.CallType,
		Signal:     p.Signal,
	}})
	return nil
}

// AnswerCall forwards the callee's answer back to the caller as
// call_accepted.
func (c *Coordinator) AnswerCall(ctx context.Context, calleeID string, p *CallSignalPayload) {
	c.emit(ctx, p.TargetID, Event{Name: EventCallAccepted, Data: CallAcceptedPayload{
		CalleeID: calleeID,
		Signal:   p.Signal,
	}})
}

// RelayIceCandidate forwards one ICE candidate opaquely.
func (c *Coordinator) RelayIceCandidate(ctx context.Context, fromID string, p *IceCandidatePayload) {
	c.emit(ctx, p.TargetID, Event{Name: EventIceCandidate, Data: IceCandidateNoticePayload{
		FromID:    fromID,
		Candidate: p.Candidate,
	}})
}

// EndCall forwards a hang-up. If the target is already gone there is
// nothing to do.
func (c *Coordinator) EndCall(ctx context.Context, fromID string, p *EndCallPayload) {
	c.emit(ctx, p.TargetID, Event{Name: EventEndCall, Data: EndCallNoticePayload{
		FromID: fromID,
	}})
}
