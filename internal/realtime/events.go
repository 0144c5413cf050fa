package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/parley-chat/parley-backend/internal/models"
)

// Wire-level event names. Clients send a subset of these; the rest are
// server-emitted only.
const (
	EventJoinRoom            = "join_room"
	EventSendMessage         = "send_message"
	EventReceiveMessage      = "receive_message"
	EventMessageSent         = "message_sent"
	EventMessageDelivered    = "message_delivered"
	EventMessageRead         = "message_read"
	EventMarkAllRead         = "mark_all_read"
	EventMessageStatusUpdate = "message_status_update"
	EventAllMessagesRead     = "all_messages_read"
	EventEditMessage         = "edit_message"
	EventMessageUpdated      = "message_updated"
	EventDeleteMessage       = "delete_message"
	EventMessageDeleted      = "message_deleted"
	EventUserTyping          = "user_typing"
	EventUserStopTyping      = "user_stop_typing"
	EventUserRecording       = "user_recording"
	EventUserStopRecording   = "user_stop_recording"
	EventUserStatus          = "user_status"
	EventBlockingUpdate      = "blocking_update"
	EventCallUser            = "call_user"
	EventAnswerCall          = "answer_call"
	EventCallAccepted        = "call_accepted"
	EventIceCandidate        = "ice_candidate"
	EventEndCall             = "end_call"
)

// Event is the envelope written to (and read from) the WebSocket.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data,omitempty"`
}

// ErrMalformedEvent is returned when an inbound frame fails validation.
// Callers log it and drop the frame; one bad event never kills the loop.
var ErrMalformedEvent = errors.New("malformed event")

// SendMessagePayload targets exactly one of a user or a group.
type SendMessagePayload struct {
	ReceiverID string             `json:"receiver_id,omitempty"`
	GroupID    string             `json:"group_id,omitempty"`
	Content    string             `json:"content"`
	Attachment *models.Attachment `json:"attachment,omitempty"`
}

func (p *SendMessagePayload) Validate() error {
	if (p.ReceiverID == "") == (p.GroupID == "") {
		return fmt.Errorf("%w: exactly one of receiver_id or group_id required", ErrMalformedEvent)
	}
	if p.Content == "" && p.Attachment == nil {
		return fmt.Errorf("%w: empty message", ErrMalformedEvent)
	}
	if p.Attachment != nil && p.Attachment.URL == "" {
		return fmt.Errorf("%w: attachment without url", ErrMalformedEvent)
	}
	return nil
}

// AckPayload acknowledges receipt (message_delivered) or reading
// (message_read) of a single message.
type AckPayload struct {
	MessageID string `json:"message_id"`
}

func (p *AckPayload) Validate() error {
	if p.MessageID == "" {
		return fmt.Errorf("%w: message_id required", ErrMalformedEvent)
	}
	return nil
}

// MarkAllReadPayload marks every unread message from SenderID to the
// requesting user as read.
type MarkAllReadPayload struct {
	SenderID string `json:"sender_id"`
}

func (p *MarkAllReadPayload) Validate() error {
	if p.SenderID == "" {
		return fmt.Errorf("%w: sender_id required", ErrMalformedEvent)
	}
	return nil
}

type EditMessagePayload struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

func (p *EditMessagePayload) Validate() error {
	if p.MessageID == "" || p.Content == "" {
		return fmt.Errorf("%w: message_id and content required", ErrMalformedEvent)
	}
	return nil
}

type DeleteMessagePayload struct {
	MessageID string `json:"message_id"`
}

func (p *DeleteMessagePayload) Validate() error {
	if p.MessageID == "" {
		return fmt.Errorf("%w: message_id required", ErrMalformedEvent)
	}
	return nil
}

// IndicatorPayload carries typing/recording indicators. Like messages, it
// targets exactly one of a user or a group.
type IndicatorPayload struct {
	ReceiverID string `json:"receiver_id,omitempty"`
	GroupID    string `json:"group_id,omitempty"`
}

func (p *IndicatorPayload) Validate() error {
	if (p.ReceiverID == "") == (p.GroupID == "") {
		return fmt.Errorf("%w: exactly one of receiver_id or group_id required", ErrMalformedEvent)
	}
	return nil
}

// CallSignalPayload carries WebRTC session descriptions for call_user and
// answer_call. Signal is opaque to the server.
type CallSignalPayload struct {
	TargetID string          `json:"target_id"`
	Signal   json.RawMessage `json:"signal,omitempty"`
	CallType string          `json:"call_type,omitempty"` // "audio" or "video"
}

func (p *CallSignalPayload) Validate() error {
	if p.TargetID == "" {
		return fmt.Errorf("%w: target_id required", ErrMalformedEvent)
	}
	return nil
}

type IceCandidatePayload struct {
	TargetID  string          `json:"target_id"`
	Candidate json.RawMessage `json:"candidate"`
}

func (p *IceCandidatePayload) Validate() error {
	if p.TargetID == "" || len(p.Candidate) == 0 {
		return fmt.Errorf("%w: target_id and candidate required", ErrMalformedEvent)
	}
	return nil
}

type EndCallPayload struct {
	TargetID string `json:"target_id"`
}

func (p *EndCallPayload) Validate() error {
	if p.TargetID == "" {
		return fmt.Errorf("%w: target_id required", ErrMalformedEvent)
	}
	return nil
}

// Server-emitted payloads.

type UserStatusPayload struct {
	UserID   string     `json:"user_id"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

type MessageStatusUpdatePayload struct {
	MessageID string               `json:"message_id"`
	Status    models.MessageStatus `json:"status"`
}

type AllMessagesReadPayload struct {
	ReaderID string `json:"reader_id"`
}

type IndicatorNoticePayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
	GroupID  string `json:"group_id,omitempty"`
}

type BlockingUpdatePayload struct {
	UserID  string `json:"user_id"`
	Blocked bool   `json:"blocked"`
}

type IncomingCallPayload struct {
	CallerID   string          `json:"caller_id"`
	CallerName string          `json:"caller_name,omitempty"`
	CallType   string          `json:"call_type,omitempty"`
	Signal     json.RawMessage `json:"signal,omitempty"`
}

type CallAcceptedPayload struct {
	CalleeID string          `json:"callee_id"`
	Signal   json.RawMessage `json:"signal,omitempty"`
}

type IceCandidateNoticePayload struct {
	FromID    string          `json:"from_id"`
	Candidate json.RawMessage `json:"candidate"`
}

type EndCallNoticePayload struct {
	FromID string `json:"from_id"`
}

type MessageDeletedPayload struct {
	MessageID  string `json:"message_id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id,omitempty"`
	GroupID    string `json:"group_id,omitempty"`
}

// ClientEvent is a decoded, validated inbound frame.
type ClientEvent struct {
	Name    string
	Payload interface{}
}

type rawEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// DecodeClientEvent parses and validates one inbound frame. Malformed or
// unknown frames are rejected here, before any business logic runs.
func DecodeClientEvent(data []byte) (*ClientEvent, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if raw.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedEvent)
	}

	payload, err := payloadFor(raw.Event)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		// Events like join_room carry no payload.
		return &ClientEvent{Name: raw.Event}, nil
	}

	if len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	}
	if v, ok := payload.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &ClientEvent{Name: raw.Event, Payload: payload}, nil
}

func payloadFor(name string) (interface{}, error) {
	switch name {
	case EventJoinRoom:
		return nil, nil
	case EventSendMessage:
		return &SendMessagePayload{}, nil
	case EventMessageDelivered, EventMessageRead:
		return &AckPayload{}, nil
	case EventMarkAllRead:
		return &MarkAllReadPayload{}, nil
	case EventEditMessage:
		return &EditMessagePayload{}, nil
	case EventDeleteMessage:
		return &DeleteMessagePayload{}, nil
	case EventUserTyping, EventUserStopTyping, EventUserRecording, EventUserStopRecording:
		return &IndicatorPayload{}, nil
	case EventCallUser, EventAnswerCall:
		return &CallSignalPayload{}, nil
	case EventIceCandidate:
		return &IceCandidatePayload{}, nil
	case EventEndCall:
		return &EndCallPayload{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrMalformedEvent, name)
	}
}
