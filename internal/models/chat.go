package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageStatus represents the delivery/read status of a message from the
// sender's point of view. Valid values: "sent", "delivered", "read".
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// statusRank orders statuses so transitions can be compared. Unknown
// statuses rank below "sent" and never win a comparison.
var statusRank = map[MessageStatus]int{
	MessageStatusSent:      1,
	MessageStatusDelivered: 2,
	MessageStatusRead:      3,
}

// Valid reports whether s is a known message status.
func (s MessageStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// AdvanceStatus is the single place status transitions are decided.
// It returns the resulting status and whether anything changed. Status is
// monotonically non-decreasing: requesting an equal or earlier status is a
// no-op, never an error, so acknowledgment replays are harmless.
func AdvanceStatus(current, requested MessageStatus) (MessageStatus, bool) {
	cur, curOK := statusRank[current]
	req, reqOK := statusRank[requested]
	if !reqOK {
		return current, false
	}
	if !curOK || req > cur {
		return requested, true
	}
	return current, false
}

// AttachmentKind distinguishes uploaded files from recorded voice notes.
type AttachmentKind string

const (
	AttachmentFile  AttachmentKind = "file"
	AttachmentVoice AttachmentKind = "voice"
)

// Attachment points at an uploaded file or voice note. The URL is a
// Cloudinary secure URL.
type Attachment struct {
	Kind     AttachmentKind `bson:"kind" json:"kind"`
	URL      string         `bson:"url" json:"url"`
	Name     string         `bson:"name,omitempty" json:"name,omitempty"`
	Size     int64          `bson:"size,omitempty" json:"size,omitempty"`
	Duration int            `bson:"duration,omitempty" json:"duration,omitempty"` // seconds, voice notes
}

// Message is stored in MongoDB, one document per message. Content is
// encrypted at rest by the persistence layer. Exactly one of ReceiverID
// (direct) or GroupID (group) is set.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID       string             `bson:"sender_id" json:"sender_id"`
	SenderUsername string             `bson:"sender_username,omitempty" json:"sender_username,omitempty"`
	ReceiverID     string             `bson:"receiver_id,omitempty" json:"receiver_id,omitempty"`
	GroupID        string             `bson:"group_id,omitempty" json:"group_id,omitempty"`
	Content        string             `bson:"content" json:"content"`
	Attachment     *Attachment        `bson:"attachment,omitempty" json:"attachment,omitempty"`
	Status         MessageStatus      `bson:"status" json:"status"`
	IsEdited       bool               `bson:"is_edited,omitempty" json:"is_edited,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	EditedAt       *time.Time         `bson:"edited_at,omitempty" json:"edited_at,omitempty"`
	DeletedAt      *time.Time         `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
}

// IsDirect reports whether the message is addressed to a single user.
func (m *Message) IsDirect() bool {
	return m.ReceiverID != "" && m.GroupID == ""
}
