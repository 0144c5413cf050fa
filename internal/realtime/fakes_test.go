package realtime

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/parley-chat/parley-backend/internal/models"
)

// fakeConn records every event written to it.
type fakeConn struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v.(Event))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) eventsNamed(name string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// fakeStore is an in-memory MessageStore with the same conditional-update
// semantics as the MongoDB implementation.
type fakeStore struct {
	mu       sync.Mutex
	messages map[string]*models.Message
}

func newFakeStore() *fakeStore {
	return &fakeStore{messages: make(map[string]*models.Message)}
}

func (s *fakeStore) CreateMessage(_ context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	cp := *msg
	s.messages[msg.ID.Hex()] = &cp
	return msg, nil
}

func (s *fakeStore) AdvanceMessageStatus(_ context.Context, messageID, receiverID string, to models.MessageStatus) (*models.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok || msg.ReceiverID != receiverID {
		return nil, false, nil
	}
	next, changed := models.AdvanceStatus(msg.Status, to)
	msg.Status = next
	cp := *msg
	return &cp, changed, nil
}

func (s *fakeStore) MarkConversationRead(_ context.Context, senderID, readerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, msg := range s.messages {
		if msg.SenderID != senderID || msg.ReceiverID != readerID {
			continue
		}
		next, changed := models.AdvanceStatus(msg.Status, models.MessageStatusRead)
		if changed {
			msg.Status = next
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) FindPendingForUser(_ context.Context, userID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, msg := range s.messages {
		if msg.ReceiverID == userID && msg.Status == models.MessageStatusSent && msg.DeletedAt == nil {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (s *fakeStore) EditMessage(_ context.Context, messageID, senderID, content string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok || msg.SenderID != senderID || msg.DeletedAt != nil {
		return nil, nil
	}
	now := time.Now().UTC()
	msg.Content = content
	msg.IsEdited = true
	msg.EditedAt = &now
	cp := *msg
	return &cp, nil
}

func (s *fakeStore) SoftDeleteMessage(_ context.Context, messageID, senderID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok || msg.SenderID != senderID || msg.DeletedAt != nil {
		return nil, nil
	}
	now := time.Now().UTC()
	msg.DeletedAt = &now
	cp := *msg
	return &cp, nil
}

func (s *fakeStore) get(messageID string) *models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.messages[messageID]; ok {
		cp := *m
		return &cp
	}
	return nil
}

// fakeSocial is an in-memory SocialStore.
type fakeSocial struct {
	mu       sync.Mutex
	blocks   map[[2]string]bool // directed (blocker, blocked)
	hidden   map[string]bool    // show_online_status=false
	groups   map[string][]string
	lastSeen map[string]int
}

func newFakeSocial() *fakeSocial {
	return &fakeSocial{
		blocks:   make(map[[2]string]bool),
		hidden:   make(map[string]bool),
		groups:   make(map[string][]string),
		lastSeen: make(map[string]int),
	}
}

func (s *fakeSocial) block(blocker, blocked string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[[2]string{blocker, blocked}] = true
}

func (s *fakeSocial) HasBlockRelationship(_ context.Context, a, b string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks[[2]string{a, b}] || s.blocks[[2]string{b, a}], nil
}

func (s *fakeSocial) ShowsOnlineStatus(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.hidden[userID], nil
}

func (s *fakeSocial) GroupMemberIDs(_ context.Context, groupID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groups[groupID], nil
}

func (s *fakeSocial) TouchLastSeen(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[userID]++
	return nil
}

// recordingBus captures publishes without needing a live connection, for
// asserting on traffic addressed to users this instance does not hold.
type recordingBus struct {
	mu     sync.Mutex
	events map[string][]Event
}

func newRecordingBus() *recordingBus {
	return &recordingBus{events: make(map[string][]Event)}
}

func (b *recordingBus) Publish(_ context.Context, userID string, evt Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[userID] = append(b.events[userID], evt)
	return nil
}

func (b *recordingBus) eventsFor(userID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events[userID]...)
}

// staticDirectory is a fixed presence audience, standing in for the Redis
// directory that spans instances.
type staticDirectory struct {
	ids []string
}

func (d staticDirectory) OnlineUserIDs(context.Context) []string {
	return d.ids
}

type testRig struct {
	coord  *Coordinator
	store  *fakeStore
	social *fakeSocial
}

func newTestRig() *testRig {
	store := newFakeStore()
	social := newFakeSocial()
	return &testRig{
		coord:  NewCoordinator(NewHub(), store, social, nil),
		store:  store,
		social: social,
	}
}

// connect registers a fresh fake connection for the user.
func (r *testRig) connect(userID string) *fakeConn {
	conn := &fakeConn{}
	r.coord.Connect(context.Background(), userID, conn)
	return conn
}
