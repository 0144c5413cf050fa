package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parley-chat/parley-backend/internal/database"
	"github.com/parley-chat/parley-backend/internal/models"
	"github.com/parley-chat/parley-backend/pkg/utils"
)

const messagesCollection = "messages"

// Message content is encrypted at rest with the shared AES-256-GCM key.
// When no key is configured both helpers pass content through unchanged,
// and decrypt tolerates plaintext documents written before a key was set.

func encryptContent(content string) string {
	if enc, err := utils.Encrypt(content); err == nil {
		return enc
	}
	return content
}

func decryptContent(content string) string {
	if dec, err := utils.Decrypt(content); err == nil {
		return dec
	}
	return content
}

func decryptMessage(msg *models.Message) {
	if msg != nil {
		msg.Content = decryptContent(msg.Content)
	}
}

// MessageService persists messages in MongoDB. It satisfies the realtime
// coordinator's MessageStore interface.
type MessageService struct{}

func NewMessageService() *MessageService {
	return &MessageService{}
}

func (s *MessageService) collection() *mongo.Collection {
	return database.DB.Collection(messagesCollection)
}

// EnsureChatIndexes configures indexes for the messages collection.
// Called on startup from main after Mongo has connected.
func EnsureChatIndexes(ctx context.Context) error {
	col := database.DB.Collection(messagesCollection)

	indexModels := []mongo.IndexModel{
		{
			// Direct conversation pagination.
			Keys: bson.D{
				{Key: "sender_id", Value: 1},
				{Key: "receiver_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_direct_created"),
		},
		{
			// Group history pagination.
			Keys: bson.D{
				{Key: "group_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_group_created"),
		},
		{
			// Pending sweep on reconnect: messages still "sent" for a receiver.
			Keys: bson.D{
				{Key: "receiver_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_receiver_status"),
		},
	}

	for _, m := range indexModels {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// CreateMessage inserts a message and returns it with its assigned id.
func (s *MessageService) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Status == "" {
		msg.Status = models.MessageStatusSent
	}

	stored := *msg
	stored.Content = encryptContent(msg.Content)
	res, err := s.collection().InsertOne(ctx, &stored)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}
	if msg.IsDirect() {
		PushMessageToRecentCache(msg)
	}
	return msg, nil
}

// AdvanceMessageStatus moves a message forward to the requested status if
// and only if its current status precedes it and it is addressed to
// receiverID. The filter doubles as the transition guard, so concurrent
// acks and repeated reconnect sweeps change the document at most once.
func (s *MessageService) AdvanceMessageStatus(ctx context.Context, messageID, receiverID string, to models.MessageStatus) (*models.Message, bool, error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, false, err
	}
	if !to.Valid() {
		return nil, false, nil
	}

	filter := bson.M{
		"_id":         oid,
		"receiver_id": receiverID,
		"status":      bson.M{"$in": statusesBefore(to)},
		"deleted_at":  bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"status": to}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Message
	err = s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		// Already advanced, wrong receiver, or unknown id: a no-op, not an error.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	decryptMessage(&updated)
	return &updated, true, nil
}

// statusesBefore lists the statuses a message may hold and still advance to
// the given one.
func statusesBefore(to models.MessageStatus) []models.MessageStatus {
	switch to {
	case models.MessageStatusDelivered:
		return []models.MessageStatus{models.MessageStatusSent}
	case models.MessageStatusRead:
		return []models.MessageStatus{models.MessageStatusSent, models.MessageStatusDelivered}
	default:
		return nil
	}
}

// MarkConversationRead bulk-advances everything senderID sent to readerID
// that is not yet read. Returns the number of documents changed.
func (s *MessageService) MarkConversationRead(ctx context.Context, senderID, readerID string) (int64, error) {
	filter := bson.M{
		"sender_id":   senderID,
		"receiver_id": readerID,
		"status":      bson.M{"$in": statusesBefore(models.MessageStatusRead)},
		"deleted_at":  bson.M{"$exists": false},
	}
	res, err := s.collection().UpdateMany(ctx, filter, bson.M{"$set": bson.M{"status": models.MessageStatusRead}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// FindPendingForUser returns direct messages addressed to userID that are
// still in the sent state, oldest first.
func (s *MessageService) FindPendingForUser(ctx context.Context, userID string) ([]models.Message, error) {
	filter := bson.M{
		"receiver_id": userID,
		"status":      models.MessageStatusSent,
		"deleted_at":  bson.M{"$exists": false},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	for i := range msgs {
		decryptMessage(&msgs[i])
	}
	return msgs, nil
}

// EditMessage replaces the content of the sender's own message. Returns nil
// without error when the message is not editable by this user.
func (s *MessageService) EditMessage(ctx context.Context, messageID, senderID, content string) (*models.Message, error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	filter := bson.M{
		"_id":        oid,
		"sender_id":  senderID,
		"deleted_at": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{
		"content":   encryptContent(content),
		"is_edited": true,
		"edited_at": now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Message
	err = s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	decryptMessage(&updated)
	if updated.IsDirect() {
		InvalidateRecentCache(updated.SenderID, updated.ReceiverID)
	}
	return &updated, nil
}

// SoftDeleteMessage marks the sender's own message deleted. The document
// stays for audit; history queries filter it out.
func (s *MessageService) SoftDeleteMessage(ctx context.Context, messageID, senderID string) (*models.Message, error) {
	oid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	filter := bson.M{
		"_id":        oid,
		"sender_id":  senderID,
		"deleted_at": bson.M{"$exists": false},
	}
	update := bson.M{"$set": bson.M{"deleted_at": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var deleted models.Message
	err = s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&deleted)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	decryptMessage(&deleted)
	if deleted.IsDirect() {
		InvalidateRecentCache(deleted.SenderID, deleted.ReceiverID)
	}
	return &deleted, nil
}

// LoadDirectMessages returns paginated history between two users,
// oldest-first, soft-deleted messages excluded. Pagination is based on
// created_at + limit (newest-first scrolling).
func (s *MessageService) LoadDirectMessages(ctx context.Context, userA, userB string, before *time.Time, limit int64) ([]models.Message, bool, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": userA, "receiver_id": userB},
			{"sender_id": userB, "receiver_id": userA},
		},
		"deleted_at": bson.M{"$exists": false},
	}
	return s.loadHistory(ctx, filter, before, limit)
}

// LoadGroupMessages returns paginated history for a group, oldest-first.
func (s *MessageService) LoadGroupMessages(ctx context.Context, groupID string, before *time.Time, limit int64) ([]models.Message, bool, error) {
	filter := bson.M{
		"group_id":   groupID,
		"deleted_at": bson.M{"$exists": false},
	}
	return s.loadHistory(ctx, filter, before, limit)
}

func (s *MessageService) loadHistory(ctx context.Context, filter bson.M, before *time.Time, limit int64) ([]models.Message, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if before != nil {
		filter["created_at"] = bson.M{"$lt": before.UTC()}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(msgs)) > limit
	if hasMore {
		msgs = msgs[:len(msgs)-1]
	}

	// Reverse to oldest-first for the UI.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	for i := range msgs {
		decryptMessage(&msgs[i])
	}
	return msgs, hasMore, nil
}

// UnreadCounts returns, per sender, how many direct messages addressed to
// userID are not yet read. Used by the conversation list so clients can
// badge unread chats after a reconnect.
func (s *MessageService) UnreadCounts(ctx context.Context, userID string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"receiver_id": userID,
			"status":      bson.M{"$ne": models.MessageStatusRead},
			"deleted_at":  bson.M{"$exists": false},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$sender_id",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cur, err := s.collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := make(map[string]int64)
	for cur.Next(ctx) {
		var row struct {
			SenderID string `bson:"_id"`
			Count    int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			continue
		}
		counts[row.SenderID] = row.Count
	}
	return counts, cur.Err()
}
