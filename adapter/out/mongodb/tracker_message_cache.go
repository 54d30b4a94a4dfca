package mongodb

import (
	"context"
	"fmt"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/port/out"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionRawMessages = "raw_messages"

// MessageCacheAdapter implements out.MessageCache using MongoDB. Raw
// messages expire via a TTL index so a re-sync within the window skips
// the provider round trip.
type MessageCacheAdapter struct {
	collection *mongo.Collection
	ttl        time.Duration
}

// NewMessageCacheAdapter creates a new MongoDB raw message cache.
func NewMessageCacheAdapter(db *mongo.Database, ttlDays int) *MessageCacheAdapter {
	if ttlDays <= 0 {
		ttlDays = 30
	}
	return &MessageCacheAdapter{
		collection: db.Collection(collectionRawMessages),
		ttl:        time.Duration(ttlDays) * 24 * time.Hour,
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *MessageCacheAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "message_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// rawMessageDocument represents the MongoDB document structure.
type rawMessageDocument struct {
	UserID    string    `bson:"user_id"`
	MessageID string    `bson:"message_id"`
	From      string    `bson:"from"`
	Subject   string    `bson:"subject"`
	Snippet   string    `bson:"snippet"`
	Body      string    `bson:"body"`
	Date      string    `bson:"date"`
	CachedAt  time.Time `bson:"cached_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func (a *MessageCacheAdapter) Get(ctx context.Context, userID, messageID string) (*domain.RawMessage, error) {
	var doc rawMessageDocument
	filter := bson.M{"user_id": userID, "message_id": messageID}

	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get raw message: %w", err)
	}

	return &domain.RawMessage{
		ID:      doc.MessageID,
		From:    doc.From,
		Subject: doc.Subject,
		Snippet: doc.Snippet,
		Body:    doc.Body,
		Date:    doc.Date,
	}, nil
}

func (a *MessageCacheAdapter) Put(ctx context.Context, userID string, msg *domain.RawMessage) error {
	if msg == nil || msg.ID == "" {
		return nil
	}

	now := time.Now()
	doc := rawMessageDocument{
		UserID:    userID,
		MessageID: msg.ID,
		From:      msg.From,
		Subject:   msg.Subject,
		Snippet:   msg.Snippet,
		Body:      msg.Body,
		Date:      msg.Date,
		CachedAt:  now,
		ExpiresAt: now.Add(a.ttl),
	}

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"user_id": userID, "message_id": msg.ID}

	if _, err := a.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return fmt.Errorf("failed to save raw message: %w", err)
	}
	return nil
}

var _ out.MessageCache = (*MessageCacheAdapter)(nil)
