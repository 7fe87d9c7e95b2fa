package repository

import (
	"context"
	"fmt"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MessageCollection mongo collection holding chat messages
const MessageCollection = "chat_messages"

type mongoMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository on db.chat_messages
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &mongoMessageRepository{
		coll: db.Collection(MessageCollection),
	}
}

// EnsureMessageIndexes create the history and participant indexes
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(MessageCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pair_key", Value: 1}, {Key: "timestamp", Value: 1}, {Key: "stored_at", Value: 1}}},
		{Keys: bson.D{{Key: "sender_id", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", MessageCollection, err)
	}
	return nil
}

var historySort = options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "stored_at", Value: 1}})

func (r *mongoMessageRepository) Append(ctx context.Context, m *domain.Message) error {
	if err := prepare(m); err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logger.Log.Warn("duplicate message id", zap.String("id", m.ID))
			return fmt.Errorf("%w: duplicate message id %s", domain.ErrValidation, m.ID)
		}
		return storageFailure("insert message", err)
	}
	return nil
}

func (r *mongoMessageRepository) History(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	filter := bson.M{"pair_key": domain.NewPairKey(userA, userB)}
	return r.find(ctx, filter)
}

func (r *mongoMessageRepository) ScanParticipant(ctx context.Context, userID string) ([]domain.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userID},
		bson.M{"receiver_id": userID},
	}}
	return r.find(ctx, filter)
}

func (r *mongoMessageRepository) find(ctx context.Context, filter bson.M) ([]domain.Message, error) {
	cur, err := r.coll.Find(ctx, filter, historySort)
	if err != nil {
		return nil, storageFailure("find messages", err)
	}

	msgs := []domain.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, storageFailure("decode messages", err)
	}
	return msgs, nil
}
