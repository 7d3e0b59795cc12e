package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

const subscribersCollection = "subscribers"

type MongoSubscriberRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

func NewMongoSubscriberRepository(db *mongo.Database, logger *slog.Logger) domain.SubscriberRepository {
	return &MongoSubscriberRepository{
		coll:   db.Collection(subscribersCollection),
		logger: logger.With("component", "subscriber_repository_mongo"),
	}
}

func (r *MongoSubscriberRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	err := r.coll.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to fetch subscriber", "telegram_id", telegramID, "error", err)
		return nil, fmt.Errorf("fetching subscriber %d: %w", telegramID, err)
	}
	return &sub, nil
}

// Upsert overwrites the full subscriber document, creating it when absent.
// Last-writer-wins; no partial patches.
func (r *MongoSubscriberRepository) Upsert(ctx context.Context, sub *domain.Subscriber) error {
	sub.UpdatedAt = time.Now().UTC()
	_, err := r.coll.UpdateOne(
		ctx,
		bson.M{"telegram_id": sub.TelegramID},
		bson.M{"$set": sub},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert subscriber", "telegram_id", sub.TelegramID, "error", err)
		return fmt.Errorf("upserting subscriber %d: %w", sub.TelegramID, err)
	}
	return nil
}

func (r *MongoSubscriberRepository) Delete(ctx context.Context, telegramID int64) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"telegram_id": telegramID})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete subscriber", "telegram_id", telegramID, "error", err)
		return false, fmt.Errorf("deleting subscriber %d: %w", telegramID, err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoSubscriberRepository) FindLapsed(ctx context.Context, now time.Time) ([]*domain.Subscriber, error) {
	filter := bson.M{
		"is_active":        true,
		"subscription_end": bson.M{"$lt": now},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query lapsed subscribers", "error", err)
		return nil, fmt.Errorf("querying lapsed subscribers: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []*domain.Subscriber
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("decoding lapsed subscribers: %w", err)
	}
	return subs, nil
}

func (r *MongoSubscriberRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting subscribers: %w", err)
	}
	return n, nil
}

func (r *MongoSubscriberRepository) CountActive(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"is_active": true})
	if err != nil {
		return 0, fmt.Errorf("counting active subscribers: %w", err)
	}
	return n, nil
}
