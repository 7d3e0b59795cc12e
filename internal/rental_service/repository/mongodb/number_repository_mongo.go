package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

const numbersCollection = "numbers"

type MongoNumberRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

func NewMongoNumberRepository(db *mongo.Database, logger *slog.Logger) domain.NumberRepository {
	return &MongoNumberRepository{
		coll:   db.Collection(numbersCollection),
		logger: logger.With("component", "number_repository_mongo"),
	}
}

func (r *MongoNumberRepository) Insert(ctx context.Context, num *domain.AllocatedNumber) error {
	_, err := r.coll.InsertOne(ctx, num)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert allocated number", "number", num.Number, "error", err)
		return fmt.Errorf("inserting allocated number %s: %w", num.Number, err)
	}
	return nil
}

func (r *MongoNumberRepository) GetByNumber(ctx context.Context, number string) (*domain.AllocatedNumber, error) {
	var num domain.AllocatedNumber
	err := r.coll.FindOne(ctx, bson.M{"number": number}).Decode(&num)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to fetch allocated number", "number", number, "error", err)
		return nil, fmt.Errorf("fetching allocated number %s: %w", number, err)
	}
	return &num, nil
}

func (r *MongoNumberRepository) Delete(ctx context.Context, number string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"number": number})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete allocated number", "number", number, "error", err)
		return false, fmt.Errorf("deleting allocated number %s: %w", number, err)
	}
	return res.DeletedCount > 0, nil
}

// AllocatedSet loads the full allocation table as a membership set. The table
// is small (one document per rented number), so loading it whole to filter
// candidate offers is fine.
func (r *MongoNumberRepository) AllocatedSet(ctx context.Context) (map[string]struct{}, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query allocated numbers", "error", err)
		return nil, fmt.Errorf("querying allocated numbers: %w", err)
	}
	defer cursor.Close(ctx)

	var nums []*domain.AllocatedNumber
	if err := cursor.All(ctx, &nums); err != nil {
		return nil, fmt.Errorf("decoding allocated numbers: %w", err)
	}

	set := make(map[string]struct{}, len(nums))
	for _, n := range nums {
		set[n.Number] = struct{}{}
	}
	return set, nil
}

func (r *MongoNumberRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.AllocatedNumber, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"user_id": ownerID})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query numbers by owner", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("querying numbers for owner %d: %w", ownerID, err)
	}
	defer cursor.Close(ctx)

	var nums []*domain.AllocatedNumber
	if err := cursor.All(ctx, &nums); err != nil {
		return nil, fmt.Errorf("decoding owner numbers: %w", err)
	}
	return nums, nil
}

func (r *MongoNumberRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting allocated numbers: %w", err)
	}
	return n, nil
}
