package mongodb

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/domain"
)

const credentialsCollection = "credentials"

type MongoCredentialRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

func NewMongoCredentialRepository(db *mongo.Database, logger *slog.Logger) domain.CredentialRepository {
	return &MongoCredentialRepository{
		coll:   db.Collection(credentialsCollection),
		logger: logger.With("component", "credential_repository_mongo"),
	}
}

func (r *MongoCredentialRepository) Insert(ctx context.Context, cred *domain.Credential) error {
	_, err := r.coll.InsertOne(ctx, cred)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert credential", "owner_id", cred.OwnerID, "error", err)
		return fmt.Errorf("inserting credential: %w", err)
	}
	return nil
}

// ListValid returns valid credentials ordered by insertion time. Rotation
// cursors index into this sequence, so the order must be stable across calls.
func (r *MongoCredentialRepository) ListValid(ctx context.Context) ([]*domain.Credential, error) {
	opts := options.Find().SetSort(bson.D{{Key: "added_on", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"is_valid": true}, opts)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query valid credentials", "error", err)
		return nil, fmt.Errorf("querying valid credentials: %w", err)
	}
	defer cursor.Close(ctx)

	var creds []*domain.Credential
	if err := cursor.All(ctx, &creds); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}
	return creds, nil
}

func (r *MongoCredentialRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting credentials: %w", err)
	}
	return n, nil
}
