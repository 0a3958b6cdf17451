package tokenRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smovers/database"
	"smovers/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoUsedTokenRepo relies on a unique index on tokenId for atomicity and
// a TTL index so entries vanish once the token could no longer verify anyway.
type MongoUsedTokenRepo struct {
	coll *mongo.Collection
}

func NewMongoUsedTokenRepo(db *mongo.Database, logger *zap.Logger) *MongoUsedTokenRepo {
	repo := &MongoUsedTokenRepo{coll: db.Collection(database.UsedTokensCollection)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tokenId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	if err != nil {
		logger.Warn("usedTokens: failed to create indexes", zap.Error(err))
	}
	return repo
}

var _ UsedTokenRepository = (*MongoUsedTokenRepo)(nil)

func (r *MongoUsedTokenRepo) MarkUsed(ctx context.Context, token models.UsedToken) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, token); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrTokenAlreadyUsed
		}
		return fmt.Errorf("failed to record token %s: %w", token.TokenID, err)
	}
	return nil
}

func (r *MongoUsedTokenRepo) IsUsed(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.coll.FindOne(ctx, bson.M{"tokenId": tokenID}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up token %s: %w", tokenID, err)
	}
	return true, nil
}

func (r *MongoUsedTokenRepo) Release(ctx context.Context, tokenID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"tokenId": tokenID}); err != nil {
		return fmt.Errorf("failed to release token %s: %w", tokenID, err)
	}
	return nil
}
