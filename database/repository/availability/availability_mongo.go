package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smovers/database"
	"smovers/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type mongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo returns an AvailabilityRepository backed by MongoDB.
func NewMongoAvailabilityRepo(db *mongo.Database, logger *zap.Logger) AvailabilityRepository {
	repo := &mongoAvailabilityRepo{coll: db.Collection(database.AvailabilityCollection)}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "dateUpdated", Value: 1}}},
	})
	if err != nil {
		logger.Warn("availability: failed to create indexes", zap.Error(err))
	}
	return repo
}

// Upsert replaces the provider's schedule, keeping its id stable across weeks.
func (r *mongoAvailabilityRepo) Upsert(ctx context.Context, av *models.Availability) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"role":         av.Role,
			"dateUpdated":  av.DateUpdated,
			"availability": av.Availability,
		},
		"$setOnInsert": bson.M{"id": uuid.New().String()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Availability
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"email": av.Email}, update, opts).Decode(&saved); err != nil {
		return fmt.Errorf("failed to save availability for %s: %w", av.Email, err)
	}
	*av = saved
	return nil
}

func (r *mongoAvailabilityRepo) GetByEmail(ctx context.Context, email string) (*models.Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var av models.Availability
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&av)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAvailabilityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability for %s: %w", email, err)
	}
	return &av, nil
}

func (r *mongoAvailabilityRepo) FindUpdatedBetween(ctx context.Context, role models.Role, from, to time.Time) ([]models.Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"role":        role,
		"dateUpdated": bson.M{"$gte": from, "$lt": to},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query availabilities: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Availability
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode availabilities: %w", err)
	}
	return out, nil
}

func (r *mongoAvailabilityRepo) DeleteByEmail(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.DeleteOne(ctx, bson.M{"email": email}); err != nil {
		return fmt.Errorf("failed to delete availability for %s: %w", email, err)
	}
	return nil
}
