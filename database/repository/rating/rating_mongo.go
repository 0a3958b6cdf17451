package ratingRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smovers/database"
	"smovers/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRatingRepo writes the ledger flag and the account reputation in one
// multi-document transaction. It needs a replica set or sharded cluster.
type MongoRatingRepo struct {
	client   *mongo.Client
	bookings *mongo.Collection
	db       *mongo.Database
}

func NewMongoRatingRepo(db *mongo.Database) *MongoRatingRepo {
	return &MongoRatingRepo{
		client:   db.Client(),
		bookings: db.Collection(database.BookingsCollection),
		db:       db,
	}
}

var _ RatingRepository = (*MongoRatingRepo)(nil)

func (r *MongoRatingRepo) RecordRating(ctx context.Context, u models.RatingUpdate) (*models.RatingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sess, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	var result *models.RatingResult
	txnFn := func(sc mongo.SessionContext) error {
		flag := FlagField(u.RaterRole)
		filter := bson.M{
			"bookerEmail": u.BookerEmail,
			"bookings": bson.M{"$elemMatch": bson.M{
				"id":     u.BookingID,
				"status": models.StatusAccepted,
				flag:     bson.M{"$ne": true},
			}},
		}
		update := bson.M{"$set": bson.M{
			"bookings.$." + flag:   true,
			"bookings.$.updatedAt": time.Now(),
		}}
		res, err := r.bookings.UpdateOne(sc, filter, update)
		if err != nil {
			return fmt.Errorf("set %s flag failed: %w", flag, err)
		}
		if res.MatchedCount == 0 {
			return ErrAlreadyRated
		}

		accounts := r.db.Collection(database.AccountCollection(u.RatedRole))
		var acct models.Account
		err = accounts.FindOne(sc, bson.M{"email": u.RatedEmail}).Decode(&acct)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrRatedAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("load rated account failed: %w", err)
		}

		avg, count := models.ApplyRating(acct.Rating, acct.TotalTrips, u.Rating)
		_, err = accounts.UpdateOne(sc,
			bson.M{"email": u.RatedEmail},
			bson.M{"$set": bson.M{"rating": avg, "totalTrips": count, "updatedAt": time.Now()}},
		)
		if err != nil {
			return fmt.Errorf("update reputation failed: %w", err)
		}

		result = &models.RatingResult{RatedEmail: u.RatedEmail, Rating: avg, TotalTrips: count}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		return sc.CommitTransaction(sc)
	}); err != nil {
		if errors.Is(err, ErrAlreadyRated) || errors.Is(err, ErrRatedAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("rating transaction failed: %w", err)
	}

	return result, nil
}
