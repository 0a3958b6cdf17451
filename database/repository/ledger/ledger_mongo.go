package ledgerRepo

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

// MongoLedgerRepo implements LedgerRepository using MongoDB.
type MongoLedgerRepo struct {
	coll *mongo.Collection
}

// NewMongoLedgerRepo creates a ledger repository on the given database.
func NewMongoLedgerRepo(db *mongo.Database, logger *zap.Logger) *MongoLedgerRepo {
	repo := &MongoLedgerRepo{coll: db.Collection(database.BookingsCollection)}
	if err := repo.ensureIndexes(); err != nil {
		logger.Warn("ledger: failed to create indexes", zap.Error(err))
	}
	return repo
}

var _ LedgerRepository = (*MongoLedgerRepo)(nil)

// newContext bounds a repository call by both the caller's context and a timeout.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

func (r *MongoLedgerRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bookerEmail", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "bookings.id", Value: 1}}},
		{Keys: bson.D{{Key: "bookings.driverEmail", Value: 1}}},
		{Keys: bson.D{{Key: "bookings.helperEmail", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// AppendBooking pushes a booking onto the booker's ledger, creating it on first use.
func (r *MongoLedgerRepo) AppendBooking(ctx context.Context, bookerEmail string, booking models.Booking) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"bookings": booking},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, bson.M{"bookerEmail": bookerEmail}, update, opts); err != nil {
		return fmt.Errorf("failed to append booking %s for %s: %w", booking.ID, bookerEmail, err)
	}
	return nil
}

// GetByBooker returns the booker's ledger, or an empty one if none exists yet.
func (r *MongoLedgerRepo) GetByBooker(ctx context.Context, bookerEmail string) (*models.Bookings, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	var ledger models.Bookings
	err := r.coll.FindOne(ctx, bson.M{"bookerEmail": bookerEmail}).Decode(&ledger)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.Bookings{BookerEmail: bookerEmail, Bookings: []models.Booking{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger for %s: %w", bookerEmail, err)
	}
	return &ledger, nil
}

// FindBooking locates a booking by id across all ledgers.
func (r *MongoLedgerRepo) FindBooking(ctx context.Context, bookingID string) (*models.LedgerEntry, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOne().SetProjection(singleBookingProjection(bookingID))

	var ledger models.Bookings
	err := r.coll.FindOne(ctx, bson.M{"bookings.id": bookingID}, opts).Decode(&ledger)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking %s: %w", bookingID, err)
	}
	if len(ledger.Bookings) == 0 {
		return nil, ErrBookingNotFound
	}
	return &models.LedgerEntry{BookerEmail: ledger.BookerEmail, Booking: ledger.Bookings[0]}, nil
}

// TransitionStatus moves a booking from one status to another only if it is
// still in from. It returns ErrPreconditionFailed otherwise.
func (r *MongoLedgerRepo) TransitionStatus(ctx context.Context, bookerEmail, bookingID string, from, to models.BookingStatus) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"bookings.$.status":    to,
		"bookings.$.updatedAt": now,
		"updatedAt":            now,
	}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(singleBookingProjection(bookingID))

	var ledger models.Bookings
	err := r.coll.FindOneAndUpdate(ctx, statusFilter(bookerEmail, bookingID, from), update, opts).Decode(&ledger)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPreconditionFailed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition booking %s to %s: %w", bookingID, to, err)
	}
	if len(ledger.Bookings) == 0 {
		return nil, ErrPreconditionFailed
	}
	return &ledger.Bookings[0], nil
}

// RemoveIfStatus pulls a booking out of the ledger only if it is in status,
// returning the removed booking.
func (r *MongoLedgerRepo) RemoveIfStatus(ctx context.Context, bookerEmail, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$pull": bson.M{"bookings": bson.M{"id": bookingID, "status": status}},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(singleBookingProjection(bookingID))

	var ledger models.Bookings
	err := r.coll.FindOneAndUpdate(ctx, statusFilter(bookerEmail, bookingID, status), update, opts).Decode(&ledger)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPreconditionFailed
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove booking %s: %w", bookingID, err)
	}
	if len(ledger.Bookings) == 0 {
		return nil, ErrPreconditionFailed
	}
	return &ledger.Bookings[0], nil
}

// ListByCounterpart returns every booking made with the given driver or helper.
func (r *MongoLedgerRepo) ListByCounterpart(ctx context.Context, kind models.Role, email string) ([]models.LedgerEntry, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	field := "bookings." + CounterpartField(kind)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{field: email}}},
		{{Key: "$unwind", Value: "$bookings"}},
		{{Key: "$match", Value: bson.M{field: email}}},
		{{Key: "$sort", Value: bson.D{{Key: "bookings.date", Value: 1}}}},
		{{Key: "$project", Value: bson.M{"_id": 0, "bookerEmail": 1, "booking": "$bookings"}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for %s: %w", email, err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		BookerEmail string         `bson:"bookerEmail"`
		Booking     models.Booking `bson:"booking"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode bookings for %s: %w", email, err)
	}

	entries := make([]models.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.LedgerEntry{BookerEmail: row.BookerEmail, Booking: row.Booking})
	}
	return entries, nil
}

func statusFilter(bookerEmail, bookingID string, status models.BookingStatus) bson.M {
	return bson.M{
		"bookerEmail": bookerEmail,
		"bookings": bson.M{
			"$elemMatch": bson.M{"id": bookingID, "status": status},
		},
	}
}

func singleBookingProjection(bookingID string) bson.M {
	return bson.M{
		"bookerEmail": 1,
		"bookings":    bson.M{"$elemMatch": bson.M{"id": bookingID}},
	}
}
