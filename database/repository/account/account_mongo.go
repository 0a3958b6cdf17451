package accountRepo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"smovers/database"
	"smovers/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoAccountRepo implements AccountRepository using MongoDB.
type MongoAccountRepo struct {
	colls map[models.Role]*mongo.Collection
}

// NewMongoAccountRepo creates the account repository and its indexes.
func NewMongoAccountRepo(db *mongo.Database, logger *zap.Logger) *MongoAccountRepo {
	repo := &MongoAccountRepo{colls: map[models.Role]*mongo.Collection{}}
	for _, role := range []models.Role{models.RoleBooker, models.RoleDriver, models.RoleHelper} {
		repo.colls[role] = db.Collection(database.AccountCollection(role))
	}
	if err := repo.ensureIndexes(); err != nil {
		logger.Warn("account: failed to create indexes", zap.Error(err))
	}
	return repo
}

var _ AccountRepository = (*MongoAccountRepo)(nil)

func (r *MongoAccountRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	for role, coll := range r.colls {
		if _, err := coll.Indexes().CreateMany(ctx, indexModels); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", role, err)
		}
	}
	return nil
}

func (r *MongoAccountRepo) coll(role models.Role) (*mongo.Collection, error) {
	coll, ok := r.colls[role]
	if !ok {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	return coll, nil
}

// Create inserts a new account document.
func (r *MongoAccountRepo) Create(ctx context.Context, acct *models.Account) error {
	coll, err := r.coll(acct.Role)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	if _, err := coll.InsertOne(ctx, acct); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create %s: %w", acct.Role, err)
	}
	return nil
}

func (r *MongoAccountRepo) findOne(ctx context.Context, role models.Role, filter bson.M) (*models.Account, error) {
	coll, err := r.coll(role)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var acct models.Account
	err = coll.FindOne(ctx, filter).Decode(&acct)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", role, err)
	}
	return &acct, nil
}

// GetByID retrieves an account by its unique ID.
func (r *MongoAccountRepo) GetByID(ctx context.Context, role models.Role, id string) (*models.Account, error) {
	return r.findOne(ctx, role, bson.M{"id": id})
}

// GetByEmail retrieves an account by its email address.
func (r *MongoAccountRepo) GetByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	return r.findOne(ctx, role, bson.M{"email": email})
}

// profileFields lists what an account update may write. Rating and
// totalTrips belong to the rating transaction and are never set here.
func profileFields(acct *models.Account) bson.M {
	return bson.M{
		"name":              acct.Name,
		"email":             acct.Email,
		"phone":             acct.Phone,
		"passwordHash":      acct.PasswordHash,
		"rate":              acct.Rate,
		"carType":           acct.CarType,
		"location":          acct.Location,
		"licenseClass":      acct.LicenseClass,
		"licenseIssuedDate": acct.LicenseIssuedDate,
		"drivingExperience": acct.DrivingExperience,
		"updatedAt":         acct.UpdatedAt,
	}
}

// Update replaces the mutable fields of an existing account.
func (r *MongoAccountRepo) Update(ctx context.Context, acct *models.Account) error {
	coll, err := r.coll(acct.Role)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	acct.UpdatedAt = time.Now()
	result, err := coll.UpdateOne(ctx, bson.M{"id": acct.ID}, bson.M{"$set": profileFields(acct)})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update %s with id %s: %w", acct.Role, acct.ID, err)
	}
	if result.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Delete removes an account document by its ID.
func (r *MongoAccountRepo) Delete(ctx context.Context, role models.Role, id string) error {
	coll, err := r.coll(role)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete %s with id %s: %w", role, id, err)
	}
	if result.DeletedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// FindProviders returns drivers or helpers matching the filter.
func (r *MongoAccountRepo) FindProviders(ctx context.Context, role models.Role, filter ProviderFilter) ([]models.Account, error) {
	if !role.IsProvider() {
		return nil, fmt.Errorf("role %q is not a provider", role)
	}
	coll, err := r.coll(role)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.Emails != nil {
		query["email"] = bson.M{"$in": filter.Emails}
	}
	if filter.CarType != "" {
		query["carType"] = filter.CarType
	}
	if filter.Location != "" {
		query["location"] = bson.M{"$regex": regexp.QuoteMeta(filter.Location), "$options": "i"}
	}

	opts := options.Find().SetProjection(bson.M{"passwordHash": 0})
	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search %ss: %w", role, err)
	}
	defer cursor.Close(ctx)

	var accounts []models.Account
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode %ss: %w", role, err)
	}
	return accounts, nil
}
