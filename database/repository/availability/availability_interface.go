package availabilityRepo

import (
	"context"
	"errors"
	"time"

	"smovers/models"
)

var ErrAvailabilityNotFound = errors.New("availability not found")

// AvailabilityRepository keeps at most one weekly schedule per provider email.
type AvailabilityRepository interface {
	Upsert(ctx context.Context, av *models.Availability) error
	GetByEmail(ctx context.Context, email string) (*models.Availability, error)
	// FindUpdatedBetween returns the schedules of role whose dateUpdated falls in [from, to).
	FindUpdatedBetween(ctx context.Context, role models.Role, from, to time.Time) ([]models.Availability, error)
	DeleteByEmail(ctx context.Context, email string) error
}
