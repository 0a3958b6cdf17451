package ratingRepo

import (
	"context"
	"errors"

	"smovers/models"
)

var (
	// ErrAlreadyRated is returned when the rater's flag is already set on the booking.
	ErrAlreadyRated = errors.New("booking already rated by this party")
	// ErrRatedAccountNotFound is returned when the rated party no longer exists.
	ErrRatedAccountNotFound = errors.New("rated account not found")
)

// RatingRepository sets a party's rated flag on a booking and folds the
// rating into the other party's profile as one unit.
type RatingRepository interface {
	RecordRating(ctx context.Context, update models.RatingUpdate) (*models.RatingResult, error)
}

// FlagField returns the booking field that records whether rater has rated.
func FlagField(rater models.Role) string {
	if rater == models.RoleBooker {
		return "rated"
	}
	return "bookerRated"
}
