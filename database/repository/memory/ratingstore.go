package memory

import (
	"context"
	"time"

	ratingRepo "smovers/database/repository/rating"
	"smovers/models"
)

// Ensure RatingStore implements the interface.
var _ ratingRepo.RatingRepository = (*RatingStore)(nil)

// RatingStore applies ratings against a LedgerStore and an AccountStore while
// holding both locks, ledger first.
type RatingStore struct {
	ledger   *LedgerStore
	accounts *AccountStore
}

// NewRatingStore creates a rating store over the given stores.
func NewRatingStore(ledger *LedgerStore, accounts *AccountStore) *RatingStore {
	return &RatingStore{ledger: ledger, accounts: accounts}
}

func (s *RatingStore) RecordRating(_ context.Context, u models.RatingUpdate) (*models.RatingResult, error) {
	s.ledger.mu.Lock()
	defer s.ledger.mu.Unlock()
	s.accounts.mu.Lock()
	defer s.accounts.mu.Unlock()

	b, ok := s.ledger.lookup(u.BookerEmail, u.BookingID)
	if !ok || b.Status != models.StatusAccepted {
		return nil, ratingRepo.ErrAlreadyRated
	}
	flag := &b.BookerRated
	if u.RaterRole == models.RoleBooker {
		flag = &b.Rated
	}
	if *flag {
		return nil, ratingRepo.ErrAlreadyRated
	}

	acct, ok := s.accounts.byEmail(u.RatedRole, u.RatedEmail)
	if !ok {
		return nil, ratingRepo.ErrRatedAccountNotFound
	}

	// Both writes happen under the locks, after every check has passed.
	avg, count := models.ApplyRating(acct.Rating, acct.TotalTrips, u.Rating)
	now := time.Now()
	acct.Rating = avg
	acct.TotalTrips = count
	acct.UpdatedAt = now
	s.accounts.accounts[u.RatedRole][acct.ID] = acct

	*flag = true
	b.UpdatedAt = now

	return &models.RatingResult{RatedEmail: u.RatedEmail, Rating: avg, TotalTrips: count}, nil
}
