package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	accountRepo "smovers/database/repository/account"
	"smovers/models"
)

// Ensure AccountStore implements the interface.
var _ accountRepo.AccountRepository = (*AccountStore)(nil)

// AccountStore is an in-memory implementation of accountRepo.AccountRepository.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[models.Role]map[string]models.Account // role -> id -> account
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: map[models.Role]map[string]models.Account{
			models.RoleBooker: {},
			models.RoleDriver: {},
			models.RoleHelper: {},
		},
	}
}

func (s *AccountStore) Create(_ context.Context, acct *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.accounts[acct.Role]
	for _, existing := range byID {
		if existing.Email == acct.Email {
			return accountRepo.ErrDuplicateEmail
		}
	}
	now := time.Now()
	acct.CreatedAt = now
	acct.UpdatedAt = now
	byID[acct.ID] = *acct
	return nil
}

func (s *AccountStore) GetByID(_ context.Context, role models.Role, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[role][id]
	if !ok {
		return nil, accountRepo.ErrAccountNotFound
	}
	return &acct, nil
}

func (s *AccountStore) GetByEmail(_ context.Context, role models.Role, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if acct, ok := s.byEmail(role, email); ok {
		return &acct, nil
	}
	return nil, accountRepo.ErrAccountNotFound
}

func (s *AccountStore) Update(_ context.Context, acct *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.accounts[acct.Role]
	current, ok := byID[acct.ID]
	if !ok {
		return accountRepo.ErrAccountNotFound
	}
	for id, existing := range byID {
		if id != acct.ID && existing.Email == acct.Email {
			return accountRepo.ErrDuplicateEmail
		}
	}
	acct.UpdatedAt = time.Now()
	updated := *acct
	// Reputation only moves through the rating store.
	updated.Rating = current.Rating
	updated.TotalTrips = current.TotalTrips
	updated.CreatedAt = current.CreatedAt
	byID[acct.ID] = updated
	return nil
}

func (s *AccountStore) Delete(_ context.Context, role models.Role, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[role][id]; !ok {
		return accountRepo.ErrAccountNotFound
	}
	delete(s.accounts[role], id)
	return nil
}

func (s *AccountStore) FindProviders(_ context.Context, role models.Role, filter accountRepo.ProviderFilter) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allowed map[string]bool
	if filter.Emails != nil {
		allowed = make(map[string]bool, len(filter.Emails))
		for _, e := range filter.Emails {
			allowed[e] = true
		}
	}
	location := strings.ToLower(filter.Location)

	out := []models.Account{}
	for _, acct := range s.accounts[role] {
		if allowed != nil && !allowed[acct.Email] {
			continue
		}
		if filter.CarType != "" && acct.CarType != filter.CarType {
			continue
		}
		if location != "" && !strings.Contains(strings.ToLower(acct.Location), location) {
			continue
		}
		out = append(out, acct)
	}
	return out, nil
}

// byEmail must be called with s.mu held.
func (s *AccountStore) byEmail(role models.Role, email string) (models.Account, bool) {
	for _, acct := range s.accounts[role] {
		if acct.Email == email {
			return acct, true
		}
	}
	return models.Account{}, false
}
