package memory

import (
	"context"
	"sync"
	"time"

	availabilityRepo "smovers/database/repository/availability"
	"smovers/models"

	"github.com/google/uuid"
)

// Ensure AvailabilityStore implements the interface.
var _ availabilityRepo.AvailabilityRepository = (*AvailabilityStore)(nil)

// AvailabilityStore is an in-memory implementation of availabilityRepo.AvailabilityRepository.
type AvailabilityStore struct {
	mu      sync.RWMutex
	byEmail map[string]models.Availability
}

// NewAvailabilityStore creates a new in-memory availability store.
func NewAvailabilityStore() *AvailabilityStore {
	return &AvailabilityStore{
		byEmail: make(map[string]models.Availability),
	}
}

func (s *AvailabilityStore) Upsert(_ context.Context, av *models.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byEmail[av.Email]; ok {
		av.ID = existing.ID
	} else {
		av.ID = uuid.New().String()
	}
	stored := *av
	stored.Availability = append([]models.DayAvailability(nil), av.Availability...)
	s.byEmail[av.Email] = stored
	return nil
}

func (s *AvailabilityStore) GetByEmail(_ context.Context, email string) (*models.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	av, ok := s.byEmail[email]
	if !ok {
		return nil, availabilityRepo.ErrAvailabilityNotFound
	}
	return &av, nil
}

func (s *AvailabilityStore) FindUpdatedBetween(_ context.Context, role models.Role, from, to time.Time) ([]models.Availability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Availability{}
	for _, av := range s.byEmail {
		if av.Role != role {
			continue
		}
		if av.DateUpdated.Before(from) || !av.DateUpdated.Before(to) {
			continue
		}
		out = append(out, av)
	}
	return out, nil
}

func (s *AvailabilityStore) DeleteByEmail(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byEmail, email)
	return nil
}
