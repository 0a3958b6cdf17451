package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	ledgerRepo "smovers/database/repository/ledger"
	"smovers/models"
)

// Ensure LedgerStore implements the interface.
var _ ledgerRepo.LedgerRepository = (*LedgerStore)(nil)

// LedgerStore is an in-memory implementation of ledgerRepo.LedgerRepository.
// A single mutex serialises every conditional transition.
type LedgerStore struct {
	mu      sync.RWMutex
	ledgers map[string]*models.Bookings
	order   []string
}

// NewLedgerStore creates a new in-memory ledger store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		ledgers: make(map[string]*models.Bookings),
	}
}

func (s *LedgerStore) AppendBooking(_ context.Context, bookerEmail string, booking models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, ok := s.ledgers[bookerEmail]
	if !ok {
		ledger = &models.Bookings{BookerEmail: bookerEmail}
		s.ledgers[bookerEmail] = ledger
		s.order = append(s.order, bookerEmail)
	}
	ledger.Bookings = append(ledger.Bookings, booking)
	ledger.UpdatedAt = time.Now()
	return nil
}

func (s *LedgerStore) GetByBooker(_ context.Context, bookerEmail string) (*models.Bookings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, ok := s.ledgers[bookerEmail]
	if !ok {
		return &models.Bookings{BookerEmail: bookerEmail, Bookings: []models.Booking{}}, nil
	}
	return cloneLedger(ledger), nil
}

func (s *LedgerStore) FindBooking(_ context.Context, bookingID string) (*models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, email := range s.order {
		if b, ok := s.ledgers[email].Find(bookingID); ok {
			return &models.LedgerEntry{BookerEmail: email, Booking: *b}, nil
		}
	}
	return nil, ledgerRepo.ErrBookingNotFound
}

func (s *LedgerStore) TransitionStatus(_ context.Context, bookerEmail, bookingID string, from, to models.BookingStatus) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.lookup(bookerEmail, bookingID)
	if !ok || b.Status != from {
		return nil, ledgerRepo.ErrPreconditionFailed
	}
	now := time.Now()
	b.Status = to
	b.UpdatedAt = now
	s.ledgers[bookerEmail].UpdatedAt = now
	out := *b
	return &out, nil
}

func (s *LedgerStore) RemoveIfStatus(_ context.Context, bookerEmail, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, ok := s.ledgers[bookerEmail]
	if !ok {
		return nil, ledgerRepo.ErrPreconditionFailed
	}
	for i, b := range ledger.Bookings {
		if b.ID != bookingID {
			continue
		}
		if b.Status != status {
			return nil, ledgerRepo.ErrPreconditionFailed
		}
		ledger.Bookings = append(ledger.Bookings[:i:i], ledger.Bookings[i+1:]...)
		ledger.UpdatedAt = time.Now()
		return &b, nil
	}
	return nil, ledgerRepo.ErrPreconditionFailed
}

func (s *LedgerStore) ListByCounterpart(_ context.Context, kind models.Role, email string) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []models.LedgerEntry{}
	for _, bookerEmail := range s.order {
		for _, b := range s.ledgers[bookerEmail].Bookings {
			if b.Kind() == kind && b.CounterpartEmail() == email {
				entries = append(entries, models.LedgerEntry{BookerEmail: bookerEmail, Booking: b})
			}
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Booking.Date.Before(entries[j].Booking.Date)
	})
	return entries, nil
}

// lookup must be called with s.mu held.
func (s *LedgerStore) lookup(bookerEmail, bookingID string) (*models.Booking, bool) {
	ledger, ok := s.ledgers[bookerEmail]
	if !ok {
		return nil, false
	}
	return ledger.Find(bookingID)
}

func cloneLedger(l *models.Bookings) *models.Bookings {
	out := *l
	out.Bookings = make([]models.Booking, len(l.Bookings))
	copy(out.Bookings, l.Bookings)
	return &out
}
