package memory

import (
	"context"
	"sync"

	tokenRepo "smovers/database/repository/token"
	"smovers/models"
)

// Ensure UsedTokenStore implements the interface.
var _ tokenRepo.UsedTokenRepository = (*UsedTokenStore)(nil)

// UsedTokenStore is an in-memory used-token set.
type UsedTokenStore struct {
	mu     sync.Mutex
	tokens map[string]models.UsedToken
}

// NewUsedTokenStore creates a new in-memory used-token set.
func NewUsedTokenStore() *UsedTokenStore {
	return &UsedTokenStore{
		tokens: make(map[string]models.UsedToken),
	}
}

func (s *UsedTokenStore) MarkUsed(_ context.Context, token models.UsedToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token.TokenID]; ok {
		return tokenRepo.ErrTokenAlreadyUsed
	}
	s.tokens[token.TokenID] = token
	return nil
}

func (s *UsedTokenStore) IsUsed(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[tokenID]
	return ok, nil
}

func (s *UsedTokenStore) Release(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenID)
	return nil
}
