package accountRepo

import (
	"context"
	"errors"

	"smovers/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("an account with this email already exists")
)

// ProviderFilter narrows a provider lookup. Empty fields match everything.
type ProviderFilter struct {
	Emails   []string // restrict to these emails; nil means no restriction
	CarType  string   // exact match
	Location string   // case-insensitive substring
}

// AccountRepository persists bookers, drivers and helpers, one collection per role.
type AccountRepository interface {
	Create(ctx context.Context, acct *models.Account) error
	GetByID(ctx context.Context, role models.Role, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error)
	Update(ctx context.Context, acct *models.Account) error
	Delete(ctx context.Context, role models.Role, id string) error
	FindProviders(ctx context.Context, role models.Role, filter ProviderFilter) ([]models.Account, error)
}
