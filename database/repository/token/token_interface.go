package tokenRepo

import (
	"context"
	"errors"

	"smovers/models"
)

// ErrTokenAlreadyUsed is returned by MarkUsed when the token id is already in the set.
var ErrTokenAlreadyUsed = errors.New("proposal token already used")

// UsedTokenRepository is the set of consumed proposal tokens.
// MarkUsed is an atomic check-and-insert.
type UsedTokenRepository interface {
	MarkUsed(ctx context.Context, token models.UsedToken) error
	IsUsed(ctx context.Context, tokenID string) (bool, error)
	Release(ctx context.Context, tokenID string) error
}
