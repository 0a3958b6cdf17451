package proposal

import (
	"context"
	"errors"
	"fmt"
	"time"

	tokenRepo "smovers/database/repository/token"
	"smovers/models"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers bad signatures, wrong algorithms, malformed
	// payloads and expired tokens.
	ErrInvalidToken = errors.New("invalid proposal token")
	// ErrAlreadyUsed is returned when a token has been consumed before.
	ErrAlreadyUsed = errors.New("proposal token already used")
)

// Claims is the signed payload of a proposal token.
type Claims struct {
	BookerEmail   string      `json:"bookerEmail"`
	BookingID     string      `json:"bookingId"`
	ProviderEmail string      `json:"providerEmail"`
	Kind          models.Role `json:"kind"`
	jwt.StandardClaims
}

// Ref returns the booking reference the token grants authority over.
func (c *Claims) Ref() models.ProposalRef {
	return models.ProposalRef{
		BookerEmail:   c.BookerEmail,
		BookingID:     c.BookingID,
		ProviderEmail: c.ProviderEmail,
		Kind:          c.Kind,
	}
}

// TokenService mints and redeems single-use proposal tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	used   tokenRepo.UsedTokenRepository
	now    func() time.Time
}

// NewTokenService creates a token service. now may be nil.
func NewTokenService(secret string, ttl time.Duration, used tokenRepo.UsedTokenRepository, now func() time.Time) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("proposal token secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("proposal token ttl must be positive, got %s", ttl)
	}
	if used == nil {
		return nil, errors.New("used token repository is required")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, used: used, now: now}, nil
}

// TTL is how long an issued token stays verifiable.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a fresh token for ref with a random id.
func (s *TokenService) Issue(ref models.ProposalRef) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		BookerEmail:   ref.BookerEmail,
		BookingID:     ref.BookingID,
		ProviderEmail: ref.ProviderEmail,
		Kind:          ref.Kind,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
			Subject:   ref.BookingID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign proposal token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks the signature and expiry of a token and returns its claims.
func (s *TokenService) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parser := &jwt.Parser{SkipClaimsValidation: true}
	token, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	// Expiry is checked against the injected clock.
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return nil, ErrInvalidToken
	}
	if claims.Id == "" || claims.BookerEmail == "" || claims.BookingID == "" || !claims.Kind.IsProvider() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Consume atomically adds the token to the used set. Exactly one caller per
// token id gets a nil error.
func (s *TokenService) Consume(ctx context.Context, claims *Claims) error {
	err := s.used.MarkUsed(ctx, models.UsedToken{
		TokenID:   claims.Id,
		BookingID: claims.BookingID,
		UsedAt:    s.now(),
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	})
	if errors.Is(err, tokenRepo.ErrTokenAlreadyUsed) {
		return ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("failed to consume proposal token: %w", err)
	}
	return nil
}

// Release undoes Consume. It is only used when the resolution it guarded
// failed for infrastructure reasons and left the booking untouched.
func (s *TokenService) Release(ctx context.Context, claims *Claims) error {
	return s.used.Release(ctx, claims.Id)
}

// IsUsed reports whether the token has been consumed.
func (s *TokenService) IsUsed(ctx context.Context, claims *Claims) (bool, error) {
	return s.used.IsUsed(ctx, claims.Id)
}
