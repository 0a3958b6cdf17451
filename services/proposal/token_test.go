package proposal

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smovers/database/repository/memory"
	"smovers/models"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var ref = models.ProposalRef{
	BookerEmail:   "booker@x.io",
	BookingID:     "booking-1",
	ProviderEmail: "driver@x.io",
	Kind:          models.RoleDriver,
}

func newService(t *testing.T) (*TokenService, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc, err := NewTokenService("test-secret", 2*time.Hour, memory.NewUsedTokenStore(), c.Now)
	require.NoError(t, err)
	return svc, c
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour, memory.NewUsedTokenStore(), nil)
	assert.Error(t, err)

	_, err = NewTokenService("s", 0, memory.NewUsedTokenStore(), nil)
	assert.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	svc, _ := newService(t)

	raw, issued, err := svc.Issue(ref)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Id)

	claims, err := svc.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, ref, claims.Ref())
	assert.Equal(t, issued.Id, claims.Id)

	// Every token gets its own id.
	_, other, err := svc.Issue(ref)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Id, other.Id)
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc, c := newService(t)
	raw, _, err := svc.Issue(ref)
	require.NoError(t, err)

	c.Advance(2*time.Hour - time.Second)
	_, err = svc.Verify(raw)
	assert.NoError(t, err)

	c.Advance(2 * time.Second)
	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTampering(t *testing.T) {
	svc, c := newService(t)
	raw, _, err := svc.Issue(ref)
	require.NoError(t, err)

	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)
	forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	_, err = svc.Verify(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	stranger, err := NewTokenService("other-secret", time.Hour, memory.NewUsedTokenStore(), c.Now)
	require.NoError(t, err)
	foreign, _, err := stranger.Issue(ref)
	require.NoError(t, err)
	_, err = svc.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	svc, c := newService(t)
	claims := &Claims{
		BookerEmail: ref.BookerEmail,
		BookingID:   ref.BookingID,
		Kind:        ref.Kind,
		StandardClaims: jwt.StandardClaims{
			Id:        "jti",
			ExpiresAt: c.Now().Add(time.Hour).Unix(),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConsumeOnce(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	raw, _, err := svc.Issue(ref)
	require.NoError(t, err)
	claims, err := svc.Verify(raw)
	require.NoError(t, err)

	require.NoError(t, svc.Consume(ctx, claims))
	assert.ErrorIs(t, svc.Consume(ctx, claims), ErrAlreadyUsed)

	used, err := svc.IsUsed(ctx, claims)
	require.NoError(t, err)
	assert.True(t, used)

	// A released token can be redeemed again.
	require.NoError(t, svc.Release(ctx, claims))
	assert.NoError(t, svc.Consume(ctx, claims))
}

func TestConcurrentConsumeHasOneWinner(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	raw, _, err := svc.Issue(ref)
	require.NoError(t, err)

	var wins, reused int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claims, err := svc.Verify(raw)
			if err != nil {
				return
			}
			switch svc.Consume(ctx, claims) {
			case nil:
				atomic.AddInt32(&wins, 1)
			case ErrAlreadyUsed:
				atomic.AddInt32(&reused, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
	assert.Equal(t, int32(63), reused)
}
