package availability

import (
	"context"
	"testing"
	"time"

	"smovers/database/repository/memory"
	"smovers/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// 2026-04-05 is a Sunday.
var sunday = time.Date(2026, 4, 5, 11, 30, 0, 0, time.UTC)

func week() []models.DayAvailability {
	days := make([]models.DayAvailability, models.DaysPerWeek)
	for i := range days {
		days[i] = models.DayAvailability{Available: i%2 == 0, From: "08:00", To: "17:00"}
	}
	return days
}

func newService(t *testing.T, now time.Time) (*Service, *memory.AccountStore) {
	t.Helper()
	accounts := memory.NewAccountStore()
	ctx := context.Background()
	for _, acct := range []*models.Account{
		{ID: "d-1", Role: models.RoleDriver, Name: "Dee", Email: "dee@x.io", CarType: "van", Location: "Rosario Centro"},
		{ID: "d-2", Role: models.RoleDriver, Name: "Dan", Email: "dan@x.io", CarType: "truck", Location: "Funes"},
		{ID: "h-1", Role: models.RoleHelper, Name: "Hal", Email: "hal@x.io", Location: "Rosario"},
		{ID: "b-1", Role: models.RoleBooker, Name: "Bea", Email: "bea@x.io"},
	} {
		require.NoError(t, accounts.Create(ctx, acct))
	}
	return &Service{
		Availability: memory.NewAvailabilityStore(),
		Accounts:     accounts,
		Location:     time.UTC,
		Logger:       zap.NewNop(),
		Now:          func() time.Time { return now },
	}, accounts
}

func TestSetWeekOnlyOnSunday(t *testing.T) {
	s, _ := newService(t, sunday.AddDate(0, 0, 1))
	_, err := s.SetWeek(context.Background(), models.RoleDriver, "d-1", week())
	assert.ErrorIs(t, err, ErrNotSunday)
}

func TestSetWeekValidation(t *testing.T) {
	s, _ := newService(t, sunday)
	ctx := context.Background()

	_, err := s.SetWeek(ctx, models.RoleBooker, "b-1", week())
	assert.ErrorIs(t, err, ErrNotProvider)

	_, err = s.SetWeek(ctx, models.RoleDriver, "d-1", week()[:6])
	assert.ErrorIs(t, err, ErrInvalidWeek)

	bad := week()
	bad[3].From = "8 o'clock"
	_, err = s.SetWeek(ctx, models.RoleDriver, "d-1", bad)
	assert.ErrorIs(t, err, ErrInvalidWeek)

	_, err = s.SetWeek(ctx, models.RoleDriver, "missing", week())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSetAndGetWeek(t *testing.T) {
	s, _ := newService(t, sunday)
	ctx := context.Background()

	_, err := s.GetWeek(ctx, models.RoleDriver, "d-1")
	assert.ErrorIs(t, err, ErrNoAvailability)

	av, err := s.SetWeek(ctx, models.RoleDriver, "d-1", week())
	require.NoError(t, err)
	assert.Equal(t, "dee@x.io", av.Email)
	assert.Equal(t, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), av.DateUpdated)

	got, err := s.GetWeek(ctx, models.RoleDriver, "d-1")
	require.NoError(t, err)
	assert.Equal(t, week(), got.Availability)
}

func TestSearch(t *testing.T) {
	s, _ := newService(t, sunday)
	ctx := context.Background()
	for _, id := range []string{"d-1", "d-2"} {
		_, err := s.SetWeek(ctx, models.RoleDriver, id, week())
		require.NoError(t, err)
	}
	_, err := s.SetWeek(ctx, models.RoleHelper, "h-1", week())
	require.NoError(t, err)

	// Any day of the week resolves to the Sunday it was published on.
	found, err := s.Search(ctx, SearchQuery{Date: "2026-04-09", Role: models.RoleDriver})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.Search(ctx, SearchQuery{Role: models.RoleDriver, CarType: "van"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "d-1", found[0].ID)
	assert.Equal(t, "Dee", found[0].Name)
	assert.Len(t, found[0].Availability, models.DaysPerWeek)

	found, err = s.Search(ctx, SearchQuery{Role: models.RoleHelper, Location: "rosario"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "hal@x.io", found[0].Email)

	// Next week nobody has published yet.
	found, err = s.Search(ctx, SearchQuery{Date: "2026-04-12", Role: models.RoleDriver})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSearchGuards(t *testing.T) {
	s, _ := newService(t, sunday)
	ctx := context.Background()

	_, err := s.Search(ctx, SearchQuery{Date: "2026-04-04", Role: models.RoleDriver})
	assert.ErrorIs(t, err, ErrPastDate)

	_, err = s.Search(ctx, SearchQuery{Date: "04/09/2026", Role: models.RoleDriver})
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = s.Search(ctx, SearchQuery{Role: models.RoleBooker})
	assert.ErrorIs(t, err, ErrNotProvider)
}
