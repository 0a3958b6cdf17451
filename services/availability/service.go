package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	accountRepo "smovers/database/repository/account"
	availabilityRepo "smovers/database/repository/availability"
	"smovers/models"
	"smovers/utils"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrNotSunday       = errors.New("availability can only be updated on Sundays")
	ErrInvalidWeek     = fmt.Errorf("availability must list %d valid days", models.DaysPerWeek)
	ErrPastDate        = errors.New("date must not be in the past")
	ErrInvalidDate     = errors.New("date must be YYYY-MM-DD")
	ErrNotProvider     = errors.New("only drivers and helpers publish availability")
	ErrAccountNotFound = errors.New("account not found")
	ErrNoAvailability  = errors.New("no availability published")
)

var validate = validator.New()

// SearchQuery selects providers available in the week containing Date.
type SearchQuery struct {
	Date     string      // YYYY-MM-DD; empty means today
	Role     models.Role // driver or helper
	CarType  string
	Location string
}

// Service manages weekly provider schedules.
type Service struct {
	Availability availabilityRepo.AvailabilityRepository
	Accounts     accountRepo.AccountRepository
	Location     *time.Location
	Logger       *zap.Logger
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	if s.Now != nil {
		return s.Now().In(loc)
	}
	return time.Now().In(loc)
}

// SetWeek replaces the provider's schedule. It is only allowed on Sundays and
// the stored record is stamped with that Sunday.
func (s *Service) SetWeek(ctx context.Context, role models.Role, accountID string, week []models.DayAvailability) (*models.Availability, error) {
	if !role.IsProvider() {
		return nil, ErrNotProvider
	}
	now := s.now()
	if now.Weekday() != time.Sunday {
		return nil, ErrNotSunday
	}
	if len(week) != models.DaysPerWeek {
		return nil, ErrInvalidWeek
	}
	for i := range week {
		if err := validate.Struct(week[i]); err != nil {
			return nil, fmt.Errorf("%w: day %d: %v", ErrInvalidWeek, i, err)
		}
	}

	acct, err := s.Accounts.GetByID(ctx, role, accountID)
	if errors.Is(err, accountRepo.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	av := &models.Availability{
		Email:        acct.Email,
		Role:         role,
		DateUpdated:  utils.DateOnly(now),
		Availability: week,
	}
	if err := s.Availability.Upsert(ctx, av); err != nil {
		return nil, err
	}
	return av, nil
}

// GetWeek returns the provider's current schedule.
func (s *Service) GetWeek(ctx context.Context, role models.Role, accountID string) (*models.Availability, error) {
	acct, err := s.Accounts.GetByID(ctx, role, accountID)
	if errors.Is(err, accountRepo.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	av, err := s.Availability.GetByEmail(ctx, acct.Email)
	if errors.Is(err, availabilityRepo.ErrAvailabilityNotFound) {
		return nil, ErrNoAvailability
	}
	return av, err
}

// Search resolves the query date to its week's Sunday and returns every
// provider whose schedule was published on that Sunday and matches the filters.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]models.AvailableProvider, error) {
	if !q.Role.IsProvider() {
		return nil, ErrNotProvider
	}

	now := s.now()
	date := now
	if q.Date != "" {
		parsed, err := utils.ParseLocalDate(q.Date, now.Location())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
		}
		date = parsed
	}
	if utils.IsPastDate(date, now) {
		return nil, ErrPastDate
	}

	anchor := utils.WeekAnchor(date)
	schedules, err := s.Availability.FindUpdatedBetween(ctx, q.Role, anchor, anchor.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return []models.AvailableProvider{}, nil
	}

	emails := make([]string, 0, len(schedules))
	byEmail := make(map[string]models.Availability, len(schedules))
	for _, av := range schedules {
		emails = append(emails, av.Email)
		byEmail[av.Email] = av
	}

	accounts, err := s.Accounts.FindProviders(ctx, q.Role, accountRepo.ProviderFilter{
		Emails:   emails,
		CarType:  q.CarType,
		Location: q.Location,
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.AvailableProvider, 0, len(accounts))
	for _, acct := range accounts {
		av, ok := byEmail[acct.Email]
		if !ok {
			continue
		}
		out = append(out, models.MergeAvailability(av, acct))
	}
	if s.Logger != nil {
		s.Logger.Debug("availability search",
			zap.String("role", string(q.Role)),
			zap.Time("anchor", anchor),
			zap.Int("results", len(out)))
	}
	return out, nil
}
