package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	accountRepo "smovers/database/repository/account"
	availabilityRepo "smovers/database/repository/availability"
	"smovers/models"
	"smovers/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrNotFound           = accountRepo.ErrAccountNotFound
	ErrInvalidRole        = errors.New("invalid role")
)

// Service is the account directory: registration, sessions and profiles.
type Service struct {
	Repo         accountRepo.AccountRepository
	Availability availabilityRepo.AvailabilityRepository
	Revocations  RevocationStore
	SessionTTL   time.Duration
	Logger       *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return utils.GetLogger()
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and returns it with a fresh session token.
func (s *Service) Register(ctx context.Context, role models.Role, reg models.AccountRegistration) (*models.Account, string, error) {
	if !role.Valid() {
		return nil, "", ErrInvalidRole
	}
	if err := VerifyPasswordComplexity(reg.Password); err != nil {
		return nil, "", err
	}
	email := normalizeEmail(reg.Email)

	if _, err := s.Repo.GetByEmail(ctx, role, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, accountRepo.ErrAccountNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	acct := &models.Account{
		ID:           uuid.New().String(),
		Role:         role,
		Name:         strings.TrimSpace(reg.Name),
		Email:        email,
		PasswordHash: string(hash),
		Phone:        reg.Phone,
	}
	if role.IsProvider() {
		acct.Rate = reg.Rate
		acct.Location = reg.Location
	}
	if role == models.RoleDriver {
		acct.CarType = reg.CarType
		acct.LicenseClass = reg.LicenseClass
		acct.LicenseIssuedDate = reg.LicenseIssuedDate
		acct.DrivingExperience = reg.DrivingExperience
	}

	if err := s.Repo.Create(ctx, acct); err != nil {
		if errors.Is(err, accountRepo.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := utils.GenerateToken(acct.ID, acct.Email, string(role), s.sessionTTL())
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session: %w", err)
	}
	s.logger().Info("account registered", zap.String("role", string(role)), zap.String("id", acct.ID))
	return acct, token, nil
}

// Authenticate checks credentials and returns a fresh session token.
func (s *Service) Authenticate(ctx context.Context, role models.Role, email, password string) (*models.Account, string, error) {
	acct, err := s.Repo.GetByEmail(ctx, role, normalizeEmail(email))
	if errors.Is(err, accountRepo.ErrAccountNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(acct.ID, acct.Email, string(role), s.sessionTTL())
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session: %w", err)
	}
	return acct, token, nil
}

// Logout revokes a session token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.Revocations.Revoke(ctx, utils.HashToken(token), s.sessionTTL())
}

// IsRevoked reports whether a session token was logged out.
func (s *Service) IsRevoked(ctx context.Context, token string) (bool, error) {
	return s.Revocations.IsRevoked(ctx, utils.HashToken(token))
}

func (s *Service) GetByID(ctx context.Context, role models.Role, id string) (*models.Account, error) {
	acct, err := s.Repo.GetByID(ctx, role, id)
	if errors.Is(err, accountRepo.ErrAccountNotFound) {
		return nil, ErrNotFound
	}
	return acct, err
}

func (s *Service) GetByEmail(ctx context.Context, role models.Role, email string) (*models.Account, error) {
	acct, err := s.Repo.GetByEmail(ctx, role, normalizeEmail(email))
	if errors.Is(err, accountRepo.ErrAccountNotFound) {
		return nil, ErrNotFound
	}
	return acct, err
}

// Update applies the non-nil fields of upd to the profile.
func (s *Service) Update(ctx context.Context, role models.Role, id string, upd models.AccountUpdate) (*models.Account, error) {
	acct, err := s.GetByID(ctx, role, id)
	if err != nil {
		return nil, err
	}

	oldEmail := acct.Email
	if upd.Name != nil {
		acct.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		acct.Email = normalizeEmail(*upd.Email)
	}
	if upd.Phone != nil {
		acct.Phone = *upd.Phone
	}
	if role.IsProvider() {
		if upd.Rate != nil {
			acct.Rate = *upd.Rate
		}
		if upd.Location != nil {
			acct.Location = *upd.Location
		}
	}
	if role == models.RoleDriver {
		if upd.CarType != nil {
			acct.CarType = *upd.CarType
		}
		if upd.LicenseClass != nil {
			acct.LicenseClass = *upd.LicenseClass
		}
		if upd.DrivingExperience != nil {
			acct.DrivingExperience = *upd.DrivingExperience
		}
	}

	if acct.Email != oldEmail {
		if _, err := s.Repo.GetByEmail(ctx, role, acct.Email); err == nil {
			return nil, ErrEmailTaken
		}
	}
	if err := s.Repo.Update(ctx, acct); err != nil {
		if errors.Is(err, accountRepo.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return acct, nil
}

// UpdatePassword replaces the password after checking the current one.
func (s *Service) UpdatePassword(ctx context.Context, role models.Role, id, current, next string) error {
	acct, err := s.GetByID(ctx, role, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	if err := VerifyPasswordComplexity(next); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	acct.PasswordHash = string(hash)
	return s.Repo.Update(ctx, acct)
}

// Delete removes the account after confirming its password. A provider's
// published availability goes with it.
func (s *Service) Delete(ctx context.Context, role models.Role, id, password string) error {
	acct, err := s.GetByID(ctx, role, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	if err := s.Repo.Delete(ctx, role, id); err != nil {
		return err
	}
	if role.IsProvider() && s.Availability != nil {
		if err := s.Availability.DeleteByEmail(ctx, acct.Email); err != nil {
			s.logger().Warn("failed to remove availability of deleted account", zap.String("id", id), zap.Error(err))
		}
	}
	return nil
}
