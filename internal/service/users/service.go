package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/metrics"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/uow"
)

type Repository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, phone, address string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type Notifier interface {
	Notify(
		ctx context.Context,
		userID uuid.UUID,
		typ domain.NotificationType,
		priority domain.NotificationPriority,
		title, message string,
	) (*domain.Notification, error)
}

type Limiter interface {
	Allow(ctx context.Context, suffix string) (bool, int64, time.Duration, error)
	Reset(ctx context.Context, suffix string) error
}

type Config struct {
	BcryptCost int
	// Logger receives failures that do not fail the request. Nil means slog.Default.
	Logger *slog.Logger
}

type Service struct {
	repo     Repository
	notifier Notifier
	limiter  Limiter
	uow      *uow.UoW
	cfg      Config
}

func New(tx uow.Transactor, repo Repository, notifier Notifier, limiter Limiter, cfg Config) *Service {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		repo:     repo,
		notifier: notifier,
		limiter:  limiter,
		uow:      uow.NewUoW(tx),
		cfg:      cfg,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// Register creates a user account and sends a welcome notification once the
// account is stored.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: registration form; every field is required.
//
// Returns:
//   - *domain.User: the created user.
//   - error: users.ErrMissingField if a field is empty.
//   - error: domain.ErrValidation if the email is malformed or the password too short.
//   - error: users.ErrEmailTaken if the email is already registered.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	const op = "service.users.Register"

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	for _, f := range []struct{ name, v string }{
		{"name", in.Name},
		{"email", in.Email},
		{"password", in.Password},
		{"phone", in.Phone},
		{"address", in.Address},
	} {
		if f.v == "" {
			return nil, fmt.Errorf("%s:%w: %s", op, ErrMissingField, f.name)
		}
	}

	if err := checkPassword(in.Password); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	u := &domain.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		Phone:        in.Phone,
		Address:      in.Address,
	}

	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	err = s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.repo.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrEmailTaken
			}

			return err
		}

		after(func(ctx context.Context) {
			_, _ = s.notifier.Notify(ctx, u.ID, domain.NotifySystem, domain.PriorityNormal,
				"Welcome to Kuching ART",
				fmt.Sprintf("Hi %s, your account is ready. Book your first ride and start earning points.", u.Name))
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return u, nil
}

// Login checks the credentials of a user. Attempts are rate limited per
// clientKey; a successful login clears the client's counter.
//
// Returns:
//   - *domain.User: the authenticated user.
//   - error: users.ErrInvalidCredentials on unknown email or wrong password.
//   - error: users.RateLimitedError when the client made too many attempts.
func (s *Service) Login(ctx context.Context, email, password, clientKey string) (*domain.User, error) {
	const op = "service.users.Login"

	if s.limiter != nil && clientKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, clientKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			metrics.LoginsRejected.WithLabelValues("rate_limited").Inc()
			return nil, fmt.Errorf("%s:%w", op, RateLimitedError{RetryAfter: retry})
		}
	}

	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.LoginsRejected.WithLabelValues("unknown_email").Inc()
			return nil, fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		metrics.LoginsRejected.WithLabelValues("bad_password").Inc()
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	if s.limiter != nil && clientKey != "" {
		if err := s.limiter.Reset(ctx, clientKey); err != nil {
			s.cfg.Logger.Warn("failed to reset login attempts",
				slog.String("op", op),
				slog.String("client", clientKey),
				slog.Any("err", err),
			)
		}
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "service.users.Get"

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return u, nil
}

// UpdateProfile replaces the editable profile fields. Email and password are
// changed through their own flows.
func (s *Service) UpdateProfile(
	ctx context.Context,
	id uuid.UUID,
	name, phone, address string,
) (*domain.User, error) {
	const op = "service.users.UpdateProfile"

	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	address = strings.TrimSpace(address)

	for _, f := range []struct{ name, v string }{
		{"name", name},
		{"phone", phone},
		{"address", address},
	} {
		if f.v == "" {
			return nil, fmt.Errorf("%s:%w: %s", op, ErrMissingField, f.name)
		}
	}

	u, err := s.repo.UpdateProfile(ctx, id, name, phone, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return u, nil
}

// ChangePassword replaces the password after checking the current one.
//
// Returns:
//   - error: users.ErrInvalidCredentials if oldPassword does not match.
//   - error: domain.ErrValidation if newPassword is too short.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	const op = "service.users.ChangePassword"

	if err := checkPassword(newPassword); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(p string) error {
	if len(p) < domain.MinPasswordLen {
		return &domain.FieldError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", domain.MinPasswordLen),
		}
	}
	return nil
}
