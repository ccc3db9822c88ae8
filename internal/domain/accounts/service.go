package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatitown/internal/platform/logger"
	"gatitown/internal/ports/auth"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = auth.ErrInvalidSession
	ErrNotFound           = errors.New("not found")
)

const DefaultSessionTTL = 30 * 24 * time.Hour

type Options struct {
	SessionTTL time.Duration
	Logger     logger.Logger
}

type Service struct {
	repo       Repository
	sessionTTL time.Duration
	bcryptCost int
	log        logger.Logger
	now        func() time.Time
}

func NewService(repo Repository, opts Options) *Service {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:       repo,
		sessionTTL: ttl,
		bcryptCost: bcrypt.DefaultCost,
		log:        log.With(map[string]any{"component": "accounts"}),
		now:        time.Now,
	}
}

// Login valida credenciales y abre una sesión nueva.
// Email inexistente y password incorrecta devuelven el mismo error.
func (s *Service) Login(ctx context.Context, email, password string) (Session, User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, User{}, ErrInvalidInput
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, User{}, ErrInvalidCredentials
		}
		return Session{}, User{}, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return Session{}, User{}, ErrInvalidCredentials
	}

	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return Session{}, User{}, fmt.Errorf("create session: %w", err)
	}

	s.log.Info("user logged in", map[string]any{"user_id": u.ID})
	return sess, u, nil
}

// Logout es idempotente.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Verify implementa auth.SessionVerifier.
func (s *Service) Verify(ctx context.Context, sessionID string) (auth.Claims, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return auth.Claims{}, ErrInvalidSession
	}

	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.Claims{}, ErrInvalidSession
		}
		return auth.Claims{}, fmt.Errorf("get session: %w", err)
	}

	if sess.Expired(s.now()) {
		// best-effort: una sesión vencida no sirve para nada
		_ = s.repo.DeleteSession(ctx, sess.ID)
		return auth.Claims{}, ErrInvalidSession
	}

	u, err := s.repo.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.Claims{}, ErrInvalidSession
		}
		return auth.Claims{}, fmt.Errorf("get user: %w", err)
	}

	return auth.Claims{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		SessionID: sess.ID,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.repo.GetUserByID(ctx, strings.TrimSpace(id))
}

type ProvisionInput struct {
	Email     string
	Name      string
	Password  string
	Role      auth.Role
	AvatarURL string
}

// ProvisionUser crea o actualiza (por email) una cuenta. Solo lo usa el seed.
// En un usuario existente se actualizan nombre, rol y avatar; la password no se toca.
func (s *Service) ProvisionUser(ctx context.Context, in ProvisionInput) (User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return User{}, ErrInvalidInput
	}
	role := in.Role
	if role == "" {
		role = auth.RoleUser
	}
	if role != auth.RoleAdmin && role != auth.RoleUser {
		return User{}, ErrInvalidInput
	}
	var avatar *string
	if a := strings.TrimSpace(in.AvatarURL); a != "" {
		avatar = &a
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		existing.Name = name
		existing.Role = role
		if avatar != nil {
			existing.AvatarURL = avatar
		}
		if err := s.repo.UpdateUser(ctx, existing); err != nil {
			return User{}, fmt.Errorf("update user: %w", err)
		}
		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return User{}, fmt.Errorf("get user: %w", err)
	}

	if len(in.Password) < 8 {
		return User{}, ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		AvatarURL:    avatar,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user provisioned", map[string]any{"user_id": u.ID, "role": string(u.Role)})
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
