package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"gatitown/internal/domain/accounts"
)

// usersRepo guarda usuarios y sesiones; la sesión muere con su usuario.
type usersRepo struct {
	mu       sync.RWMutex
	byID     map[string]accounts.User
	sessions map[string]accounts.Session
}

func NewUsersRepo() accounts.Repository {
	return &usersRepo{
		byID:     make(map[string]accounts.User),
		sessions: make(map[string]accounts.Session),
	}
}

func (r *usersRepo) CreateUser(ctx context.Context, u accounts.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return errors.New("user already exists")
	}
	for _, other := range r.byID {
		if other.Email == u.Email {
			return errors.New("email already taken")
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, u accounts.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[u.ID]; !exists {
		return accounts.ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (accounts.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return accounts.User{}, accounts.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (accounts.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return accounts.User{}, accounts.ErrNotFound
}

func (r *usersRepo) CreateSession(ctx context.Context, s accounts.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("session id required")
	}
	if _, ok := r.byID[s.UserID]; !ok {
		return errors.New("session user does not exist")
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *usersRepo) GetSession(ctx context.Context, id string) (accounts.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return accounts.Session{}, accounts.ErrNotFound
	}
	return s, nil
}

func (r *usersRepo) DeleteSession(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}
