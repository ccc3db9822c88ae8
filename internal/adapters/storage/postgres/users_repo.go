package postgres

import (
	"context"
	"database/sql"
	"strings"

	"gatitown/internal/domain/accounts"
	"gatitown/internal/ports/auth"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) CreateUser(ctx context.Context, u accounts.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, hashed_password, role, avatar_url, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		u.ID,
		u.Email,
		u.Name,
		u.PasswordHash,
		string(u.Role),
		toNullString(u.AvatarURL),
		u.CreatedAt,
	)
	return err
}

func (r *UsersRepo) UpdateUser(ctx context.Context, u accounts.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET
			name = $2,
			role = $3,
			avatar_url = $4
		WHERE id = $1
	`,
		u.ID,
		u.Name,
		string(u.Role),
		toNullString(u.AvatarURL),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return accounts.ErrNotFound
	}
	return nil
}

const selectUser = `
	SELECT id, email, name, hashed_password, role, avatar_url, created_at
	FROM users
`

func (r *UsersRepo) GetUserByID(ctx context.Context, id string) (accounts.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accounts.User{}, accounts.ErrNotFound
	}
	return scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE id = $1`, id))
}

func (r *UsersRepo) GetUserByEmail(ctx context.Context, email string) (accounts.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return accounts.User{}, accounts.ErrNotFound
	}
	return scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE email = $1`, email))
}

func (r *UsersRepo) CreateSession(ctx context.Context, s accounts.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES ($1,$2,$3,$4)
	`, s.ID, s.UserID, s.ExpiresAt, s.CreatedAt)
	return err
}

func (r *UsersRepo) GetSession(ctx context.Context, id string) (accounts.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return accounts.Session{}, accounts.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, expires_at, created_at
		FROM sessions
		WHERE id = $1
	`, id)

	var s accounts.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt); err != nil {
		if isNoRows(err) {
			return accounts.Session{}, accounts.ErrNotFound
		}
		return accounts.Session{}, err
	}
	return s, nil
}

// DeleteSession no falla si la sesión ya no existe.
func (r *UsersRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, strings.TrimSpace(id))
	return err
}

func scanUser(row *sql.Row) (accounts.User, error) {
	var (
		u      accounts.User
		role   string
		avatar sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &avatar, &u.CreatedAt); err != nil {
		if isNoRows(err) {
			return accounts.User{}, accounts.ErrNotFound
		}
		return accounts.User{}, err
	}
	u.Role = auth.Role(role)
	if avatar.Valid {
		v := avatar.String
		u.AvatarURL = &v
	}
	return u, nil
}
