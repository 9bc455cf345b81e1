package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/baechuer/recipe-hub/internal/domain"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// ---------- helpers ----------

const userColumns = `id, email, username, hashed_password, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (userRow, error) {
	var ur userRow
	err := row.Scan(
		&ur.ID,
		&ur.Email,
		&ur.Username,
		&ur.HashedPassword,
		&ur.IsActive,
		&ur.CreatedAt,
		&ur.UpdatedAt,
	)
	return ur, err
}

func toDomainUser(ur userRow) domain.User {
	u := domain.User{
		ID:           ur.ID,
		Email:        ur.Email,
		PasswordHash: ur.HashedPassword,
		IsActive:     ur.IsActive,
		CreatedAt:    ur.CreatedAt,
		UpdatedAt:    ur.UpdatedAt,
	}
	if ur.Username.Valid {
		name := ur.Username.String
		u.Username = &name
	}
	return u
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// parseID canonicalises a user id; anything that is not a uuid cannot match a row.
func parseID(id string) (string, bool) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return uid.String(), true
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg string) (domain.User, error) {
	ur, err := scanUserRow(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

// ---------- auth.UserRepo ----------

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.User{}, domain.ErrUserNotFound()
	}

	const q = `
SELECT ` + userColumns + `
FROM users
WHERE lower(email) = $1
LIMIT 1;
`
	return r.getOne(ctx, q, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	// ids arrive from token claims; a non-uuid subject is a miss, not a cast error
	uid, ok := parseID(id)
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}

	const q = `
SELECT ` + userColumns + `
FROM users
WHERE id = $1
LIMIT 1;
`
	return r.getOne(ctx, q, uid)
}

// Create inserts the user. The unique index on lower(email) is the source of truth
// for duplicates, so concurrent registrations resolve to exactly one winner.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.Email = domain.NormalizeEmail(u.Email)
	if u.ID == "" {
		return domain.User{}, domain.ErrInvalidField("id", "empty")
	}
	if u.Email == "" {
		return domain.User{}, domain.ErrInvalidField("email", "empty")
	}
	if u.PasswordHash == "" {
		return domain.User{}, domain.ErrInvalidField("password_hash", "empty")
	}

	var username sql.NullString
	if u.Username != nil {
		username = sql.NullString{String: *u.Username, Valid: true}
	}

	const q = `
INSERT INTO users (id, email, username, hashed_password, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns + `;
`
	ur, err := scanUserRow(r.db.QueryRowContext(ctx, q,
		u.ID, u.Email, username, u.PasswordHash, u.IsActive,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailAlreadyExists()
		}
		return domain.User{}, domain.ErrDBUnavailable(err)
	}
	return toDomainUser(ur), nil
}

func (r *UserRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrInvalidField("user_id", "empty")
	}
	if newHash == "" {
		return domain.ErrInvalidField("password_hash", "empty")
	}
	uid, ok := parseID(userID)
	if !ok {
		return domain.ErrUserNotFound()
	}

	const q = `
UPDATE users
SET hashed_password = $2,
    updated_at = NOW()
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, uid, newHash)
	if err != nil {
		return domain.ErrDBUnavailable(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrUserNotFound()
	}
	return nil
}

// Ping runs the connectivity probe used by /health.
func (r *UserRepo) Ping(ctx context.Context) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return domain.ErrDBUnavailable(err)
	}
	return nil
}
