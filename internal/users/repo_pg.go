package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"jobboard-backend/internal/shared/identity"
	"jobboard-backend/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, name, email, password_hash, role, google_sub, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		nullableString(user.PasswordHash),
		string(user.Role),
		nullableString(user.GoogleSub),
	)
	if db.IsUniqueViolation(err, "users_email_key") {
		return ErrEmailTaken
	}
	return err
}

const selectUser = `
SELECT id, name, email, password_hash, role, google_sub, created_at, updated_at
FROM users`

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx, selectUser+`
WHERE id = $1
LIMIT 1`, userID))
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx, selectUser+`
WHERE lower(email) = lower($1)
LIMIT 1`, email))
}

func (r *PGRepo) GetSummaries(ctx context.Context, userIDs []string) (map[string]Summary, error) {
	out := make(map[string]Summary, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	const query = `
SELECT id, name, email
FROM users
WHERE id = ANY($1)`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email); err != nil {
			return nil, err
		}
		out[s.ID] = s
	}
	return out, rows.Err()
}

func (r *PGRepo) scanOne(row *sql.Row) (User, error) {
	var user User
	var role string
	var passwordHash sql.NullString
	var googleSub sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&passwordHash,
		&role,
		&googleSub,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Role = identity.Role(role)
	if passwordHash.Valid {
		user.PasswordHash = passwordHash.String
	}
	if googleSub.Valid {
		user.GoogleSub = googleSub.String
	}
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
