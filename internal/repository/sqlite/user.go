package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/streamhub/internal/apperror"
	"github.com/sakif/streamhub/internal/model"
	"github.com/sakif/streamhub/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, full_name, password_hash,
	avatar_url, cover_image_url, refresh_token, created_at, updated_at`

// scanUser reads one user row. refresh_token is the only nullable column;
// NULL maps to the empty string ("no active session").
func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	var refresh sql.NullString

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.PasswordHash,
		&u.AvatarURL,
		&u.CoverImageURL,
		&refresh,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.RefreshToken = refresh.String
	return &u, nil
}

// Create inserts a new user and fills in ID and timestamps.
//
// The UNIQUE indexes on username and email are the source of truth for
// uniqueness; the service layer pre-checks for a friendlier message, but a
// race between two registrations still lands here, so the constraint error
// is mapped to the same Conflict.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, full_name, password_hash,
			avatar_url, cover_image_url, refresh_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.AvatarURL,
		user.CoverImageURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("a user with that username or email already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID returns the user or apperror.ErrNotFound.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByUsernameOrEmail matches either identifier. The stored username is
// lowercase, so the lookup lowercases its input to stay case-insensitive.
func (db *DB) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ?`,
		strings.ToLower(username), email)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username+email)
		}
		return nil, fmt.Errorf("sqlite: getting user by username/email: %w", err)
	}
	return u, nil
}

// SetRefreshToken overwrites the persisted refresh token. An empty token is
// stored as NULL, which is the logged-out state.
func (db *DB) SetRefreshToken(ctx context.Context, userID, token string) error {
	var value any
	if token != "" {
		value = token
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET refresh_token = ?, updated_at = ? WHERE id = ?`,
		value, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("sqlite: setting refresh token for %s: %w", userID, err)
	}
	return requireRowAffected(res, userID)
}

// RotateRefreshToken is a compare-and-set: the UPDATE only matches when the
// stored token still equals oldToken. SQLite serializes writers, so two
// refreshes racing on the same stale token cannot both swap; the loser sees
// swapped=false and is treated as token reuse by the caller.
func (db *DB) RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET refresh_token = ?, updated_at = ?
		 WHERE id = ? AND refresh_token = ?`,
		newToken, time.Now(), userID, oldToken)
	if err != nil {
		return false, fmt.Errorf("sqlite: rotating refresh token for %s: %w", userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: rotating refresh token for %s: %w", userID, err)
	}
	return n == 1, nil
}

// UpdatePassword replaces only the password hash. The refresh token is left
// untouched: changing a password does not end existing sessions.
func (db *DB) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for %s: %w", userID, err)
	}
	return requireRowAffected(res, userID)
}

// UpdateDetails updates fullname and/or email; blank arguments keep the
// current value. Returns the fresh record.
func (db *DB) UpdateDetails(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET
			full_name = CASE WHEN ? != '' THEN ? ELSE full_name END,
			email     = CASE WHEN ? != '' THEN ? ELSE email END,
			updated_at = ?
		 WHERE id = ?`,
		fullName, fullName, email, email, time.Now(), userID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperror.Conflict("a user with that email already exists")
		}
		return nil, fmt.Errorf("sqlite: updating details for %s: %w", userID, err)
	}
	return db.GetByID(ctx, userID)
}

// UpdateAvatar replaces the avatar URL and returns the fresh record.
func (db *DB) UpdateAvatar(ctx context.Context, userID, url string) (*model.User, error) {
	return db.updateImage(ctx, userID, "avatar_url", url)
}

// UpdateCoverImage replaces the cover image URL and returns the fresh record.
func (db *DB) UpdateCoverImage(ctx context.Context, userID, url string) (*model.User, error) {
	return db.updateImage(ctx, userID, "cover_image_url", url)
}

func (db *DB) updateImage(ctx context.Context, userID, column, url string) (*model.User, error) {
	// column is one of two compile-time constants above, never user input.
	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s = ?, updated_at = ? WHERE id = ?`, column),
		url, time.Now(), userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating %s for %s: %w", column, userID, err)
	}
	if err := requireRowAffected(res, userID); err != nil {
		return nil, err
	}
	return db.GetByID(ctx, userID)
}

// requireRowAffected turns an UPDATE that matched nothing into NotFound, so
// a write against a deleted user is a typed failure rather than a silent
// no-op.
func requireRowAffected(res sql.Result, userID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected for %s: %w", userID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}
