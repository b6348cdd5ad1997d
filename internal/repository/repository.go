// Package repository declares the storage interfaces the services depend on.
// The sqlite subpackage provides the real implementation; tests substitute
// in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/streamhub/internal/model"
)

// UserRepository persists user records and the per-user refresh token.
type UserRepository interface {
	// Create inserts a new user. Returns apperror.ErrConflict (wrapped) when
	// the username or email is already taken.
	Create(ctx context.Context, user *model.User) error

	// GetByID returns the user or apperror.ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetByUsernameOrEmail matches either field; username matching is against
	// the stored lowercase value. Returns apperror.ErrNotFound when neither
	// matches.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)

	// SetRefreshToken unconditionally replaces the persisted refresh token,
	// invalidating whatever was there before. Pass "" to clear it (logout).
	SetRefreshToken(ctx context.Context, userID, token string) error

	// RotateRefreshToken swaps oldToken for newToken only if oldToken is
	// still the persisted value. Returns swapped=false when the stored token
	// no longer matches, which the caller treats as token reuse.
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) (swapped bool, err error)

	// UpdatePassword replaces the password hash and nothing else.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// UpdateDetails updates fullname and/or email (blank means keep) and
	// returns the fresh record.
	UpdateDetails(ctx context.Context, userID, fullName, email string) (*model.User, error)

	// UpdateAvatar / UpdateCoverImage replace a single image URL and return
	// the fresh record.
	UpdateAvatar(ctx context.Context, userID, url string) (*model.User, error)
	UpdateCoverImage(ctx context.Context, userID, url string) (*model.User, error)
}

// ProfileRepository serves the read-only aggregations.
type ProfileRepository interface {
	// GetChannelProfile returns the channel view for a username, with
	// subscriber counts computed from the subscriptions relation and
	// IsSubscribed evaluated for viewerID ("" means anonymous).
	GetChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error)

	// GetWatchHistory returns the user's watch history in watch order, each
	// entry carrying a video summary and its owner's minimal view.
	GetWatchHistory(ctx context.Context, userID string) ([]model.WatchEntry, error)
}
