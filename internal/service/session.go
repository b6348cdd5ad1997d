// Package service holds the business logic between the HTTP handlers and
// the repositories.
//
// SessionManager owns the authentication lifecycle:
//
//	UserHandler (HTTP) -> SessionManager -> UserRepository (store)
//	                      plus TokenIssuer (JWT), PasswordHasher (bcrypt),
//	                      and media.Uploader (S3)
//
// Every failure it returns wraps an apperror sentinel; token-library and
// store errors never reach a handler raw.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sakif/streamhub/internal/apperror"
	"github.com/sakif/streamhub/internal/auth"
	"github.com/sakif/streamhub/internal/media"
	"github.com/sakif/streamhub/internal/model"
	"github.com/sakif/streamhub/internal/repository"
)

// ImageUpload is an image file handed up from the HTTP layer (a parsed
// multipart part). Nil *ImageUpload means the client sent no file.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}

// SessionManager orchestrates registration, login, logout, token rotation,
// and profile mutations.
type SessionManager struct {
	users     repository.UserRepository
	tokens    *auth.TokenIssuer
	passwords *auth.PasswordHasher
	uploads   media.Uploader
	logger    *slog.Logger
}

// NewSessionManager wires the session manager's dependencies.
func NewSessionManager(
	users repository.UserRepository,
	tokens *auth.TokenIssuer,
	passwords *auth.PasswordHasher,
	uploads media.Uploader,
	logger *slog.Logger,
) *SessionManager {
	return &SessionManager{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		uploads:   uploads,
		logger:    logger,
	}
}

// RegisterInput carries the registration form. Avatar is required; cover is
// optional.
type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *ImageUpload
	CoverImage *ImageUpload
}

// LoginInput identifies the account by username or email (at least one) plus
// the password.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult bundles the public user view with the freshly issued pair so
// the handler can set cookies and respond in one step.
type LoginResult struct {
	User         *model.UserView
	AccessToken  string
	RefreshToken string
}

// TokenPair is the result of a successful refresh rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Register creates a new account.
//
// All four text fields must be non-blank after trimming. The username is
// stored lowercase, so uniqueness is case-insensitive. The password is hashed
// exactly as submitted: trimming is for the blank check only, so whatever
// byte string registered is the byte string Login verifies. The avatar must
// be present and must upload successfully; a failed upload is a validation
// failure, not a server crash. The returned view never contains the password
// hash or a refresh token.
func (s *SessionManager) Register(ctx context.Context, in RegisterInput) (*model.UserView, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.TrimSpace(in.Email)
	username := strings.ToLower(strings.TrimSpace(in.Username))

	if fullName == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperror.ValidationFailed("", "fullname, email, username and password are all required")
	}

	// Friendly pre-check; the UNIQUE indexes catch the remaining race.
	if _, err := s.users.GetByUsernameOrEmail(ctx, username, email); err == nil {
		return nil, apperror.Conflict("a user with that username or email already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service: checking existing user: %w", err)
	}

	if in.Avatar == nil {
		return nil, apperror.ValidationFailed("avatar", "avatar image is required")
	}

	avatarURL, err := s.uploads.Upload(ctx, in.Avatar.Filename, in.Avatar.ContentType, in.Avatar.Body, in.Avatar.Size)
	if err != nil {
		s.logger.Warn("avatar upload failed", slog.String("username", username), slog.String("error", err.Error()))
		return nil, apperror.ValidationFailed("avatar", "avatar upload failed")
	}

	coverURL := ""
	if in.CoverImage != nil {
		coverURL, err = s.uploads.Upload(ctx, in.CoverImage.Filename, in.CoverImage.ContentType, in.CoverImage.Body, in.CoverImage.Size)
		if err != nil {
			s.logger.Warn("cover image upload failed", slog.String("username", username), slog.String("error", err.Error()))
			return nil, apperror.ValidationFailed("coverImage", "cover image upload failed")
		}
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service: creating user %s: %w", username, err)
	}

	// Consistency check: read the record back. Not expected to fail; if it
	// does, the store is in a state we do not want to paper over.
	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		s.logger.Error("created user not readable", slog.String("userID", user.ID), slog.String("error", err.Error()))
		return nil, apperror.Internal("something went wrong while registering the user")
	}

	s.logger.Info("user registered",
		slog.String("userID", created.ID),
		slog.String("username", created.Username),
	)

	return created.PublicView(), nil
}

// Login authenticates by username or email and issues a token pair.
//
// The new refresh token is persisted before returning, overwriting any prior
// one: logging in invalidates earlier sessions for the account.
func (s *SessionManager) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" && email == "" {
		return nil, apperror.ValidationFailed("", "username or email is required")
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user", username+email)
		}
		return nil, fmt.Errorf("service: looking up user for login: %w", err)
	}

	if !s.passwords.Verify(in.Password, user.PasswordHash) {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	accessToken, refreshToken, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("service: persisting refresh token: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID), slog.String("username", user.Username))

	return &LoginResult{
		User:         user.PublicView(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout clears the persisted refresh token. Calling it twice is harmless:
// the second call clears an already-NULL column.
func (s *SessionManager) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("service: clearing refresh token: %w", err)
	}
	s.logger.Info("user logged out", slog.String("userID", userID))
	return nil
}

// RefreshSession exchanges a valid refresh token for a fresh pair, rotating
// the persisted token.
//
// The presented token must exactly equal the persisted one. A stale token
// (already rotated away, or cleared by logout) means reuse or theft, and the
// exchange fails Unauthorized. The swap itself is a compare-and-set in the
// store, so two concurrent refreshes on the same token cannot both succeed.
func (s *SessionManager) RefreshSession(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperror.Unauthorized("refresh token is required")
	}

	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("service: looking up user for refresh: %w", err)
	}

	if user.RefreshToken != refreshToken {
		s.logger.Warn("refresh token reuse detected", slog.String("userID", user.ID))
		return nil, apperror.Unauthorized("refresh token has been rotated or revoked")
	}

	accessToken, newRefreshToken, err := s.issuePair(user)
	if err != nil {
		return nil, err
	}

	swapped, err := s.users.RotateRefreshToken(ctx, user.ID, refreshToken, newRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("service: rotating refresh token: %w", err)
	}
	if !swapped {
		// Lost a race: another request rotated first. Same verdict as reuse.
		s.logger.Warn("refresh token rotation lost race", slog.String("userID", user.ID))
		return nil, apperror.Unauthorized("refresh token has been rotated or revoked")
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// ChangePassword verifies the old password and replaces the hash.
//
// Existing sessions stay valid: the refresh token is deliberately left
// untouched. Clients that want to end other sessions log out explicitly.
func (s *SessionManager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service: looking up user for password change: %w", err)
	}

	if !s.passwords.Verify(oldPassword, user.PasswordHash) {
		return apperror.Unauthorized("invalid credentials")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.ValidationFailed("newPassword", err.Error())
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("service: updating password: %w", err)
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// GetCurrentUser returns the public view for an authenticated user ID.
func (s *SessionManager) GetCurrentUser(ctx context.Context, userID string) (*model.UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: fetching current user: %w", err)
	}
	return user.PublicView(), nil
}

// UpdateAccountDetails updates fullname and/or email. At least one must be
// provided.
func (s *SessionManager) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*model.UserView, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" && email == "" {
		return nil, apperror.ValidationFailed("", "fullname or email is required")
	}

	user, err := s.users.UpdateDetails(ctx, userID, fullName, email)
	if err != nil {
		return nil, fmt.Errorf("service: updating account details: %w", err)
	}
	return user.PublicView(), nil
}

// UpdateAvatar uploads a replacement avatar and persists its URL.
func (s *SessionManager) UpdateAvatar(ctx context.Context, userID string, upload *ImageUpload) (*model.UserView, error) {
	return s.updateImage(ctx, userID, upload, "avatar", s.users.UpdateAvatar)
}

// UpdateCoverImage uploads a replacement cover image and persists its URL.
func (s *SessionManager) UpdateCoverImage(ctx context.Context, userID string, upload *ImageUpload) (*model.UserView, error) {
	return s.updateImage(ctx, userID, upload, "coverImage", s.users.UpdateCoverImage)
}

func (s *SessionManager) updateImage(
	ctx context.Context,
	userID string,
	upload *ImageUpload,
	field string,
	persist func(context.Context, string, string) (*model.User, error),
) (*model.UserView, error) {
	if upload == nil {
		return nil, apperror.ValidationFailed(field, field+" image is required")
	}

	url, err := s.uploads.Upload(ctx, upload.Filename, upload.ContentType, upload.Body, upload.Size)
	if err != nil {
		s.logger.Warn("image upload failed",
			slog.String("userID", userID),
			slog.String("field", field),
			slog.String("error", err.Error()),
		)
		return nil, apperror.ValidationFailed(field, field+" upload failed")
	}

	user, err := persist(ctx, userID, url)
	if err != nil {
		return nil, fmt.Errorf("service: persisting %s: %w", field, err)
	}
	return user.PublicView(), nil
}

// issuePair mints an access and refresh token. Signing failures are wrapped
// as Internal: they mean misconfiguration, not bad client input.
func (s *SessionManager) issuePair(user *model.User) (access, refresh string, err error) {
	access, err = s.tokens.IssueAccessToken(user)
	if err != nil {
		s.logger.Error("issuing access token failed", slog.String("userID", user.ID), slog.String("error", err.Error()))
		return "", "", apperror.Internal("could not issue session tokens")
	}
	refresh, err = s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		s.logger.Error("issuing refresh token failed", slog.String("userID", user.ID), slog.String("error", err.Error()))
		return "", "", apperror.Internal("could not issue session tokens")
	}
	return access, refresh, nil
}
