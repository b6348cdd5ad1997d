package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/streamhub/internal/apperror"
	"github.com/sakif/streamhub/internal/model"
	"github.com/sakif/streamhub/internal/repository"
)

// ProfileService serves the read-only aggregation views: channel profiles
// and watch history. It shares the identity records with SessionManager but
// never touches credentials.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

// NewProfileService wires the profile reads.
func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// GetChannelProfile returns the channel view for a username. viewerID may be
// "" for anonymous viewers, in which case IsSubscribed is always false.
func (s *ProfileService) GetChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}

	profile, err := s.profiles.GetChannelProfile(ctx, username, viewerID)
	if err != nil {
		return nil, fmt.Errorf("service: getting channel profile %s: %w", username, err)
	}
	return profile, nil
}

// GetWatchHistory returns the user's watch history, oldest first. An empty
// history is an empty slice.
func (s *ProfileService) GetWatchHistory(ctx context.Context, userID string) ([]model.WatchEntry, error) {
	entries, err := s.profiles.GetWatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: getting watch history for %s: %w", userID, err)
	}
	return entries, nil
}
