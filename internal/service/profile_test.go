package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/sakif/streamhub/internal/apperror"
	"github.com/sakif/streamhub/internal/model"
)

// fakeProfileRepo returns canned aggregation results.
type fakeProfileRepo struct {
	profile *model.ChannelProfile
	history []model.WatchEntry
	err     error

	gotUsername string
	gotViewerID string
}

func (f *fakeProfileRepo) GetChannelProfile(_ context.Context, username, viewerID string) (*model.ChannelProfile, error) {
	f.gotUsername = username
	f.gotViewerID = viewerID
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func (f *fakeProfileRepo) GetWatchHistory(_ context.Context, _ string) ([]model.WatchEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func newTestProfileService(repo *fakeProfileRepo) *ProfileService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProfileService(repo, logger)
}

func TestGetChannelProfile_BlankUsername(t *testing.T) {
	s := newTestProfileService(&fakeProfileRepo{})

	for _, username := range []string{"", "   "} {
		_, err := s.GetChannelProfile(context.Background(), username, "viewer-1")
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("GetChannelProfile(%q) err = %v, want ErrValidation", username, err)
		}
	}
}

func TestGetChannelProfile_PassesViewerThrough(t *testing.T) {
	repo := &fakeProfileRepo{
		profile: &model.ChannelProfile{Username: "ada", SubscribersCount: 3, IsSubscribed: true},
	}
	s := newTestProfileService(repo)

	profile, err := s.GetChannelProfile(context.Background(), "ada", "viewer-1")
	if err != nil {
		t.Fatalf("GetChannelProfile() error = %v", err)
	}
	if profile.SubscribersCount != 3 || !profile.IsSubscribed {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if repo.gotViewerID != "viewer-1" {
		t.Errorf("viewerID passed = %q, want %q", repo.gotViewerID, "viewer-1")
	}
}

func TestGetChannelProfile_NotFoundPropagates(t *testing.T) {
	repo := &fakeProfileRepo{err: apperror.NotFound("channel", "nobody")}
	s := newTestProfileService(repo)

	_, err := s.GetChannelProfile(context.Background(), "nobody", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetWatchHistory(t *testing.T) {
	repo := &fakeProfileRepo{
		history: []model.WatchEntry{
			{Video: model.Video{ID: "v1", Title: "first"}, Owner: model.VideoOwner{Username: "ada"}},
			{Video: model.Video{ID: "v2", Title: "second"}, Owner: model.VideoOwner{Username: "ada"}},
		},
	}
	s := newTestProfileService(repo)

	entries, err := s.GetWatchHistory(context.Background(), "viewer-1")
	if err != nil {
		t.Fatalf("GetWatchHistory() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Video.ID != "v1" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
