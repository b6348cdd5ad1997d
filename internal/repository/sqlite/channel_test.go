package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/streamhub/internal/apperror"
	"github.com/sakif/streamhub/internal/model"
)

func createTestVideo(t *testing.T, db *DB, ownerID, title string) *model.Video {
	t.Helper()
	v := &model.Video{
		OwnerID:      ownerID,
		Title:        title,
		ThumbnailURL: "https://cdn.example.com/thumbs/" + title + ".jpg",
		DurationSecs: 120,
	}
	if err := db.CreateVideo(context.Background(), v); err != nil {
		t.Fatalf("creating test video %q: %v", title, err)
	}
	return v
}

func TestGetChannelProfile_Counts(t *testing.T) {
	db := newTestDB(t)
	channel := createTestUser(t, db, "ada")
	sub1 := createTestUser(t, db, "grace")
	sub2 := createTestUser(t, db, "alan")
	sub3 := createTestUser(t, db, "edsger")

	for _, s := range []*model.User{sub1, sub2, sub3} {
		if err := db.Subscribe(context.Background(), channel.ID, s.ID); err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
	}
	// ada follows grace back
	if err := db.Subscribe(context.Background(), sub1.ID, channel.ID); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	profile, err := db.GetChannelProfile(context.Background(), "ada", "")
	if err != nil {
		t.Fatalf("GetChannelProfile() error = %v", err)
	}

	if profile.SubscribersCount != 3 {
		t.Errorf("SubscribersCount = %d, want 3", profile.SubscribersCount)
	}
	if profile.ChannelsSubscribedToCount != 1 {
		t.Errorf("ChannelsSubscribedToCount = %d, want 1", profile.ChannelsSubscribedToCount)
	}
	if profile.IsSubscribed {
		t.Error("IsSubscribed = true for an anonymous viewer")
	}
}

func TestGetChannelProfile_IsSubscribed(t *testing.T) {
	db := newTestDB(t)
	channel := createTestUser(t, db, "ada")
	follower := createTestUser(t, db, "grace")
	stranger := createTestUser(t, db, "alan")

	if err := db.Subscribe(context.Background(), channel.ID, follower.ID); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	profile, err := db.GetChannelProfile(context.Background(), "ada", follower.ID)
	if err != nil {
		t.Fatalf("GetChannelProfile() error = %v", err)
	}
	if !profile.IsSubscribed {
		t.Error("IsSubscribed = false for a subscribed viewer")
	}

	profile, err = db.GetChannelProfile(context.Background(), "ada", stranger.ID)
	if err != nil {
		t.Fatalf("GetChannelProfile() error = %v", err)
	}
	if profile.IsSubscribed {
		t.Error("IsSubscribed = true for a non-subscribed viewer")
	}
}

func TestGetChannelProfile_CaseInsensitiveUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "ada")

	profile, err := db.GetChannelProfile(context.Background(), "Ada", "")
	if err != nil {
		t.Fatalf("GetChannelProfile() error = %v", err)
	}
	if profile.Username != "ada" {
		t.Errorf("Username = %q, want stored lowercase %q", profile.Username, "ada")
	}
}

func TestGetChannelProfile_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetChannelProfile(context.Background(), "nobody", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSubscribe_Idempotent(t *testing.T) {
	db := newTestDB(t)
	channel := createTestUser(t, db, "ada")
	follower := createTestUser(t, db, "grace")

	for i := 0; i < 2; i++ {
		if err := db.Subscribe(context.Background(), channel.ID, follower.ID); err != nil {
			t.Fatalf("Subscribe() call %d error = %v", i+1, err)
		}
	}

	profile, err := db.GetChannelProfile(context.Background(), "ada", "")
	if err != nil {
		t.Fatalf("GetChannelProfile() error = %v", err)
	}
	if profile.SubscribersCount != 1 {
		t.Errorf("SubscribersCount = %d after double subscribe, want 1", profile.SubscribersCount)
	}
}

func TestGetWatchHistory_OrderAndOwner(t *testing.T) {
	db := newTestDB(t)
	viewer := createTestUser(t, db, "grace")
	creator := createTestUser(t, db, "ada")

	first := createTestVideo(t, db, creator.ID, "analytical-engines")
	second := createTestVideo(t, db, creator.ID, "notes-on-bernoulli")

	if err := db.AddWatchEntry(context.Background(), viewer.ID, first.ID); err != nil {
		t.Fatalf("AddWatchEntry() error = %v", err)
	}
	if err := db.AddWatchEntry(context.Background(), viewer.ID, second.ID); err != nil {
		t.Fatalf("AddWatchEntry() error = %v", err)
	}

	entries, err := db.GetWatchHistory(context.Background(), viewer.ID)
	if err != nil {
		t.Fatalf("GetWatchHistory() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	if entries[0].Video.ID != first.ID || entries[1].Video.ID != second.ID {
		t.Error("watch history not in watch order")
	}

	owner := entries[0].Owner
	if owner.Username != "ada" {
		t.Errorf("Owner.Username = %q, want %q", owner.Username, "ada")
	}
	if owner.FullName != "Test ada" {
		t.Errorf("Owner.FullName = %q, want %q", owner.FullName, "Test ada")
	}
	if owner.AvatarURL == "" {
		t.Error("Owner.AvatarURL is empty")
	}
}

func TestGetWatchHistory_EmptyIsEmptySlice(t *testing.T) {
	db := newTestDB(t)
	viewer := createTestUser(t, db, "grace")

	entries, err := db.GetWatchHistory(context.Background(), viewer.ID)
	if err != nil {
		t.Fatalf("GetWatchHistory() error = %v", err)
	}
	if entries == nil {
		t.Error("entries = nil, want empty slice (serializes to [] not null)")
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}
