package model

import "time"

// Video is a minimal video record: enough to own a watch-history entry and
// render a summary card. Upload and playback of the media itself live in a
// different service.
type Video struct {
	ID           string    `json:"id"           db:"id"`
	OwnerID      string    `json:"ownerId"      db:"owner_id"`
	Title        string    `json:"title"        db:"title"`
	ThumbnailURL string    `json:"thumbnailUrl" db:"thumbnail_url"`
	DurationSecs int       `json:"durationSecs" db:"duration_secs"`
	Views        int64     `json:"views"        db:"views"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
}

// ChannelProfile is the aggregate view of a user as a content creator.
// The counts are computed from the subscriptions relation at query time;
// IsSubscribed reflects whether the requesting user (if any) is among the
// channel's subscribers.
type ChannelProfile struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	FullName                  string `json:"fullName"`
	AvatarURL                 string `json:"avatarUrl"`
	CoverImageURL             string `json:"coverImageUrl"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// VideoOwner is the minimal owner view embedded in watch-history entries.
type VideoOwner struct {
	FullName  string `json:"fullName"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// WatchEntry is one element of a user's watch history: a video summary with
// its owner embedded.
type WatchEntry struct {
	Video Video      `json:"video"`
	Owner VideoOwner `json:"owner"`
}
