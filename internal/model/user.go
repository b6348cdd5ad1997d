// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account as stored in the database.
//
// Username is stored lowercased; uniqueness checks on it are therefore
// case-insensitive by construction. RefreshToken holds the single currently
// valid refresh token for the account, or empty when no session is active.
// PasswordHash and RefreshToken never leave the repository/service boundary;
// anything returned to a client goes through PublicView first.
type User struct {
	ID            string    `json:"id"            db:"id"`
	Username      string    `json:"username"      db:"username"`
	Email         string    `json:"email"         db:"email"`
	FullName      string    `json:"fullName"      db:"full_name"`
	PasswordHash  string    `json:"-"             db:"password_hash"`
	AvatarURL     string    `json:"avatarUrl"     db:"avatar_url"`
	CoverImageURL string    `json:"coverImageUrl" db:"cover_image_url"` // optional, empty when unset
	RefreshToken  string    `json:"-"             db:"refresh_token"`   // current rotation token, empty when logged out
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// UserView is the public projection of a User. It is a separate struct, not
// a tag trick, so that a credential field can never be serialized by
// accident.
type UserView struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PublicView strips credentials from a User.
func (u *User) PublicView() *UserView {
	return &UserView{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}
