// Package media uploads user images (avatars, cover images) to blob storage
// and returns the public URL to persist on the user record.
package media

import (
	"context"
	"io"
)

// Uploader stores an image and returns a publicly reachable URL for it.
//
// An upload failure is reported as an error; callers in the registration
// path treat it as a validation failure (the avatar is required), not a
// crash.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
}
