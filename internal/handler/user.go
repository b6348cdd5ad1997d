// Package handler implements the HTTP endpoints. Handlers parse requests,
// call the service layer, and write responses; all business rules live one
// layer down.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/streamhub/internal/auth"
	"github.com/sakif/streamhub/internal/model"
	"github.com/sakif/streamhub/internal/service"
)

// maxUploadSize caps a multipart registration request. Avatars and cover
// images are images, not videos; 8 MiB is generous.
const maxUploadSize = 8 << 20

// UserHandler exposes the registration, session, and profile endpoints.
type UserHandler struct {
	sessions   *service.SessionManager
	profiles   *service.ProfileService
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *slog.Logger
}

// NewUserHandler wires the handler. The TTLs size the auth cookies' MaxAge
// to match the tokens they carry.
func NewUserHandler(
	sessions *service.SessionManager,
	profiles *service.ProfileService,
	accessTTL, refreshTTL time.Duration,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		sessions:   sessions,
		profiles:   profiles,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/v1/users/register (multipart/form-data)
// Fields: fullname, email, username, password; files: avatar (required),
// coverImage (optional). Responds 201 with the public user view.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	// MaxBytesReader caps the whole request body; ParseMultipartForm alone
	// only bounds in-memory buffering and spills the rest to temp files.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "expected a multipart form with an avatar file",
		})
		return
	}

	in := service.RegisterInput{
		FullName: r.FormValue("fullname"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}

	if avatar, ok := formImage(r, "avatar"); ok {
		defer avatar.close()
		in.Avatar = avatar.upload
	}
	if cover, ok := formImage(r, "coverImage"); ok {
		defer cover.close()
		in.CoverImage = cover.upload
	}

	view, err := h.sessions.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// HandleLogin authenticates and starts a session.
//
// HTTP: POST /api/v1/users/login (JSON: username|email, password)
// On success the token pair goes out both in the body and as HttpOnly
// cookies, so browser and non-browser clients each have a path.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.sessions.Login(r.Context(), service.LoginInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, result.AccessToken, result.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":         result.User,
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// HandleLogout ends the session.
//
// HTTP: POST /api/v1/users/logout (auth required)
// Clears the persisted refresh token and both cookies. Idempotent.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	if err := h.sessions.Logout(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}

	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleRefresh rotates the refresh token.
//
// HTTP: POST /api/v1/users/refresh-token
// The incoming token is read from the refreshToken cookie, or from a JSON
// body for clients that manage tokens themselves.
func (h *UserHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(auth.RefreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			token = body.RefreshToken
		}
	}

	pair, err := h.sessions.RefreshSession(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, pair.AccessToken, pair.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// HandleChangePassword replaces the caller's password.
//
// HTTP: POST /api/v1/users/change-password (auth required)
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	if err := h.sessions.ChangePassword(r.Context(), userID, body.OldPassword, body.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// HandleMe returns the authenticated user's public view.
//
// HTTP: GET /api/v1/users/me (auth required)
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	view, err := h.sessions.GetCurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleUpdateDetails updates fullname and/or email.
//
// HTTP: PATCH /api/v1/users/me (auth required)
func (h *UserHandler) HandleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	var body struct {
		FullName string `json:"fullname"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	view, err := h.sessions.UpdateAccountDetails(r.Context(), userID, body.FullName, body.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleUpdateAvatar replaces the avatar image.
//
// HTTP: PATCH /api/v1/users/me/avatar (auth required, multipart field "avatar")
func (h *UserHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "avatar", h.sessions.UpdateAvatar)
}

// HandleUpdateCover replaces the cover image.
//
// HTTP: PATCH /api/v1/users/me/cover (auth required, multipart field "coverImage")
func (h *UserHandler) HandleUpdateCover(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "coverImage", h.sessions.UpdateCoverImage)
}

// HandleChannelProfile returns the aggregated channel view for a username.
//
// HTTP: GET /api/v1/users/channel/{username} (optional auth)
// When the viewer is logged in, isSubscribed reflects their subscription.
func (h *UserHandler) HandleChannelProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	viewerID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.profiles.GetChannelProfile(r.Context(), username, viewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleWatchHistory returns the caller's watch history.
//
// HTTP: GET /api/v1/users/history (auth required)
func (h *UserHandler) HandleWatchHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	entries, err := h.profiles.GetWatchHistory(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *UserHandler) handleImageUpdate(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID string, upload *service.ImageUpload) (*model.UserView, error),
) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "expected a multipart form with a " + field + " file",
		})
		return
	}

	img, ok := formImage(r, field)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: field + " file is required",
		})
		return
	}
	defer img.close()

	view, err := update(r.Context(), userID, img.upload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// formFile pairs the parsed upload with the multipart file so the handler
// can close it after the service is done reading.
type formFile struct {
	upload *service.ImageUpload
	file   multipart.File
}

func (f *formFile) close() {
	f.file.Close()
}

// formImage extracts a named file part, if present.
func formImage(r *http.Request, field string) (*formFile, bool) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, false
	}
	return &formFile{
		upload: &service.ImageUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
			Size:        header.Size,
		},
		file: file,
	}, true
}

// setAuthCookies installs the token pair as HttpOnly SameSite=Lax cookies.
// HttpOnly keeps scripts away from the tokens; Secure should be enabled when
// serving over HTTPS.
func (h *UserHandler) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(h.accessTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RefreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearAuthCookies tells the browser to drop both token cookies.
func (h *UserHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
