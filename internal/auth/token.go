package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/streamhub/internal/model"
)

const issuer = "streamhub"

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, expired, malformed, or signed with the wrong secret.
// Callers get one error for all of these so responses don't reveal which
// check failed.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenConfig holds the signing material for both token types. It is loaded
// once at process start (from env vars in main) and treated as immutable
// after construction.
//
// Access and refresh tokens use distinct secrets and lifetimes. A leaked
// access secret can only mint short-lived tokens; a leaked refresh token is
// still useless for calling APIs directly. Short access expiry bounds the
// window of a stolen access token while the refresh token keeps long
// sessions alive without re-entering credentials.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// TokenIssuer creates and verifies the signed access/refresh token pair.
type TokenIssuer struct {
	cfg TokenConfig
}

// NewTokenIssuer validates the config and returns an issuer.
// Secrets must be at least 16 characters; generate them with something like
// `openssl rand -hex 32`.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.AccessSecret) < 16 {
		return nil, errors.New("auth: access token secret must be at least 16 characters")
	}
	if len(cfg.RefreshSecret) < 16 {
		return nil, errors.New("auth: refresh token secret must be at least 16 characters")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenIssuer{cfg: cfg}, nil
}

// accessClaims is the access-token payload. Identity claims ride along so a
// verifier can show who is calling without a DB lookup; the Subject claim
// holds the user ID.
type accessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// refreshClaims carries only the Subject. A refresh token proves nothing
// except "this user may ask for a new pair"; the less it carries the less a
// stolen one reveals.
type refreshClaims struct {
	jwt.RegisteredClaims
}

// IssueAccessToken signs a short-lived access token for the user.
func (t *TokenIssuer) IssueAccessToken(user *model.User) (string, error) {
	now := time.Now()
	c := accessClaims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.AccessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(t.cfg.AccessSecret))
	if err != nil {
		return "", fmt.Errorf("auth: signing access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken signs a long-lived refresh token for the user ID.
func (t *TokenIssuer) IssueRefreshToken(userID string) (string, error) {
	now := time.Now()
	c := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.RefreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(t.cfg.RefreshSecret))
	if err != nil {
		return "", fmt.Errorf("auth: signing refresh token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken verifies signature, expiry, and issuer of an access
// token and returns the user ID from its Subject claim.
func (t *TokenIssuer) VerifyAccessToken(tokenStr string) (string, error) {
	return t.verify(tokenStr, []byte(t.cfg.AccessSecret))
}

// VerifyRefreshToken does the same for a refresh token, using the refresh
// secret. A valid access token presented here fails: the secrets differ, so
// the two token types can never be swapped for each other.
func (t *TokenIssuer) VerifyRefreshToken(tokenStr string) (string, error) {
	return t.verify(tokenStr, []byte(t.cfg.RefreshSecret))
}

func (t *TokenIssuer) verify(tokenStr string, secret []byte) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			// Pinning the method prevents algorithm-confusion attacks
			// ("none", or an RSA public key used as an HMAC secret).
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
