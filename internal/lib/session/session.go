// Package session keeps login sessions in Redis.
//
// A session is a Redis hash "session:<id>" holding the account id and type.
// The cookie carries "<id>.<signature>" where the signature is an HMAC of the
// id under the configured secret, so forged or mangled cookies are rejected
// without a Redis round trip.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

const keyPrefix = "session:"

const (
	fieldUserID   = "user_id"
	fieldUserType = "user_type"
)

// ErrNoSession is returned for unknown, expired or tampered tokens.
var ErrNoSession = errors.New("session not found")

// Store creates, resolves and destroys sessions.
type Store struct {
	rdb    redis.Cmdable
	cfg    config.AuthConfig
	secret []byte
}

func NewStore(rdb redis.Cmdable, cfg config.AuthConfig) *Store {
	return &Store{rdb: rdb, cfg: cfg, secret: []byte(cfg.SecretKey)}
}

// Create opens a session for p and returns the signed cookie token.
func (s *Store) Create(ctx context.Context, p model.Principal) (string, error) {
	id := uuid.NewString()
	key := keyPrefix + id

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldUserID, p.ID, fieldUserType, string(p.Tipo))
		pipe.Expire(ctx, key, s.cfg.SessionTTL)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}

	return s.sign(id), nil
}

// Get resolves a token to its principal and slides the expiry forward.
func (s *Store) Get(ctx context.Context, token string) (model.Principal, error) {
	id, ok := s.verify(token)
	if !ok {
		return model.Principal{}, ErrNoSession
	}
	key := keyPrefix + id

	vals, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return model.Principal{}, fmt.Errorf("reading session: %w", err)
	}
	if len(vals) == 0 {
		return model.Principal{}, ErrNoSession
	}

	userID, err := strconv.ParseInt(vals[fieldUserID], 10, 64)
	if err != nil {
		return model.Principal{}, ErrNoSession
	}
	tipo := model.AccountType(vals[fieldUserType])
	if !tipo.Valid() {
		return model.Principal{}, ErrNoSession
	}

	if err := s.rdb.Expire(ctx, key, s.cfg.SessionTTL).Err(); err != nil {
		return model.Principal{}, fmt.Errorf("refreshing session: %w", err)
	}

	return model.Principal{ID: userID, Tipo: tipo}, nil
}

// Destroy deletes the session behind token. Unknown tokens are not an error.
func (s *Store) Destroy(ctx context.Context, token string) error {
	id, ok := s.verify(token)
	if !ok {
		return nil
	}
	if err := s.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Cookie builds the HttpOnly cookie carrying token.
func (s *Store) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie clears the session cookie in the browser.
func (s *Store) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// TokenFromRequest returns the raw cookie value, or "" when absent.
func (s *Store) TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie(s.cfg.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Store) sign(id string) string {
	return id + "." + s.mac(id)
}

func (s *Store) verify(token string) (string, bool) {
	id, sig, ok := strings.Cut(token, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.mac(id))) {
		return "", false
	}
	return id, true
}

func (s *Store) mac(id string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
