package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSessionTimeout bounds a session check.
const DefaultSessionTimeout = 5 * time.Second

// ErrInvalidSession is returned by a SessionVerifier for an unknown or expired token.
var ErrInvalidSession = errors.New("invalid session")

// SessionVerifier resolves a bearer token to the owner id it belongs to.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// StaticTokens is a SessionVerifier backed by a fixed token → owner id table.
type StaticTokens map[string]string

// Verify implements SessionVerifier.
func (t StaticTokens) Verify(ctx context.Context, token string) (string, error) {
	owner, ok := t[token]
	if !ok || owner == "" {
		return "", ErrInvalidSession
	}
	return owner, nil
}

// publicPaths skip authentication.
var publicPaths = map[string]bool{
	"/health": true,
}

type verifyResult struct {
	owner string
	err   error
}

// Auth resolves the request's bearer token to an owner id and stores it in
// the context. The check is raced against timeout; a slow, failed or
// missing session answers 401 "not authenticated".
func Auth(verifier SessionVerifier, timeout time.Duration, log zerolog.Logger) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" || verifier == nil {
				WriteError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan verifyResult, 1)
			go func() {
				owner, err := verifier.Verify(ctx, token)
				done <- verifyResult{owner: owner, err: err}
			}()

			var res verifyResult
			select {
			case <-ctx.Done():
				log.Warn().Dur("timeout", timeout).Msg("Session check timed out")
				WriteError(w, http.StatusUnauthorized, "not authenticated")
				return
			case res = <-done:
			}

			if res.err != nil || res.owner == "" {
				log.Debug().Err(res.err).Msg("Session rejected")
				WriteError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), res.owner)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// WithOwnerID stores the authenticated owner id in ctx.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// OwnerID returns the authenticated owner id, or "" when the request was not authenticated.
func OwnerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerIDKey).(string)
	return id
}
