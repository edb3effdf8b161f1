package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/odontoforense/case-api/models"
)

// MiddlewareDB wires the token verifier into go-guardian
type MiddlewareDB struct {
	Verifier TokenVerifier

	authenticator auth.Authenticator
}

// NewMiddleware sets up go-guardian with a bearer strategy backed by the JWT verifier.
// Verified tokens are cached for a minute so repeated REST calls skip the user lookup.
func NewMiddleware(v TokenVerifier) *MiddlewareDB {
	m := &MiddlewareDB{Verifier: v}
	cache := store.NewFIFO(context.Background(), time.Minute)
	tokenStrategy := bearer.New(m.authenticateToken, cache)

	m.authenticator = auth.New()
	m.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
	return m
}

func (m *MiddlewareDB) authenticateToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	identity, err := m.Verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(identity.Name, identity.UserID, []string{identity.Role}, nil), nil
}

// Middleware rejects requests without a valid bearer token and stores the caller identity
// on the request context
func (m *MiddlewareDB) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := m.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated\n", user.UserName())

		identity := models.Identity{UserID: user.ID(), Name: user.UserName()}
		if groups := user.Groups(); len(groups) > 0 {
			identity.Role = groups[0]
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// BearerToken extracts the credential of a WebSocket handshake, from the token query
// parameter or the Authorization header
func BearerToken(r *http.Request) string {
	if t := strings.TrimSpace(r.URL.Query().Get("token")); t != "" {
		return t
	}
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
