package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
)

const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(raw string) (identity.Claims, error)
}

// Authenticate resolves the caller from a bearer token. When trustHeaders is
// set (the service runs behind the gateway) X-User-Id / X-User-Role are
// accepted for requests without a token. Anonymous requests pass through;
// RequireUser and RequireAdmin enforce access.
func Authenticate(tokens TokenParser, trustHeaders bool, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearerToken(r); ok {
				if tokens == nil {
					writeError(w, r, http.StatusUnauthorized, "invalid token")
					return
				}
				claims, err := tokens.Parse(raw)
				if err != nil {
					logger.Printf("reject token correlationId=%s: %v", GetCorrelationID(r.Context()), err)
					writeError(w, r, http.StatusUnauthorized, "invalid token")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), claims.UserID, claims.Role)))
				return
			}

			if trustHeaders {
				if uid := strings.TrimSpace(r.Header.Get(HeaderUserID)); uid != "" {
					role := strings.TrimSpace(r.Header.Get(HeaderUserRole))
					if role == "" {
						role = identity.RoleUser
					}
					next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), uid, role)))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRole(r.Context()) != identity.RoleAdmin {
			writeError(w, r, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// bearerToken reads the Authorization header. Browsers cannot set headers on a
// websocket handshake, so upgrades may carry the token as ?access_token=.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		if websocket.IsWebSocketUpgrade(r) {
			token := strings.TrimSpace(r.URL.Query().Get("access_token"))
			return token, token != ""
		}
		return "", false
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
