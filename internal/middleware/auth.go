package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusUnauthorized, apperror.CodeUnauthenticated, "missing authorization header")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, http.StatusUnauthorized, apperror.CodeUnauthenticated, "invalid authorization format")
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, apperror.CodeUnauthenticated, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireLocation restricts a route with a {location} param to callers whose
// token is bound to that location. ADMIN can access any location.
func RequireLocation(param func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, apperror.CodeUnauthenticated, "not authenticated")
				return
			}

			location := param(r)
			if location == "" {
				writeError(w, http.StatusBadRequest, apperror.CodeValidation, "missing location")
				return
			}

			if !CanAccessLocation(claims, location) {
				writeError(w, http.StatusForbidden, apperror.CodeForbidden, "access denied for this location")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CanAccessLocation reports whether claims allow acting on location.
func CanAccessLocation(claims *auth.Claims, location string) bool {
	if claims.IsAdmin() {
		return true
	}
	return claims != nil && strings.EqualFold(claims.Location, location)
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusUnauthorized, apperror.CodeUnauthenticated, "not authenticated")
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeError(w, http.StatusForbidden, apperror.CodeForbidden, "insufficient permissions")
		})
	}
}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func writeError(w http.ResponseWriter, status int, code apperror.Code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": string(code)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// QueryToken promotes a ?token= query parameter to a bearer header for
// clients that cannot set headers, such as browser WebSockets.
func QueryToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if token := r.URL.Query().Get("token"); token != "" {
				r = r.Clone(r.Context())
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		next.ServeHTTP(w, r)
	})
}
