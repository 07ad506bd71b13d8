package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	authpkg "github.com/akluev/vendops/pkg/auth"
)

type contextKey string

const (
	// CtxUserID stores the authenticated operator's id (string).
	CtxUserID contextKey = "userID"
	// CtxClaims stores the JWT claims (map[string]interface{}).
	CtxClaims contextKey = "claims"
)

// RequireAuth validates the JWT (Authorization header, with access_token
// cookie fallback for browser sessions) and stores claims/userID in context.
func RequireAuth(auth authpkg.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				if c, err := r.Cookie("access_token"); err == nil && c.Value != "" {
					r.Header.Set("Authorization", "Bearer "+c.Value)
				}
			}
			claims, ok := auth.Authenticate(r)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			var uid string
			if v, ok := claims["sub"].(string); ok && v != "" {
				uid = v
			} else if v, ok := claims["user_id"].(string); ok && v != "" {
				uid = v
			}
			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = context.WithValue(ctx, CtxUserID, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole requires a role claim (exact match). Must run after RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := r.Context().Value(CtxClaims).(map[string]interface{})
			if claims == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			if got, ok := claims["role"].(string); !ok || got != role {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
