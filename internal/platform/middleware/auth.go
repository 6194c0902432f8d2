package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"expedientes/pkg/domain"
	"expedientes/pkg/requestcontext"
)

// ActorValidator resolves a bearer token to the policy identity.
type ActorValidator interface {
	ValidateActor(tokenString string) (domain.Actor, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved actor in the request context.
func RequireAuth(validator ActorValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			tokenString, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || tokenString == "" {
				logger.WarnContext(ctx, "unauthorized access, missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			actor, err := validator.ValidateActor(tokenString)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access, invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithActor(ctx, actor)))
		})
	}
}

// RequireRoles rejects authenticated requests whose actor is not in the
// allowed set. Fine-grained ownership checks stay in the policy package;
// this only trims routes whole roles can never use.
func RequireRoles(roles ...domain.Rol) func(http.Handler) http.Handler {
	allowed := make(map[domain.Rol]bool, len(roles))
	for _, rol := range roles {
		allowed[rol] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := requestcontext.Actor(r.Context())
			if !ok {
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}
			if !allowed[actor.Rol] {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
