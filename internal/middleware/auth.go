package middleware

import (
	"net/http"

	"bistro-pos/internal/auth"
	"bistro-pos/internal/logger"
)

// AuthMiddleware resolves the acting staff member from the access token.
// Requests without a token pass through anonymously; handlers that mutate
// state reject them. A token that fails validation is rejected here.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := auth.ParseToken(tokenStr, secret)
			if err != nil {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			ctx := auth.WithActor(r.Context(), actor)
			ctx = logger.WithActorID(ctx, actor.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
