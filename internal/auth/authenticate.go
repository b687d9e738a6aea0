package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	ledenhttp "github.com/ledenhub/ledenhub/internal/http"
	"github.com/ledenhub/ledenhub/internal/store"
)

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// Authenticate resolves the caller from the Authorization header.
//
// Requests without the header continue anonymously. A header that is not a valid bearer
// token, or names an unknown user, is rejected with 401. Otherwise the user and its
// member are loaded and the Principal is attached to the context.
func Authenticate(verifier TokenVerifier, users store.UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()

			token, ok := extractBearerToken(header)
			if !ok {
				log.Ctx(ctx).Warn().Msg("Malformed Authorization header")
				ledenhttp.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := verifier.Verify(ctx, token)
			if err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("Failed to verify bearer token")
				ledenhttp.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, _ := claims.UserID()

			user, err := users.Get(ctx, userID)
			if err != nil {
				if errors.Is(err, store.ErrUserNotFound) {
					log.Ctx(ctx).Warn().Str("principal_id", userID.String()).Msg("Token subject has no user")
					ledenhttp.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				log.Ctx(ctx).Error().Err(err).Str("principal_id", userID.String()).Msg("Failed to load user")
				ledenhttp.WriteInternalError(w)
				return
			}

			principal := NewPrincipal(user)

			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("principal_id", principal.UserID.String())
			})

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}
