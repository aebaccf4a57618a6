package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

// AccountLookup resolves an identity against the account store.
type AccountLookup interface {
	Lookup(ctx context.Context, kind Kind, id int64) (Identity, error)
}

// AttachAccountFromDB re-reads the token's account so deleted accounts lose
// access before their token expires. The stored name replaces the claim.
func AttachAccountFromDB(accounts AccountLookup, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			claimed, ok := IdentityFromContext(ctx)
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			id, err := accounts.Lookup(ctx, claimed.Kind, claimed.ID)
			switch {
			case errors.Is(err, ErrBadCredentials):
				http.Error(w, "account not found", http.StatusUnauthorized)
				return
			case err != nil:
				log.Error("account lookup", "kind", claimed.Kind, "id", claimed.ID, "err", err)
				http.Error(w, "service unavailable", http.StatusServiceUnavailable)
				return
			}
			ctx = WithIdentity(ctx, id)
			ctx = rbac.WithRole(ctx, string(id.Kind))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
