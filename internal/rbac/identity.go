package rbac

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/internal/shared"
)

// DefaultIdentityHeader carries the user id set by the identity provider.
const DefaultIdentityHeader = "X-User-ID"

// Identify attaches the caller identity from header to the request context.
// Requests without the header pass through anonymously; permission checks
// reject them later.
func Identify(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultIdentityHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(header))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := parseUserID(raw)
			if err != nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
				return
			}
			ctx := shared.ContextWithIdentity(r.Context(), shared.Identity{UserID: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", shared.ErrMalformedIdentity, raw)
	}
	return id, nil
}
