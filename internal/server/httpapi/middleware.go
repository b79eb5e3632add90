package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/RulzOrg/resumate-sub008/internal/common"
	"github.com/RulzOrg/resumate-sub008/internal/server/auth"
)

type ctxKey int

const userIDKey ctxKey = iota

// userIDFromContext returns the authenticated user id, or "" outside the
// auth middleware.
func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// withAuth verifies the bearer token and stores the user id in the request
// context. All session routes sit behind it; ownership scoping in the
// repositories does the rest.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(common.AccessTokenHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, codeUnauthorized, common.ErrorUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, a.secretKey)
		if err != nil {
			respondError(w, http.StatusUnauthorized, codeUnauthorized, common.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}
