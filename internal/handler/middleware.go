package handler

import (
	"context"
	"net/http"

	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/pkg/auth"
	"tush00nka/filestash/internal/pkg/httputils"
	"tush00nka/filestash/internal/service"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// RequireUser resolves the session token of the request to its user and
// rejects requests without a valid session.
func RequireUser(users service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.TokenFromRequest(r)
			user, err := users.CurrentUser(r.Context(), token)
			if err != nil {
				httputils.ResponseAppError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// currentUser is only called behind RequireUser.
func currentUser(r *http.Request) *model.User {
	user, _ := UserFromContext(r.Context())
	return user
}
