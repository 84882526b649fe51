package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.lumeweb.com/accounts/core"
)

type AuthTokenContextKeyType string
type AccountContextKeyType string

type FindAuthTokenFunc func(r *http.Request) string

// AuthErrorFunc writes the response for a rejected request.
type AuthErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

func FindAuthToken(r *http.Request, cookieName string, queryParam string) string {
	authHeader := ParseAuthTokenHeader(r.Header)

	if authHeader != "" {
		return authHeader
	}

	if cookie, err := r.Cookie(cookieName); cookie != nil && err == nil {
		return cookie.Value
	}

	return r.URL.Query().Get(queryParam)
}

func ParseAuthTokenHeader(headers http.Header) string {
	authHeader := headers.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	authHeader = strings.TrimPrefix(authHeader, "Bearer ")
	authHeader = strings.TrimPrefix(authHeader, "bearer ")

	return strings.TrimSpace(authHeader)
}

type AuthMiddlewareOptions struct {
	Accounts  core.AccountService
	FindToken FindAuthTokenFunc
	OnError   AuthErrorFunc
}

// AuthMiddleware admits a request only when its token verifies and is still the one stored on the account.
func AuthMiddleware(options AuthMiddlewareOptions) func(http.Handler) http.Handler {
	if options.FindToken == nil {
		options.FindToken = func(r *http.Request) string {
			return FindAuthToken(r, core.AUTH_COOKIE_NAME, core.AUTH_TOKEN_NAME)
		}
	}

	if options.OnError == nil {
		options.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authToken := options.FindToken(r)

			if authToken == "" {
				options.OnError(w, r, core.NewAccountError(core.ErrKeyUnauthorized, nil))
				return
			}

			account, err := options.Accounts.Authenticate(r.Context(), authToken)
			if err != nil {
				options.OnError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), DEFAULT_ACCOUNT_CONTEXT_KEY, account)
			ctx = context.WithValue(ctx, AUTH_TOKEN_CONTEXT_KEY, authToken)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
