package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindAuthToken(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{
			name:  "bearer header",
			setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer header-token") },
			want:  "header-token",
		},
		{
			name: "header wins over cookie",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "bearer header-token")
				r.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"})
			},
			want: "header-token",
		},
		{
			name:  "cookie",
			setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"}) },
			want:  "cookie-token",
		},
		{
			name: "query",
			setup: func(r *http.Request) {
				r.URL.RawQuery = "auth_token=query-token"
			},
			want: "query-token",
		},
		{
			name:  "none",
			setup: func(r *http.Request) {},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/users/current", nil)
			tt.setup(r)
			assert.Equal(t, tt.want, FindAuthToken(r, "auth_token", "auth_token"))
		})
	}
}

func TestAuthMiddleware_EmptyTokenCallsOnError(t *testing.T) {
	var called bool

	handler := AuthMiddleware(AuthMiddlewareOptions{
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			called = true
			w.WriteHeader(http.StatusUnauthorized)
		},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetAccountFromContext_Missing(t *testing.T) {
	_, err := GetAccountFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.ErrorIs(t, err, ErrorAccountContextInvalid)
}
