package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookstore/models"
	"bookstore/services"

	"github.com/stretchr/testify/require"
)

type fakeAuth map[string]services.Identity

func (f fakeAuth) Authenticate(token string) (services.Identity, error) {
	id, ok := f[token]
	if !ok {
		return services.Identity{}, errors.New("bad token")
	}
	return id, nil
}

var testAuth = fakeAuth{
	"user-token":  {UserID: 1, Username: "u", Role: models.RoleUser},
	"admin-token": {UserID: 2, Username: "a", Role: models.RoleAdmin},
}

func serve(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	Identify(testAuth)(h).ServeHTTP(rec, req)
	return rec
}

func TestIdentify(t *testing.T) {
	var got services.Identity
	var found bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, found = IdentityFrom(r.Context())
	})

	serve(h, "Bearer user-token")
	require.True(t, found)
	require.Equal(t, int64(1), got.UserID)

	for _, header := range []string{"", "Bearer", "Basic user-token", "Bearer nope", "Bearer a b"} {
		serve(h, header)
		require.False(t, found, header)
	}
}

func TestRequireAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.Equal(t, http.StatusUnauthorized, serve(RequireAuth(ok), "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(RequireAuth(ok), "Bearer expired").Code)
	require.Equal(t, http.StatusNoContent, serve(RequireAuth(ok), "bearer user-token").Code)
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.Equal(t, http.StatusUnauthorized, serve(RequireAdmin(ok), "").Code)
	require.Equal(t, http.StatusForbidden, serve(RequireAdmin(ok), "Bearer user-token").Code)
	require.Equal(t, http.StatusNoContent, serve(RequireAdmin(ok), "Bearer admin-token").Code)
}
