package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-procurement/internal/common/errors"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, "be-procurement")

	token, exp, err := issuer.Issue(UserContext{UserID: "u1", Email: "a@example.com", Role: RoleApprover})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	uc, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, &UserContext{UserID: "u1", Email: "a@example.com", Role: RoleApprover}, uc)
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenIssuer("secret", time.Hour, "be-procurement").Issue(UserContext{UserID: "u1", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", time.Hour, "be-procurement").Parse(token)
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute, "be-procurement")
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err := issuer.Issue(UserContext{UserID: "u1", Role: RoleRequester})
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Parse(token)
	require.Error(t, err)
	assert.Equal(t, "token expired", err.Error())
}

func TestTokenIssuer_RejectsUnknownRole(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, "be-procurement")
	token, _, err := issuer.Issue(UserContext{UserID: "u1", Role: "superuser"})
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}

func TestGetUserContext_Missing(t *testing.T) {
	_, err := GetUserContext(context.Background())
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized))
}

func TestMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, "be-procurement")
	token, _, err := issuer.Issue(UserContext{UserID: "u7", Email: "x@example.com", Role: RoleRequester})
	require.NoError(t, err)

	var seen *UserContext
	h := Middleware(issuer, func(w http.ResponseWriter, err error) {
		w.WriteHeader(errors.HTTPStatus(err))
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("header", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "u7", seen.UserID)
	})

	t.Run("cookie", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOptionalMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour, "be-procurement")
	token, _, err := issuer.Issue(UserContext{UserID: "admin-1", Role: RoleAdmin})
	require.NoError(t, err)

	var seen *UserContext
	h := OptionalMiddleware(issuer, func(w http.ResponseWriter, err error) {
		w.WriteHeader(errors.HTTPStatus(err))
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, seen)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotNil(t, seen)
	assert.Equal(t, RoleAdmin, seen.Role)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
