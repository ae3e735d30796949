package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeEnforce, m)

	m, err = ParseMode(" Shadow ")
	require.NoError(t, err)
	assert.Equal(t, ModeShadow, m)

	_, err = ParseMode("nope")
	assert.Error(t, err)
}

func TestParseMode_DisabledRequiresUnsafe(t *testing.T) {
	t.Setenv("AUTHZ_UNSAFE_ALLOW_DISABLED", "")
	_, err := ParseMode("disabled")
	require.Error(t, err)

	t.Setenv("AUTHZ_UNSAFE_ALLOW_DISABLED", "1")
	m, err := ParseMode("disabled")
	require.NoError(t, err)
	assert.Equal(t, ModeDisabled, m)
}

func TestDefaultPolicy_RoleInheritance(t *testing.T) {
	a, err := NewDefaultAuthorizer(ModeEnforce)
	require.NoError(t, err)

	cases := []struct {
		role, object, action string
		want                 bool
	}{
		{"requester", "requests", "create", true},
		{"requester", "approvals", "decide", false},
		{"requester", "rules", "write", false},
		{"approver", "requests", "create", true},
		{"approver", "approvals", "decide", true},
		{"approver", "catalog", "write", false},
		{"admin", "approvals", "decide", true},
		{"admin", "rules", "write", true},
		{"admin", "purchase_orders", "write", true},
		{"", "requests", "read", false},
	}
	for _, tc := range cases {
		allowed, enforced, err := a.Authorize(SubjectFromRole(tc.role), tc.object, tc.action)
		require.NoError(t, err)
		assert.True(t, enforced)
		assert.Equal(t, tc.want, allowed, "%s %s %s", tc.role, tc.object, tc.action)
	}
}

func TestAuthorize_ShadowAndDisabled(t *testing.T) {
	shadow, err := NewDefaultAuthorizer(ModeShadow)
	require.NoError(t, err)
	allowed, enforced, err := shadow.Authorize("role:requester", "rules", "write")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.False(t, enforced)

	disabled, err := NewDefaultAuthorizer(ModeDisabled)
	require.NoError(t, err)
	allowed, enforced, err = disabled.Authorize("role:requester", "rules", "write")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.False(t, enforced)
}

func TestNewAuthorizer_InvalidModel(t *testing.T) {
	_, err := NewAuthorizer("nope", "", ModeEnforce)
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	a, err := NewDefaultAuthorizer(ModeEnforce)
	require.NoError(t, err)

	writeErr := func(w http.ResponseWriter, err error) { w.WriteHeader(errors.HTTPStatus(err)) }
	h := Require(a, zerolog.Nop(), "rules", "write", writeErr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(uc *auth.UserContext) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/rules", nil)
		if uc != nil {
			req = req.WithContext(auth.WithUserContext(req.Context(), uc))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(&auth.UserContext{UserID: "u1", Role: auth.RoleAdmin}))
	assert.Equal(t, http.StatusForbidden, serve(&auth.UserContext{UserID: "u2", Role: auth.RoleApprover}))
	assert.Equal(t, http.StatusUnauthorized, serve(nil))
}
