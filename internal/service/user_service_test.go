package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/errors"
	"github.com/pesio-ai/be-procurement/internal/common/logger"
	"github.com/pesio-ai/be-procurement/internal/repository"
)

type memUsers struct {
	byID map[string]*repository.User
}

func (m *memUsers) Create(_ context.Context, u *repository.User) error {
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return &errors.AppError{Code: errors.ErrCodeConflict, Message: "email already registered", Field: "email"}
		}
	}
	u.ID = fmt.Sprintf("user-%d", len(m.byID)+1)
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*repository.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, errors.NotFound("user", id)
	}
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.NotFound("user", email)
}

func (m *memUsers) ListIDsByRole(_ context.Context, role string) ([]string, error) {
	var ids []string
	for id, u := range m.byID {
		if u.Role == role {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func newUserService() (*UserService, *auth.TokenIssuer) {
	issuer := auth.NewTokenIssuer("test-secret", time.Hour, "be-procurement")
	return NewUserService(&memUsers{byID: map[string]*repository.User{}}, issuer, enforcer(), logger.Nop()), issuer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, issuer := newUserService()
	ctx := context.Background()

	u, err := svc.Register(ctx, nil, &RegisterInput{Name: "Ana", Email: " Ana@Example.com ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleRequester, u.Role)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	res, err := svc.Login(ctx, "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	uc, err := issuer.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uc.UserID)
	assert.Equal(t, auth.RoleRequester, uc.Role)

	me, err := svc.Me(ctx, uc)
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()
	_, err := svc.Register(ctx, nil, &RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "ana@example.com", "nope-nope")
	_, unknownEmail := svc.Login(ctx, "bob@example.com", "s3cret-pass")

	assert.True(t, errors.Is(wrongPassword, errors.ErrCodeUnauthorized))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestRegister_PrivilegedRolesNeedAdmin(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, nil, &RegisterInput{Name: "Eve", Email: "eve@example.com", Password: "password1", Role: "admin"})
	assert.True(t, errors.Is(err, errors.ErrCodeForbidden))

	_, err = svc.Register(ctx, approver("appr"), &RegisterInput{Name: "Eve", Email: "eve@example.com", Password: "password1", Role: "approver"})
	assert.True(t, errors.Is(err, errors.ErrCodeForbidden))

	u, err := svc.Register(ctx, admin("root"), &RegisterInput{Name: "Pat", Email: "pat@example.com", Password: "password1", Role: "approver"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleApprover, u.Role)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newUserService()

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "password1"}, "name"},
		{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "password1"}, "email"},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "short"}, "password"},
		{"unknown role", RegisterInput{Name: "A", Email: "a@b.co", Password: "password1", Role: "cfo"}, "role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), nil, &tt.in)

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newUserService()
	in := &RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "password1"}

	_, err := svc.Register(context.Background(), nil, in)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), nil, in)
	assert.True(t, errors.Is(err, errors.ErrCodeConflict))
}
