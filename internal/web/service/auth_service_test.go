package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/pkg/apperr"
	"github.com/rl1809/storefront/pkg/logging"
)

func newTestAuth() (*AuthService, *memUsers, *fakeAPI) {
	users := newMemUsers()
	api := newFakeAPI()
	svc := NewAuthService(users, newMemSessions(), api, logging.Discard())
	svc.cost = bcrypt.MinCost
	return svc, users, api
}

func TestRegisterAndLogin(t *testing.T) {
	svc, users, api := newTestAuth()
	ctx := context.Background()

	p, err := svc.Register(ctx, RegisterInput{
		Username: "ada", Email: "ada@example.com", Password: "secret1", Name: "Ada", Address: "1 Main St",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, p.Role)
	assert.NotEmpty(t, p.CustomerID)
	assert.Contains(t, api.customers, p.CustomerID)

	stored, _ := users.GetUserByUsername(ctx, "ada")
	assert.NotEqual(t, "secret1", stored.PasswordHash)

	logged, err := svc.Login(ctx, "ada", "secret1")
	require.NoError(t, err)
	assert.Equal(t, p.UserID, logged.UserID)

	_, err = svc.Login(ctx, "ada", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = svc.Login(ctx, "nobody", "secret1")
	assert.Equal(t, apperr.CodeUnauthorized, apperr.CodeOf(err))
}

func TestRegister_Uniqueness(t *testing.T) {
	svc, _, api := newTestAuth()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "ada", Email: "other@example.com", Password: "secret1"})
	assert.Equal(t, apperr.CodeAlreadyExists, apperr.CodeOf(err))

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "ada@example.com", Password: "secret1"})
	assert.Equal(t, apperr.CodeAlreadyExists, apperr.CodeOf(err))

	assert.Len(t, api.customers, 1)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestAuth()

	tests := []RegisterInput{
		{Email: "a@b.c", Password: "secret1"},
		{Username: "a", Email: "nope", Password: "secret1"},
		{Username: "a", Email: "a@b.c", Password: "short"},
	}
	for _, in := range tests {
		_, err := svc.Register(context.Background(), in)
		assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err), "input %+v", in)
	}
}

func TestRegister_StoreFailureRemovesCustomer(t *testing.T) {
	svc, users, api := newTestAuth()
	users.err = errors.New("db down")

	_, err := svc.Register(context.Background(), RegisterInput{Username: "ada", Email: "ada@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.Empty(t, api.customers)
	assert.Len(t, api.deleted, 1)
}

func TestSessions(t *testing.T) {
	svc, _, _ := newTestAuth()
	ctx := context.Background()
	p := domain.Principal{UserID: 1, Username: "ada"}

	token, err := svc.StartSession(ctx, p)
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)

	require.NoError(t, svc.Logout(ctx, token))
	got, err = svc.Resolve(ctx, token)
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Resolve(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
