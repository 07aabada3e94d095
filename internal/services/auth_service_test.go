package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain"
	"boutique/internal/services"
)

func TestLoginAuthenticateLogout(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sess, err := f.svc.Auth.Login(ctx, "Jane@Boutique.test", "Passw0rd!")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, domain.RoleSales, sess.User.Role)

	u, err := f.svc.Auth.Authenticate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-jane", u.ID)

	require.NoError(t, f.svc.Auth.Logout(ctx, sess.Token))
	_, err = f.svc.Auth.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated, "logout revokes the token")
}

func TestLoginFailures(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Auth.Login(ctx, "jane@boutique.test", "wrong")
	assert.ErrorIs(t, err, services.ErrBadCreds)
	_, err = f.svc.Auth.Login(ctx, "nobody@boutique.test", "Passw0rd!")
	assert.ErrorIs(t, err, services.ErrBadCreds)

	_, err = f.svc.Auth.Authenticate(ctx, "not.a.token")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	sess, err := f.svc.Auth.Login(ctx, "tom@boutique.test", "Passw0rd!")
	require.NoError(t, err)
	_, err = f.svc.Auth.Authenticate(ctx, sess.Token+"x")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestUserManagement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := services.NewUser{Email: "amina@boutique.test", Name: "Amina", Role: "SALES", Password: "Str0ng!pass"}
	u, err := f.svc.Auth.CreateUser(ctx, f.admin, in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSales, u.Role)

	_, err = f.svc.Auth.Login(ctx, "amina@boutique.test", "Str0ng!pass")
	assert.NoError(t, err)

	_, err = f.svc.Auth.CreateUser(ctx, f.admin, in)
	assert.ErrorIs(t, err, domain.ErrConflict)

	weak := in
	weak.Email, weak.Password = "weak@boutique.test", "password"
	_, err = f.svc.Auth.CreateUser(ctx, f.admin, weak)
	assert.ErrorIs(t, err, domain.ErrInvalid)

	badRole := in
	badRole.Email, badRole.Role = "boss@boutique.test", "OWNER"
	_, err = f.svc.Auth.CreateUser(ctx, f.admin, badRole)
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = f.svc.Auth.CreateUser(ctx, f.jane, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	users, err := f.svc.Auth.ListUsers(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}
