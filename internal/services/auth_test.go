package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterLoginAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, RegisterInput{
		Name:     "Айгүл Серікқызы",
		Email:    " Aigul@Mektep.KZ ",
		Password: "qwerty123",
		Subject:  "Математика",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "aigul@mektep.kz", reg.User.Email)
	assert.NotEqual(t, "qwerty123", reg.User.PasswordHash)

	userID, err := env.auth.Authenticate(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, userID)

	login, err := env.auth.Login(ctx, "AIGUL@mektep.kz", "qwerty123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = env.auth.Login(ctx, "aigul@mektep.kz", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, "nobody@mektep.kz", "qwerty123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"name":     {Email: "a@b.kz", Password: "secret1"},
		"email":    {Name: "A", Email: "not-an-email", Password: "secret1"},
		"password": {Name: "A", Email: "a@b.kz", Password: "123"},
	}
	for field, in := range cases {
		_, err := env.auth.Register(ctx, in)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), field)
		assert.Equal(t, field, verr.Field)
	}

	_, err := env.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@b.kz", Password: "secret1"})
	require.NoError(t, err)
	_, err = env.auth.Register(ctx, RegisterInput{Name: "B", Email: "A@B.kz", Password: "secret2"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_RejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg, err := env.auth.Register(ctx, RegisterInput{Name: "A", Email: "a@b.kz", Password: "secret1"})
	require.NoError(t, err)

	other := NewAuthService(env.store, "another-secret", time.Hour, nil)
	_, err = other.Authenticate(reg.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.auth.Authenticate("garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	env.auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = env.auth.Authenticate(reg.Token)
	assert.ErrorIs(t, err, ErrUnauthorized, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: reg.User.ID})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewAuthService(env.store, "test-secret", time.Hour, nil).Authenticate(unsigned)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
