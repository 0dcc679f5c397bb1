package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeLookup struct {
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeLookup) FindUserByUsername(_ context.Context, username string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func newTestAuthenticator(t *testing.T) (*Authenticator, *fakeLookup) {
	t.Helper()
	h := NewHasher(fastParams())
	a, err := NewAuthenticator(h, newTestIssuer(t, 30*time.Minute))
	require.NoError(t, err)

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)

	return a, &fakeLookup{users: map[string]*models.User{
		"alice": {ID: 1, Username: "alice", HashedPassword: hash},
	}}
}

func TestAuthenticator_Login(t *testing.T) {
	a, lookup := newTestAuthenticator(t)

	tok, user, err := a.Login(context.Background(), "alice", "s3cret-pass", lookup)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	sub, err := a.Issuer().Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestAuthenticator_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	a, lookup := newTestAuthenticator(t)
	ctx := context.Background()

	_, _, wrongPass := a.Login(ctx, "alice", "nope", lookup)
	_, _, unknown := a.Login(ctx, "bob", "s3cret-pass", lookup)

	require.ErrorIs(t, wrongPass, common.ErrInvalidCredentials)
	require.ErrorIs(t, unknown, common.ErrInvalidCredentials)
	assert.Equal(t, wrongPass, unknown)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func TestAuthenticator_LookupFailure(t *testing.T) {
	a, lookup := newTestAuthenticator(t)

	for _, cause := range []error{errors.New("connection refused"), context.DeadlineExceeded} {
		lookup.err = cause
		_, _, err := a.Login(context.Background(), "alice", "s3cret-pass", lookup)

		assert.ErrorIs(t, err, common.ErrUnavailable)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
	}
}

func TestAuthenticator_CancelledContext(t *testing.T) {
	a, lookup := newTestAuthenticator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := a.Login(ctx, "alice", "s3cret-pass", lookup)
	assert.ErrorIs(t, err, common.ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, lookup.calls)
}

func TestAuthenticator_LegacyBcryptUser(t *testing.T) {
	a, lookup := newTestAuthenticator(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("old-password"), bcrypt.MinCost)
	require.NoError(t, err)
	lookup.users["carol"] = &models.User{ID: 3, Username: "carol", HashedPassword: string(legacy)}

	_, user, err := a.Login(context.Background(), "carol", "old-password", lookup)
	require.NoError(t, err)
	assert.True(t, a.Hasher().NeedsRehash(user.HashedPassword))
}
