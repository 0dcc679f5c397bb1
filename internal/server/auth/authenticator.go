package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
)

// UserLookup finds stored credentials by username. Implementations return
// common.ErrorNotFound for unknown users.
type UserLookup interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Authenticator turns a username and password into an access token.
type Authenticator struct {
	hasher    *Hasher
	issuer    *Issuer
	dummyHash string
}

// NewAuthenticator precomputes a throwaway hash with the hasher's current
// parameters. Unknown usernames are verified against it so they cost the
// same as a real user.
func NewAuthenticator(h *Hasher, i *Issuer) (*Authenticator, error) {
	dummy, err := h.Hash("thoughtboard-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &Authenticator{hasher: h, issuer: i, dummyHash: dummy}, nil
}

// Login verifies the credentials against lookup and issues a token with the
// default TTL. Unknown users and wrong passwords both yield
// common.ErrInvalidCredentials. Any other lookup failure, including a
// cancelled context, yields common.ErrUnavailable wrapping the cause.
func (a *Authenticator) Login(ctx context.Context, username, password string, lookup UserLookup) (string, *models.User, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}

	user, err := lookup.FindUserByUsername(ctx, username)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		a.hasher.Verify(password, a.dummyHash)
		return "", nil, common.ErrInvalidCredentials
	case err != nil:
		return "", nil, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	case user == nil:
		return "", nil, fmt.Errorf("%w: lookup returned no user", common.ErrUnavailable)
	}

	if !a.hasher.Verify(password, user.HashedPassword) {
		return "", nil, common.ErrInvalidCredentials
	}

	token, err := a.issuer.Issue(user.Username, 0)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Issuer exposes the token issuer used for verification by transports.
func (a *Authenticator) Issuer() *Issuer {
	return a.issuer
}

// Hasher exposes the password hasher.
func (a *Authenticator) Hasher() *Hasher {
	return a.hasher
}
