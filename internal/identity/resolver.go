// Package identity turns a session credential into the participant profile it
// belongs to.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"postbox/internal/models"
	"postbox/internal/repositories"
	"postbox/internal/utils"
)

var ErrIdentityNotFound = errors.New("identity could not be resolved")

type ProfileGetter interface {
	Get(ctx context.Context, uuid string) (*models.Profile, error)
}

type Resolver struct {
	profiles   ProfileGetter
	secret     []byte
	cookieName string
}

func NewResolver(profiles ProfileGetter, secret []byte, cookieName string) *Resolver {
	return &Resolver{profiles: profiles, secret: secret, cookieName: cookieName}
}

// Resolve verifies a session token and loads the profile it names. Missing,
// invalid or expired tokens and unknown profiles all yield ErrIdentityNotFound;
// store failures are returned wrapped as they are.
func (r *Resolver) Resolve(ctx context.Context, token string) (*models.Profile, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: %v", ErrIdentityNotFound, utils.ErrMissingToken)
	}
	claims, err := utils.ValidateSessionToken(token, r.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityNotFound, err)
	}
	p, err := r.profiles.Get(ctx, claims.Subject)
	if errors.Is(err, repositories.ErrProfileNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrIdentityNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	return p, nil
}

// ResolveRequest reads the credential from the session cookie or bearer header.
func (r *Resolver) ResolveRequest(req *http.Request) (*models.Profile, error) {
	token, err := utils.TokenFromRequest(req, r.cookieName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityNotFound, err)
	}
	return r.Resolve(req.Context(), token)
}
