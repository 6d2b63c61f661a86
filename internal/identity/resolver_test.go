package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postbox/internal/models"
	"postbox/internal/repositories"
	"postbox/internal/testhelpers"
	"postbox/internal/utils"
)

var secret = []byte("resolver-secret")

func seededResolver(t *testing.T) (*Resolver, *models.Profile) {
	t.Helper()
	_, rdb := testhelpers.SetupTestRedis(t)
	store := repositories.NewRedisProfileStore(rdb, 0)
	p := &models.Profile{ID: 7, UUID: "u-1", Name: "Bob", UserName: "bob"}
	require.NoError(t, store.Save(context.Background(), p))
	return NewResolver(store, secret, "session"), p
}

func token(t *testing.T, sub string, ttl time.Duration) string {
	t.Helper()
	tok, _, err := utils.GenerateSessionToken(sub, "", secret, ttl)
	require.NoError(t, err)
	return tok
}

func TestResolveKnownProfile(t *testing.T) {
	r, p := seededResolver(t)

	got, err := r.Resolve(context.Background(), token(t, p.UUID, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "bob", got.UserName)
	assert.Equal(t, int64(7), got.ID)
}

func TestResolveFailures(t *testing.T) {
	r, p := seededResolver(t)

	cases := map[string]string{
		"empty":           "",
		"garbage":         "not-a-jwt",
		"expired":         token(t, p.UUID, -time.Minute),
		"unknown profile": token(t, "u-404", time.Hour),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tok)
			assert.ErrorIs(t, err, ErrIdentityNotFound)
		})
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*models.Profile, error) {
	return nil, errors.New("store down")
}

func TestResolveStoreErrorIsNotIdentityError(t *testing.T) {
	r := NewResolver(failingStore{}, secret, "session")
	_, err := r.Resolve(context.Background(), token(t, "u-1", time.Hour))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrIdentityNotFound))
}

func TestResolveRequestFromCookie(t *testing.T) {
	r, p := seededResolver(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: token(t, p.UUID, time.Hour)})
	got, err := r.ResolveRequest(req)
	require.NoError(t, err)
	assert.Equal(t, p.UUID, got.UUID)

	_, err = r.ResolveRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}
