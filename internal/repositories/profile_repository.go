package repositories

import (
	"context"
	"errors"

	"postbox/internal/models"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore persists participant profiles keyed by their uuid.
type ProfileStore interface {
	Save(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, uuid string) (*models.Profile, error)
	Ping(ctx context.Context) error
}

var (
	_ ProfileStore = (*RedisProfileStore)(nil)
	_ ProfileStore = (*SQLProfileStore)(nil)
	_ ProfileStore = (*MongoProfileStore)(nil)
)
