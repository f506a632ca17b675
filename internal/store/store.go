package store

import (
	"context"
	"errors"

	"propalyst/internal/model"
)

// ErrNotFound is returned by Delete for a URL that was never saved.
var ErrNotFound = errors.New("store: url not found")

// Store persists scraped listings keyed by source URL. Save is a full
// replace for its URL, never a merge. Load returns nil (not an error) for a
// URL that was never saved.
type Store interface {
	Save(ctx context.Context, url string, records []model.PropertyRecord, source string) error
	Load(ctx context.Context, url string) (*model.StoredEntry, error)
	All(ctx context.Context) ([]model.StoredEntry, error)
	Delete(ctx context.Context, url string) error
	Clear(ctx context.Context) error
}
