package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"propalyst/internal/model"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "scraped_properties.json"), zap.NewNop())
}

const squareYardsURL = "https://www.squareyards.com/sale/3-bhk-whitefield"

func TestFileStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	records := []model.PropertyRecord{
		{"title": "3 BHK Villa", "price": "1.2 Cr"},
		{"title": "2 BHK Flat", "price": "80 L"},
	}
	require.NoError(t, s.Save(ctx, squareYardsURL, records, model.SourceSquareYards))

	entry, err := s.Load(ctx, squareYardsURL)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, model.SourceSquareYards, entry.Type)
	assert.Equal(t, squareYardsURL, entry.SourceURL)
	assert.False(t, entry.ScrapedAt.IsZero())
	require.Len(t, entry.Data, 2)
	assert.Equal(t, "3 BHK Villa", entry.Data[0].String("title"))
}

func TestFileStoreFullReplace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := []model.PropertyRecord{{"title": "old"}, {"title": "old2"}}
	second := []model.PropertyRecord{{"title": "new"}}

	require.NoError(t, s.Save(ctx, squareYardsURL, first, model.SourceSquareYards))
	require.NoError(t, s.Save(ctx, squareYardsURL, second, model.SourceSquareYards))

	entry, err := s.Load(ctx, squareYardsURL)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Len(t, entry.Data, 1, "save must replace, not merge")
	assert.Equal(t, "new", entry.Data[0].String("title"))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFileStoreLoadUnseen(t *testing.T) {
	s := newTestStore(t)
	entry, err := s.Load(context.Background(), "https://never-seen.example.com")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestFileStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, squareYardsURL, []model.PropertyRecord{{"title": "x"}}, model.SourceSquareYards))
	require.NoError(t, s.Delete(ctx, squareYardsURL))

	entry, err := s.Load(ctx, squareYardsURL)
	require.NoError(t, err)
	assert.Nil(t, entry)

	assert.ErrorIs(t, s.Delete(ctx, squareYardsURL), ErrNotFound)
}

func TestFileStoreClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, squareYardsURL, []model.PropertyRecord{{"title": "x"}}, model.SourceSquareYards))
	require.NoError(t, s.Clear(ctx))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileStoreMigratesKeyedRecordArrays(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scraped_properties.json")

	legacy := `{
		"https://www.magicbricks.com/flats-bangalore": [
			{"title": "2 BHK", "super_area": "1100 sqft"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s := NewFileStore(path, zap.NewNop())
	ctx := context.Background()

	entry, err := s.Load(ctx, "https://www.magicbricks.com/flats-bangalore")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, model.SourceMagicBricks, entry.Type)
	require.Len(t, entry.Data, 1)
	assert.Equal(t, "2 BHK", entry.Data[0].String("title"))

	// the migrated file is now the array format
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('['), raw[0])
}

func TestFileStoreMigratesKeyedEnvelopes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scraped_properties.json")

	legacy := `{
		"https://www.squareyards.com/sale/x": {
			"type": "squareyards",
			"source_url": "https://www.squareyards.com/sale/x",
			"scraped_at": "2025-11-02T10:00:00Z",
			"data": [{"title": "Villa"}]
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s := NewFileStore(path, zap.NewNop())
	entry, err := s.Load(context.Background(), "https://www.squareyards.com/sale/x")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, model.SourceSquareYards, entry.Type)
	assert.Equal(t, 2025, entry.ScrapedAt.Year())
	require.Len(t, entry.Data, 1)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	all, err := s.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}
