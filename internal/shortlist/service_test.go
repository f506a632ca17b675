package shortlist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"propalyst/internal/model"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(filepath.Join(t.TempDir(), "shortlists.json"), zap.NewNop())
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "3 bhk under 1cr in whitefield", "https://www.squareyards.com/x",
		[]model.PropertyRecord{{"title": "3 BHK Villa"}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.CreatedAt)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "3 bhk under 1cr in whitefield", got.Description)
	require.Len(t, got.Properties, 1)
}

func TestAllAccumulates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "first", "url1", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "second", "url2", nil)
	require.NoError(t, err)

	items, err := svc.All(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].ID, items[1].ID)
}

func TestDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "to delete", "url", nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrNotFound)
}

func TestEmptyFile(t *testing.T) {
	svc := newTestService(t)
	items, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}
