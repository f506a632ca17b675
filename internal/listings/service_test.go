package listings

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"propalyst/internal/config"
	"propalyst/internal/model"
	"propalyst/internal/scoring"
	"propalyst/internal/scrape"
	"propalyst/internal/store"
)

type countingFetcher struct {
	records []model.PropertyRecord
	err     error
	calls   int
}

func (f *countingFetcher) FetchListings(_ context.Context, _ string) ([]model.PropertyRecord, error) {
	f.calls++
	return f.records, f.err
}

type disabledLLM struct{}

func (disabledLLM) CompleteJSON(_ context.Context, _, _ string) (string, error) {
	return "", fmt.Errorf("disabled")
}

func (disabledLLM) Enabled() bool { return false }

func newTestService(t *testing.T, fetcher *countingFetcher) (*Service, store.Store) {
	t.Helper()
	log := zap.NewNop()
	st := store.NewFileStore(filepath.Join(t.TempDir(), "listings.json"), log)
	scorer := scoring.NewScorer(disabledLLM{}, config.ScoringConfig{BatchSize: 10, MaxRetries: 3}, log)
	return NewService(scrape.NewService(fetcher, log), st, scorer, log), st
}

func TestScoreScrapesAndPersists(t *testing.T) {
	fetcher := &countingFetcher{records: []model.PropertyRecord{{"title": "Villa"}}}
	svc, st := newTestService(t, fetcher)
	ctx := context.Background()

	result, err := svc.Score(ctx, "https://www.squareyards.com/x", "villa", 0, true)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, model.SourceSquareYards, result.Source)
	require.Len(t, result.Properties, 1)
	assert.Equal(t, 1, fetcher.calls)

	entry, err := st.Load(ctx, "https://www.squareyards.com/x")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Len(t, entry.Data, 1)
}

func TestScoreCacheHitSkipsScrape(t *testing.T) {
	fetcher := &countingFetcher{records: []model.PropertyRecord{{"title": "fresh"}}}
	svc, st := newTestService(t, fetcher)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, "https://www.squareyards.com/x",
		[]model.PropertyRecord{{"title": "cached"}}, model.SourceSquareYards))

	result, err := svc.Score(ctx, "https://www.squareyards.com/x", "villa", 0, true)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, 0, fetcher.calls)
	require.Len(t, result.Properties, 1)
	assert.Equal(t, "cached", result.Properties[0]["title"])
}

func TestScoreUseCacheFalseScrapesFresh(t *testing.T) {
	fetcher := &countingFetcher{records: []model.PropertyRecord{{"title": "fresh"}}}
	svc, st := newTestService(t, fetcher)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, "https://www.squareyards.com/x",
		[]model.PropertyRecord{{"title": "cached"}}, model.SourceSquareYards))

	result, err := svc.Score(ctx, "https://www.squareyards.com/x", "villa", 0, false)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, "fresh", result.Properties[0]["title"])
}

func TestScoreScrapeError(t *testing.T) {
	fetcher := &countingFetcher{err: fmt.Errorf("crawler down")}
	svc, _ := newTestService(t, fetcher)

	_, err := svc.Score(context.Background(), "https://www.squareyards.com/x", "villa", 0, true)
	assert.Error(t, err)
}

func TestScoreStreamEmitsEachRecord(t *testing.T) {
	fetcher := &countingFetcher{records: []model.PropertyRecord{
		{"title": "one"}, {"title": "two"}, {"title": "three"},
	}}
	svc, _ := newTestService(t, fetcher)

	var seen []int
	result, err := svc.ScoreStream(context.Background(), "https://www.squareyards.com/x", "villa", 0, true,
		func(index int, _ model.PropertyRecord) {
			seen = append(seen, index)
		})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.Len(t, result.Properties, 3)
}

func TestDetailsAlwaysScrapes(t *testing.T) {
	fetcher := &countingFetcher{records: []model.PropertyRecord{{"title": "fresh"}}}
	svc, st := newTestService(t, fetcher)
	ctx := context.Background()

	require.NoError(t, st.Save(ctx, "https://www.magicbricks.com/x",
		[]model.PropertyRecord{{"title": "cached"}}, model.SourceMagicBricks))

	result, err := svc.Details(ctx, "https://www.magicbricks.com/x")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, model.SourceMagicBricks, result.Source)
	assert.Equal(t, "fresh", result.Properties[0]["title"])
	assert.False(t, result.ScrapedAt.IsZero())
}
