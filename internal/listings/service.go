package listings

import (
	"context"
	"time"

	"go.uber.org/zap"

	"propalyst/internal/model"
	"propalyst/internal/scoring"
	"propalyst/internal/scrape"
	"propalyst/internal/store"
)

// Service orchestrates the listing pipeline: scrape (or serve from cache),
// persist, then relevance-score.
type Service struct {
	scraper *scrape.Service
	store   store.Store
	scorer  *scoring.Scorer
	log     *zap.Logger
}

func NewService(scraper *scrape.Service, st store.Store, scorer *scoring.Scorer, log *zap.Logger) *Service {
	return &Service{scraper: scraper, store: st, scorer: scorer, log: log}
}

// Details scrapes a URL fresh and persists the result.
type DetailsResult struct {
	Properties []model.PropertyRecord
	Source     string
	ScrapedAt  time.Time
}

func (s *Service) Details(ctx context.Context, url string) (*DetailsResult, error) {
	records, source, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, url, records, source); err != nil {
		// persistence failure is logged, not fatal: the scrape result is
		// still good
		s.log.Error("failed to persist scraped listings", zap.Error(err))
	}
	return &DetailsResult{
		Properties: records,
		Source:     source,
		ScrapedAt:  time.Now().UTC(),
	}, nil
}

// ScoreResult is the outcome of a scoring run.
type ScoreResult struct {
	Properties []model.PropertyRecord
	Source     string
	FromCache  bool
	APICalls   int
}

// Score runs the full pipeline for a URL and query. With useCache, a
// previously saved scrape for the URL short-circuits the crawler.
func (s *Service) Score(ctx context.Context, url, query string, batchSize int, useCache bool) (*ScoreResult, error) {
	return s.score(ctx, url, query, batchSize, useCache, nil)
}

// ScoreStream is Score with a per-record callback as batches complete.
func (s *Service) ScoreStream(ctx context.Context, url, query string, batchSize int, useCache bool, emit func(index int, record model.PropertyRecord)) (*ScoreResult, error) {
	return s.score(ctx, url, query, batchSize, useCache, emit)
}

func (s *Service) score(ctx context.Context, url, query string, batchSize int, useCache bool, emit func(int, model.PropertyRecord)) (*ScoreResult, error) {
	var (
		records   []model.PropertyRecord
		source    string
		fromCache bool
	)

	if useCache {
		entry, err := s.store.Load(ctx, url)
		if err != nil {
			s.log.Error("cache lookup failed", zap.Error(err))
		} else if entry != nil && len(entry.Data) > 0 {
			records = entry.Data
			source = entry.Type
			fromCache = true
			s.log.Info("serving listings from cache",
				zap.String("url", url),
				zap.Int("count", len(records)))
		}
	}

	if !fromCache {
		var err error
		records, source, err = s.scraper.Scrape(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := s.store.Save(ctx, url, records, source); err != nil {
			s.log.Error("failed to persist scraped listings", zap.Error(err))
		}
	}

	var apiCalls int
	if emit != nil {
		apiCalls = s.scorer.ScoreAllStream(ctx, records, query, source, batchSize, emit)
	} else {
		apiCalls = s.scorer.ScoreAll(ctx, records, query, source, batchSize)
	}

	return &ScoreResult{
		Properties: records,
		Source:     source,
		FromCache:  fromCache,
		APICalls:   apiCalls,
	}, nil
}
