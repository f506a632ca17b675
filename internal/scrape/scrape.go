package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"propalyst/internal/config"
	"propalyst/internal/model"
)

// Fetcher retrieves raw listing records for a URL. The actual browser
// automation lives in a separate crawler service; this side only sees
// structured records.
type Fetcher interface {
	FetchListings(ctx context.Context, listingURL string) ([]model.PropertyRecord, error)
}

// CrawlerFetcher talks to the external crawler service over HTTP.
type CrawlerFetcher struct {
	baseURL    string
	httpClient *http.Client
}

func NewCrawlerFetcher(cfg config.ScrapeConfig) *CrawlerFetcher {
	return &CrawlerFetcher{
		baseURL: cfg.CrawlerBaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
	}
}

// crawlerResponse is the crawler service's reply envelope.
type crawlerResponse struct {
	Success    bool                   `json:"success"`
	Properties []model.PropertyRecord `json:"properties"`
	Error      string                 `json:"error,omitempty"`
}

func (f *CrawlerFetcher) FetchListings(ctx context.Context, listingURL string) ([]model.PropertyRecord, error) {
	endpoint := fmt.Sprintf("%s/scrape?url=%s", f.baseURL, url.QueryEscape(listingURL))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("scrape: create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape: crawler request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scrape: read crawler response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scrape: crawler returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed crawlerResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("scrape: unmarshal crawler response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("scrape: crawler failed: %s", parsed.Error)
	}
	return parsed.Properties, nil
}

// Service wraps a Fetcher with source detection. Scrape failures are hard
// errors; there is no cached or degraded result at this layer.
type Service struct {
	fetcher Fetcher
	log     *zap.Logger
}

func NewService(fetcher Fetcher, log *zap.Logger) *Service {
	return &Service{fetcher: fetcher, log: log}
}

// Scrape fetches listings for a URL and reports the detected source site.
func (s *Service) Scrape(ctx context.Context, listingURL string) ([]model.PropertyRecord, string, error) {
	source := model.DetectSource(listingURL)

	s.log.Info("scraping listings",
		zap.String("url", listingURL),
		zap.String("source", source))

	records, err := s.fetcher.FetchListings(ctx, listingURL)
	if err != nil {
		return nil, source, err
	}

	s.log.Info("scrape complete",
		zap.String("source", source),
		zap.Int("count", len(records)))
	return records, source, nil
}
