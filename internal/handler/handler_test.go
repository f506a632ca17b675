package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"propalyst/internal/config"
	"propalyst/internal/conversation"
	"propalyst/internal/listings"
	"propalyst/internal/model"
	"propalyst/internal/scoring"
	"propalyst/internal/scrape"
	"propalyst/internal/session"
	"propalyst/internal/shortlist"
	"propalyst/internal/store"
	"propalyst/internal/uigen"
)

type fakeLLM struct {
	enabled bool
	reply   string
	err     error
}

func (f *fakeLLM) CompleteJSON(_ context.Context, _, _ string) (string, error) {
	return f.reply, f.err
}

func (f *fakeLLM) CompleteText(_ context.Context, _, _ string) (string, error) {
	return f.reply, f.err
}

func (f *fakeLLM) Enabled() bool { return f.enabled }

type stubFetcher struct {
	records []model.PropertyRecord
	err     error
}

func (s *stubFetcher) FetchListings(_ context.Context, _ string) ([]model.PropertyRecord, error) {
	return s.records, s.err
}

func testEnv(t *testing.T, fetcher scrape.Fetcher, llm *fakeLLM) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	st := store.NewFileStore(filepath.Join(t.TempDir(), "listings.json"), log)
	scorer := scoring.NewScorer(llm, config.ScoringConfig{BatchSize: 10, MaxRetries: 3}, log)
	scraper := scrape.NewService(fetcher, log)
	listingSvc := listings.NewService(scraper, st, scorer, log)

	flow := conversation.NewFlow(session.NewMemoryStore(), llm, log)
	shortlists := shortlist.NewService(filepath.Join(t.TempDir(), "shortlists.json"), log)
	extractor := uigen.NewExtractor(llm, log)

	router := gin.New()
	api := router.Group("/api")
	chatHandler := NewChatHandler(flow, log)
	scoringHandler := NewScoringHandler(listingSvc, log)
	shortlistHandler := NewShortlistHandler(shortlists, log)
	uiHandler := NewUIHandler(extractor, log)

	api.POST("/propalyst/chat", chatHandler.Chat)
	api.POST("/propalyst/summary", chatHandler.Summary)
	api.POST("/propalyst/areas", chatHandler.Areas)
	api.GET("/get_listing_details", scoringHandler.ListingDetails)
	api.POST("/score_listings", scoringHandler.ScoreListings)
	api.POST("/score_listings/stream", scoringHandler.ScoreListingsStream)
	api.POST("/shortlist", shortlistHandler.Create)
	api.GET("/shortlist", shortlistHandler.List)
	api.GET("/shortlist/:id", shortlistHandler.Get)
	api.DELETE("/shortlist/:id", shortlistHandler.Delete)
	api.POST("/generate-ui", uiHandler.Generate)
	api.GET("/components", uiHandler.Components)

	return router, st
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatStartsConversation(t *testing.T) {
	router, _ := testEnv(t, &stubFetcher{}, &fakeLLM{})

	w := doJSON(t, router, http.MethodPost, "/api/propalyst/chat", model.ChatRequest{SessionID: "s1"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.CurrentStep)
	assert.Contains(t, resp.Message, "Where do you work")
	assert.False(t, resp.Completed)
}

func TestChatRequiresSessionID(t *testing.T) {
	router, _ := testEnv(t, &stubFetcher{}, &fakeLLM{})

	w := doJSON(t, router, http.MethodPost, "/api/propalyst/chat", gin.H{"user_input": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatFullConversation(t *testing.T) {
	router, _ := testEnv(t, &stubFetcher{}, &fakeLLM{})

	turns := []model.ChatRequest{
		{SessionID: "s1"},
		{SessionID: "s1", Field: "work_location", UserInput: "Whitefield"},
		{SessionID: "s1", Field: "has_kids", UserInput: "yes"},
		{SessionID: "s1", Field: "commute_time_max", UserInput: "30 minutes"},
		{SessionID: "s1", Field: "property_type", UserInput: "villa"},
		{SessionID: "s1", Field: "budget_max", UserInput: "80k"},
	}

	var resp model.ChatResponse
	for _, turn := range turns {
		w := doJSON(t, router, http.MethodPost, "/api/propalyst/chat", turn)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}

	assert.True(t, resp.Completed)
	assert.Contains(t, resp.Message, "recommended areas")

	areasW := doJSON(t, router, http.MethodPost, "/api/propalyst/areas", model.SessionRequest{SessionID: "s1"})
	require.Equal(t, http.StatusOK, areasW.Code)
	var areas model.AreasResponse
	require.NoError(t, json.Unmarshal(areasW.Body.Bytes(), &areas))
	assert.Len(t, areas.Areas, 6)
}

func TestSummaryUnknownSession(t *testing.T) {
	router, _ := testEnv(t, &stubFetcher{}, &fakeLLM{})

	w := doJSON(t, router, http.MethodPost, "/api/propalyst/summary", model.SessionRequest{SessionID: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListingDetails(t *testing.T) {
	fetcher := &stubFetcher{records: []model.PropertyRecord{
		{"title": "3 BHK Villa"},
		{"title": "2 BHK Apartment"},
	}}
	router, _ := testEnv(t, fetcher, &fakeLLM{})

	w := doJSON(t, router, http.MethodGet, "/api/get_listing_details?url=https://www.squareyards.com/bangalore", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ListingDetailsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "squareyards", resp.Source)
	assert.NotEmpty(t, resp.ScrapedAt)
}

func TestListingDetailsRequiresURL(t *testing.T) {
	router, _ := testEnv(t, &stubFetcher{}, &fakeLLM{})

	w := doJSON(t, router, http.MethodGet, "/api/get_listing_details", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListingDetailsScrapeFailure(t *testing.T) {
	router, _ := testEnv(t, &stubFetcher{err: fmt.Errorf("crawler down")}, &fakeLLM{})

	w := doJSON(t, router, http.MethodGet, "/api/get_listing_details?url=https://www.squareyards.com/x", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp model.ListingDetailsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "crawler down")
}

func TestScoreListings(t *testing.T) {
	fetcher := &stubFetcher{records: []model.PropertyRecord{{"title": "3 BHK Villa"}}}
	router, _ := testEnv(t, fetcher, &fakeLLM{})

	w := doJSON(t, router, http.MethodPost, "/api/score_listings", model.ScoreRequest{
		URL:   "https://www.squareyards.com/bangalore",
		Query: "3 bhk villa",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	assert.False(t, resp.FromCache)
	require.Len(t, resp.Properties, 1)
	assert.EqualValues(t, 5, resp.Properties[0]["relevance_score"])
}

func TestScoreListingsServesFromCache(t *testing.T) {
	fetcher := &stubFetcher{records: []model.PropertyRecord{{"title": "fresh"}}}
	router, st := testEnv(t, fetcher, &fakeLLM{})

	err := st.Save(context.Background(), "https://www.squareyards.com/cached",
		[]model.PropertyRecord{{"title": "cached"}}, model.SourceSquareYards)
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/score_listings", model.ScoreRequest{
		URL:   "https://www.squareyards.com/cached",
		Query: "anything",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.FromCache)
	require.Len(t, resp.Properties, 1)
	assert.Equal(t, "cached", resp.Properties[0]["title"])
}

func TestScoreListingsBypassCache(t *testing.T) {
	fetcher := &stubFetcher{records: []model.PropertyRecord{{"title": "fresh"}}}
	router, st := testEnv(t, fetcher, &fakeLLM{})

	err := st.Save(context.Background(), "https://www.squareyards.com/cached",
		[]model.PropertyRecord{{"title": "cached"}}, model.SourceSquareYards)
	require.NoError(t, err)

	noCache := false
	w := doJSON(t, router, http.MethodPost, "/api/score_listings", model.ScoreRequest{
		URL:      "https://www.squareyards.com/cached",
		Query:    "anything",
		UseCache: &noCache,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.FromCache)
	require.Len(t, resp.Properties, 1)
	assert.Equal(t, "fresh", resp.Properties[0]["title"])
}

func TestScoreListingsStream(t *testing.T) {
	fetcher := &stubFetcher{records: []model.PropertyRecord{
		{"title": "one"},
		{"title": "two"},
	}}
	router, _ := testEnv(t, fetcher, &fakeLLM{})

	w := doJSON(t, router, http.MethodPost, "/api/score_listings/stream", model.ScoreRequest{
		URL:   "https://www.squareyards.com/bangalore",
		Query: "3 bhk",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	body := w.Body.String()
	assert.Contains(t, body, "event: start")
	assert.Equal(t, 2, strings.Count(body, "event: property"))
	assert.Contains(t, body, "event: complete")
}

func TestScoreListingsStreamScrapeFailure(t *testing.T) {
	router, _ := testEnv(t, &stubFetcher{err: fmt.Errorf("crawler down")}, &fakeLLM{})

	w := doJSON(t, router, http.MethodPost, "/api/score_listings/stream", model.ScoreRequest{
		URL:   "https://www.squareyards.com/x",
		Query: "3 bhk",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event: error")
}

func TestShortlistCRUD(t *testing.T) {
	router, _ := testEnv(t, &stubFetcher{}, &fakeLLM{})

	createW := doJSON(t, router, http.MethodPost, "/api/shortlist", model.CreateShortlistRequest{
		Description: "3 bhk under 1cr",
		Source:      "https://www.squareyards.com/x",
		Properties:  []model.PropertyRecord{{"title": "Villa"}},
	})
	require.Equal(t, http.StatusOK, createW.Code)

	var created model.ShortlistResponse
	require.NoError(t, json.Unmarshal(createW.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Contains(t, created.Message, "1 properties")

	item, err := json.Marshal(created.Data)
	require.NoError(t, err)
	var stored model.ShortlistItem
	require.NoError(t, json.Unmarshal(item, &stored))
	require.NotEmpty(t, stored.ID)

	listW := doJSON(t, router, http.MethodGet, "/api/shortlist", nil)
	require.Equal(t, http.StatusOK, listW.Code)

	getW := doJSON(t, router, http.MethodGet, "/api/shortlist/"+stored.ID, nil)
	require.Equal(t, http.StatusOK, getW.Code)

	deleteW := doJSON(t, router, http.MethodDelete, "/api/shortlist/"+stored.ID, nil)
	require.Equal(t, http.StatusOK, deleteW.Code)

	missingW := doJSON(t, router, http.MethodGet, "/api/shortlist/"+stored.ID, nil)
	assert.Equal(t, http.StatusNotFound, missingW.Code)
}

func TestGenerateUI(t *testing.T) {
	llm := &fakeLLM{
		enabled: true,
		reply:   `{"type": "Button", "props": {"label": "Click Me"}}`,
	}
	router, _ := testEnv(t, &stubFetcher{}, llm)

	w := doJSON(t, router, http.MethodPost, "/api/generate-ui", model.GenerateUIRequest{
		UserInput: "show me a button",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.GenerateUIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Component)
	assert.Equal(t, "Button", resp.Component.Type)
	assert.Contains(t, resp.Message, "Button")
}

func TestGenerateUIWithoutLLM(t *testing.T) {
	router, _ := testEnv(t, &stubFetcher{}, &fakeLLM{})

	w := doJSON(t, router, http.MethodPost, "/api/generate-ui", model.GenerateUIRequest{
		UserInput: "show me a button",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.GenerateUIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Component)
}

func TestComponentsCatalog(t *testing.T) {
	router, _ := testEnv(t, &stubFetcher{}, &fakeLLM{})

	w := doJSON(t, router, http.MethodGet, "/api/components", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Components []map[string]any `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Components, 4)
}
