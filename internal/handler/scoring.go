package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propalyst/internal/listings"
	"propalyst/internal/model"
)

// ScoringHandler serves listing scraping and relevance scoring endpoints.
type ScoringHandler struct {
	listings *listings.Service
	log      *zap.Logger
}

func NewScoringHandler(svc *listings.Service, log *zap.Logger) *ScoringHandler {
	return &ScoringHandler{listings: svc, log: log}
}

// ListingDetails handles GET /api/get_listing_details. It always scrapes
// fresh; the cache only serves the scoring endpoints.
func (h *ScoringHandler) ListingDetails(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, model.ListingDetailsResponse{
			Error: "url query parameter is required",
		})
		return
	}

	result, err := h.listings.Details(c.Request.Context(), url)
	if err != nil {
		h.log.Error("listing details failed", zap.String("url", url), zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ListingDetailsResponse{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.ListingDetailsResponse{
		Success:    true,
		Properties: result.Properties,
		Count:      len(result.Properties),
		Source:     result.Source,
		ScrapedAt:  result.ScrapedAt.Format(time.RFC3339),
	})
}

// ScoreListings handles POST /api/score_listings.
func (h *ScoringHandler) ScoreListings(c *gin.Context) {
	var req model.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ScoreResponse{
			Error: "Invalid request: " + err.Error(),
		})
		return
	}

	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}

	result, err := h.listings.Score(c.Request.Context(), req.URL, req.Query, req.BatchSize, useCache)
	if err != nil {
		h.log.Error("scoring failed", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ScoreResponse{
			Error: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.ScoreResponse{
		Success:      true,
		Properties:   result.Properties,
		Count:        len(result.Properties),
		Source:       result.Source,
		FromCache:    result.FromCache,
		APICallsMade: result.APICalls,
	})
}

// ScoreListingsStream handles POST /api/score_listings/stream. Scored
// properties are pushed as SSE events while batches complete, so the UI can
// render results incrementally instead of waiting for the full set.
func (h *ScoringHandler) ScoreListingsStream(c *gin.Context) {
	var req model.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	useCache := true
	if req.UseCache != nil {
		useCache = *req.UseCache
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Header("Transfer-Encoding", "chunked")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, flusher, "start", gin.H{
		"url":   req.URL,
		"query": req.Query,
	})

	result, err := h.listings.ScoreStream(c.Request.Context(), req.URL, req.Query, req.BatchSize, useCache,
		func(index int, record model.PropertyRecord) {
			sendSSE(c, flusher, "property", gin.H{
				"index":    index,
				"property": record,
			})
		})
	if err != nil {
		h.log.Error("streaming scoring failed", zap.String("url", req.URL), zap.Error(err))
		sendSSE(c, flusher, "error", gin.H{"error": err.Error()})
		return
	}

	sendSSE(c, flusher, "complete", gin.H{
		"count":          len(result.Properties),
		"source":         result.Source,
		"from_cache":     result.FromCache,
		"api_calls_made": result.APICalls,
	})
}

// sendSSE writes one server-sent event and flushes it to the client.
func sendSSE(c *gin.Context, flusher http.Flusher, event string, data any) {
	payload := "{}"
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			event = "error"
			raw, _ = json.Marshal(gin.H{"error": "failed to encode event data"})
		}
		payload = string(raw)
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
