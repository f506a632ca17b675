package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propalyst/internal/config"
	"propalyst/internal/conversation"
	"propalyst/internal/handler"
	"propalyst/internal/listings"
	"propalyst/internal/llm"
	"propalyst/internal/logger"
	"propalyst/internal/scoring"
	"propalyst/internal/scrape"
	"propalyst/internal/session"
	"propalyst/internal/shortlist"
	"propalyst/internal/store"
	"propalyst/internal/uigen"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("Propalyst backend starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	gin.SetMode(cfg.Server.GinMode)

	// Listing store: file-backed JSON by default, PostgreSQL when configured.
	var listingStore store.Store
	switch cfg.Store.Backend {
	case "postgres":
		pg, err := store.NewPostgresStore(cfg.Store.DSN, cfg.Store.MaxConnections, cfg.Store.MaxIdleConnections)
		if err != nil {
			zl.Fatal("failed to connect to PostgreSQL", zap.Error(err))
		}
		defer pg.Close()
		listingStore = pg
		zl.Info("connected to PostgreSQL listing store")
	default:
		listingStore = store.NewFileStore(cfg.Store.DataFile, zl)
		zl.Info("using file listing store", zap.String("path", cfg.Store.DataFile))
	}

	// Session store: in-memory by default, Redis when configured.
	var sessions session.Store
	switch cfg.Session.Backend {
	case "redis":
		rs, err := session.NewRedisStore(context.Background(), cfg.Session.RedisAddr, cfg.Session.RedisDB, cfg.Session.TTL)
		if err != nil {
			zl.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer rs.Close()
		sessions = rs
		zl.Info("using Redis session store", zap.String("addr", cfg.Session.RedisAddr))
	default:
		sessions = session.NewMemoryStore()
		zl.Info("using in-memory session store")
	}

	llmClient := llm.NewClient(&cfg.LLM, zl)
	if cfg.LLM.Enabled {
		zl.Info("LLM client initialized",
			zap.String("api_base", cfg.LLM.APIBase),
			zap.String("model", cfg.LLM.ChatModel))
	} else {
		zl.Warn("LLM disabled, validation falls back to deterministic parsing and scoring returns neutral scores",
			zap.String("hint", "set OPENAI_API_KEY to enable"))
	}

	flow := conversation.NewFlow(sessions, llmClient, zl)
	scraper := scrape.NewService(scrape.NewCrawlerFetcher(cfg.Scrape), zl)
	scorer := scoring.NewScorer(llmClient, cfg.Scoring, zl)
	listingSvc := listings.NewService(scraper, listingStore, scorer, zl)
	shortlists := shortlist.NewService(cfg.Shortlist.DataFile, zl)
	extractor := uigen.NewExtractor(llmClient, zl)

	chatHandler := handler.NewChatHandler(flow, zl)
	scoringHandler := handler.NewScoringHandler(listingSvc, zl)
	shortlistHandler := handler.NewShortlistHandler(shortlists, zl)
	uiHandler := handler.NewUIHandler(extractor, zl)

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if cfg.Server.AllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	health := func(c *gin.Context) {
		status := "healthy"
		if !cfg.LLM.Enabled {
			status = "degraded"
		}
		c.JSON(200, gin.H{
			"status":      status,
			"service":     "propalyst-backend",
			"llm_enabled": cfg.LLM.Enabled,
			"version":     Version,
			"build_time":  BuildTime,
			"git_commit":  GitCommit,
		})
	}
	router.GET("/", health)
	router.GET("/health", health)

	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	api := router.Group("/api")
	{
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
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zl.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
	}
	zl.Info("server stopped")
}
