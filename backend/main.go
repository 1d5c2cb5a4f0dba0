package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AnTengye/contractreview/backend/config"
	"github.com/AnTengye/contractreview/backend/handler"
	"github.com/AnTengye/contractreview/backend/middleware"
	"github.com/AnTengye/contractreview/backend/pkg/logger"
	"github.com/AnTengye/contractreview/backend/service"
)

// connectivityTimeout bounds the startup probe of the LLM endpoint.
const connectivityTimeout = 30 * time.Second

func main() {
	defaultPath := os.Getenv("CONTRACTREVIEW_CONFIG")
	if defaultPath == "" {
		defaultPath = "config.yaml"
	}
	configPath := flag.String("config", defaultPath, "path to the YAML configuration file")
	skipProbe := flag.Bool("skip-llm-check", false, "start without probing the LLM endpoint")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully", "path", *configPath, "model", cfg.LLM.Model)

	llmSvc := service.NewLLMService(&cfg.LLM)
	if !*skipProbe {
		ctx, cancel := context.WithTimeout(context.Background(), connectivityTimeout)
		err := llmSvc.CheckConnectivity(ctx)
		cancel()
		if err != nil {
			slog.Error("LLM endpoint unreachable", "base_url", cfg.LLM.BaseURL, "error", err)
			os.Exit(1)
		}
		slog.Info("LLM endpoint reachable", "base_url", cfg.LLM.BaseURL)
	}

	// A nil interface disables archiving of uploaded originals.
	var archive service.DocumentArchive
	if cfg.Minio.Enabled {
		minioSvc, err := service.NewMinioService(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize MINIO service", "error", err)
			os.Exit(1)
		}
		if err := minioSvc.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure MINIO bucket", "error", err)
			os.Exit(1)
		}
		archive = minioSvc
	}

	store := service.NewContractStore(&cfg.Store)
	extractor := service.NewExtractorService(&cfg.Upload)
	reviewer := service.NewReviewService(llmSvc)

	authHandler := handler.NewAuthHandler(cfg)
	contractHandler := handler.NewContractHandler(extractor, reviewer, archive, store)
	clauseHandler := handler.NewClauseHandler(llmSvc)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxFileSize()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(middleware.GlobalRateLimit(&cfg.RateLimit))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"model":     cfg.LLM.Model,
			"contracts": store.Count(),
			"archive":   archive != nil,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	analyzeLimit := middleware.AnalyzeRateLimit(&cfg.RateLimit)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.POST("/contracts/analyze", analyzeLimit, contractHandler.AnalyzeUpload)
		protected.POST("/contracts/analyze-text", analyzeLimit, contractHandler.AnalyzeText)
		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:id", contractHandler.Get)
		protected.DELETE("/contracts/:id", contractHandler.Delete)
		protected.POST("/clauses/suggestions", analyzeLimit, clauseHandler.Suggest)
	}

	// Analysis waits on the LLM, so the write timeout must outlast its request timeout.
	writeTimeout := time.Duration(cfg.LLM.TimeoutSecs)*time.Second + 30*time.Second

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		c.Header("Cache-Control", "no-store")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
