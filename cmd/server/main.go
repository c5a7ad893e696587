package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/talenthub/matching-api/internal/config"
	"github.com/talenthub/matching-api/internal/handler"
	"github.com/talenthub/matching-api/internal/httpx"
	"github.com/talenthub/matching-api/internal/matching"
	"github.com/talenthub/matching-api/internal/middleware"
	"github.com/talenthub/matching-api/internal/model"
	"github.com/talenthub/matching-api/internal/ratelimit"
	"github.com/talenthub/matching-api/internal/repository"
	"github.com/talenthub/matching-api/internal/service"
)

func main() {
	// ── Logging ──────────────────────────────────────────
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// ── Config ───────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("Starting matching API")

	// ── Database ─────────────────────────────────────────
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connected")

	// ── Repositories ─────────────────────────────────────
	matchRepo := repository.NewMatchRepo(pool)
	candidateRepo := repository.NewCandidateRepo(pool)
	jobRepo := repository.NewJobRepo(pool)
	agencyRepo := repository.NewAgencyRepo(pool)

	// ── Services ─────────────────────────────────────────
	caller := httpx.NewCaller(cfg.CallMaxRetries, cfg.CallBaseDelay, cfg.CallPerTryTimeout)
	analysis := service.NewAnalysisClient(cfg.AnalysisAPIKey, cfg.AnalysisBaseURL, caller)
	if cfg.AnalysisAPIKey == "" {
		log.Warn().Msg("Analysis API key not configured, matches will have no narrative summary")
	}

	manager := matching.NewManager(
		matchRepo,
		&repository.Profiles{Candidates: candidateRepo, Jobs: jobRepo},
		analysis,
		matching.Policy{
			CooldownWindow:   cfg.CooldownWindow,
			BatchPairDelay:   cfg.BatchPairDelay,
			CoveredThreshold: cfg.CoveredThreshold,
		},
	)

	// ── Rate limiting ────────────────────────────────────
	// The in-memory store limits per instance; redis shares the budget
	// across instances when configured.
	var rateStore ratelimit.RateStore = ratelimit.NewMemoryStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping redis")
		}
		rateStore = ratelimit.NewRedisStore(rdb)
		log.Info().Msg("Redis rate-limit store enabled")
	}

	governor := ratelimit.NewGovernor(rateStore, func(ctx context.Context, key string) (ratelimit.Tier, error) {
		id, err := uuid.Parse(key)
		if err != nil {
			// Unkeyed callers (IP fallback) get the free tier
			return ratelimit.TierByName(model.TierFree), nil
		}
		tier, err := agencyRepo.TierByID(ctx, id)
		if err != nil {
			return ratelimit.Tier{}, err
		}
		return ratelimit.TierByName(tier), nil
	})

	// ── Handlers & middleware ────────────────────────────
	matchHandler := handler.NewMatchHandler(manager, candidateRepo, jobRepo)
	agencyResolver := middleware.NewAgencyResolver(agencyRepo)
	rateLimiter := middleware.NewRateLimiter(governor)

	// ── Router ───────────────────────────────────────────
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	// CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "X-API-Key", "Content-Type"},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check (unauthenticated)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "matching-api",
			"time":    time.Now().UTC(),
		})
	})

	// ── Agency Routes ────────────────────────────────────
	api := r.Group("/", agencyResolver.Resolve(), rateLimiter.Limit())
	{
		// Matches
		api.GET("/matches/:candidateId/:jobId", matchHandler.GetMatch)
		api.POST("/matches/:candidateId/:jobId/refresh", matchHandler.RefreshMatch)
		api.POST("/matches/batch", matchHandler.GenerateBatch)

		// Per-entity views and invalidation
		api.GET("/candidates/:id/matches", matchHandler.ListCandidateMatches)
		api.POST("/candidates/:id/invalidate", matchHandler.InvalidateCandidate)
		api.POST("/jobs/:id/invalidate", matchHandler.InvalidateJob)
	}

	// ── Server ───────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // batch runs respond synchronously
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("Matching API server running")

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// requestLogger logs every request with zerolog
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= 400 {
			event = log.Warn()
		}
		if status >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg(fmt.Sprintf("%s %s", c.Request.Method, path))
	}
}
