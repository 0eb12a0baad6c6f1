// Command server runs the fantasy league scoring API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solepick/fantasy-league/internal/api/league"
	"github.com/solepick/fantasy-league/internal/cache"
	"github.com/solepick/fantasy-league/internal/config"
	"github.com/solepick/fantasy-league/internal/repository"
	"github.com/solepick/fantasy-league/internal/service/ledger"
	"github.com/solepick/fantasy-league/internal/service/predictions"
	"github.com/solepick/fantasy-league/internal/service/scheduler"
	"github.com/solepick/fantasy-league/internal/service/scoring"
	"github.com/solepick/fantasy-league/internal/service/survivor"
	"github.com/solepick/fantasy-league/internal/service/team"
	"github.com/solepick/fantasy-league/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	// --- PostgreSQL ---
	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// --- Redis ---
	redisCache, err := cache.NewRedis(ctx, &cfg.Database.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisCache.Close()
	log.Info().Str("host", cfg.Database.Redis.Host).Msg("Connected to Redis")

	// --- Repositories ---
	eventRepo := repository.NewEventRepository(db)
	episodeRepo := repository.NewEpisodeRepository(db)
	contestantRepo := repository.NewContestantRepository(db)
	playerRepo := repository.NewPlayerRepository(db)
	survivorRepo := repository.NewSurvivorRepository(db)
	predictionRepo := repository.NewPredictionRepository(db)
	scoreRepo := repository.NewScoreRepository(db)

	// --- Services ---
	ledgerService := ledger.NewService(eventRepo, episodeRepo, contestantRepo, redisCache, log)
	scoringService := scoring.NewService(eventRepo, episodeRepo, contestantRepo, scoreRepo, redisCache, &cfg.Database.Redis, log)
	survivorService := survivor.NewService(survivorRepo, playerRepo, contestantRepo, episodeRepo, &cfg.Scoring, log)
	predictionService := predictions.NewService(predictionRepo, episodeRepo, eventRepo, playerRepo, contestantRepo, log)
	teamService := team.NewService(scoringService, survivorService, playerRepo, predictionRepo, episodeRepo, contestantRepo, &cfg.Scoring, log)

	if cfg.Scoring.CatalogPath != "" {
		if err := ledgerService.SeedCatalog(cfg.Scoring.CatalogPath); err != nil {
			return fmt.Errorf("seeding event catalog: %w", err)
		}
	}

	// --- Scheduler ---
	refreshScheduler := scheduler.NewService(&cfg.Scheduler, scoringService, log)
	if err := refreshScheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer refreshScheduler.Stop()

	// --- HTTP Server ---
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := league.NewHandler(ledgerService, scoringService, survivorService, predictionService, teamService, log)
	handler.RegisterRoutes(router.Group("/api/v1"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// --- Metrics Server ---
	var metricsSrv *http.Server
	if cfg.Metrics.Prometheus.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Prometheus.Path, promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Prometheus.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Int("port", cfg.Metrics.Prometheus.Port).Msg("Starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
	}
	return nil
}
