// Package main is the entry point for the Math Practice Hub API server.
//
// The process hosts everything: the REST API, the in-memory event bus that
// fans attempt events out to the mastery recompute and league credit, and the
// scheduler that fires the weekly league rollover. Single-instance by design;
// the PostgreSQL guards keep even an accidental second instance safe.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mathhive/math-practice-hub/config"
	"github.com/mathhive/math-practice-hub/internal/application/command"
	"github.com/mathhive/math-practice-hub/internal/application/eventhandler"
	"github.com/mathhive/math-practice-hub/internal/application/query"
	"github.com/mathhive/math-practice-hub/internal/domain/practice"
	"github.com/mathhive/math-practice-hub/internal/infrastructure/messaging"
	"github.com/mathhive/math-practice-hub/internal/infrastructure/persistence/postgres"
	"github.com/mathhive/math-practice-hub/internal/infrastructure/persistence/redis"
	"github.com/mathhive/math-practice-hub/internal/infrastructure/scheduler"
	"github.com/mathhive/math-practice-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/mathhive/math-practice-hub/internal/interface/http"
	"github.com/mathhive/math-practice-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration
	// ─────────────────────────────────────────────────────────────────────────
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Logging
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{Level: logger.ParseLevel(cfg.Observability.LogLevel)})
	log.Info("starting Math Practice Hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		dbConn, err = postgres.NewConnection(ctx, postgres.DefaultConfig())
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Migrations
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var boardCache *redis.LeaderboardCache

	if !cfg.Redis.Disabled {
		if cfg.Redis.URL != "" {
			redisCache, err = redis.NewCacheFromURL(cfg.Redis.URL)
		} else {
			redisCfg := redis.DefaultConfig()
			redisCfg.Host = cfg.Redis.Host
			redisCfg.Port = cfg.Redis.Port
			redisCfg.Password = cfg.Redis.Password
			redisCfg.DB = cfg.Redis.DB
			redisCfg.PoolSize = cfg.Redis.PoolSize
			redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
			redisCfg.DialTimeout = cfg.Redis.DialTimeout
			redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
			redisCfg.WriteTimeout = cfg.Redis.WriteTimeout
			redisCache, err = redis.NewCache(redisCfg)
		}
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			boardCache = redis.NewLeaderboardCache(redisCache)
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Repositories
	// ─────────────────────────────────────────────────────────────────────────
	studentRepo := postgres.NewStudentRepository(dbConn)
	questionRepo := postgres.NewQuestionRepository(dbConn)
	attemptRepo := postgres.NewAttemptRepository(dbConn)
	usageRepo := postgres.NewUsageRepository(dbConn)
	progressRepo := postgres.NewProgressRepository(dbConn)
	leagueRepo := postgres.NewLeagueRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. Event bus
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.WorkerPoolSize = cfg.Observability.EventWorkers
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() { _ = eventBus.Close() }()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. Application layer
	// ─────────────────────────────────────────────────────────────────────────
	leagueLifecycle := command.NewLeagueLifecycle(leagueRepo, studentRepo, eventBus, log)
	recordAttempt := command.NewRecordAttemptHandler(attemptRepo, nil, eventBus, log)
	heartbeat := command.NewHeartbeatHandler(usageRepo, log)
	recomputeMastery := command.NewRecomputeMasteryHandler(attemptRepo, progressRepo, practice.DefaultMasteryPolicy(), eventBus, log)

	nextQuestion := query.NewNextQuestionHandler(questionRepo, progressRepo)
	checkUsage := query.NewCheckUsageHandler(usageRepo)

	// Typed-nil guard: only hand the cache over when it actually exists.
	var weeklyBoardCache query.BoardCache
	var allTimeTopCache query.TopCache
	if boardCache != nil {
		weeklyBoardCache = boardCache
		allTimeTopCache = boardCache
	}
	getLeaderboard := query.NewGetLeaderboardHandler(leagueLifecycle, leagueRepo, weeklyBoardCache, log)
	getAllTimeRank := query.NewGetAllTimeRankHandler(studentRepo, allTimeTopCache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. Event handlers
	// ─────────────────────────────────────────────────────────────────────────
	attemptHandler := eventhandler.NewAttemptRecordedHandler(recomputeMastery, leagueLifecycle, log)
	if err := attemptHandler.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register event handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. Scheduler
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(log)
	if cfg.Scheduler.Enabled {
		var invalidator jobs.BoardInvalidator
		if boardCache != nil {
			invalidator = boardCache
		}
		rolloverJob := jobs.NewLeagueRolloverJob(leagueLifecycle, invalidator, log)
		rolloverSlot := scheduler.NewWeeklySchedule(cfg.Scheduler.RolloverWeekday, cfg.Scheduler.RolloverHour, cfg.Scheduler.RolloverMinute)
		if err := sched.Register(rolloverJob, rolloverSlot); err != nil {
			return fmt.Errorf("failed to register rollover job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() { _ = sched.Stop() }()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverCfg.AdminSecretHash = cfg.HTTP.AdminSecretHash

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		RecordAttempt:  recordAttempt,
		Heartbeat:      heartbeat,
		NextQuestion:   nextQuestion,
		CheckUsage:     checkUsage,
		GetLeaderboard: getLeaderboard,
		GetAllTimeRank: getAllTimeRank,
		Rollover:       leagueLifecycle,
		Logger:         log,
		HealthChecker:  &storeHealthChecker{db: dbConn, cache: redisCache},
	})

	serverErr := server.StartAsync()
	log.Info("server started", logger.String("address", serverCfg.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 12. Wait for shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Err(err))
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// storeHealthChecker reports health of the backing stores. Redis is optional
// and degraded-but-healthy when down.
type storeHealthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

func (h *storeHealthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := httpserver.HealthStatus{Healthy: true, Components: map[string]string{}}

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Components["postgres"] = err.Error()
	} else {
		status.Components["postgres"] = "ok"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			status.Components["redis"] = "degraded: " + err.Error()
		} else {
			status.Components["redis"] = "ok"
		}
	} else {
		status.Components["redis"] = "disabled"
	}

	return status
}
