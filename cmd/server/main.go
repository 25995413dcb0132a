package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/edustack/authuser/api/handler"
	"github.com/edustack/authuser/internal/clients/course"
	"github.com/edustack/authuser/internal/config"
	"github.com/edustack/authuser/internal/infrastructure/journal"
	"github.com/edustack/authuser/internal/infrastructure/monitor"
	pgInfra "github.com/edustack/authuser/internal/infrastructure/postgres"
	redisInfra "github.com/edustack/authuser/internal/infrastructure/redis"
	"github.com/edustack/authuser/internal/middleware"
	"github.com/edustack/authuser/internal/router"
	"github.com/edustack/authuser/internal/services"
	"github.com/edustack/authuser/internal/services/lifecycle"
	"github.com/edustack/authuser/pkg/httpcontext"
	"github.com/edustack/authuser/pkg/logger"
	"github.com/edustack/authuser/repository"
	"github.com/edustack/authuser/repository/postgres"
	redisRepo "github.com/edustack/authuser/repository/redis"
	userUC "github.com/edustack/authuser/usecase/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	journalStore, err := journal.Open(cfg.Journal.Path, "")
	if err != nil {
		zapLogger.Fatal("failed to open purge journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	var userRepo repository.UserRepository = postgres.NewUserRepository(pool)
	userCourseRepo := postgres.NewUserCourseRepository(pool)

	mon := monitor.New(pool, nil, journalStore, 10*time.Second, zapLogger)
	if cfg.Redis.Enabled {
		redisClient, err := redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		userRepo = redisRepo.NewUserCache(userRepo, redisClient, cfg.Redis.CacheTTL, zapLogger)
		mon = monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	}

	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	sweeper := services.NewJournalSweeper(journalStore, zapLogger, services.SweeperConfig{
		Interval:  cfg.Journal.SweepInterval,
		Retention: time.Duration(cfg.Journal.RetentionHours) * time.Hour,
	})
	sweeper.Start()
	manager.Register("journal_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	courseClient := course.New(course.Config{
		BaseURL: cfg.CourseService.BaseURL,
		Timeout: cfg.CourseService.Timeout,
	}, zapLogger)

	userService := userUC.New(userRepo, userCourseRepo, courseClient, journalStore, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		User:   apiHandler.NewUserHandler(userService, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
