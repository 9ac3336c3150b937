package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/emrs-app/exam-timetable-api/internal/handler"
	"github.com/emrs-app/exam-timetable-api/internal/repository"
	"github.com/emrs-app/exam-timetable-api/internal/service"
	"github.com/emrs-app/exam-timetable-api/pkg/cache"
	"github.com/emrs-app/exam-timetable-api/pkg/config"
	"github.com/emrs-app/exam-timetable-api/pkg/database"
	"github.com/emrs-app/exam-timetable-api/pkg/logger"
)

// @title Exam Timetable API
// @version 1.0.0
// @description Exam timetabling with an automatic exam scheduler
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		logr.Info("redis disabled, using in-process scheduling locks and no timetable cache")
	}

	router := newRouter(cfg, logr, buildDependencies(cfg, logr, db, redisClient))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// auto-schedule may run up to the scheduler timeout
		WriteTimeout: cfg.Scheduler.Timeout + 15*time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type dependencies struct {
	tokens    *service.TokenService
	metrics   *service.MetricsService
	timetable *handler.TimetableHandler
	examSlots *handler.ExamSlotHandler
	scheduler *handler.AutoScheduleHandler
	system    *handler.MetricsHandler
}

func buildDependencies(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) dependencies {
	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	courses := repository.NewCourseRepository(db)
	departments := repository.NewDepartmentRepository(db)
	timetables := repository.NewTimetableRepository(db)
	slots := repository.NewExamSlotRepository(db)
	locks := repository.NewTimetableLockRepository(redisClient)

	timetableSvc := service.NewTimetableService(timetables, slots, departments, cacheSvc, validate, logr)
	examSlotSvc := service.NewExamSlotService(timetables, courses, slots, locks, cfg.Scheduler.LockTTL, cacheSvc, validate, logr)
	autoScheduleSvc := service.NewAutoScheduleService(timetables, courses, slots, locks, db, nil, cacheSvc, metrics, validate, logr, service.AutoScheduleConfig{
		Enabled: cfg.Scheduler.Enabled,
		Timeout: cfg.Scheduler.Timeout,
		LockTTL: cfg.Scheduler.LockTTL,
		Seed:    cfg.Scheduler.Seed,
	})
	exportSvc := service.NewExportService(timetableSvc, logr, nil, nil)
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience})

	ready := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		ready["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	return dependencies{
		tokens:    tokens,
		metrics:   metrics,
		timetable: handler.NewTimetableHandler(timetableSvc, exportSvc),
		examSlots: handler.NewExamSlotHandler(examSlotSvc),
		scheduler: handler.NewAutoScheduleHandler(autoScheduleSvc),
		system:    handler.NewMetricsHandler(metrics, ready),
	}
}
