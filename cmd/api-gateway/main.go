package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/autoplanning-api/api/swagger"
	"github.com/noah-isme/autoplanning-api/internal/calendar"
	"github.com/noah-isme/autoplanning-api/internal/handler"
	"github.com/noah-isme/autoplanning-api/internal/repository"
	"github.com/noah-isme/autoplanning-api/internal/service"
	"github.com/noah-isme/autoplanning-api/pkg/cache"
	"github.com/noah-isme/autoplanning-api/pkg/config"
	"github.com/noah-isme/autoplanning-api/pkg/database"
	"github.com/noah-isme/autoplanning-api/pkg/export"
	"github.com/noah-isme/autoplanning-api/pkg/jobs"
	"github.com/noah-isme/autoplanning-api/pkg/logger"
)

// @title Autoplanning API
// @version 1.0.0
// @description Lesson planning, booking and notifications for a driving school.
// @BasePath /api/v1
// @schemes http

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Planning.Timezone)
	if err != nil {
		logr.Warn("unknown planning timezone, using UTC", zap.String("timezone", cfg.Planning.Timezone), zap.Error(err))
		loc = time.UTC
	}
	validate := validator.New()
	checks := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Redis.Enabled || cfg.Store.Driver == config.StoreRedis {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close() //nolint:errcheck
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	kv, db, err := openPersistence(cfg, redisClient)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close() //nolint:errcheck
		checks["postgres"] = db.PingContext
	}

	store := repository.NewEntityStore(kv, logr.Named("store"))
	if err := store.Seed(ctx); err != nil {
		return fmt.Errorf("seed entity store: %w", err)
	}

	lessons, err := lessonSource(ctx, cfg, store, loc, logr)
	if err != nil {
		return err
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Dashboard.CacheTTL, logr.Named("cache"), cfg.Redis.Enabled && redisClient != nil)
	checker := service.NewAvailabilityChecker(loc)
	notifier := service.NewNotificationService(service.TwilioSender{}, cfg.Twilio, loc, metrics, logr.Named("notification"))
	planning := service.NewPlanningService(lessons, store, checker, service.LayoutGridFromConfig(cfg.Planning, loc), metrics, logr.Named("planning"))
	workflow := service.NewBookingWorkflow(lessons, store, checker, notifier, cacheSvc, metrics, loc, logr.Named("booking"))
	sessions := service.NewBookingSessionStore(workflow, validate, cfg.Booking.SessionTTL, metrics, logr.Named("booking"))

	handlers := routeHandlers{
		students:    handler.NewStudentHandler(service.NewStudentService(store, cacheSvc, validate, logr)),
		instructors: handler.NewInstructorHandler(service.NewInstructorService(store, cacheSvc, validate, logr)),
		settings:    handler.NewSettingsHandler(service.NewSettingsService(store, validate, logr)),
		planning: handler.NewPlanningHandler(planning,
			service.NewExportService(planning, export.NewCSVExporter(), export.NewPDFExporter(), logr)),
		bookings: handler.NewBookingHandler(sessions),
		metrics:  handler.NewMetricsHandler(metrics, checks),
	}
	if cfg.Dashboard.Enabled {
		handlers.dashboard = handler.NewDashboardHandler(service.NewDashboardService(planning, store, cacheSvc, cfg.Dashboard.CacheTTL, logr.Named("dashboard")))
	} else {
		handlers.dashboard = handler.NewDashboardHandler(nil)
	}

	scheduler := service.NewScheduler(loc, logr)
	if err := scheduler.Add("booking_session_sweep", "@every 5m", func() { sessions.Sweep() }); err != nil {
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	if cfg.Reminders.Enabled {
		reminders := service.NewReminderService(planning, store, notifier, logr.Named("reminders"))
		queue := jobs.NewQueue("lesson_reminders", reminders.Handle, jobs.QueueConfig{
			Workers:    cfg.Reminders.Workers,
			MaxRetries: 2,
			RetryDelay: time.Minute,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		reminders.SetQueue(queue)
		if err := scheduler.Add("lesson_reminders", cfg.Reminders.Cron, func() {
			if _, err := reminders.EnqueueTomorrow(ctx); err != nil {
				logr.Error("failed to queue lesson reminders", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule reminders: %w", err)
		}
	}
	scheduler.Start()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, metrics, handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	scheduler.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

// openPersistence selects the entity store backend from STORE_DRIVER.
func openPersistence(cfg *config.Config, redisClient *redis.Client) (repository.Persistence, *sqlx.DB, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return repository.NewPostgresStore(db), db, nil
	case config.StoreRedis:
		return repository.NewRedisStore(redisClient, cfg.Store.KeyPrefix), nil, nil
	case config.StoreMemory, "":
		return repository.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
}

// lessonSource returns the Google calendar adapter when sync is configured and
// the local lesson collection otherwise.
func lessonSource(ctx context.Context, cfg *config.Config, store *repository.EntityStore, loc *time.Location, logr *zap.Logger) (service.LessonSource, error) {
	if !cfg.Calendar.SyncEnabled {
		return repository.NewLocalLessonStore(store, logr.Named("lessons")), nil
	}
	if !cfg.Calendar.Configured() {
		logr.Warn("calendar sync enabled but credentials are incomplete, lessons are kept locally")
		return repository.NewLocalLessonStore(store, logr.Named("lessons")), nil
	}
	api, err := calendar.NewGoogleEventsAPI(ctx, cfg.Calendar)
	if err != nil {
		return nil, fmt.Errorf("init google calendar: %w", err)
	}
	return calendar.NewAdapter(api, cfg.Calendar.CalendarID, loc, logr.Named("calendar")), nil
}
