// Package main - точка входа HTTP-сервиса портала переводов.
//
// Сервис обслуживает полный жизненный цикл заявок на перевод между
// предметными группами:
// - Подача заявки студентом и автоматическая проверка условий перевода
// - Очередь рассмотрения у преподавателя целевой группы
// - Выполнение и отклонение заявок администратором
// - Реактивация отложенных заявок при изменении параметров групп
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phystech-portal/transfer-hub/config"
	"github.com/phystech-portal/transfer-hub/internal/application/command"
	"github.com/phystech-portal/transfer-hub/internal/application/eventhandler"
	"github.com/phystech-portal/transfer-hub/internal/application/query"
	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/internal/domain/subject"
	"github.com/phystech-portal/transfer-hub/internal/infrastructure/messaging"
	"github.com/phystech-portal/transfer-hub/internal/infrastructure/persistence/postgres"
	rediscache "github.com/phystech-portal/transfer-hub/internal/infrastructure/persistence/redis"
	"github.com/phystech-portal/transfer-hub/internal/infrastructure/scheduler"
	"github.com/phystech-portal/transfer-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/phystech-portal/transfer-hub/internal/interface/http"
	"github.com/phystech-portal/transfer-hub/internal/interface/http/handlers"
	"github.com/phystech-portal/transfer-hub/pkg/logger"
)

const serviceVersion = "1.0.0"

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
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupSlog(cfg)
	appLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	log.Info("starting transfer hub",
		"env", string(cfg.App.Environment),
		"version", serviceVersion,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально, кеш заполняемости групп)
	// ─────────────────────────────────────────────────────────────────────────
	var occupancy subject.OccupancyCache
	var cache *rediscache.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := rediscache.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		cache, err = rediscache.NewCache(redisCfg)
		if err != nil {
			// Кеш отображения не критичен: без Redis заполняемость групп
			// читается напрямую из PostgreSQL.
			log.Warn("failed to connect to Redis, occupancy caching disabled", "error", err)
		} else {
			defer cache.Close()
			occupancy = rediscache.NewOccupancyCache(cache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	studentRepo := postgres.NewStudentRepository(dbConn)
	teacherRepo := postgres.NewTeacherRepository(dbConn)
	subjectRepo := postgres.NewSubjectRepository(dbConn)
	transferRepo := postgres.NewTransferRepository(dbConn)
	staffRepo := postgres.NewStaffRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ОБРАБОТЧИКОВ КОМАНД И ЗАПРОСОВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application handlers...")
	createHandler := command.NewCreateRequestHandler(transferRepo, subjectRepo, eventBus)
	reviewHandler := command.NewTeacherReviewHandler(transferRepo, teacherRepo, eventBus)
	completeHandler := command.NewCompleteRequestHandler(transferRepo, eventBus)
	rejectHandler := command.NewRejectRequestHandler(transferRepo, eventBus)
	undoHandler := command.NewUndoRequestHandler(transferRepo, eventBus)
	limitsHandler := command.NewChangeGroupLimitsHandler(subjectRepo, eventBus)
	reactivateHandler := command.NewReactivatePendingHandler(transferRepo, subjectRepo, eventBus)

	cabinetHandler := query.NewGetStudentCabinetHandler(studentRepo, subjectRepo, transferRepo, occupancy)
	queueHandler := query.NewListTeacherQueueHandler(transferRepo, studentRepo, subjectRepo, teacherRepo)
	historyHandler := query.NewGetRequestHistoryHandler(transferRepo, transferRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ПОДПИСКА НА СОБЫТИЯ ГРУПП (реактивация отложенных заявок)
	// ─────────────────────────────────────────────────────────────────────────
	groupChanged := eventhandler.NewOnGroupChangedHandler(reactivateHandler, occupancy, log)
	for _, eventType := range []shared.EventType{
		shared.EventGroupCapacityChanged,
		shared.EventGroupDeadlineChanged,
		shared.EventGroupMembershipChanged,
	} {
		if err := eventBus.Subscribe(eventType, groupChanged); err != nil {
			return fmt.Errorf("failed to subscribe %s: %w", eventType, err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. ПЛАНИРОВЩИК (страховочный пересмотр отложенных заявок)
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		log.Info("starting scheduler...", "resweep_interval", cfg.Scheduler.ResweepInterval.String())
		sched = scheduler.NewScheduler(scheduler.SchedulerConfig{
			Logger:   log,
			Timezone: cfg.App.Location,
		})

		resweepJob := jobs.NewResweepPendingJob(subjectRepo, reactivateHandler, log)
		if err := sched.Register(resweepJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ResweepInterval)); err != nil {
			return fmt.Errorf("failed to register resweep job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			log.Info("stopping scheduler...")
			_ = sched.Stop()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(serviceVersion)
	health.AddCheck("postgres", func(ctx context.Context) error {
		status, err := dbConn.Health(ctx)
		if err != nil {
			return err
		}
		if !status.Healthy {
			return errors.New(status.Error)
		}
		return nil
	})
	if cache != nil {
		health.AddCheck("redis", cache.Ping)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	serverConfig := httpserver.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout

	server := httpserver.NewServer(serverConfig, httpserver.Dependencies{
		CreateRequestHandler:     createHandler,
		TeacherReviewHandler:     reviewHandler,
		CompleteRequestHandler:   completeHandler,
		RejectRequestHandler:     rejectHandler,
		UndoRequestHandler:       undoHandler,
		ChangeGroupLimitsHandler: limitsHandler,
		GetStudentCabinetHandler: cabinetHandler,
		ListTeacherQueueHandler:  queueHandler,
		GetRequestHistoryHandler: historyHandler,
		StaffRepo:                staffRepo,
		Logger:                   appLog,
		HealthChecker:            health,
	})

	serverErr := server.StartAsync()
	log.Info("transfer hub is running", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 13. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// setupSlog настраивает структурированное логирование приложения.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slogLevel(cfg.Observability.LogLevel),
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// slogLevel преобразует строковый уровень логирования в slog.Level.
func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
