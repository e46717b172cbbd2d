package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/planner/api/handler"
	"github.com/fastygo/planner/internal/config"
	"github.com/fastygo/planner/internal/infrastructure/buffer"
	"github.com/fastygo/planner/internal/infrastructure/gcal"
	"github.com/fastygo/planner/internal/infrastructure/llm"
	"github.com/fastygo/planner/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/planner/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/planner/internal/infrastructure/redis"
	"github.com/fastygo/planner/internal/middleware"
	"github.com/fastygo/planner/internal/router"
	"github.com/fastygo/planner/internal/services"
	"github.com/fastygo/planner/internal/services/lifecycle"
	"github.com/fastygo/planner/pkg/clock"
	"github.com/fastygo/planner/pkg/httpcontext"
	"github.com/fastygo/planner/pkg/logger"
	"github.com/fastygo/planner/repository"
	"github.com/fastygo/planner/repository/memory"
	"github.com/fastygo/planner/repository/postgres"
	redisRepo "github.com/fastygo/planner/repository/redis"
	"github.com/fastygo/planner/usecase"
	authUC "github.com/fastygo/planner/usecase/auth"
	calendarUC "github.com/fastygo/planner/usecase/calendar"
	chatUC "github.com/fastygo/planner/usecase/chat"
	forumUC "github.com/fastygo/planner/usecase/forum"
	gradesUC "github.com/fastygo/planner/usecase/grades"
	notificationUC "github.com/fastygo/planner/usecase/notification"
	profileUC "github.com/fastygo/planner/usecase/profile"
	taskUC "github.com/fastygo/planner/usecase/task"
)

const monitorInterval = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		AppName:  cfg.AppName,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	location, err := cfg.Location()
	if err != nil {
		zapLogger.Fatal("invalid planner timezone", zap.Error(err))
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	clk := clock.Real{}
	ids := repository.NewIDSequence(clk.Now)

	var (
		pool        *pgxpool.Pool
		redisClient *goRedis.Client
		bufferStore *buffer.Store
		checks      []monitor.Check
	)

	if cfg.Storage.Driver == config.DriverPostgres {
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			zapLogger.Fatal("migrations failed", zap.Error(err))
		}
		pool, err = pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pgInfra.Close(pool, zapLogger)
			return nil
		})
		checks = append(checks, monitor.PostgresCheck(pool))

		bufferStore, err = buffer.Open(cfg.Buffer.Path, buffer.DefaultBucket)
		if err != nil {
			zapLogger.Fatal("failed to open buffer store", zap.Error(err))
		}
		manager.Register("buffer", func(ctx context.Context) error {
			return bufferStore.Close()
		})
	}

	if cfg.Storage.SessionDriver == config.DriverRedis {
		redisClient, err = redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		checks = append(checks, monitor.RedisCheck(redisClient))
	}

	mon := monitor.New(bufferStore, monitorInterval, zapLogger, checks...)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	var (
		userRepo         repository.UserRepository
		taskRepo         repository.TaskRepository
		sessionRepo      repository.SessionRepository
		notificationRepo repository.NotificationRepository
		writeBuffer      usecase.OperationBuffer
	)

	if pool != nil {
		userRepo = postgres.NewUserRepository(pool)
		taskRepo = postgres.NewTaskRepository(pool, ids)

		bufferProcessor := services.NewBufferProcessor(
			bufferStore,
			mon,
			userRepo,
			taskRepo,
			zapLogger,
			services.ProcessorConfig{
				Interval:   cfg.Buffer.SyncInterval,
				BatchSize:  cfg.Buffer.BatchSize,
				MaxRetries: cfg.Buffer.MaxRetry,
				MaxAge:     time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
			},
		)
		bufferProcessor.Start()
		manager.Register("buffer_processor", func(ctx context.Context) error {
			bufferProcessor.Stop(ctx)
			return nil
		})
		writeBuffer = services.NewBufferBridge(bufferProcessor)
	} else {
		userRepo = memory.NewUserRepository()
		taskRepo = memory.NewTaskRepository(ids)
	}

	if redisClient != nil {
		sessionRepo = redisRepo.NewSessionRepository(redisClient, cfg.JWT.TokenTTL)
		notificationRepo = redisRepo.NewNotificationRepository(redisClient, cfg.Redis.NotificationRetention, int64(cfg.Redis.NotificationMaxLen))
	} else {
		sessionRepo = memory.NewSessionRepository(cfg.JWT.TokenTTL)
		notificationRepo = memory.NewNotificationRepository(cfg.Redis.NotificationMaxLen)
	}

	taskUseCase := taskUC.New(taskRepo, writeBuffer, zapLogger,
		taskUC.WithClock(clk),
		taskUC.WithLocation(location),
		taskUC.WithIDSequence(ids),
	)

	secret := cfg.JWT.Secret
	if secret == "" {
		secret = randomSecret()
		zapLogger.Warn("JWT_SECRET not set, using an ephemeral secret; tokens will not survive restarts")
	}
	authUseCase := authUC.New(userRepo, sessionRepo, authUC.NewTokens(secret, cfg.JWT.Issuer), cfg.JWT.TokenTTL, zapLogger)
	if cfg.Planner.SeedDemo {
		authUseCase = authUseCase.WithOnboarder(taskUseCase)
	}
	profileUseCase := profileUC.New(userRepo, writeBuffer, zapLogger)

	var publisher calendarUC.Publisher
	if cfg.CalendarEnabled() {
		gcalPublisher, err := gcal.NewPublisherFromFile(appCtx, cfg.Calendar.CredentialsFile, cfg.Calendar.CalendarID, zapLogger)
		if err != nil {
			zapLogger.Fatal("google calendar setup failed", zap.Error(err))
		}
		publisher = gcalPublisher
	}
	calendarUseCase := calendarUC.New(taskUseCase, publisher, clk, location, zapLogger)

	var provider chatUC.Provider
	if cfg.RelayEnabled() {
		provider = llm.NewAnthropicClient(llm.AnthropicConfig{
			APIKey:    cfg.Relay.APIKey,
			BaseURL:   cfg.Relay.BaseURL,
			Model:     cfg.Relay.Model,
			MaxTokens: cfg.Relay.MaxTokens,
		}, zapLogger)
	} else {
		zapLogger.Warn("ANTHROPIC_API_KEY not set, chat relay disabled")
	}
	relay := chatUC.NewRelay(provider, chatUC.Config{
		SystemPrompt:  cfg.Relay.SystemPrompt,
		FailureMarker: cfg.Relay.FailureMarker,
		Timeout:       cfg.Relay.Timeout,
	}, zapLogger)

	forumUseCase := forumUC.New(userRepo, clk, zapLogger)
	forumUseCase.Seed()

	scanner := services.NewReminderScanner(taskRepo, notificationRepo, clk, zapLogger, services.ReminderConfig{
		Interval: cfg.Planner.ReminderInterval,
		Window:   cfg.Planner.ReminderWindow,
		Location: location,
	})
	scanner.Start()
	manager.Register("reminder_scanner", func(ctx context.Context) error {
		scanner.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:         apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile:      apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:         apiHandler.NewTaskHandler(taskUseCase, cfg.Planner.UpcomingDays, ctxAdapter, zapLogger),
		Calendar:     apiHandler.NewCalendarHandler(calendarUseCase, ctxAdapter, zapLogger),
		Notification: apiHandler.NewNotificationHandler(notificationUC.New(notificationRepo, zapLogger), ctxAdapter, zapLogger),
		Chat:         apiHandler.NewChatHandler(relay, cfg.Relay.Timeout, ctxAdapter, zapLogger),
		Grades:       apiHandler.NewGradesHandler(gradesUC.New(), ctxAdapter, zapLogger),
		Forum:        apiHandler.NewForumHandler(forumUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, map[string]bool{
			"chat":          cfg.RelayEnabled(),
			"calendar_sync": cfg.CalendarEnabled(),
			"write_buffer":  writeBuffer != nil,
		}, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(authUseCase, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:            r.Handler,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		Concurrency:        cfg.HTTP.MaxConn,
		MaxRequestBodySize: cfg.HTTP.MaxBodySize,
		Name:               cfg.AppName,
	}

	manager.Go("http_server", func() error {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("sessions", cfg.Storage.SessionDriver),
		)
		return server.ListenAndServe(cfg.Address())
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
	if err := manager.Err(); err != nil {
		zapLogger.Fatal("server stopped after component failure", zap.Error(err))
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
