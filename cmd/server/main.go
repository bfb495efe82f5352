package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/todoboard/api/handler"
	"github.com/fastygo/todoboard/internal/config"
	"github.com/fastygo/todoboard/internal/infrastructure/buffer"
	"github.com/fastygo/todoboard/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/todoboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/todoboard/internal/infrastructure/redis"
	"github.com/fastygo/todoboard/internal/middleware"
	"github.com/fastygo/todoboard/internal/router"
	"github.com/fastygo/todoboard/internal/services"
	"github.com/fastygo/todoboard/internal/services/lifecycle"
	"github.com/fastygo/todoboard/pkg/heatmap"
	"github.com/fastygo/todoboard/pkg/httpcontext"
	"github.com/fastygo/todoboard/pkg/logger"
	"github.com/fastygo/todoboard/repository"
	"github.com/fastygo/todoboard/repository/memory"
	"github.com/fastygo/todoboard/repository/postgres"
	redisRepo "github.com/fastygo/todoboard/repository/redis"
	"github.com/fastygo/todoboard/usecase"
	analyticsUC "github.com/fastygo/todoboard/usecase/analytics"
	taskUC "github.com/fastygo/todoboard/usecase/task"
)

type repositories struct {
	tasks     repository.TaskRepository
	events    repository.EventRepository
	analytics repository.AnalyticsRepository
	probe     monitor.Probe
}

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

	repos := openStorage(appCtx, cfg, manager, zapLogger)
	cache, cacheProbe := openCache(cfg, manager, zapLogger)

	var bufferStore *buffer.Store
	if cfg.Storage.Driver == config.StoragePostgres {
		bufferStore, err = buffer.Open(cfg.Buffer.Path, buffer.DefaultBucket)
		if err != nil {
			zapLogger.Fatal("failed to open buffer store", zap.Error(err))
		}
		manager.Register("buffer", func(ctx context.Context) error {
			return bufferStore.Close()
		})
	}

	var sizer monitor.BufferSizer
	if bufferStore != nil {
		sizer = bufferStore
	}
	mon := monitor.New(repos.probe, cacheProbe, sizer, 10*time.Second, zapLogger)
	mon.Refresh()
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	analyticsUseCase := analyticsUC.New(
		repos.analytics,
		cache,
		heatmap.NewMemo(0),
		analyticsUC.Config{
			CacheTTL:     cfg.Analytics.CacheTTL,
			WindowDays:   cfg.Analytics.WindowDays,
			FallbackDays: cfg.Analytics.FallbackDays,
		},
		zapLogger,
	)

	var opBuffer usecase.OperationBuffer
	if bufferStore != nil {
		bufferProcessor := services.NewBufferProcessor(
			bufferStore,
			mon,
			repos.tasks,
			zapLogger,
			services.ProcessorConfig{
				Interval:   cfg.Buffer.SyncInterval,
				BatchSize:  cfg.Buffer.BatchSize,
				MaxRetries: cfg.Buffer.MaxRetry,
				Retention:  cfg.Buffer.Retention,
			},
		)
		bufferProcessor.Start()
		manager.Register("buffer_processor", func(ctx context.Context) error {
			bufferProcessor.Stop(ctx)
			return nil
		})
		opBuffer = services.NewBufferBridge(bufferProcessor)
	}

	sweeper := services.NewStatusSweeper(
		repos.tasks,
		repos.events,
		analyticsUseCase,
		zapLogger,
		services.SweeperConfig{
			Interval:  cfg.Sweep.Interval,
			BatchSize: cfg.Sweep.BatchSize,
		},
	)
	sweeper.Start()
	manager.Register("status_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	taskUseCase := taskUC.New(repos.tasks, repos.events, opBuffer, analyticsUseCase, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	r := router.New(router.Handlers{
		Task:      apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Analytics: apiHandler.NewAnalyticsHandler(analyticsUseCase, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	})

	chain := []middleware.Middleware{
		middleware.Recover(zapLogger),
		middleware.AccessLog(zapLogger),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	}
	if cfg.Sweep.OnRequest {
		chain = append(chain, middleware.SweepOnRequest(sweeper, cfg.Context.RequestTimeout, zapLogger))
	}

	server := &fasthttp.Server{
		Handler:      middleware.Chain(r.Handler, chain...),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	manager.Go("http_server", func() error {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", string(cfg.Storage.Driver)))
		return server.ListenAndServe(cfg.Address())
	}, func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	select {
	case <-appCtx.Done():
	case err := <-manager.Errors():
		zapLogger.Error("component failed", zap.Error(err))
	}

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

func openStorage(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) repositories {
	if cfg.Storage.Driver == config.StorageMemory {
		zapLogger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return repositories{
			tasks:     memory.NewTaskRepository(store),
			events:    memory.NewEventRepository(store),
			analytics: memory.NewAnalyticsRepository(store),
			probe:     func(context.Context) error { return nil },
		}
	}

	if err := pgInfra.RunMigrations(cfg.Database, cfg.Migrations, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	return postgresRepositories(pool)
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		tasks:     postgres.NewTaskRepository(pool),
		events:    postgres.NewEventRepository(pool),
		analytics: postgres.NewAnalyticsRepository(pool),
		probe:     pgInfra.Probe(pool),
	}
}

// openCache prefers Redis and falls back to an in-process cache when Redis
// is disabled or unreachable at boot.
func openCache(cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (repository.CacheRepository, monitor.Probe) {
	if !cfg.Redis.Enabled {
		return memory.NewCacheRepository(), nil
	}

	client, err := redisInfra.NewClient(cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Warn("redis unavailable, using in-process analytics cache", zap.Error(err))
		return memory.NewCacheRepository(), nil
	}
	manager.Register("redis", func(ctx context.Context) error {
		return client.Close()
	})
	return redisRepo.NewCacheRepository(client, cfg.AppName+":", cfg.Analytics.CacheTTL), redisInfra.Probe(client)
}
