package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Mahdioshani/backend/internal/config"
	"github.com/Mahdioshani/backend/internal/game"
	"github.com/Mahdioshani/backend/internal/game/ludo"
	"github.com/Mahdioshani/backend/internal/game/xo"
	"github.com/Mahdioshani/backend/internal/handler"
	"github.com/Mahdioshani/backend/internal/health"
	"github.com/Mahdioshani/backend/internal/match"
	engineNats "github.com/Mahdioshani/backend/internal/nats"
	"github.com/Mahdioshani/backend/internal/repository"
)

func main() {
	// 初始化日志
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// 加载配置
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 创建上下文
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接 NATS
	natsClient, err := engineNats.NewClient(cfg.NATS)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 连接 Redis
	redisClient := connectRedis(cfg.Redis)
	defer redisClient.Close()
	logger.Info("Connected to Redis", "host", cfg.Redis.Host)

	// 连接数据库
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)

	// 注册游戏变体
	factory := game.NewFactory()
	factory.Register(game.GameTypeLudo, ludo.NewEngine)
	factory.Register(game.GameTypeXO, xo.NewEngine)

	// 初始化服务
	publisher := engineNats.NewEventPublisher(natsClient.Conn())
	resultRepo := repository.NewResultRepository(db)
	presenceRepo := repository.NewPresenceRepository(redisClient)

	matchService := match.NewService(matchConfig(cfg.Engine), factory, publisher, resultRepo, presenceRepo)
	if err := matchService.Start(); err != nil {
		logger.Error("Failed to start match service", "error", err)
		os.Exit(1)
	}

	// 启动命令订阅
	cmdHandler := handler.NewCommandHandler(matchService)
	subscriber := engineNats.NewCommandSubscriber(natsClient.Conn(), cmdHandler, engineNats.SubscriberConfig{
		WorkerCount: cfg.NATS.WorkerCount,
		BufferSize:  cfg.NATS.BufferSize,
	})
	if err := subscriber.Start(ctx); err != nil {
		logger.Error("Failed to start subscriber", "error", err)
		os.Exit(1)
	}

	// 启动健康检查 HTTP 服务
	healthChecker := health.NewChecker(natsClient.Conn(), redisClient, db, matchService)
	go startHealthServer(healthChecker, cfg.App.HealthAddr, logger)

	logger.Info("Game engine service started", "name", cfg.App.Name)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()
	subscriber.Stop()
	matchService.Stop()
	logger.Info("Game engine service stopped")
}

// matchConfig 生命周期参数，缺省值兜底
func matchConfig(cfg config.EngineConfig) match.Config {
	mc := match.DefaultConfig()
	if cfg.TurnTimeout > 0 {
		mc.TurnTimeout = cfg.TurnTimeout
	}
	if cfg.FaultLimit > 0 {
		mc.FaultLimit = cfg.FaultLimit
	}
	if cfg.StartDelay > 0 {
		mc.StartDelay = cfg.StartDelay
	}
	if cfg.TimerWorkers > 0 {
		mc.TimerWorkers = cfg.TimerWorkers
	}
	if cfg.ArchiveTimeout > 0 {
		mc.ArchiveTimeout = cfg.ArchiveTimeout
	}
	return mc
}

// startHealthServer 启动健康检查 HTTP 服务
func startHealthServer(healthChecker *health.Checker, addr string, logger *slog.Logger) {
	if addr == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.Handle("/health", healthChecker)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if healthChecker.IsHealthy(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready"))
		}
	})

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	logger.Info("Health check server started", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Health check server failed", "error", err)
	}
}

// connectRedis 连接 Redis
func connectRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// connectDatabase 连接 PostgreSQL
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = 10 * time.Minute

	return pgxpool.NewWithConfig(ctx, poolConfig)
}
