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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "prize-pool-backend/docs"
	"prize-pool-backend/internal/common/cache"
	"prize-pool-backend/internal/common/config"
	"prize-pool-backend/internal/common/logger"
	"prize-pool-backend/internal/common/middleware"
	poolhttp "prize-pool-backend/internal/features/pool/delivery/http"
	"prize-pool-backend/internal/features/pool/repository"
	memoryRepo "prize-pool-backend/internal/features/pool/repository/memory"
	redisRepo "prize-pool-backend/internal/features/pool/repository/redis"
	"prize-pool-backend/internal/features/pool/service"
	wallethttp "prize-pool-backend/internal/features/wallet/delivery/http"
	walletService "prize-pool-backend/internal/features/wallet/service"
	"prize-pool-backend/internal/platform/custody"
	"prize-pool-backend/internal/platform/redis"
	"prize-pool-backend/internal/platform/telegram"
	"prize-pool-backend/internal/platform/ton"
	"prize-pool-backend/internal/workers"
)

const serviceName = "prize-pool-backend"

// @title           Prize Pool API
// @version         1.0
// @description     Pooled-custody prize ledger for Telegram Mini Apps. All endpoints require init data authentication.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-Init-Data
// @description Telegram Mini App init data string for authentication

// @tag.name pool
// @tag.description Deposits, withdrawals, draws and payouts

// @tag.name custody
// @tag.description Off-chain balances that fund deposits

// @tag.name wallet
// @tag.description TON wallet linking for on-chain payouts

func main() {
	// Инициализируем конфигурацию
	cfg := config.Load()

	logger.Init(serviceName, cfg.Debug)
	logger.Info().
		Str("version", "1.0.0").
		Bool("debug", cfg.Debug).
		Str("pool_id", cfg.Pool.ID).
		Str("variant", cfg.Pool.Variant).
		Str("storage", cfg.Storage.Backend).
		Msg("Starting Prize Pool Backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем Redis
	var redisClient *redis.Client
	if cfg.Storage.Backend == config.StorageRedis {
		var err error
		redisClient, err = redis.Open(ctx, redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		logger.Info().Str("addr", cfg.RedisAddr()).Msg("Redis connection established")
	}

	// Инициализируем хранилища
	var (
		poolRepository repository.PoolRepository
		ledger         custody.Ledger
		cacheService   *cache.CacheService
	)
	if redisClient != nil {
		poolRepository = redisRepo.NewPoolRepository(redisClient.Client)
		ledger = custody.NewRedisLedger(redisClient.Client)
		cacheService = cache.NewCacheService(redisClient.Client)
	} else {
		poolRepository = memoryRepo.NewPoolRepository()
		ledger = custody.NewMemoryLedger()
		logger.Warn().Msg("Using in-memory storage; state is lost on restart")
	}

	// Инициализируем TON
	var tonClient *ton.Client
	if cfg.Ton.Enabled {
		var err error
		tonClient, err = ton.Connect(ctx, cfg.Ton.ConfigURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to TON")
		}
		logger.Info().Msg("TON lite client connected")
	}

	clock := buildClock(cfg, tonClient)

	wallets := buildWalletService(cfg, redisClient, tonClient)

	mover, err := buildMover(cfg, ledger, tonClient, wallets)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to configure asset mover")
	}

	poolService := service.NewPoolService(poolRepository, mover, clock, service.Settings{
		PoolID:     cfg.Pool.ID,
		Variant:    cfg.PoolVariant(),
		RewardUnit: cfg.RewardUnit(),
		Cooldown:   cfg.Pool.Cooldown,
	})
	if cfg.Telegram.Notify {
		poolService = service.WithNotifications(poolService, telegram.NewClient(cfg.Telegram.BotToken))
		logger.Info().Msg("Winner notifications enabled")
	}
	logger.Info().Uint64("reward_unit", cfg.RewardUnit()).Dur("cooldown", cfg.Pool.Cooldown).Msg("Pool service initialized")

	// Фоновые задачи
	if cfg.Pool.DrawInterval > 0 {
		scheduler := service.NewDrawScheduler(poolService, cfg.Pool.DrawInterval)
		scheduler.Start()
		defer scheduler.Stop()
	}
	if redisClient != nil && cfg.Pool.DrawStream != "" {
		worker := workers.NewRedisStreamWorker(redisClient.Client, poolService, cfg.Pool.DrawStream)
		go worker.Start(ctx)
	}

	// Настраиваем Gin
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Logger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "init_data", middleware.InitDataHeader}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, cfg, poolService, wallets, ledger, cacheService, redisClient)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Ждем сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func setupRoutes(router *gin.Engine, cfg *config.Config, poolService service.PoolService, wallets walletService.Service, ledger custody.Ledger, cacheService *cache.CacheService, redisClient *redis.Client) {
	const cachePrefix = "httpcache:pool"

	v1 := router.Group("/api/v1")
	v1.Use(middleware.TelegramInitData(cfg.Telegram.BotToken, cfg.Telegram.InitDataTTL))
	if cacheService != nil && cfg.Redis.CacheTTL > 0 {
		v1.Use(
			middleware.ResponseCache(cacheService, cachePrefix, cfg.Redis.CacheTTL),
			middleware.InvalidateCache(cacheService, cachePrefix),
		)
	}

	admin := middleware.RequireAdmin(cfg.Telegram.AdminIDs)
	poolhttp.NewPoolHandler(poolService).RegisterRoutes(v1, admin)
	poolhttp.NewCustodyHandler(ledger).RegisterRoutes(v1, admin)
	wallethttp.NewHandler(wallets).RegisterRoutes(v1)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if redisClient != nil {
			if err := redisClient.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "redis unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
}
