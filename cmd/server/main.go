// MandalaMall 商城服务主程序
// 功能：商品浏览、购物车、钱包、收货地址、结账下单与订单生命周期管理
// 架构：DDD 分层 + MySQL + Redis + Kafka (Outbox)
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	addresshttp "github.com/wyfcoding/mandalamall/internal/address/interfaces/http"
	cartapp "github.com/wyfcoding/mandalamall/internal/cart/application"
	carthttp "github.com/wyfcoding/mandalamall/internal/cart/interfaces/http"
	catalogapp "github.com/wyfcoding/mandalamall/internal/catalog/application"
	cataloghttp "github.com/wyfcoding/mandalamall/internal/catalog/interfaces/http"
	checkoutapp "github.com/wyfcoding/mandalamall/internal/checkout/application"
	checkouthttp "github.com/wyfcoding/mandalamall/internal/checkout/interfaces/http"
	orderapp "github.com/wyfcoding/mandalamall/internal/order/application"
	orderhttp "github.com/wyfcoding/mandalamall/internal/order/interfaces/http"
	walletapp "github.com/wyfcoding/mandalamall/internal/wallet/application"
	wallethttp "github.com/wyfcoding/mandalamall/internal/wallet/interfaces/http"

	addressmysql "github.com/wyfcoding/mandalamall/internal/address/infrastructure/persistence/mysql"
	cartcatalog "github.com/wyfcoding/mandalamall/internal/cart/infrastructure/catalog"
	cartmysql "github.com/wyfcoding/mandalamall/internal/cart/infrastructure/persistence/mysql"
	catalogcache "github.com/wyfcoding/mandalamall/internal/catalog/infrastructure/cache"
	catalogmysql "github.com/wyfcoding/mandalamall/internal/catalog/infrastructure/persistence/mysql"
	"github.com/wyfcoding/mandalamall/internal/checkout/infrastructure/adapters"
	"github.com/wyfcoding/mandalamall/internal/order/infrastructure/messaging"
	ordermysql "github.com/wyfcoding/mandalamall/internal/order/infrastructure/persistence/mysql"
	walletmysql "github.com/wyfcoding/mandalamall/internal/wallet/infrastructure/persistence/mysql"

	addressdomain "github.com/wyfcoding/mandalamall/internal/address/domain"
	cartdomain "github.com/wyfcoding/mandalamall/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/mandalamall/internal/catalog/domain"
	orderdomain "github.com/wyfcoding/mandalamall/internal/order/domain"
	walletdomain "github.com/wyfcoding/mandalamall/internal/wallet/domain"

	"github.com/wyfcoding/mandalamall/pkg/cache"
	"github.com/wyfcoding/mandalamall/pkg/config"
	"github.com/wyfcoding/mandalamall/pkg/db"
	"github.com/wyfcoding/mandalamall/pkg/logger"
	"github.com/wyfcoding/mandalamall/pkg/metrics"
	"github.com/wyfcoding/mandalamall/pkg/middleware"
	"github.com/wyfcoding/mandalamall/pkg/mq"
	"github.com/wyfcoding/mandalamall/pkg/ratelimit"
)

func main() {
	// 1. 加载配置
	configPath := config.GetEnv("CONFIG_PATH", "configs/server/config.toml")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting MandalaMall server",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&catalogdomain.Product{},
		&cartdomain.Cart{},
		&cartdomain.CartItem{},
		&walletdomain.Wallet{},
		&walletdomain.WalletTransaction{},
		&addressdomain.Address{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&messaging.OutboxMessage{},
	); err != nil {
		logger.Fatal(ctx, "Failed to migrate database schema", "error", err)
	}

	// 4. 初始化 Redis
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	defer redisCache.Close()

	// 5. 初始化指标
	m := metrics.New(cfg.ServiceName)
	if cfg.Metrics.Enabled {
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "Failed to register metrics", "error", err)
		}
		go func() {
			if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil && err != http.ErrServerClosed {
				logger.Error(ctx, "Metrics server stopped", "error", err)
			}
		}()
	}

	// 6. 仓储
	productRepo := catalogcache.NewCachedProductRepository(
		catalogmysql.NewProductRepository(database.DB), redisCache)
	cartRepo := cartmysql.NewCartRepository(database.DB)
	walletRepo := walletmysql.NewWalletRepository(database.DB)
	addressRepo := addressmysql.NewAddressRepository(database.DB)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	outboxPublisher := messaging.NewOutboxPublisher(database.DB)

	// 7. 应用服务
	catalogService := catalogapp.NewCatalogApplicationService(productRepo)
	cartService := cartapp.NewCartApplicationService(cartRepo, cartcatalog.NewProductCatalogAdapter(productRepo))
	walletService := walletapp.NewWalletApplicationService(walletRepo, database)
	orderService := orderapp.NewOrderLifecycleService(orderRepo, walletService, productRepo, outboxPublisher, database)
	checkoutService := checkoutapp.NewCheckoutService(
		adapters.NewCartAdapter(cartRepo),
		adapters.NewCatalogAdapter(productRepo),
		adapters.NewAddressAdapter(addressRepo),
		adapters.NewWalletAdapter(walletService),
		orderRepo,
		outboxPublisher,
		database,
	)

	// 8. Kafka 与 Outbox 中继
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	if cfg.Kafka.Enabled {
		producer, perr := mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if perr != nil {
			logger.Fatal(ctx, "Failed to create Kafka producer", "error", perr)
		}
		defer producer.Close()

		relay := messaging.NewOutboxRelay(
			database.DB, producer, cfg.Kafka.OrderEventsTopic,
			time.Duration(cfg.Outbox.PollInterval)*time.Millisecond,
			cfg.Outbox.BatchSize, m)
		go relay.Start(relayCtx)
	} else {
		logger.Warn(ctx, "Kafka disabled, outbox messages will accumulate until a relay drains them")
	}

	// 9. HTTP 服务
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		metricsMiddleware(m),
	)
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		engine.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName})
	})

	cataloghttp.NewCatalogHandler(catalogService).RegisterRoutes(engine)
	carthttp.NewCartHandler(cartService).RegisterRoutes(engine)
	wallethttp.NewWalletHandler(walletService).RegisterRoutes(engine)
	addresshttp.NewAddressHandler(addressRepo).RegisterRoutes(engine)
	orderhttp.NewOrderHandler(orderService, m).RegisterRoutes(engine)
	checkouthttp.NewCheckoutHandler(checkoutService, m).RegisterRoutes(engine)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP server failed", "error", err)
		}
	}()

	// 10. 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "Shutting down server")
	stopRelay()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Server shutdown failed", "error", err)
	}
	logger.Info(ctx, "Server exited")
}

// metricsMiddleware 记录 HTTP 请求计数与耗时
func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.HTTPRequestsTotal.Inc()
		m.HTTPRequestDuration.Observe(time.Since(start).Seconds())
	}
}
