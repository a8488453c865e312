package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/zoo-checkout/internal/backend"
	"github.com/iliyamo/zoo-checkout/internal/cart"
	"github.com/iliyamo/zoo-checkout/internal/checkout"
	"github.com/iliyamo/zoo-checkout/internal/config"
	"github.com/iliyamo/zoo-checkout/internal/database"
	"github.com/iliyamo/zoo-checkout/internal/handler"
	"github.com/iliyamo/zoo-checkout/internal/logging"
	"github.com/iliyamo/zoo-checkout/internal/notify"
	"github.com/iliyamo/zoo-checkout/internal/queue"
	"github.com/iliyamo/zoo-checkout/internal/repository"
	"github.com/iliyamo/zoo-checkout/internal/router"
	"github.com/iliyamo/zoo-checkout/internal/service"
	"github.com/iliyamo/zoo-checkout/internal/session"
	"github.com/iliyamo/zoo-checkout/internal/storage"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Info("redis unavailable; using in-process store, notifier and no rate limiting")
	} else {
		defer rdb.Close()
	}

	var db *sql.DB
	if cfg.HasDB() {
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			logger.Fatal("mysql connect failed", zap.Error(err))
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			logger.Fatal("mysql schema failed", zap.Error(err))
		}
	}

	scopes, err := buildScopes(cfg, rdb, db)
	if err != nil {
		logger.Fatal("storage setup failed", zap.Error(err))
	}
	var notifier notify.Notifier = notify.NewBus()
	if rdb != nil {
		notifier = notify.NewRedisBus(rdb, "", logger)
	}
	carts := cart.NewProvider(scopes, notifier, logger)

	client := backend.New(cfg.BackendURL, cfg.BackendTimeout, logger)
	catCfg := config.LoadCatalogCacheConfig()
	var catalogSrc backend.CatalogSource = client
	if catCfg.Enabled {
		catalogSrc = backend.NewCachedCatalog(client, rdb, catCfg.Prefix, catCfg.TTL, logger)
	}

	var receipts service.ReceiptStore = service.NewMemoryReceipts(cfg.BcryptCost)
	if db != nil {
		receipts = repository.NewReceiptRepo(db, cfg.BcryptCost)
	}
	listeners := []checkout.Listener{&service.ReceiptRecorder{Store: receipts}}
	if cfg.RabbitURL != "" {
		listeners = append(listeners, &service.OrderPublisher{URL: cfg.RabbitURL, Log: logger})
		consumer := &queue.Consumer{URL: cfg.RabbitURL, LogDir: "logs", Log: logger}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("order consumer stopped", zap.Error(err))
			}
		}()
	}

	sessions := session.NewRegistry(session.Deps{
		Carts:     carts,
		Pricer:    client,
		Committer: client,
		Listeners: listeners,
		Log:       logger,
	}, cfg.SessionIdle)
	go sessions.Run(ctx, time.Minute)
	if db != nil && cfg.SharedStore == config.BackendMySQL && cfg.SharedIdle > 0 {
		go purgeIdleCarts(ctx, repository.NewKVRepo(db), cfg.SharedIdle, logger)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		ExposeHeaders: []string{"X-Tab-ID", "X-Visitor-ID", "Retry-After"},
	}))

	router.RegisterRoutes(e)
	router.RegisterCart(e, router.Deps{
		Cart:      &handler.CartHandler{Sessions: sessions, Notifier: notifier, Log: logger},
		Catalog:   &handler.CatalogHandler{Sessions: sessions, Catalog: catalogSrc, Log: logger},
		Checkout:  &handler.CheckoutHandler{Sessions: sessions, Log: logger},
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
		Log:       logger,
	})
	router.RegisterOrders(e, &handler.OrderHandler{Receipts: receipts, Log: logger})

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// buildScopes picks the tab and shared stores named in cfg.  Redis-backed
// scopes fall back to memory when Redis is unreachable.
func buildScopes(cfg config.Config, rdb *redis.Client, db *sql.DB) (storage.Scopes, error) {
	scopes := storage.Scopes{Tab: storage.NewMemoryStore(), Shared: storage.NewMemoryStore()}
	if cfg.TabStore == config.BackendRedis && rdb != nil {
		scopes.Tab = storage.NewRedisStore(rdb, cfg.StorePrefix+":tab", cfg.TabTTL)
	}
	switch cfg.SharedStore {
	case config.BackendRedis:
		if rdb != nil {
			scopes.Shared = storage.NewRedisStore(rdb, cfg.StorePrefix+":shared", 0)
		}
	case config.BackendMySQL:
		if db == nil {
			return scopes, errors.New("STORE_SHARED_BACKEND=mysql needs DB_* settings")
		}
		scopes.Shared = repository.NewKVRepo(db)
	}
	return scopes, nil
}

func purgeIdleCarts(ctx context.Context, repo *repository.KVRepo, days int, logger *zap.Logger) {
	tk := time.NewTicker(24 * time.Hour)
	defer tk.Stop()
	for {
		if n, err := repo.PurgeIdle(ctx, days); err != nil {
			logger.Warn("purge idle carts failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("purged idle carts", zap.Int64("rows", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-tk.C:
		}
	}
}
