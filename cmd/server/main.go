package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/ignatzorin/offer-engine/internal/config"
	"github.com/ignatzorin/offer-engine/internal/db"
	"github.com/ignatzorin/offer-engine/internal/domain/repository"
	httpHandlers "github.com/ignatzorin/offer-engine/internal/http/handlers"
	httpRouter "github.com/ignatzorin/offer-engine/internal/http/router"
	"github.com/ignatzorin/offer-engine/internal/infrastructure/memory"
	"github.com/ignatzorin/offer-engine/internal/infrastructure/notify"
	"github.com/ignatzorin/offer-engine/internal/infrastructure/persistence"
	"github.com/ignatzorin/offer-engine/internal/infrastructure/thread"
	"github.com/ignatzorin/offer-engine/internal/interface/http/handler"
	"github.com/ignatzorin/offer-engine/internal/logger"
	"github.com/ignatzorin/offer-engine/internal/pkg/sellerlock"
	"github.com/ignatzorin/offer-engine/internal/service"
	"github.com/ignatzorin/offer-engine/internal/tracing"
	"github.com/ignatzorin/offer-engine/internal/usecase/listing"
	"github.com/ignatzorin/offer-engine/internal/usecase/offer"
	"github.com/ignatzorin/offer-engine/internal/usecase/order"
	"github.com/ignatzorin/offer-engine/internal/ws"
)

const accessTokenTTL = 15 * time.Minute

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.LogLevel)
	if !cfg.IsProduction() {
		logger.SetTextFormatter()
	}

	tp, err := tracing.InitTracerProvider(cfg.ServiceName, cfg.JaegerEndpoint)
	if err != nil {
		logger.Log.Fatalf("main: ошибка инициализации трассировки: %v", err)
	}

	// Хранилище.
	var (
		store  repository.Store
		dbConn *sqlx.DB
	)
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Log.Warn("main: используется in-memory хранилище, данные не переживут рестарт")
		store = memory.NewStore()
	default:
		dbConn, err = db.NewPostgres(ctx, db.PoolConfig{
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
		})
		if err != nil {
			logger.Log.Fatalf("main: ошибка подключения к базе: %v", err)
		}
		defer safeClose(dbConn)

		if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
			logger.Log.Fatalf("main: ошибка миграций: %v", err)
		}
		store = persistence.NewStore(dbConn)
	}

	// Блокировки продавцов.
	var lockOpts []sellerlock.Option
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Log.WithError(err).Warn("main: ошибка закрытия redis")
			}
		}()
		lockOpts = append(lockOpts, sellerlock.WithGuard(sellerlock.NewRedisGuard(rdb, cfg.RedisLockTTL)))
		logger.Log.WithField("addr", cfg.RedisAddr).Info("main: включена межинстансная блокировка продавцов")
	}
	locks := sellerlock.NewManager(cfg.SellerLockTimeout, lockOpts...)

	// Вебсокеты и уведомления.
	hub := ws.NewHub()
	go hub.Run(ctx)

	sinks := []notify.Sink{{Name: "ws", Notifier: notify.NewHubNotifier(hub, store.Repositories().Organizations)}}
	var kafkaNotifier *notify.KafkaNotifier
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier = notify.NewKafkaNotifier(notify.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaNotificationsTopic))
		sinks = append(sinks, notify.Sink{Name: "kafka", Notifier: kafkaNotifier})
	}
	notifier := notify.NewAsync(notify.NewComposite(sinks...), cfg.NotifyTimeout)

	var threads repository.ThreadBridge = thread.Noop{}
	if cfg.ThreadBridgeURL != "" {
		threads = thread.NewHTTPBridge(cfg.ThreadBridgeURL, cfg.ThreadBridgeTimeout)
	}

	// Сценарии.
	fulfillment := order.NewFulfillment()
	deps := offer.Deps{
		Store:       store,
		Locks:       locks,
		Fulfillment: fulfillment,
		Notifier:    notifier,
		Threads:     threads,
	}
	cancelOrderUC := order.NewCancelOrderUseCase(store, locks, fulfillment, notifier)

	offerHandler := handler.NewOfferHandler(
		offer.NewOpenSessionUseCase(deps),
		offer.NewApplyToContractUseCase(deps),
		offer.NewGetSessionUseCase(deps),
		offer.NewSubmitCounterofferUseCase(deps),
		offer.NewResolveOfferUseCase(deps),
		offer.NewMergeSessionsUseCase(deps),
	)
	orderHandler := handler.NewOrderHandler(
		order.NewUpdateOrderStatusUseCase(store, cancelOrderUC, notifier),
		cancelOrderUC,
		order.NewArchiveSellerUseCase(store, locks, fulfillment, notifier),
	)
	listingHandler := handler.NewListingHandler(listing.NewVerifyListingsUseCase(store))

	tokenManager := service.NewTokenManager(cfg.JWTSecret, accessTokenTTL)

	var pinger httpHandlers.Pinger
	if dbConn != nil {
		pinger = dbConn
	}
	healthHandler := httpHandlers.NewHealthHandler(pinger, locks.Len)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)

	engine := httpRouter.SetupRouter(cfg, tokenManager, healthHandler, wsHandler, offerHandler, orderHandler, listingHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: ошибка остановки http сервера")
		}
	}()

	logger.Log.Infof("main: HTTP сервер запущен на порту %s (storage=%s)", cfg.HTTPPort, cfg.StorageDriver)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}

	// Дожидаемся отправки уведомлений, начатых до остановки.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.NotifyTimeout)
	defer cancel()
	if err := notifier.Wait(drainCtx); err != nil {
		logger.Log.WithError(err).Warn("main: не все уведомления доставлены до остановки")
	}
	if kafkaNotifier != nil {
		if err := kafkaNotifier.Close(); err != nil {
			logger.Log.WithError(err).Warn("main: ошибка закрытия kafka writer")
		}
	}
	if err := tp.Shutdown(drainCtx); err != nil {
		logger.Log.WithError(err).Warn("main: ошибка остановки трассировки")
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.Log.WithError(err).Warn("main: ошибка закрытия базы")
	}
}
