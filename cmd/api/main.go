package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/checkout"
	"storefront/internal/handler"
	"storefront/internal/infra/db"
	"storefront/internal/infra/notify"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const notifierOpenFor = 30 * time.Second

func main() {
	config.LoadDotEnv(".env", "../.env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProd() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	gormDB, err := db.Connect(cfg.PostgresDSN())
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	// cart snapshots
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable, carts start empty until it is", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	// repositories
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	adminUserRepo := infraRepo.NewAdminUserGormRepository(gormDB)
	auditLogRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)
	snapshots := infraRepo.NewSnapshotRedisStore(rdb, cfg.CartTTL)

	notifier, closeNotifier := buildNotifier(cfg, logger)
	defer closeNotifier()

	checkoutCfg := checkout.Config{
		Pricing: checkout.Pricing{
			FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
			DeliveryFee:           cfg.DeliveryFee,
		},
		SubmitTimeout: cfg.SubmitTimeout,
		NotifyTimeout: cfg.NotifyTimeout,
	}

	// usecases
	productUC := usecase.NewProductUsecase(productRepo, txm, logger)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, orderItemRepo, logger)
	cartUC := usecase.NewCartUsecase(snapshots, productUC, checkoutCfg.Pricing, cfg.SessionIdle, logger)
	checkoutUC := usecase.NewCheckoutUsecase(cartUC, orderUC, notifier, checkoutCfg, logger)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, logger)
	adminAuditUC := usecase.NewAdminAuditUsecase(auditLogRepo, logger)
	adminAuthUC := usecase.NewAdminAuthUsecase(adminUserRepo, cfg.JWTSecret, cfg.AdminTokenTTL, logger)

	if err := adminAuthUC.Seed(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	go cartUC.RunSweeper(ctx, cfg.SessionIdle/4)

	e := server.New(server.Handlers{
		Products:      handler.NewProductHandler(productUC),
		Cart:          handler.NewCartHandler(cartUC),
		Checkout:      handler.NewCheckoutHandler(checkoutUC),
		AdminAuth:     handler.NewAdminAuthHandler(adminAuthUC),
		AdminOrders:   handler.NewAdminOrderHandler(adminOrderUC, orderUC),
		AdminProducts: handler.NewAdminProductHandler(productUC),
		AdminAudit:    handler.NewAdminAuditHandler(adminAuditUC),
	}, server.RouteConfig{
		JWTSecret:    cfg.JWTSecret,
		SecureCookie: cfg.IsProd(),
		AdminUsers:   adminUserRepo,
	}, logger)

	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}
	logger.Info("listening", zap.String("addr", addr))
	return server.Start(ctx, e, addr)
}

// buildNotifier wires email and, when configured, AMQP. Each sits behind its
// own breaker so one broken channel does not slow the other down.
func buildNotifier(cfg config.Config, logger *zap.Logger) (checkout.Notifier, func()) {
	email := notify.NewEmailNotifier(notify.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		To:       cfg.MailTo,
	}, logger)

	notifiers := notify.MultiNotifier{
		notify.NewBreakerNotifier("email", email, notifierOpenFor, logger),
	}
	closeFn := func() {}

	if cfg.RabbitMQURL == "" {
		return notifiers, closeFn
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Warn("rabbitmq unavailable, order events disabled", zap.Error(err))
		return notifiers, closeFn
	}
	pub, err := notify.NewAMQPNotifier(conn, cfg.OrderQueue)
	if err != nil {
		_ = conn.Close()
		logger.Warn("rabbitmq channel setup failed, order events disabled", zap.Error(err))
		return notifiers, closeFn
	}

	notifiers = append(notifiers, notify.NewBreakerNotifier("amqp", pub, notifierOpenFor, logger))
	closeFn = func() {
		_ = pub.Close()
		_ = conn.Close()
	}
	return notifiers, closeFn
}
