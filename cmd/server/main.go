package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/impulse-events/ticketing/internal/clock"
	"github.com/impulse-events/ticketing/internal/config"
	"github.com/impulse-events/ticketing/internal/database"
	"github.com/impulse-events/ticketing/internal/handler"
	"github.com/impulse-events/ticketing/internal/identity"
	"github.com/impulse-events/ticketing/internal/logging"
	"github.com/impulse-events/ticketing/internal/middleware"
	"github.com/impulse-events/ticketing/internal/notify"
	"github.com/impulse-events/ticketing/internal/repository"
	"github.com/impulse-events/ticketing/internal/router"
	"github.com/impulse-events/ticketing/internal/service"
	"github.com/impulse-events/ticketing/internal/suggest"
)

var (
	app = kingpin.New("impulse", "Impulse Events ticketing backend.")

	serverCmd = app.Command("server", "Run the HTTP API.").Default()

	workerCmd = app.Command("notify-worker", "Deliver queued notification emails over SMTP.")

	migrateCmd = app.Command("migrate", "Apply the database schema and exit.")

	bootstrapCmd   = app.Command("bootstrap-admin", "Create or promote an admin user.")
	bootstrapEmail = bootstrapCmd.Flag("email", "Admin email address.").Required().String()

	tokenCmd   = app.Command("issue-token", "Sign a bearer token for the jwt identity provider.")
	tokenEmail = tokenCmd.Flag("email", "Email claim of the token.").Required().String()
	tokenTTL   = tokenCmd.Flag("ttl", "Token lifetime.").Default("24h").Duration()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load()
	kingpin.FatalIfError(err, "load config")
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case serverCmd.FullCommand():
		err = runServer(ctx, cfg, log)
	case workerCmd.FullCommand():
		err = runWorker(ctx, cfg, log)
	case migrateCmd.FullCommand():
		err = runMigrate(ctx, cfg, log)
	case bootstrapCmd.FullCommand():
		err = runBootstrap(ctx, cfg, log, *bootstrapEmail)
	case tokenCmd.FullCommand():
		err = runIssueToken(cfg, *tokenEmail, *tokenTTL)
	}
	if err != nil {
		log.WithError(err).Fatal(command + " failed")
	}
}

func openDB(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*sql.DB, error) {
	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.WithField("db", cfg.DB.Name).Info("database ready")
	return db, nil
}

func newDispatcher(cfg config.Config, log logrus.FieldLogger) (notify.Dispatcher, error) {
	switch cfg.Notify.Transport {
	case config.TransportSMTP:
		return notify.NewSMTPDispatcher(cfg.SMTP), nil
	case config.TransportAMQP:
		return notify.NewQueueDispatcher(cfg.AMQP, log), nil
	case config.TransportLog:
		return notify.NewLogDispatcher(log), nil
	}
	return nil, fmt.Errorf("unknown notification transport %q", cfg.Notify.Transport)
}

func runServer(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unavailable, response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	dispatcher, err := newDispatcher(cfg, log)
	if err != nil {
		return err
	}
	notifier := notify.NewNotifier(dispatcher, cfg.Notify, log)
	defer notifier.Close()

	verifier, err := identity.New(cfg.Identity, log)
	if err != nil {
		return err
	}
	accounts, err := identity.NewAccounts(cfg.Identity, log)
	if errors.Is(err, identity.ErrAccountsUnsupported) {
		log.WithField("provider", cfg.Identity.Provider).Info("account endpoints disabled")
	} else if err != nil {
		return err
	}

	events := repository.NewEventRepo(db)
	orders := repository.NewOrderRepo(db)
	users := repository.NewUserRepo(db)

	eventSvc := service.NewEventService(events, orders, notifier, clock.NewSystem(), log)
	orderSvc := service.NewOrderService(events, orders, notifier, log)
	broadcastSvc := service.NewBroadcastService(events, orders, users, notifier, log)
	userSvc := service.NewUserService(users, log)

	if cfg.Admin.BootstrapEmail != "" {
		if _, err := userSvc.EnsureAdmin(ctx, cfg.Admin.BootstrapEmail); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.RegisterRoutes(e, router.Handlers{
		Health: &handler.HealthHandler{DB: db},
		Events: &handler.EventHandler{Events: eventSvc, Broadcasts: broadcastSvc, Log: log},
		Orders: &handler.OrderHandler{Orders: orderSvc, Log: log},
		Users:  &handler.UserHandler{Users: userSvc, Log: log},
		Expect: &handler.ExpectHandler{Suggester: suggest.New(events, cfg.AI, log), Log: log},
		Auth:   &handler.AuthHandler{Accounts: accounts, Users: userSvc, Log: log},
	}, router.Middleware{
		Logger:       middleware.RequestLogger(log),
		Authenticate: middleware.Authenticate(verifier, userSvc, log),
		RateLimit:    middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
		Cache:        middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
		APIKeyHash:   cfg.Admin.APIKeyHash,
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func runWorker(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	consumer := notify.NewConsumer(cfg.AMQP, notify.NewSMTPDispatcher(cfg.SMTP), cfg.Notify.SendTimeout, log)
	log.WithField("queue", cfg.AMQP.Queue).Info("notify worker started")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runMigrate(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	return db.Close()
}

func runBootstrap(ctx context.Context, cfg config.Config, log *logrus.Logger, email string) error {
	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()
	u, err := service.NewUserService(repository.NewUserRepo(db), log).EnsureAdmin(ctx, email)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"id": u.ID, "email": u.Email}).Info("admin ready")
	return nil
}

func runIssueToken(cfg config.Config, email string, ttl time.Duration) error {
	if cfg.Identity.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	token, exp, err := identity.IssueToken(cfg.Identity.JWTSecret, email, ttl)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n# expires %s\n", token, exp.Format(time.RFC3339))
	return nil
}
