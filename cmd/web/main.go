package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/identity"
	"storefront/internal/models"
	"storefront/internal/ratelimit"
	"storefront/internal/repository"
	"storefront/internal/reviews"
	"storefront/internal/sessions"
)

type application struct {
	errorLog *log.Logger
	infoLog  *logrus.Entry

	store          models.Store
	sessionManager *scs.SessionManager
	users          *repository.UserRepository
	identity       *identity.Service
	catalog        *catalog.Aggregator
	cart           *cart.Ledger
	reviews        *reviews.Book
	limiter        *ratelimit.Limiter
}

func newApplication(cfg config, logger *logrus.Logger, store models.Store, sessionManager *scs.SessionManager) *application {
	users := &repository.UserRepository{Users: store, Roles: store}
	ledger := cart.New(store, logger.WithField("component", "cart"))
	book := reviews.New(store, logger.WithField("component", "reviews"))

	return &application{
		errorLog:       log.New(logger.WriterLevel(logrus.ErrorLevel), "", log.Lshortfile),
		infoLog:        logger.WithField("component", "web"),
		store:          store,
		sessionManager: sessionManager,
		users:          users,
		identity: identity.NewService(
			users,
			identity.NewHasher(cfg.BcryptCost),
			identity.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer),
			identity.ScsSessions{Manager: sessionManager},
			logger.WithField("component", "identity"),
		),
		catalog: &catalog.Aggregator{Products: store, Ratings: book, Carts: ledger},
		cart:    ledger,
		reviews: book,
		limiter: ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

func openStore(ctx context.Context, cfg config, logger *logrus.Logger) (models.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		return models.OpenPostgres(ctx, cfg.DBURL)
	case "memory":
		logger.Warn("using the in-memory store; data is lost on exit")
		db := models.NewMemoryDB()
		seedCatalog(db)
		return db, nil
	default:
		return models.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	}
}

func newSessionManager(ctx context.Context, cfg config) (*scs.SessionManager, error) {
	sm := scs.New()
	sm.IdleTimeout = cfg.SessionIdleTimeout
	sm.Lifetime = cfg.SessionLifetime
	sm.Cookie.Name = "storefront_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode

	if cfg.SessionStore == "redis" {
		store := sessions.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		if err := store.Ping(ctx); err != nil {
			return nil, err
		}
		sm.Store = store
	}
	return sm, nil
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	addr := flag.String("addr", cfg.Addr, "HTTP network address")
	flag.Parse()

	logger, err := newLogger(cfg)
	if err != nil {
		logrus.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := openStore(startCtx, cfg, logger)
	if err != nil {
		cancel()
		logger.WithError(err).Fatal("could not open store")
	}
	sessionManager, err := newSessionManager(startCtx, cfg)
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("could not connect to session store")
	}
	logger.WithField("driver", cfg.DBDriver).Info("connected to database")

	app := newApplication(cfg, logger, store, sessionManager)
	scheduler, err := app.startBackground()
	if err != nil {
		logger.WithError(err).Fatal("could not schedule background jobs")
	}

	srv := &http.Server{
		Addr:         *addr,
		ErrorLog:     app.errorLog,
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		<-scheduler.Stop().Done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.errorLog.Println(err)
		}
		if err := store.Close(shutdownCtx); err != nil {
			app.errorLog.Println(err)
		}
	}()

	app.infoLog.Infof("starting storefront on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server stopped")
	}
	<-closed
	app.infoLog.Info("server stopped")
}
