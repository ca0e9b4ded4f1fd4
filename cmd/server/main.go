package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/booking"
	"github.com/iliyamo/spacehire/internal/config"
	"github.com/iliyamo/spacehire/internal/database"
	"github.com/iliyamo/spacehire/internal/handler"
	"github.com/iliyamo/spacehire/internal/jobs"
	"github.com/iliyamo/spacehire/internal/logging"
	"github.com/iliyamo/spacehire/internal/messaging"
	"github.com/iliyamo/spacehire/internal/middleware"
	"github.com/iliyamo/spacehire/internal/queue"
	"github.com/iliyamo/spacehire/internal/repository"
	"github.com/iliyamo/spacehire/internal/review"
	"github.com/iliyamo/spacehire/internal/router"
	"github.com/iliyamo/spacehire/internal/validate"
)

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	cfg := config.Load()
	base := logging.New(cfg.LogLevel, cfg.LogFormat)
	log := logging.Service(base)

	db, err := database.Open(database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("schema migration failed")
		}
	}

	// Redis backs the cache and the rate limiter; without it both are skipped.
	var rdb *redis.Client
	cacheCfg, rateCfg := config.LoadCacheConfig(), config.LoadRateLimitConfig()
	if cacheCfg.Enabled || rateCfg.Enabled {
		rdb, err = config.NewRedisClient(config.LoadRedisConfig())
		if err != nil {
			log.WithError(err).Warn("redis unavailable, running without cache and rate limiting")
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	publisher := queue.NewPublisher(cfg, log)
	defer publisher.Close()

	// repositories
	accounts := repository.NewAccountRepo(db)
	tokens := repository.NewTokenRepo(db)
	listings := repository.NewListingRepo(db)
	reservations := repository.NewReservationRepo(db)
	reviews := repository.NewReviewRepo(db)
	messages := repository.NewMessageRepo(db)

	// services
	bookings := booking.NewService(reservations,
		booking.WithLocation(cfg.Location()),
		booking.WithPublisher(publisher),
		booking.WithLogger(log.WithField("component", "booking")),
	)
	reviewSvc := review.NewService(reservations, reviews, listings, log.WithField("component", "review"))
	messageSvc := messaging.NewService(reservations, accounts, messages)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler, err := jobs.NewScheduler(cfg.CompletionCron, bookings, log)
	if err != nil {
		log.WithError(err).Fatal("invalid COMPLETION_CRON")
	}
	scheduler.Start()

	if cfg.AuditConsumer {
		audit := queue.NewAuditLogger(log)
		switch cfg.EventBroker {
		case "amqp", "rabbitmq":
			go queue.RunAMQPConsumer(rootCtx, cfg.RabbitMQURL, cfg.EventQueue, audit)
		case "kafka":
			go queue.RunKafkaConsumer(rootCtx, cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.EventQueue, audit)
		default:
			log.Warn("AUDIT_CONSUMER set but EVENT_BROKER has no queue to consume")
		}
	}

	cache := middleware.NewResponseCache(cacheCfg, rdb, log.WithField("component", "cache"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.EchoValidator{}
	e.HTTPErrorHandler = handler.ErrorHandler(log, cfg.IsDevelopment())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(logging.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))

	router.Register(e, router.Deps{
		JWTSecret: cfg.JWTSecret,
		RateLimit: middleware.NewTokenBucket(rateCfg, rdb, log.WithField("component", "ratelimit")),
		Cache:     cache,
		Health:    handler.NewHealthHandler(db, rdb),
		Auth:      handler.NewAuthHandler(cfg, accounts, tokens, log),
		Bookings:  handler.NewBookingHandler(bookings),
		Listings:  handler.NewListingHandler(listings, cache, log),
		Reviews:   handler.NewReviewHandler(reviewSvc, cache),
		Messages:  handler.NewMessageHandler(messageSvc),
		Admin:     handler.NewAdminHandler(cfg, accounts, log),
		Users:     handler.NewUserHandler(accounts, listings),
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "timezone": cfg.Timezone}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-rootCtx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	scheduler.Stop(shutdownCtx)
}
