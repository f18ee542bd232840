package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/auth"
	"github.com/senyabanana/sealed-bid-service/internal/db"
	"github.com/senyabanana/sealed-bid-service/internal/events"
	"github.com/senyabanana/sealed-bid-service/internal/handlers"
	"github.com/senyabanana/sealed-bid-service/internal/lock"
	"github.com/senyabanana/sealed-bid-service/internal/repository"
	"github.com/senyabanana/sealed-bid-service/internal/router"
	"github.com/senyabanana/sealed-bid-service/internal/router/config"
	"github.com/senyabanana/sealed-bid-service/internal/sealing"
	"github.com/senyabanana/sealed-bid-service/internal/services"

	"github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const reapInterval = time.Minute

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config", "err", err)
	}

	logger := log.NewWithOptions(os.Stdout, log.Options{
		ReportTimestamp: true,
		Prefix:          "sealed-bid",
	})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		auctionRepo repository.AuctionRepository
		bidRepo     repository.BidRepository
	)
	if dbSource := db.ConnString(cfg); dbSource != "" {
		runDBMigration(logger, cfg.MigrationURL, dbSource)

		dbPool, err := db.InitDb(ctx, dbSource)
		if err != nil {
			logger.Fatal("error initializing database", "err", err)
		}
		defer dbPool.Close()

		auctionRepo = repository.NewPostgresAuctionRepository(dbPool)
		bidRepo = repository.NewPostgresBidRepository(dbPool)
	} else {
		logger.Warn("database is not configured, using in-memory storage")
		store := repository.NewMemoryStore()
		auctionRepo, bidRepo = store, store
	}

	if n, err := repository.Seed(ctx, auctionRepo, time.Now()); err != nil {
		logger.Fatal("cannot seed auctions", "err", err)
	} else if n > 0 {
		logger.Info("auction catalogue seeded", "count", n)
	}

	publisher, err := events.New(events.Config{
		Driver:       cfg.EventsDriver,
		NatsURL:      cfg.NatsURL,
		NatsSubject:  cfg.NatsSubject,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
	})
	if err != nil {
		logger.Fatal("cannot create events publisher", "err", err)
	}
	defer publisher.Close()

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.RedisAddr != "" {
		redisLocker, err := lock.NewRedisLocker(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("cannot connect to redis", "err", err)
		}
		defer redisLocker.Close()
		locker = redisLocker
	}

	committer := sealing.NewSealedCommitter(cfg.EncryptLatency)
	attestor := sealing.NewProofAttestor(cfg.EncryptLatency)
	submitter := services.NewLedgerSubmitter(bidRepo, publisher, cfg.SubmitLatency, logger.WithPrefix("submitter"))

	auctionService := services.NewAuctionService(auctionRepo, bidRepo, nil)
	sessionService := services.NewSessionService(auctionRepo, committer, attestor, submitter, locker, cfg.SessionTTL, logger.WithPrefix("sessions"))
	go sessionService.RunReaper(ctx, reapInterval)

	auctionHandler := handlers.NewAuctionHandler(auctionService, logger, cfg.RequestTimeout)
	bidHandler := handlers.NewBidHandler(sessionService, auctionService, logger, cfg.RequestTimeout)
	countdownHandler := handlers.NewCountdownHandler(auctionService, logger)

	verifier := auth.NewVerifier(cfg.AuthSecret)
	if cfg.AuthSecret == "" {
		logger.Warn("AUTH_SECRET is empty, trusting " + auth.WalletHeader + " header")
	}

	routes := router.InitRoutes(handlers.NewPingHandler(auctionRepo, logger), auctionHandler, bidHandler, countdownHandler, verifier)
	server := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           routes,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server is listening", "addr", cfg.ServerAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}

func runDBMigration(logger *log.Logger, migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		logger.Fatal("cannot create a new migrate instance", "err", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Fatal("failed to run migrate up", "err", err)
	}
	logger.Info("db migrated successfully")
}
