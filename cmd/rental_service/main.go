package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"

	"github.com/arifultcisdawin/numberbot/internal/platform/config"
	"github.com/arifultcisdawin/numberbot/internal/platform/database"
	"github.com/arifultcisdawin/numberbot/internal/platform/logger"

	"github.com/arifultcisdawin/numberbot/internal/rental_service/adapters/telegram"
	"github.com/arifultcisdawin/numberbot/internal/rental_service/adapters/telephony"
	"github.com/arifultcisdawin/numberbot/internal/rental_service/app"
	"github.com/arifultcisdawin/numberbot/internal/rental_service/repository/mongodb"
	transporthttp "github.com/arifultcisdawin/numberbot/internal/rental_service/transport/http"
)

const (
	serviceName     = "rental-service"
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel).With("service", serviceName)
	log.Info("Starting service...")

	startupCtx, startupCancel := context.WithTimeout(mainCtx, startupTimeout)
	defer startupCancel()

	mongoClient, err := database.NewMongoClient(startupCtx, cfg.MongoURI)
	if err != nil {
		log.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Error("Failed to disconnect from MongoDB", "error", err)
		}
	}()
	log.Info("MongoDB connection initialized")

	db := mongoClient.Database(cfg.MongoDatabase)
	subscriberRepo := mongodb.NewMongoSubscriberRepository(db, log)
	credentialRepo := mongodb.NewMongoCredentialRepository(db, log)
	numberRepo := mongodb.NewMongoNumberRepository(db, log)

	provider := telephony.NewTwilioProvider(log, cfg.TwilioBaseURL, cfg.UpstreamTimeout, nil)

	sessions := app.NewSessionStore()
	rotator := app.NewCredentialRotator(credentialRepo, subscriberRepo, provider, log)
	inventory := app.NewInventoryService(numberRepo, provider, rotator, app.InventoryConfig{
		Region:          cfg.SearchRegion,
		PageSize:        cfg.OfferPageSize,
		OversampleRatio: cfg.OversampleRatio,
	}, log)
	subscriptions := app.NewSubscriptionService(subscriberRepo, sessions, cfg.IsAdmin,
		func(id int64) bool { return id == cfg.BossID }, log)

	teleBot, err := tele.NewBot(tele.Settings{
		Token:  cfg.TelegramBotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		log.Error("Failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}

	notifier := telegram.NewNotifier(teleBot, cfg.AllAdminIDs(), log)
	bot := telegram.NewBot(teleBot, subscriptions, inventory, rotator, sessions, notifier,
		subscriberRepo, credentialRepo, numberRepo,
		telegram.BotConfig{
			BinancePayID:   cfg.BinancePayID,
			ETransferEmail: cfg.ETransferEmail,
			AdminIDs:       cfg.AllAdminIDs(),
		}, log)
	bot.Register()

	sweeper := app.NewExpirySweeper(subscriberRepo, notifier, log)

	adminHandler := transporthttp.NewAdminHandler(subscriberRepo, credentialRepo, numberRepo, log)
	opsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.OpsHTTPPort),
		Handler: transporthttp.NewRouter(adminHandler, []byte(cfg.OpsJWTSecret), log),
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		log.Info("Telegram bot worker starting")
		bot.Start()
		log.Info("Telegram bot worker stopped")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		bot.Stop()
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(groupCtx, cfg.SweepInterval)
	})

	g.Go(func() error {
		log.Info("Ops HTTP server starting", "addr", opsServer.Addr)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Ops HTTP server failed", "error", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return opsServer.Shutdown(shutdownCtx)
	})

	log.Info("Service components initialized and workers started. Service is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received termination signal", "signal", sig.String())
	case <-groupCtx.Done():
		log.Error("A critical component failed, initiating shutdown")
	}

	mainCancel()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Error during graceful shutdown", "error", err)
	}
	log.Info("Service shutdown complete.")
}
