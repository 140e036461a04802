package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic-feedback/internal/config"
	"clinic-feedback/internal/database"
	"clinic-feedback/internal/handlers"
	"clinic-feedback/internal/logging"
	"clinic-feedback/internal/notify"
	"clinic-feedback/internal/repository"
	"clinic-feedback/internal/service"
	"clinic-feedback/internal/telegram"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "json")
		log.Fatal().Err(err).Msg("❌ invalid configuration")
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Stores
	var (
		feedbackRepo repository.FeedbackRepository
		bonusRepo    repository.BonusRepository
		mongoClient  *mongo.Client
	)
	switch cfg.StoreBackend {
	case config.BackendMongo:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoClient, err = database.Connect(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			cancel()
			log.Fatal().Err(err).Msg("❌ failed to connect to MongoDB")
		}

		fr := repository.NewFeedbackRepo()
		br := repository.NewBonusRepo()
		if err := fr.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("⚠️ failed to create feedback indexes")
		}
		if err := br.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("⚠️ failed to create bonus indexes")
		}
		cancel()
		feedbackRepo, bonusRepo = fr, br
	default:
		fr, err := repository.NewFeedbackFileRepo(cfg.FeedbackStorePath())
		if err != nil {
			log.Fatal().Err(err).Msg("❌ failed to open feedback store")
		}
		br, err := repository.NewBonusFileRepo(cfg.BonusStorePath())
		if err != nil {
			log.Fatal().Err(err).Msg("❌ failed to open bonus store")
		}
		feedbackRepo, bonusRepo = fr, br
	}
	log.Info().Str("backend", cfg.StoreBackend).Msg("stores ready")

	// Telegram relay; log-only mock when no bot is configured
	var relay telegram.Relay
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewBotRelay(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.TelegramEndpoint, cfg.TelegramTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("❌ failed to initialize Telegram bot")
		}
		relay = bot
	} else {
		log.Warn().Msg("⚠️ TELEGRAM_BOT_TOKEN not set, feedback is only logged")
		relay = telegram.NewMockRelay()
	}

	// Services
	opts := []service.FeedbackOption{
		service.WithClassifier(service.NewClassifier(cfg.UrgentKeywords)),
	}
	if cfg.AlertsEnabled() {
		opts = append(opts, service.WithAlerter(notify.NewEmailAlerter(cfg.ResendAPIKey, cfg.AlertFromEmail, cfg.AlertToEmails)))
	}
	feedbackService := service.NewFeedbackService(feedbackRepo, relay, opts...)
	bonusService := service.NewBonusService(bonusRepo)

	// Handlers
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, cfg.MaxVoiceFiles, cfg.MaxVoiceBytes)
	bonusHandler := handlers.NewBonusHandler(bonusService)

	router := handlers.NewRouter(handlers.RouterConfig{
		CORSOrigins:      cfg.CORSOrigins,
		RateLimitPerMin:  cfg.RateLimitPerMin,
		TrustedProxyHops: cfg.TrustedProxyHops,
		Logger:           logger,
	}, feedbackHandler, bonusHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("🚀 clinic feedback server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("❌ server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	// Voice replies and urgent alerts still in flight.
	if err := feedbackService.Wait(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️ background relay work did not finish")
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect failed")
		}
	}
}
