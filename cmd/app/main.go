// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"telegram-survey-bot/internal/application"
	"telegram-survey-bot/internal/config"
	dirAdapter "telegram-survey-bot/internal/infra/adapters/directory"
	formsAdapter "telegram-survey-bot/internal/infra/adapters/forms"
	tele "telegram-survey-bot/internal/infra/adapters/telegram"
	"telegram-survey-bot/internal/infra/i18n"
	"telegram-survey-bot/internal/infra/logging"
	"telegram-survey-bot/internal/infra/metrics"
	red "telegram-survey-bot/internal/infra/redis"
	"telegram-survey-bot/internal/infra/security"
	"telegram-survey-bot/internal/infra/web"
	"telegram-survey-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted PII)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewMessageLimiter(redisClient, 20, time.Minute)

	// ---- Encryption ----
	encKey := cfg.Security.EncryptionKey
	if len(encKey) != 32 {
		logger.Warn().Msg("security.encryption_key not set or not 32 bytes; falling back to dev key (INSECURE)")
		encKey = "0123456789abcdef0123456789abcdef"
	}
	cipher, err := security.NewStateCipher(encKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("state cipher")
	}

	// ---- Repositories ----
	stateRepo := red.NewConversationStateRepo(redisClient, cipher, cfg.Redis.StateTTL)
	convLock := red.NewConversationLock(redisClient)

	// ---- Outbound clients ----
	tokenCache := formsAdapter.NewTokenCache(
		cfg.Forms.OAuthURL, cfg.Forms.ClientID, cfg.Forms.ClientSecret, cfg.Forms.Timeout, logger)
	formsClient := formsAdapter.NewClient(cfg.Forms.BaseURL, tokenCache, cfg.Forms.Timeout, logger)
	dirClient := dirAdapter.NewClient(cfg.Directory.BaseURL, cfg.Directory.Timeout, logger)

	// ---- i18n ----
	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Bot.Language)
	if err != nil {
		logger.Fatal().Err(err).Str("language", cfg.Bot.Language).Msg("translator")
	}

	// ---- Use cases / facade ----
	convUC := usecase.NewConversationUseCase(stateRepo, convLock, formsClient, dirClient, tr, logger)
	facade := application.NewBotFacade(convUC, tr)

	// ---- Telegram ----
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, rateLimiter, tr, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	if strings.ToLower(cfg.Bot.Mode) != "" && strings.ToLower(cfg.Bot.Mode) != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented; falling back to polling")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Ops HTTP server ----
	auth := web.NewAuthManager(cfg.Ops.JWTSecret, cfg.Ops.SessionTTL)
	opsSrv := web.NewServer(convUC, auth, cfg.Ops.APIKey, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Ops.Port),
		Handler: opsSrv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("ops server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("ops server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	botAdapter.StopPolling()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ops server shutdown")
	}
	cancel()
}
