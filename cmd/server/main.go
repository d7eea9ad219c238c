package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"barbari/internal/app"
	"barbari/internal/config"
	"barbari/internal/server"
	"barbari/internal/util"
	"barbari/pkg/sms"
	"barbari/pkg/storage"
	"barbari/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	sessions, err := store.NewJWTSessionStore(cfg.JWTSecret, sessionTTL, "", store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword))
	if err != nil {
		log.Fatalf("failed to init sessions: %v", err)
	}

	images, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioPublicURL, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	notifier := sms.New(sms.Config{
		APIKey:     cfg.SMSAPIKey,
		AdminPhone: cfg.AdminPhone,
		TemplateID: cfg.SMSTemplateID,
		LineNumber: cfg.SMSLineNumber,
		Strategy:   sms.Strategy(cfg.SMSStrategy),
	})

	appCore, err := app.New(app.Config{
		DatabaseURL: cfg.DatabaseURL,
		Sessions:    sessions,
		Notifier:    notifier,
		Images:      images,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:                     appCore,
		RedisAddr:               cfg.RedisAddr,
		RedisPassword:           cfg.RedisPassword,
		LoginRateLimitPerWindow: cfg.LoginRateLimit,
		LoginRateWindow:         time.Duration(cfg.LoginRateWindowSeconds) * time.Second,
		TrustedProxies:          trusted,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	handler := util.WithRequestLog("barbari", util.WithRequestID(httpServer.Router()))

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
