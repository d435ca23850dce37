package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"studyhub/internal/app"
	"studyhub/internal/config"
	"studyhub/internal/server"
	"studyhub/internal/util"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	appCore, err := app.New(app.ConfigFromFile(cfg))
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		RateLimits:     cfg.RateLimits,
		TrustedProxies: cfg.TrustedProxies,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RedisAddr:      cfg.RedisAddr,
		RedisPassword:  cfg.RedisPassword,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:        addr,
		Handler:     httpServer.Router(),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: chat responses stream for as long as the
		// model keeps producing tokens.
		IdleTimeout: 60 * time.Second,
	}

	slog.Info("studyhub server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
