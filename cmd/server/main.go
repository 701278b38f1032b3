package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"diagnosis-api/internal/common/aws"
	"diagnosis-api/internal/common/config"
	"diagnosis-api/internal/common/database"
	"diagnosis-api/internal/common/logger"
	"diagnosis-api/internal/common/observability"
	"diagnosis-api/internal/diagnosis"
	"diagnosis-api/internal/engine"
	"diagnosis-api/internal/notify"
	"diagnosis-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting diagnosis api", map[string]interface{}{
		"environment":  cfg.App.Environment,
		"engineSet":    cfg.Engine.URL != "",
		"mockMode":     cfg.Engine.UseMock,
		"persistence":  cfg.Database.Postgres.Enabled(),
		"slackWebhook": cfg.Notifications.Slack.WebhookURL != "",
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional collaborators: each one absent simply disables its side
	// effect; the proxy path works without any of them.
	var postgres *database.PostgresClient
	var store *diagnosis.Store
	if cfg.Database.Postgres.Enabled() {
		postgres, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			log.Error("failed to open postgres, persistence disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer postgres.Close()
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := postgres.Ping(pingCtx); err != nil {
				log.Warn("postgres unreachable at startup", map[string]interface{}{
					"error": err.Error(),
				})
			}
			cancel()
			store = diagnosis.NewStore(postgres.DB, log)
		}
	}

	var redis *database.RedisClient
	if cfg.Database.Redis.Enabled() {
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			log.Error("failed to create redis client, rate limiting disabled", map[string]interface{}{
				"error": err.Error(),
			})
			redis = nil
		} else {
			defer redis.Close()
		}
	}

	var email *notify.EmailNotifier
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			log.Error("failed to create ses client, consult email disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			email = notify.NewEmailNotifier(sesClient, cfg.Notifications.Email.FromEmail, cfg.Consult.Email, log)
		}
	}

	srv := server.New(server.Options{
		Config:   cfg,
		Logger:   log,
		Engine:   engine.NewClient(cfg.Engine.URL, time.Duration(cfg.Engine.Timeout)*time.Millisecond),
		Store:    store,
		Slack:    notify.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL, log),
		Email:    email,
		Postgres: postgres,
		Redis:    redis,
		Obs:      obs,
	})

	go serveMetrics(cfg.Server.MetricsPort, log)

	if err := srv.Run(ctx); err != nil {
		log.Error("server exited with error", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	log.Info("shutdown complete", nil)
}

func serveMetrics(port int, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Info("metrics endpoint started", map[string]interface{}{
		"port": port,
	})
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		log.Error("metrics endpoint failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
