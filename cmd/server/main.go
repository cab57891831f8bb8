package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"placement/internal/application"
	applicationhandler "placement/internal/application/handler"
	applicationmetrics "placement/internal/application/metrics"
	"placement/internal/audit"
	audithandler "placement/internal/audit/handler"
	httpapi "placement/internal/http"
	"placement/internal/platform/config"
	"placement/internal/platform/httpserver"
	"placement/internal/platform/logger"
	redisplatform "placement/internal/platform/redis"
	"placement/internal/posting"
	"placement/internal/posting/adapters"
	postinghandler "placement/internal/posting/handler"
	postingmetrics "placement/internal/posting/metrics"
	"placement/internal/profile"
	profilehandler "placement/internal/profile/handler"
	profilemetrics "placement/internal/profile/metrics"
	"placement/internal/token"
)

const auditInboxSize = 256

// main wires dependencies and owns the process lifecycle. Everything with
// business meaning lives in the internal modules; anything left unconfigured
// falls back to its in-memory implementation so a bare run works.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		db               *sql.DB
		profileStore     profile.Store
		postingStore     posting.Store
		applicationStore application.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		profileStore = profile.NewPostgres(db)
		postingStore = posting.NewPostgres(db)
		applicationStore = application.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		profileStore = profile.NewInMemoryStore()
		postingStore = posting.NewInMemory()
		applicationStore = application.NewInMemory()
		log.Info("using in-memory stores")
	}

	redisClient, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		postingStore = posting.NewCached(postingStore, redisClient.Client, cfg.PostingCacheTTL, log)
		log.Info("posting cache enabled", "ttl", cfg.PostingCacheTTL)
	}

	// Audit events flow through a buffered channel into every configured
	// sink; the in-memory store always participates so the read side works.
	auditStore := audit.NewInMemoryStore()
	sinks := fanout{auditStore}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("audit kafka sink enabled", "topic", cfg.KafkaTopic)
	}
	inbox := make(chan audit.Event, auditInboxSize)
	worker := audit.NewWorker(sinks, inbox, log)
	go func() {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()
	publisher := audit.NewPublisher(audit.NewChannelPublisher(inbox, log))

	profileService := profile.NewService(profileStore,
		profile.WithLogger(log),
		profile.WithMetrics(profilemetrics.New()),
		profile.WithAuditPublisher(publisher),
	)
	postingService := posting.NewService(postingStore, adapters.NewProfileAdapter(profileService),
		posting.WithLogger(log),
		posting.WithMetrics(postingmetrics.New()),
	)
	applicationService := application.NewService(applicationStore, postingService, postingService,
		application.WithLogger(log),
		application.WithMetrics(applicationmetrics.New()),
		application.WithAuditPublisher(publisher),
	)

	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer)

	healthChecks := map[string]func(context.Context) error{}
	if db != nil {
		healthChecks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient.Health
	}

	router := httpapi.New(httpapi.Deps{
		Logger:         log,
		TokenValidator: tokens,
		RequestTimeout: cfg.RequestTimeout,
		Profile:        profilehandler.New(profileService, log),
		Posting:        postinghandler.New(postingService, log),
		Application:    applicationhandler.New(applicationService, log),
		Audit:          audithandler.New(auditStore, log),
		HealthChecks:   healthChecks,
	})

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// fanout appends each event to every sink, keeping whatever sinks still work.
type fanout []audit.Appender

func (f fanout) Append(ctx context.Context, event audit.Event) error {
	var firstErr error
	for _, sink := range f {
		if err := sink.Append(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
