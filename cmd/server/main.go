package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"prepgate/internal/analytics"
	analyticskafka "prepgate/internal/analytics/kafka"
	"prepgate/internal/auth"
	"prepgate/internal/entitlement/cache"
	entitlementmetrics "prepgate/internal/entitlement/metrics"
	"prepgate/internal/entitlement/ports"
	entitlementsvc "prepgate/internal/entitlement/service"
	subsmemory "prepgate/internal/entitlement/store/memory"
	subspostgres "prepgate/internal/entitlement/store/postgres"
	"prepgate/internal/platform/config"
	"prepgate/internal/platform/httpserver"
	"prepgate/internal/platform/logger"
	platformredis "prepgate/internal/platform/redis"
	ratelimitmetrics "prepgate/internal/ratelimit/metrics"
	ratelimitports "prepgate/internal/ratelimit/ports"
	ratelimitsvc "prepgate/internal/ratelimit/service"
	rlmemory "prepgate/internal/ratelimit/store/memory"
	rlredis "prepgate/internal/ratelimit/store/redis"
	httptransport "prepgate/internal/transport/http"
)

const (
	jwtIssuer   = "prepgate"
	jwtAudience = "prepgate-api"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages. Missing backing stores fall
// back to in-process implementations so the service still runs in development.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	health := make(map[string]httptransport.HealthChecker)

	// Rate limiter: Redis when configured, otherwise per-process memory.
	var windowStore ratelimitports.WindowStore = rlmemory.New()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable, falling back to in-memory rate limiting", "error", err)
	}
	if redisClient != nil {
		windowStore = rlredis.New(redisClient.Client)
		health["redis"] = redisClient
		defer redisClient.Close()
	}

	limiter, err := ratelimitsvc.New(windowStore, log, cfg.RateLimit,
		ratelimitsvc.WithMetrics(ratelimitmetrics.New()))
	if err != nil {
		log.Error("failed to build rate limiter", "error", err)
		os.Exit(1)
	}

	// Subscriptions: Postgres when configured, otherwise memory (nobody is
	// a subscriber, which is the safe development default).
	var subscriptions ports.SubscriptionStore = subsmemory.New()
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		subscriptions = subspostgres.New(pool)
		health["postgres"] = poolHealth{pool}
	}
	subscriptions = cache.New(subscriptions)

	// Analytics: Kafka when brokers are configured, otherwise dropped.
	var sink ports.AnalyticsSink = analytics.NopSink{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := analyticskafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("failed to build kafka publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		sink = publisher
	}

	gate, err := entitlementsvc.New(
		cfg.GraceCookieSecret,
		auth.New(cfg.JWTSigningKey, jwtIssuer, jwtAudience),
		subscriptions,
		sink,
		log,
		entitlementsvc.WithMetrics(entitlementmetrics.New()),
	)
	if err != nil {
		log.Error("failed to build entitlement gate", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:  log,
		Limiter: limiter,
		Gate:    gate,
		Health:  health,
	})
	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("starting prepgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("prepgate stopped")
}

// poolHealth adapts a pgx pool to the router's health checker.
type poolHealth struct {
	pool *pgxpool.Pool
}

func (p poolHealth) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
