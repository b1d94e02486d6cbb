package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/cache"
	"github.com/fjod/storefront/internal/config"
	storegrpc "github.com/fjod/storefront/internal/grpc"
	storehttp "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	configFile := flag.String("config", "", "optional config file (.env, yaml or json)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("storefront stopped with error")
	}
	log.Info().Msg("storefront stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	creds := cfg.Credentials()
	repo, err := repository.NewRepository(creds)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		return err
	}
	log.Info().Str("driver", repo.Driver()).Msg("store ready")

	cartCache, closeCache, err := newCartCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := storehttp.NewRouter(storehttp.RouterConfig{
		Logger:         log,
		JWTSecret:      []byte(cfg.JWTSecret),
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        metrics.NewServerMetrics("api", reg),
		MetricsHandler: metrics.Handler(reg),
		Health:         repo.Ping,
		Cart:           service.NewCartService(repo, cartCache),
		Orders:         service.NewOrderService(repo, cartCache),
		Payments:       service.NewPaymentService(repo, newGateway(cfg, log), cfg.Currency),
		Catalog:        service.NewCatalogService(repo),
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      otelhttp.NewHandler(router, cfg.ServiceName),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	grpcServer := storegrpc.NewServer(repo, 5*time.Second, log)
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("grpc server listening")
		return grpcServer.Serve(gctx, grpcListener)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newCartCache connects Redis when REDIS_ADDR is set; without it carts are always
// read from the store.
func newCartCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.CartCache, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("cart cache disabled")
		return cache.NopCache{}, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("redis ping succeeded")

	return cache.NewRedisCache(client, cfg.CartCacheTTL), func() { client.Close() }, nil
}

func newGateway(cfg *config.Config, log zerolog.Logger) payment.Gateway {
	if cfg.StripeSecretKey == "" {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, using simulated payment gateway")
		return payment.NewSimulatedGateway(cfg.FrontendURL)
	}
	return payment.NewBreakerGateway(
		payment.NewStripeGateway(cfg.StripeSecretKey, cfg.FrontendURL),
		payment.BreakerSettings{},
		log,
	)
}
