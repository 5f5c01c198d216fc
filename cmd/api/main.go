package main

import (
	"context"
	"net/http"
	"os"

	"github.com/aureliajewels/storefront/api/routes"
	"github.com/aureliajewels/storefront/internal/backend"
	cartsvc "github.com/aureliajewels/storefront/internal/cart"
	checkoutsvc "github.com/aureliajewels/storefront/internal/checkout"
	"github.com/aureliajewels/storefront/internal/session"
	"github.com/aureliajewels/storefront/internal/shipping"
	"github.com/aureliajewels/storefront/pkg/config"
	"github.com/aureliajewels/storefront/pkg/logger"
	"github.com/aureliajewels/storefront/pkg/metrics"
	"github.com/aureliajewels/storefront/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	backendClient, err := backend.NewClient(cfg.Backend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build backend client", err)
		os.Exit(1)
	}

	// The geo cache is optional; without redis every detection hits the
	// backend, which is slower but correct.
	var geoCache backend.GeoCache
	var redisPinger redis.Pinger
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		geoCache = redisClient
		redisPinger = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, geo cache disabled")
	}
	geoResolver := backend.NewGeoResolver(backendClient, geoCache, cfg.Geo.CacheTTL)

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	carts, err := cartsvc.NewRegistry(backendClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart registry", err)
		os.Exit(1)
	}

	profiles, err := session.NewRegistry(backendClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build profile registry", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Logger:  logg,
		Metrics: checkoutMetrics,
		Carts:   carts,
		Orders:  backendClient,
		Geo:     geoResolver,
		NewEstimator: func() (*shipping.Estimator, error) {
			return shipping.NewEstimator(backendClient, logg, checkoutMetrics, cfg.Checkout.PreferredSpeed, cfg.Checkout.MarkupPercent)
		},
		FallbackCountry: cfg.Checkout.NormalizedFallbackCountry(),
		DefaultCurrency: cfg.Checkout.DefaultCurrency,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront api")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			Carts:        carts,
			Checkout:     checkoutService,
			Profiles:     profiles,
			PromGatherer: registry,
			Redis:        redisPinger,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "storefront api stopped unexpectedly", err)
		os.Exit(1)
	}
}
