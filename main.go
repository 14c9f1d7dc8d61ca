package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tripplanner/cache"
	"tripplanner/config"
	"tripplanner/database"
	"tripplanner/handlers"
	"tripplanner/logger"
	"tripplanner/metrics"
	"tripplanner/middleware"
	"tripplanner/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	defer zl.Sync() //nolint:errcheck

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database, zl)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(db.DB, zl); err != nil {
			return err
		}
	}

	store := database.NewStore(db)
	kv := cache.New(cfg.Redis, zl)
	m := metrics.New("tripplanner")

	links := services.NewAffiliateLinks(cfg.Affiliate)
	amadeus := services.NewAmadeusClient(cfg.Amadeus, m, zl.Named("amadeus"))
	travel := services.NewTravelSearch(amadeus, links, m, zl.Named("travel"))
	prices := services.NewPriceWatchChecker(store, travel, cfg.PriceWatch.CheckInterval, cfg.PriceWatch.BatchSize, m, zl.Named("price_watch"))

	deps := handlers.Deps{
		Store:         store,
		Auth:          services.NewSupabaseAuth(cfg.Supabase),
		AI:            services.NewAIService(cfg.OpenAI),
		Travel:        travel,
		Amadeus:       amadeus,
		Payments:      services.NewPayments(cfg.Stripe, store, kv, m, zl.Named("payments")),
		Weather:       services.NewWeatherService(cfg.Weather, kv, m, zl.Named("weather")),
		Currency:      services.NewCurrencyService(cfg.Currency, kv, m, zl.Named("currency")),
		Links:         links,
		Prices:        prices,
		Metrics:       m,
		FreeTripLimit: cfg.Plans.FreeTripLimit,
	}
	if cfg.RateLimit.Enabled {
		deps.AILimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	r := gin.New()
	r.Use(
		logger.Recovery(zl),
		middleware.RequestID(),
		logger.GinMiddleware(zl),
		m.Middleware(),
		middleware.CORS(cfg.HTTP),
	)
	if err := r.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return err
	}
	r.GET("/metrics", gin.WrapH(m.Handler()))
	handlers.New(deps).Routes(r)

	if cfg.PriceWatch.Enabled {
		go prices.Run(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
