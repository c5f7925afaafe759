// Package app wires configuration, storage, services and the HTTP server.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	"github.com/xenking/pharmacy-pos/internal/domain/cart"
	"github.com/xenking/pharmacy-pos/internal/domain/expense"
	"github.com/xenking/pharmacy-pos/internal/domain/report"
	"github.com/xenking/pharmacy-pos/internal/handler"
	"github.com/xenking/pharmacy-pos/internal/storage/postgres"
	"github.com/xenking/pharmacy-pos/pkg/health"
	"github.com/xenking/pharmacy-pos/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	probes := health.New()
	probes.Add(health.Readiness, "postgres", 5*time.Second, health.PingCheck(pool))
	probes.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCountCheck(10000))
	probes.Start(ctx, 10*time.Second)
	probes.SetReady(true)

	drugRepo := postgres.NewDrugRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)

	carts := cart.NewService(postgres.NewCartStore(pool), cart.WithMeterProvider(m.MeterProvider()))
	reports := report.NewService(postgres.NewReportRepository(pool), cfg.History.PageSize)
	expenses := expense.NewService(postgres.NewExpenseRepository(pool), cfg.History.PageSize)

	h := handler.NewHandler(
		handler.Config{RequireCartSession: cfg.Cart.RequireSession},
		drugRepo,
		stockRepo,
		carts,
		reports,
		expenses,
	)
	api := h.Router(cfg.PathPrefix,
		httpmiddleware.Labeler(),
		httpmiddleware.LogRequests(),
	)

	root := chi.NewRouter()
	probes.Routes(root)
	root.Mount("/", api)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(root,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(lg),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", handler.CartHeader, httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Rate:  cfg.RateLimit.Rate,
				Burst: cfg.RateLimit.Burst,
			}),
			httpmiddleware.Instrument("pharmacy-api", m.TracerProvider(), m.MeterProvider()),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		probes.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		probes.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr), zap.String("prefix", cfg.PathPrefix))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
