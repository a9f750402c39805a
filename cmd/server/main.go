package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bistro-pos/internal/config"
	"bistro-pos/internal/db"
	"bistro-pos/internal/events"
	"bistro-pos/internal/handler"
	"bistro-pos/internal/logger"
	"bistro-pos/internal/menu"
	"bistro-pos/internal/metrics"
	"bistro-pos/internal/middleware"
	"bistro-pos/internal/order"
	"bistro-pos/internal/payment"
	"bistro-pos/internal/receipt"
	"bistro-pos/internal/report"
	"bistro-pos/internal/staff"
	"bistro-pos/internal/store/memory"
	"bistro-pos/internal/table"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = serve
)

// repositories is one storage backend's view of every component.
type repositories struct {
	orders   order.Repository
	payments payment.Repository
	tables   table.Repository
	menu     menu.Repository
	reports  report.Source
	staff    staff.Repository
}

func postgresRepositories(database *sql.DB) repositories {
	tables := table.NewRepository(database)
	menuRepo := menu.NewRepository(database)
	return repositories{
		orders:   order.NewRepository(database, menuRepo, tables),
		payments: payment.NewRepository(database, tables),
		tables:   tables,
		menu:     menuRepo,
		reports:  report.NewRepository(database),
		staff:    staff.NewRepository(database),
	}
}

func memoryRepositories() repositories {
	s := memory.New()
	memory.SeedDemo(s)
	return repositories{
		orders:   s.Orders(),
		payments: s.Payments(),
		tables:   s.Tables(),
		menu:     s.Menu(),
		reports:  s.Reports(),
		staff:    s.Staff(),
	}
}

type server struct {
	router    http.Handler
	publisher events.Publisher
	redis     *redis.Client
	limiter   *middleware.RateLimiter
}

func (s *server) Close() {
	s.limiter.Close()
	if err := s.publisher.Close(); err != nil {
		logger.L().Warn("failed to close event publisher", zap.Error(err))
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func newServer(cfg *config.Config, repos repositories) *server {
	m := metrics.NewRegistry()

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	orderSvc := order.NewService(repos.orders, publisher, m)
	paymentSvc := payment.NewService(repos.payments, publisher, m)
	receipts := receipt.NewService(paymentSvc, orderSvc, repos.tables, receipt.Restaurant{
		Name:    cfg.Restaurant.Name,
		Address: cfg.Restaurant.Address,
		Phone:   cfg.Restaurant.Phone,
		Email:   cfg.Restaurant.Email,
	}, receipt.WithStaff(repos.staff))

	srv := &server{publisher: publisher, limiter: middleware.NewRateLimiter()}

	var idempotency func(http.Handler) http.Handler
	if cfg.RedisAddr != "" {
		srv.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		idempotency = middleware.Idempotency(srv.redis, cfg.IdempotencyTTL)
	}

	srv.router = setupRouter(cfg, routes{
		orders:   handler.NewOrderHandler(orderSvc),
		payments: handler.NewPaymentHandler(paymentSvc, receipts),
		reports:  handler.NewReportHandler(report.NewService(repos.reports, report.WithStaffNames(repos.staff))),
		catalog:  handler.NewCatalogHandler(repos.tables, repos.menu),
		metrics:  m,
		limiter:  srv.limiter,
	}, idempotency)
	return srv
}

type routes struct {
	orders   *handler.OrderHandler
	payments *handler.PaymentHandler
	reports  *handler.ReportHandler
	catalog  *handler.CatalogHandler
	metrics  *metrics.Registry
	limiter  *middleware.RateLimiter
}

func setupRouter(cfg *config.Config, h routes, idempotency func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.Get("/health", handler.Health)
	r.Get("/metrics", handler.Metrics(h.metrics))

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware([]byte(cfg.JWTSecret)))
		r.Use(h.limiter.Middleware)
		if idempotency != nil {
			r.Use(idempotency)
		}

		h.catalog.RegisterRoutes(r)
		r.Route("/orders", func(r chi.Router) {
			h.orders.RegisterRoutes(r)
			h.payments.RegisterOrderRoutes(r)
		})
		r.Route("/payments", h.payments.RegisterRoutes)
		r.Route("/reports", h.reports.RegisterRoutes)
	})

	return r
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	var repos repositories
	if cfg.StorageDriver == config.StorageMemory {
		repos = memoryRepositories()
	} else {
		database := initDBFunc(cfg)
		defer database.Close()
		repos = postgresRepositories(database)
	}

	srv := newServer(cfg, repos)
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hs := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           srv.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.L().Info("POS server listening",
		zap.String("port", cfg.AppPort),
		zap.String("storage", cfg.StorageDriver),
	)
	return startServerFunc(ctx, hs)
}

const shutdownTimeout = 10 * time.Second

// serve blocks until hs fails or ctx is done, then drains in-flight
// requests before returning.
func serve(ctx context.Context, hs *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down POS server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
