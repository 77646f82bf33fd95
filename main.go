package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tournament-join-service/config"
	"tournament-join-service/events"
	"tournament-join-service/handlers"
	"tournament-join-service/logger"
	"tournament-join-service/metrics"
	"tournament-join-service/middleware"
	"tournament-join-service/services"
	"tournament-join-service/utils"
	"tournament-join-service/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, ServiceName: "tournament-join-service"})
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}

	publisher, err := events.NewPublisher(ctx, cfg.NATS, log)
	if err != nil {
		log.Fatal("failed to set up event publisher", "error", err)
	}
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	clock := clockwork.NewRealClock()

	store := services.NewRecordsStore(db, publisher, log)
	if err := store.Migrate(); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	var uploader services.ThumbnailUploader
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Uploader(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client", "error", err)
		}
		uploader = r2
	} else {
		log.Warn("⚠️  R2 not configured, thumbnail uploads disabled")
	}

	backend := services.NewBackendClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, log, m)
	normalizer := services.NewNormalizer(cfg.Session.DefaultsURL)
	tournaments := services.NewTournamentService(backend, normalizer, log, services.TournamentServiceOptions{
		Mirror:   store,
		Uploader: uploader,
		Clock:    clock,
		MaxAge:   cfg.Session.MirrorMaxAge,
	})
	accounts := services.NewAccountService(backend)

	bridge := services.NewPaymentBridge(backend, nil, log)
	sessions := services.NewSessionManager(services.SessionDeps{
		Join:          backend,
		Bridge:        bridge,
		Clock:         clock,
		PaymentWindow: cfg.Session.PaymentWindow,
		Observer:      store,
		Log:           log,
		Metrics:       m,
	}, tournaments, backend, cfg.Session.IdleTTL)

	syncWorker := workers.NewTournamentSyncWorker(tournaments, store, clock, log)

	sched, err := services.NewScheduler(clock, log)
	if err != nil {
		log.Fatal("failed to create scheduler", "error", err)
	}
	for _, job := range []services.Job{
		syncWorker.Job(cfg.Session.SyncInterval),
		services.JanitorJob(sessions, clock, time.Minute),
	} {
		if err := sched.Add(ctx, job); err != nil {
			log.Fatal("failed to schedule job", "job", job.Name, "error", err)
		}
	}
	sched.Start()

	app := fiber.New(fiber.Config{
		BodyLimit:             8 * 1024 * 1024,
		DisableStartupMessage: true,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, Cache-Control",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(m.Middleware())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": sessions.Count()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	auth := middleware.NewAuthenticator(cfg.Server.JWTSecret, log)
	secured := app.Group("/s", middleware.BearerAuth(auth))

	handlers.SetupTournamentRoutes(app, secured, tournaments)
	handlers.SetupAccountRoutes(app, secured, accounts)
	handlers.SetupRegistrationRoutes(app, secured, auth, sessions, store)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Info("✅ Server running", "addr", addr, "origins", cfg.Server.AllowedOrigins)
		if err := app.Listen(addr); err != nil {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	if err := sched.Shutdown(); err != nil {
		log.Warn("scheduler shutdown", "error", err)
	}
	sessions.CloseAll()
}
