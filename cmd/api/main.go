package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/analytics"
	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/channel"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/escalation"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/lock"
	"github.com/spec-kit/support-desk/internal/messaging"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	"github.com/spec-kit/support-desk/internal/responder"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/worker"
)

type stores struct {
	customers repository.CustomerRepository
	tickets   repository.TicketRepository
	messages  repository.TicketMessageRepository
	history   repository.TicketHistoryRepository
	snapshots repository.Snapshotter
	pinger    repository.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, closeStore := openStores(ctx, cfg, logger)
	defer closeStore()

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.Lock.Backend == config.LockBackendRedis {
		locker = lock.NewRedisLocker(redis.Client, logger, cfg.Lock.Prefix, cfg.Lock.TTL(), cfg.Lock.Wait())
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	var publisher messaging.Publisher = messaging.NopPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = messaging.NewProducer(cfg.Kafka.Brokers, logger)
	}
	defer publisher.Close() //nolint:errcheck

	dispatcher := events.NewInMemoryDispatcher()
	relay := service.NewEventRelay(dispatcher, publisher, cfg.Kafka, logger)
	worker.StartEventWorkers(dispatcher, relay, metrics)

	reply, err := responder.New(cfg.Responder)
	if err != nil {
		logger.Fatal("failed to build responder", zap.Error(err))
	}

	customerService := service.NewCustomerService(service.CustomerDependencies{
		CustomerRepo: st.customers,
		Logger:       logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  st.tickets,
		MessageRepo: st.messages,
		HistoryRepo: st.history,
		Locker:      locker,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	orchestrator := service.NewReplyOrchestrator(service.OrchestratorDependencies{
		Customers:    customerService,
		Tickets:      ticketService,
		Responder:    reply,
		Policy:       escalation.NewPolicy(cfg.Escalation.SentimentThreshold, cfg.Escalation.Keywords),
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
		ThreadWindow: cfg.Intake.ThreadWindow(),
	})

	app := httptransport.NewApp(cfg.App, cfg.Intake)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout(), cfg.App.CORSOrigins)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, st.pinger, redis),
		Support:   handlers.NewSupportHandler(orchestrator, channel.TwilioWebhook{AuthToken: cfg.Intake.TwilioAuthToken}, cfg.Intake.TwilioWebhookURL, logger),
		Tickets:   handlers.NewTicketsHandler(ticketService),
		Customers: handlers.NewCustomersHandler(customerService),
		Metrics:   handlers.NewMetricsHandler(analytics.NewAggregator(st.snapshots)),
		Collector: metrics,
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("responder", cfg.Responder.Provider),
			zap.String("lock_backend", cfg.Lock.Backend),
			zap.Bool("kafka", cfg.Kafka.Enabled()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// openStores selects Postgres when a DSN is configured and the in-memory store otherwise.
func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (stores, func()) {
	if cfg.Postgres.DSN == "" {
		logger.Info("POSTGRES_DSN not provided; using in-memory store")
		mem := memory.NewStore()
		return stores{
			customers: mem.Customers(),
			tickets:   mem.Tickets(),
			messages:  mem.Messages(),
			history:   mem.History(),
			snapshots: mem,
			pinger:    mem,
		}, func() {}
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	if cfg.Postgres.RunMigrations {
		if err := pg.Migrate(ctx, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	repos := pg.Repositories()
	return stores{
		customers: repos.Customers,
		tickets:   repos.Tickets,
		messages:  repos.Messages,
		history:   repos.History,
		snapshots: repos.Snapshots,
		pinger:    pg,
	}, pg.Close
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
