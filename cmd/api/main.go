package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/talent-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/ai"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/oauth"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/talent-backend-go/internal/repository/postgresql"
	approvalService "github.com/cmlabs-hris/talent-backend-go/internal/service/approval"
	serviceAuth "github.com/cmlabs-hris/talent-backend-go/internal/service/auth"
	serviceCompany "github.com/cmlabs-hris/talent-backend-go/internal/service/company"
	connectionService "github.com/cmlabs-hris/talent-backend-go/internal/service/connection"
	employeeService "github.com/cmlabs-hris/talent-backend-go/internal/service/employee"
	enrichmentService "github.com/cmlabs-hris/talent-backend-go/internal/service/enrichment"
	notificationService "github.com/cmlabs-hris/talent-backend-go/internal/service/notification"
	policyService "github.com/cmlabs-hris/talent-backend-go/internal/service/policy"
	profileService "github.com/cmlabs-hris/talent-backend-go/internal/service/profile"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const version = "v1.0.0"

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.App.LogLevel)})))

	dsn := cfg.DatabaseURL()
	if err := database.Migrate(dsn); err != nil {
		return err
	}
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	var publisher events.Publisher = events.NewNoopPublisher()
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer publisher.Close()

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb)
	} else {
		slog.Warn("REDIS_ADDR not set, enrichment locks are process-local")
	}

	mailer, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		return fmt.Errorf("init email service: %w", err)
	}

	userRepo := postgresql.NewUserRepository(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	connectionRepo := postgresql.NewConnectionRepository(db)
	resultRepo := postgresql.NewEnrichmentResultRepository(db)
	requestRepo := postgresql.NewApprovalRequestRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	tx := postgresql.NewTransactor(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	var providers []oauth.ProviderService
	if c := cfg.OAuth2GitHub; c.Enabled() {
		providers = append(providers, oauth.NewGitHubService(c.ClientID, c.ClientSecret, c.RedirectURL, c.Scopes))
	}
	if c := cfg.OAuth2LinkedIn; c.Enabled() {
		providers = append(providers, oauth.NewLinkedInService(c.ClientID, c.ClientSecret, c.RedirectURL, c.Scopes))
	}

	hub := sse.NewHub()
	notifications := notificationService.NewNotificationService(notificationRepo, hub, publisher, mailer, notificationService.Config{
		FrontendURL: cfg.App.FrontendURL,
	})
	defer notifications.Shutdown()

	policyEngine := policyService.NewPolicyEngine(companyRepo, employeeRepo, cfg.Policy.CacheSize, cfg.Policy.CacheTTL)
	authSvc := serviceAuth.NewAuthService(userRepo, JWTService)
	companySvc := serviceCompany.NewCompanyService(tx, companyRepo, employeeRepo, userRepo, policyEngine, publisher)
	employeeSvc := employeeService.NewEmployeeService(tx, employeeRepo, companyRepo, userRepo, publisher)
	connectionSvc := connectionService.NewConnectionService(connectionRepo, employeeRepo, publisher)
	profileSvc := profileService.NewProfileService(tx, employeeRepo, userRepo, policyEngine, notifications, publisher)
	enrichmentSvc := enrichmentService.NewEnrichmentService(
		employeeRepo,
		resultRepo,
		connectionSvc,
		profileSvc,
		enrichmentService.NewCollector(providers...),
		ai.NewClient(cfg.AI.Endpoint, cfg.AI.APIKey, cfg.AI.Model),
		locker,
		notifications,
		publisher,
		enrichmentService.Config{Timeout: cfg.Enrichment.Timeout, LockTTL: cfg.Enrichment.LockTTL},
	)
	routerSvc := approvalService.NewRouterService(requestRepo, employeeRepo, userRepo, policyEngine, notifications, publisher)

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		FrontendURL:    cfg.App.FrontendURL,
		Env:            cfg.App.Env,
		Version:        version,
		CollectRate:    rate.Limit(cfg.Enrichment.CollectRate),
		CollectBurst:   cfg.Enrichment.CollectBurst,
		RequestLogging: true,
	}, JWTService, appHTTP.Handlers{
		Auth:            appHTTP.NewAuthHandler(JWTService, authSvc),
		Company:         appHTTP.NewCompanyHandler(companySvc),
		Employee:        appHTTP.NewEmployeeHandler(employeeSvc),
		External:        appHTTP.NewExternalHandler(JWTService, employeeSvc, connectionSvc, enrichmentSvc, providers, cfg.App.FrontendURL),
		ProfileApproval: appHTTP.NewProfileApprovalHandler(profileSvc, employeeSvc),
		Request:         appHTTP.NewRequestHandler(routerSvc),
		Events:          appHTTP.NewEventsHandler(hub, notifications, JWTService),
	})

	scheduler := cron.NewScheduler()
	cron.NewEnrichmentJobs(employeeRepo, cfg.Enrichment.LockTTL, cfg.Enrichment.SweepInterval).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Open event streams end when the signal arrives.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(cfg.Kafka.Brokers) > 0 {
		// Every instance joins its own group so each one sees every policy change.
		consumer := events.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Topic+".policy-cache."+uuid.NewString())
		defer consumer.Close()
		g.Go(func() error {
			return consumer.Consume(gctx, policyService.InvalidateOnPolicyUpdate(policyEngine))
		})
	}
	g.Go(func() error {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		slog.Info("Shutting down server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
