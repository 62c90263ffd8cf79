// cmd/api-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"firepm-api/internal/api"
	commonaws "firepm-api/internal/common/aws"
	"firepm-api/internal/common/auth"
	"firepm-api/internal/common/config"
	"firepm-api/internal/common/database"
	"firepm-api/internal/common/logger"
	"firepm-api/internal/common/observability"
	"firepm-api/internal/notify"
	"firepm-api/internal/status"
	"firepm-api/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New("info", "console")
		bootstrap.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting API server...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Postgres with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pg.Ping(pingCtx)
	}, 10, 2*time.Second, zapLog, "Postgres initialization")
	if err != nil {
		zapLog.Fatal("postgres unavailable", zap.Error(err))
	}
	defer pg.Close()

	// --- Redis (optional, catalog cache degrades to DB reads) ---
	var catalogCache *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		catalogCache, err = database.NewRedis(cfg.Database.Redis)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = catalogCache.Ping(pingCtx)
			cancel()
		}
		if err != nil {
			zapLog.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
			catalogCache = nil
		} else {
			defer catalogCache.Close()
		}
	}

	// --- Elasticsearch (optional, audit index only) ---
	var es *database.ElasticsearchClient
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, audit index disabled", zap.Error(err))
			es = nil
		}
	}

	// --- Auth provider ---
	var authClient *auth.KeycloakClient
	if cfg.Auth.Keycloak.URL != "" {
		authClient = auth.NewKeycloakClient(
			cfg.Auth.Keycloak.URL,
			cfg.Auth.Keycloak.Realm,
			cfg.Auth.Keycloak.ClientID,
			cfg.Auth.Keycloak.ClientSecret,
		)
	}

	// --- Delivery collaborators ---
	var mailer status.EmailSender
	if cfg.Notifications.Email.Enabled {
		sesClient, err := commonaws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client init failed", zap.Error(err))
		}
		mailer = notify.NewSESMailer(sesClient, cfg.Notifications.Email.FromEmail)
	}

	var sms status.SMSSender
	if cfg.Notifications.SMS.Enabled {
		snsClient, err := commonaws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client init failed", zap.Error(err))
		}
		sms = notify.NewSNSMessenger(snsClient)
	}

	// --- Stores ---
	projects := store.NewProjectStore(pg.DB)
	profiles := store.NewProfileStore(pg.DB)
	notifLog := store.NewNotificationLogStore(pg.DB)

	var cacheClient *redis.Client
	if catalogCache != nil {
		cacheClient = catalogCache.Client
	}
	catalog := store.NewStatusCatalogStore(
		pg.DB,
		cacheClient,
		time.Duration(cfg.Database.Redis.CatalogTTL)*time.Second,
		cfg.Database.Redis.CatalogPrefix,
		log,
	)

	var esClient *elasticsearch.Client
	if es != nil {
		esClient = es.Client
	}
	auditor := notify.NewAuditor(notifLog, esClient, cfg.Database.Elasticsearch.AuditIndex, log)

	// --- Pipeline ---
	var authResolver status.AuthEmailResolver
	if authClient != nil {
		authResolver = authClient
	}

	aggregator := status.NewAggregator(projects, profiles, catalog, authResolver, cfg.Company, log)
	processor := status.NewProcessor(profiles, authResolver, log)
	dispatcher := status.NewDispatcher(mailer, sms, auditor, status.DispatcherConfig{
		Workers:       cfg.Notifications.Workers,
		PerJobTimeout: time.Duration(cfg.Notifications.DispatchTimeout) * time.Millisecond,
		EmailEnabled:  cfg.Notifications.Email.Enabled,
		SMSEnabled:    cfg.Notifications.SMS.Enabled,
	}, log)
	svc := status.NewService(aggregator, processor, dispatcher, projects, obs, log)

	server := api.NewServer(svc, catalog, notifLog, pg, log, cfg.Server.AllowedOrigins)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// pprof on a private port in non-production environments
	if cfg.App.Environment != "production" {
		go func() {
			_ = http.ListenAndServe("localhost:6060", nil)
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
}
