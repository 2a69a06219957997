// Command server runs the invoice clearance API.
//
// Wiring, not logic: every dependency is constructed here from environment
// configuration and handed to the services that use it. Postgres, Redis, and
// Kafka are all optional in development; the stores fall back to memory and
// the audit worker simply does not start.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fatoora/internal/audit"
	"fatoora/internal/audit/sink"
	auditstore "fatoora/internal/audit/store"
	"fatoora/internal/certificate/credstore"
	certificatehandler "fatoora/internal/certificate/handler"
	certificatemetrics "fatoora/internal/certificate/metrics"
	"fatoora/internal/certificate/onboarding"
	onboardingstore "fatoora/internal/certificate/onboarding/store"
	certificateservice "fatoora/internal/certificate/service"
	certificatestore "fatoora/internal/certificate/store"
	httpapi "fatoora/internal/http"
	invoicehandler "fatoora/internal/invoice/handler"
	invoicemetrics "fatoora/internal/invoice/metrics"
	invoiceservice "fatoora/internal/invoice/service"
	invoicestore "fatoora/internal/invoice/store"
	"fatoora/internal/platform/config"
	"fatoora/internal/platform/httpserver"
	"fatoora/internal/platform/logger"
	"fatoora/internal/platform/postgres"
	"fatoora/internal/platform/redis"
	"fatoora/internal/regulator"
	regulatormetrics "fatoora/internal/regulator/metrics"
	"fatoora/internal/signing"
	tenanthandler "fatoora/internal/tenant/handler"
	tenantmetrics "fatoora/internal/tenant/metrics"
	tenantservice "fatoora/internal/tenant/service"
	tenantstore "fatoora/internal/tenant/store"
	"fatoora/internal/tenant/token"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if _, err := db.ExecContext(ctx, postgres.Schema); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("postgres not configured, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Audit trail: append-only outbox drained to Kafka in the background.
	var auditStore audit.Store
	if db != nil {
		auditStore = auditstore.NewPostgres(db)
	} else {
		auditStore = auditstore.NewInMemory()
	}
	publisher := audit.NewPublisher(auditStore)

	var auditSink *sink.Kafka
	if len(cfg.KafkaBrokers) > 0 {
		auditSink, err = sink.NewKafka(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer auditSink.Close()
	} else {
		log.Warn("kafka not configured, audit events stay in the outbox")
	}

	// Tenant enrollment and token issuance.
	var tenants tenantservice.Store
	if db != nil {
		tenants = tenantstore.NewPostgres(db)
	} else {
		tenants = tenantstore.NewInMemory()
	}
	tokenService := token.NewService(cfg.AuthSigningKey, "fatoora")
	tenantService := tenantservice.New(tenants, tokenService,
		tenantservice.WithLogger(log),
		tenantservice.WithAuditPublisher(publisher),
		tenantservice.WithMetrics(tenantmetrics.New()),
	)

	// Signing credentials and certificate metadata.
	creds, err := credstore.NewFileStore(cfg.CredentialRoot)
	if err != nil {
		log.Error("credential store unavailable", "root", cfg.CredentialRoot, "error", err)
		os.Exit(1)
	}
	var certMetadata certificateservice.MetadataStore
	if db != nil {
		certMetadata = certificatestore.NewPostgres(db)
	} else {
		certMetadata = certificatestore.NewInMemory()
	}
	certService := certificateservice.New(creds, certMetadata,
		certificateservice.WithLogger(log),
		certificateservice.WithAuditPublisher(publisher),
		certificateservice.WithMetrics(certificatemetrics.New()),
	)

	regulatorClient := regulator.NewClient(cfg.Regulator,
		regulator.WithLogger(log),
		regulator.WithMetrics(regulatormetrics.New()),
	)

	var sessions onboarding.SessionStore
	if redisClient != nil {
		sessions = onboardingstore.NewRedis(redisClient.Client)
	} else {
		sessions = onboardingstore.NewInMemory()
	}
	onboardingService := onboarding.New(regulatorClient, certService, sessions,
		onboarding.WithLogger(log),
		onboarding.WithAuditPublisher(publisher),
	)

	// The clearance pipeline.
	var invoices invoiceservice.Store
	var processingLog invoiceservice.LogStore
	if db != nil {
		invoices = invoicestore.NewPostgres(db)
		processingLog = invoicestore.NewLogPostgres(db)
	} else {
		invoices = invoicestore.NewInMemory()
		processingLog = invoicestore.NewLogInMemory()
	}
	invoiceService := invoiceservice.New(invoices, processingLog, signing.New(creds), regulatorClient,
		invoiceservice.WithLogger(log),
		invoiceservice.WithAuditPublisher(publisher),
		invoiceservice.WithMetrics(invoicemetrics.New()),
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		TokenValidator: tokenService,
		TenantResolver: tenantService,
		Tenants:        tenanthandler.New(tenantService, log),
		Invoices:       invoicehandler.New(invoiceService, log),
		Certificates:   certificatehandler.New(certService, onboardingService, log),
	})
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if auditSink != nil {
		worker := audit.NewWorker(auditStore, auditSink, audit.WithLogger(log))
		group.Go(func() error {
			return worker.Run(groupCtx)
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
