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

	"github.com/Vumbi2018/lgis-sub001/internal/audit"
	bghandler "github.com/Vumbi2018/lgis-sub001/internal/breakglass/handler"
	bgservice "github.com/Vumbi2018/lgis-sub001/internal/breakglass/service"
	bgstore "github.com/Vumbi2018/lgis-sub001/internal/breakglass/store"
	"github.com/Vumbi2018/lgis-sub001/internal/breakglass/workers/sweeper"
	"github.com/Vumbi2018/lgis-sub001/internal/gate"
	gatehandler "github.com/Vumbi2018/lgis-sub001/internal/gate/handler"
	"github.com/Vumbi2018/lgis-sub001/internal/gate/tracer"
	jwttoken "github.com/Vumbi2018/lgis-sub001/internal/jwt_token"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/config"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/database"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/health"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/logger"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/metrics"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/privacy"
	"github.com/Vumbi2018/lgis-sub001/internal/policy/evaluator"
	policyhandler "github.com/Vumbi2018/lgis-sub001/internal/policy/handler"
	policyservice "github.com/Vumbi2018/lgis-sub001/internal/policy/service"
	policystore "github.com/Vumbi2018/lgis-sub001/internal/policy/store"
	httptransport "github.com/Vumbi2018/lgis-sub001/internal/transport/http"
	"github.com/Vumbi2018/lgis-sub001/migrations"
)

// main wires the dependency graph and owns the process lifecycle. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	log.Info("initializing lgis",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"database_configured", cfg.DatabaseURL != "",
	)

	m := metrics.New()

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(context.Background(), dbCfg)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close() //nolint:errcheck // best-effort on shutdown

		if err := pool.Migrate(context.Background(), migrations.FS); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
	}

	// Without a database the process runs entirely on in-memory stores.
	// Useful for development; state does not survive a restart.
	var (
		policies policystore.Store
		requests bgstore.Store
		events   audit.Store
	)
	if pool != nil {
		policies = policystore.NewPostgres(pool.DB())
		requests = bgstore.NewPostgres(pool.DB())
		events = audit.NewPostgres(pool.DB())
	} else {
		log.Warn("no DATABASE_URL set, using in-memory stores")
		policies = policystore.New()
		requests = bgstore.New()
		events = audit.NewInMemoryStore()
	}

	var auditOpts []audit.PublisherOption
	if cfg.AuditBuffer > 0 {
		auditOpts = append(auditOpts, audit.WithAsyncBuffer(cfg.AuditBuffer))
	}
	publisher := audit.NewPublisher(events, auditOpts...)
	defer publisher.Close()

	cached := policystore.NewCaching(policies, policystore.WithMetrics(m))
	eval := evaluator.New(cached)

	policySvc := policyservice.NewService(cached, publisher, log,
		policyservice.WithMetrics(m),
	)
	ledger := bgservice.NewService(requests, publisher, log,
		bgservice.WithMetrics(m),
		bgservice.WithMaxDuration(cfg.BreakGlassMaxDuration),
	)

	masker := privacy.NewMasker([]byte(cfg.MaskKey))
	accessGate := gate.New(eval, ledger, masker, log,
		gate.WithMetrics(m),
		gate.WithTracer(tracer.NewOTel()),
	)

	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Validator:    jwttoken.NewJWTServiceAdapter(jwtSvc),
		AdminToken:   cfg.AdminToken,
		Policies:     policyhandler.New(policySvc, log),
		BreakGlass:   bghandler.New(ledger, log),
		Access:       gatehandler.New(accessGate, log),
		Health:       healthHandler,
		RequestLimit: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweep := sweeper.New(ledger,
		sweeper.WithLogger(log),
		sweeper.WithInterval(cfg.SweepInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grp, ctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	grp.Go(func() error {
		return sweep.Start(ctx)
	})

	grp.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := grp.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
