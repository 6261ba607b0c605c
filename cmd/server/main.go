// Server runs the REST API and the gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"thatsmartsite/backend/internal/audit"
	auditrepo "thatsmartsite/backend/internal/audit/repository"
	"thatsmartsite/backend/internal/config"
	dashboardhandler "thatsmartsite/backend/internal/dashboard/handler"
	dashboardrepo "thatsmartsite/backend/internal/dashboard/repository"
	dashboardservice "thatsmartsite/backend/internal/dashboard/service"
	"thatsmartsite/backend/internal/db"
	"thatsmartsite/backend/internal/health"
	healthhandler "thatsmartsite/backend/internal/health/handler"
	identityhandler "thatsmartsite/backend/internal/identity/handler"
	identityservice "thatsmartsite/backend/internal/identity/service"
	"thatsmartsite/backend/internal/industry"
	"thatsmartsite/backend/internal/logger"
	"thatsmartsite/backend/internal/metrics"
	"thatsmartsite/backend/internal/platform/rbac"
	"thatsmartsite/backend/internal/policy/engine"
	reviewhandler "thatsmartsite/backend/internal/review/handler"
	reviewrepo "thatsmartsite/backend/internal/review/repository"
	reviewservice "thatsmartsite/backend/internal/review/service"
	"thatsmartsite/backend/internal/security"
	"thatsmartsite/backend/internal/seo"
	"thatsmartsite/backend/internal/server"
	"thatsmartsite/backend/internal/server/middleware"
	serviceareahandler "thatsmartsite/backend/internal/servicearea/handler"
	servicearearepo "thatsmartsite/backend/internal/servicearea/repository"
	serviceareaservice "thatsmartsite/backend/internal/servicearea/service"
	sessionrepo "thatsmartsite/backend/internal/session/repository"
	"thatsmartsite/backend/internal/telemetry"
	otelsetup "thatsmartsite/backend/internal/telemetry/otel"
	"thatsmartsite/backend/internal/telemetry/producer"
	tenanthandler "thatsmartsite/backend/internal/tenant/handler"
	tenantrepo "thatsmartsite/backend/internal/tenant/repository"
	tenantservice "thatsmartsite/backend/internal/tenant/service"
	userrepo "thatsmartsite/backend/internal/user/repository"
	contenthandler "thatsmartsite/backend/internal/websitecontent/handler"
	contentrepo "thatsmartsite/backend/internal/websitecontent/repository"
	contentservice "thatsmartsite/backend/internal/websitecontent/service"
)

// healthSyncInterval is how often the gRPC health status is refreshed.
const healthSyncInterval = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, cfg.OTelServiceName, cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var kafka *producer.KafkaProducer
	emitters := []telemetry.EventEmitter{otelsetup.NewEventEmitter(providers.LoggerProvider)}
	if kafka = producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic); kafka != nil {
		emitters = append(emitters, kafka)
		log.Info("telemetry: kafka producer enabled", zap.String("topic", cfg.TelemetryKafkaTopic))
	}
	events := telemetry.NewAsync(telemetry.Multi(emitters...), log.Named("telemetry"))

	tokens, err := tokenProvider(cfg, log)
	if err != nil {
		return err
	}
	hasher := security.NewHasher(cfg.BcryptCost)

	evaluator, err := engine.NewOPAEvaluator("", log.Named("policy"))
	if err != nil {
		return err
	}

	registry, err := industry.Load()
	if err != nil {
		return fmt.Errorf("industry defaults: %w", err)
	}

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(conn), middleware.ClientIPFromContext, log.Named("audit"))

	tenants := tenantrepo.NewPostgresRepository(conn)
	guard := rbac.NewGuard(evaluator, tenants)

	authSvc := identityservice.NewAuthService(
		userrepo.NewPostgresRepository(conn),
		sessionrepo.NewPostgresRepository(conn),
		hasher, tokens, cfg.AdminEmailList(), auditLogger, log.Named("auth"))
	tenantSvc := tenantservice.NewService(tenants, registry, hasher, auditLogger, events, log.Named("tenants"))
	reviewSvc := reviewservice.NewService(reviewrepo.NewPostgresRepository(conn),
		reviewservice.NewDirStore(cfg.UploadDir), events, log.Named("reviews"))
	areaSvc := serviceareaservice.NewService(servicearearepo.NewPostgresRepository(conn, log), log.Named("service_areas"))
	contentSvc := contentservice.NewService(contentrepo.NewPostgresRepository(conn), log.Named("content"))
	dashboardSvc := dashboardservice.NewService(dashboardrepo.NewPostgresRepository(conn), log.Named("dashboard"))

	liveTTL, previewTTL := cfg.SitemapTTLs()
	cache, redisClient := sitemapCache(cfg, log)
	seoHandler := seo.NewHandler(seo.NewPostgresTenantSource(conn), cache, seo.Options{
		LiveTTL:    liveTTL,
		PreviewTTL: previewTTL,
		Metrics:    m,
		Events:     events,
		Logger:     log.Named("seo"),
	})

	checker := health.NewChecker(conn, evaluator)
	grpcHealth := healthhandler.NewGRPC(checker, log.Named("health"))

	router := server.NewRouter(server.RouterConfig{
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		Auth:           middleware.NewAuth(tokens, log.Named("auth")),
		Tenants:        middleware.NewTenantResolver(tenantservice.NewFinder(tenants), cfg.BaseDomain, log.Named("tenant"), m),
		AuthLimit:      middleware.NewRateLimiter("auth", cfg.AuthRateLimit, cfg.AuthRateWindowDuration(), log, m),
		SensitiveLimit: middleware.NewRateLimiter("sensitive", cfg.SensitiveRateLimit, cfg.SensitiveRateWindowDuration(), log, m),
		AuditLogger:    auditLogger,
		Events:         events,
		CORSOrigins:    cfg.CORSOriginList(),
		UploadDir:      cfg.UploadDir,
		ServiceName:    cfg.OTelServiceName,
	}, server.Handlers{
		Health:       healthhandler.NewHTTP(checker, log.Named("health")),
		SEO:          seoHandler,
		Identity:     identityhandler.NewHandler(authSvc, cfg.IsProduction(), m, events, log.Named("auth")),
		Tenants:      tenanthandler.NewHandler(tenantSvc, log.Named("tenants")),
		Reviews:      reviewhandler.NewHandler(reviewSvc, guard, cfg.MaxUploadBytes, log.Named("reviews")),
		ServiceAreas: serviceareahandler.NewHandler(areaSvc, guard, log.Named("service_areas")),
		Content:      contenthandler.NewHandler(contentSvc, guard, log.Named("content")),
		Dashboard:    dashboardhandler.NewHandler(dashboardSvc, guard, log.Named("dashboard")),
		Industries:   industry.NewHandler(registry),
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var grpcLis net.Listener
	if cfg.GRPCAddr != "" {
		if grpcLis, err = net.Listen("tcp", cfg.GRPCAddr); err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	if grpcLis != nil {
		grpcSrv := server.NewGRPCServer(grpcHealth.Server(), server.GRPCOptions{
			Logger:  log.Named("grpc"),
			Tracing: cfg.OTLPEndpoint != "",
		})
		g.Go(func() error {
			log.Info("gRPC health server listening", zap.String("addr", cfg.GRPCAddr))
			return grpcSrv.Serve(grpcLis)
		})
		g.Go(func() error {
			grpcHealth.Run(gctx, healthSyncInterval)
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			grpcSrv.GracefulStop()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		checker.MarkShuttingDown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", zap.Error(err))
		}

		drainCtx, drainCancel := context.WithTimeout(context.Background(), telemetry.ShutdownDrainDuration)
		defer drainCancel()
		if err := events.Drain(drainCtx); err != nil {
			log.Warn("telemetry drain incomplete", zap.Error(err))
		}
		if kafka != nil {
			if err := kafka.Close(); err != nil {
				log.Warn("kafka producer close", zap.Error(err))
			}
		}
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Warn("otel shutdown", zap.Error(err))
		}
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Warn("redis close", zap.Error(err))
			}
		}
		return nil
	})

	return g.Wait()
}

// tokenProvider loads the JWT key pair, or generates an ephemeral one outside production.
func tokenProvider(cfg *config.Config, log *zap.Logger) (*security.TokenProvider, error) {
	if cfg.JWTPrivateKey == "" || cfg.JWTPublicKey == "" {
		log.Warn("JWT keys not set; using an ephemeral key pair, tokens will not survive a restart")
		priv, pub, err := security.GenerateKeyPair()
		if err != nil {
			return nil, fmt.Errorf("generate jwt keys: %w", err)
		}
		return security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL()), nil
	}
	priv, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("jwt private key: %w", err)
	}
	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		return nil, fmt.Errorf("jwt public key: %w", err)
	}
	return security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL()), nil
}

// sitemapCache returns a Redis-backed cache when REDIS_ADDR is set, else an in-process one.
// The Redis client is returned for closing on shutdown; it is nil for the in-process cache.
func sitemapCache(cfg *config.Config, log *zap.Logger) (seo.Cache, redis.UniversalClient) {
	if cfg.RedisAddr == "" {
		return seo.NewMemoryCache(seo.DefaultMaxEntries, nil), nil
	}
	log.Info("sitemap cache: redis", zap.String("addr", cfg.RedisAddr))
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return seo.NewRedisCache(client, log.Named("sitemap_cache")), client
}
