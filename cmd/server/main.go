package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/janisto/portfolio-builder/internal/config"
	"github.com/janisto/portfolio-builder/internal/http/health"
	"github.com/janisto/portfolio-builder/internal/http/v1/routes"
	"github.com/janisto/portfolio-builder/internal/llm"
	"github.com/janisto/portfolio-builder/internal/platform/auth"
	"github.com/janisto/portfolio-builder/internal/platform/firebase"
	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
	appmiddleware "github.com/janisto/portfolio-builder/internal/platform/middleware"
	"github.com/janisto/portfolio-builder/internal/platform/respond"
	"github.com/janisto/portfolio-builder/internal/render"
	chatsvc "github.com/janisto/portfolio-builder/internal/service/chat"
	portfoliosvc "github.com/janisto/portfolio-builder/internal/service/portfolio"
	"github.com/janisto/portfolio-builder/internal/service/publish"
)

// apiPrefix is where the versioned API is mounted.
const apiPrefix = "/v1"

// readyTimeout bounds all readiness probes of one request.
const readyTimeout = 3 * time.Second

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()

	// Fail fast on a broken template catalogue.
	render.MustLoad()

	cfg, err := config.Load(".env")
	if err != nil {
		applog.LogFatal(context.Background(), "invalid configuration", err)
	}

	ctx := context.Background()
	svc, closers, err := buildServices(ctx, cfg)
	if err != nil {
		applog.LogFatal(ctx, "service initialization failed", err)
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				applog.LogError(context.Background(), "close error", err)
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, svc),
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		// Covers a chat turn: both model calls run concurrently under their own timeouts.
		WriteTimeout:   max(cfg.LLMReplyTimeout, cfg.LLMExtractTimeout) + 10*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 64 << 10, // 64 KB
	}

	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErr <- err
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-listenErr:
		applog.LogError(context.Background(), "listen failed", err, zap.String("addr", srv.Addr))
		os.Exit(1)
	case <-stop:
		applog.LogInfo(context.Background(), "shutdown signal received")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		applog.LogError(shutdownCtx, "server shutdown error", err)
	}
	applog.LogInfo(context.Background(), "server exited")
}

// buildServices selects the backends named by cfg. Returned closers must be
// closed on exit.
func buildServices(ctx context.Context, cfg config.Config) (routes.Services, []io.Closer, error) {
	var (
		svc     routes.Services
		closers []io.Closer
	)

	var fb *firebase.Clients
	if cfg.FirebaseEnabled() {
		var err error
		fb, err = firebase.InitializeClients(ctx, firebase.Config{
			ProjectID:                    cfg.FirebaseProjectID,
			DatabaseID:                   cfg.FirestoreDatabaseID,
			GoogleApplicationCredentials: cfg.GoogleApplicationCredentials,
		})
		if err != nil {
			return svc, nil, fmt.Errorf("firebase: %w", err)
		}
		closers = append(closers, fb)
		svc.Verifier = auth.NewFirebaseVerifier(fb.Auth)
		store := portfoliosvc.NewFirestoreStore(fb.Firestore)
		svc.Portfolios = store
		svc.Checks = append(svc.Checks, health.Check{Name: "firestore", Probe: store.Ping})
	} else {
		applog.LogWarn(ctx, "firebase not configured, authenticated endpoints reject all tokens")
		svc.Verifier = auth.DisabledVerifier{}
		svc.Portfolios = portfoliosvc.NewMemoryStore()
	}

	switch cfg.SessionBackend {
	case config.SessionBackendFirestore:
		if fb == nil {
			return svc, closers, errors.New("session backend firestore requires FIREBASE_PROJECT_ID")
		}
		svc.Sessions = chatsvc.NewFirestoreStore(fb.Firestore)
	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		closers = append(closers, client)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return svc, closers, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		svc.Sessions = chatsvc.NewRedisStore(client, cfg.SessionTTL)
		svc.Checks = append(svc.Checks, health.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	default:
		svc.Sessions = chatsvc.NewMemoryStore()
	}

	var completer llm.Completer = llm.Disabled{}
	if cfg.LLMEnabled() {
		completer = llm.NewClient(&http.Client{}, cfg.OpenAIAPIKey,
			llm.WithBaseURL(cfg.OpenAIBaseURL),
			llm.WithModel(cfg.OpenAIModel),
			llm.WithRateLimit(cfg.LLMQueriesPerMin),
		)
	} else {
		applog.LogWarn(ctx, "language model not configured, replies use the built-in script")
	}
	svc.Assistant = chatsvc.NewAssistant(completer,
		chatsvc.WithReplyTimeout(cfg.LLMReplyTimeout),
		chatsvc.WithExtractTimeout(cfg.LLMExtractTimeout),
	)

	if cfg.MinIOEnabled() {
		publisher, err := publish.NewMinIOPublisher(ctx, publish.MinIOConfig{
			Endpoint:      cfg.MinIOEndpoint,
			AccessKey:     cfg.MinIOAccessKey,
			SecretKey:     cfg.MinIOSecretKey,
			UseSSL:        cfg.MinIOUseSSL,
			Bucket:        cfg.MinIOBucket,
			PublicBaseURL: cfg.PublicBaseURL,
		})
		if err != nil {
			return svc, closers, fmt.Errorf("minio: %w", err)
		}
		svc.Publisher = publisher
		svc.Checks = append(svc.Checks, health.Check{Name: "minio", Probe: publisher.Ping})
	} else {
		applog.LogWarn(ctx, "object storage not configured, published sites are kept in memory")
		svc.Publisher = publish.NewMockPublisher(cfg.PublicBaseURL)
	}

	applog.LogInfo(ctx, "services initialized",
		zap.String("sessionBackend", cfg.SessionBackend),
		zap.Bool("firebase", cfg.FirebaseEnabled()),
		zap.Bool("llm", cfg.LLMEnabled()),
		zap.Bool("minio", cfg.MinIOEnabled()),
	)
	return svc, closers, nil
}

// newRouter builds the HTTP handler: base middleware, router-level problem
// responses, health probes and the /v1 API.
func newRouter(cfg config.Config, svc routes.Services) *chi.Mux {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	// Base middleware stack
	router.Use(
		appmiddleware.Security(apiPrefix+"/api-docs"),
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.CORSAllowedOrigins...),
		appmiddleware.RequestID(),
		// RealIP extracts client IP from X-Real-IP or X-Forwarded-For headers.
		// SECURITY: Only use behind a trusted reverse proxy (e.g., Cloud Run, nginx).
		// Without a trusted proxy, clients can spoof their IP address.
		chimiddleware.RealIP,
		// RequestSize limits request body size to prevent memory exhaustion from large payloads.
		chimiddleware.RequestSize(1<<20), // 1 MB limit
		applog.RequestLogger(),
		applog.AccessLogger("/health", "/ready"),
		respond.Recoverer(),
	)

	router.Get("/health", health.Handler)
	router.Get("/ready", health.Ready(readyTimeout, svc.Checks...))

	humaCfg := huma.DefaultConfig("Portfolio Builder API", Version)
	humaCfg.DocsPath = "/api-docs"
	humaCfg.Servers = []*huma.Server{{URL: apiPrefix}}
	humaCfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "Firebase ID token",
		},
	}
	v1 := chi.NewRouter()
	router.Mount(apiPrefix, v1)
	// Allow JSON fallback for wildcard Accept headers (e.g., */*) since Huma's
	// negotiation uses exact matching and doesn't interpret wildcards per
	// RFC 9110 section 12.5.1. Clients sending unsupported types like text/plain
	// will still receive JSON rather than 406, which is acceptable per RFC 9110
	// section 12.4.1 (servers MAY disregard Accept and return a default).
	api := humachi.New(v1, humaCfg)

	// Add CBOR content type to OpenAPI requests and responses
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation, addCBORContent)

	routes.Register(api, svc)

	return router
}

func addCBORContent(_ *huma.OpenAPI, op *huma.Operation) {
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = jsonContent
		}
	}
	for _, resp := range op.Responses {
		if resp.Content == nil {
			continue
		}
		if jsonContent, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = jsonContent
		}
	}
}
