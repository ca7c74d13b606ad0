// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server and the
// completion sweeper.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/actions"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/assistant"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/auth"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/availability"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/cache"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/config"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/database"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/handler"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/ledger"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/logger"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/repository"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/service"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/sweeper"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Error("exiting", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, zlog *zap.Logger) error {
	// ── 1. Storage ───────────────────────────────────────────────────────
	var (
		source service.Catalog
		store  ledger.Store
	)
	switch cfg.Store {
	case "memory":
		source = repository.NewMemoryCatalog(repository.SeedResources())
		store = repository.NewMemoryStore()
		zlog.Warn("using in-memory store; reservations are lost on restart")
	default:
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, zlog)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer pool.Close()
		zlog.Info("connected to postgres")

		if err := repository.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		n, err := repository.SeedCatalog(ctx, pool)
		if err != nil {
			return err
		}
		if n > 0 {
			zlog.Info("seeded resource catalog", zap.Int("resources", n))
		}
		source = repository.NewResourceRepository(pool)
		store = repository.NewReservationRepository(pool)
	}

	listings := source
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		cached := cache.NewCatalog(source, client, cfg.CatalogCacheTTL, zlog.Named("cache"))
		if err := cached.Invalidate(ctx); err != nil {
			zlog.Warn("catalog cache invalidation failed", zap.Error(err))
		}
		listings = cached
		zlog.Info("catalog cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	// ── 2. Booking core ──────────────────────────────────────────────────
	core := newCore(source, listings, store, cfg, zlog)

	// ── 3. Reasoning service ─────────────────────────────────────────────
	var reasoner assistant.Reasoner = unconfiguredReasoner{}
	agentReady := cfg.GeminiAPIKey != ""
	if agentReady {
		gemini, err := assistant.NewGeminiReasoner(ctx, assistant.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
		})
		if err != nil {
			return err
		}
		defer func() { _ = gemini.Close() }()
		reasoner = gemini
	} else {
		zlog.Warn("GEMINI_API_KEY not set; assistant chat is unavailable")
	}
	loop := assistant.NewLoop(reasoner, core.registry, assistant.Config{
		MaxRoundTrips:    cfg.MaxRoundTrips,
		ReasoningTimeout: cfg.ReasoningTimeout,
		Prompt: assistant.PromptConfig{
			OpenHour:  cfg.OpenHour,
			CloseHour: cfg.CloseHour,
			Currency:  cfg.Currency,
			Location:  cfg.Location(),
		},
	}, zlog.Named("assistant"))

	// ── 4. HTTP ──────────────────────────────────────────────────────────
	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return errors.New("JWT_SECRET is required in production")
		}
		secret = uuid.NewString()
		zlog.Warn("JWT_SECRET not set; using an ephemeral secret")
	}

	svc := service.NewBookingService(core.listings, core.ledger, core.projector, loop, agentReady, zlog.Named("service"))
	router := handler.NewRouter(
		handler.NewBookingHandler(svc, zlog.Named("http")),
		auth.New(secret),
		cfg.RateLimitPerMin,
		zlog.Named("access"),
	)
	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ReasoningTimeout*time.Duration(cfg.MaxRoundTrips) + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sweep, err := sweeper.New(core.ledger, cfg.SweepSchedule, zlog.Named("sweeper"))
	if err != nil {
		return err
	}

	// ── 5. Run until signalled ───────────────────────────────────────────
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sweep.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		zlog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zlog.Info("server stopped")
	return nil
}

// core is the booking engine shared by the HTTP surface and the assistant.
type core struct {
	listings  service.Catalog
	ledger    *ledger.Ledger
	projector *availability.Projector
	registry  *actions.Registry
}

// newCore wires the ledger and the projector to the authoritative source so
// a deactivated resource is neither booked nor offered as free. Only
// listings and lookups by the assistant read through listings, which may be
// cached.
func newCore(source, listings service.Catalog, store ledger.Store, cfg config.Config, zlog *zap.Logger, opts ...ledger.Option) core {
	l := ledger.New(store, source, zlog.Named("ledger"), opts...)
	projector := availability.NewProjector(source, l, availability.Hours{
		Open:        cfg.OpenHour,
		Close:       cfg.CloseHour,
		SlotMinutes: cfg.SlotMinutes,
		Location:    cfg.Location(),
	})
	return core{
		listings:  listings,
		ledger:    l,
		projector: projector,
		registry:  actions.NewRegistry(listings, l, projector, cfg.Currency, zlog.Named("actions")),
	}
}

// unconfiguredReasoner fails every call so chat degrades to the upstream
// failure answer instead of crashing the process.
type unconfiguredReasoner struct{}

func (unconfiguredReasoner) Reason(context.Context, []assistant.Turn, []actions.Spec) (assistant.Reply, error) {
	return assistant.Reply{}, errors.New("no reasoning service configured")
}
