package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/creditmeter/internal/cache/redis"
	"github.com/davidbz/creditmeter/internal/config"
	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/http"
	"github.com/davidbz/creditmeter/internal/http/middleware"
	"github.com/davidbz/creditmeter/internal/observability"
	"github.com/davidbz/creditmeter/internal/pricing"
	"github.com/davidbz/creditmeter/internal/provider/openai"
	"github.com/davidbz/creditmeter/internal/storage/memory"
	"github.com/davidbz/creditmeter/internal/storage/postgres"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hooks := &lifecycle{}
	defer hooks.close()

	container := buildContainer(ctx, hooks)

	err := container.Invoke(func(
		server *http.Server,
		policies *domain.PolicyCache,
		policyStore domain.PolicyStore,
		billing *config.BillingConfig,
	) {
		go policies.Watch(ctx, policyStore, billing.PolicyRefreshInterval)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				log.Fatalf("Server failed to start: %v", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				observability.FromContext(shutdownCtx).Error("graceful shutdown failed", observability.Error(err))
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

// lifecycle collects release functions for resources opened while building
// the container.
type lifecycle struct {
	hooks []func()
}

func (l *lifecycle) onClose(fn func()) {
	l.hooks = append(l.hooks, fn)
}

func (l *lifecycle) close() {
	for i := len(l.hooks) - 1; i >= 0; i-- {
		l.hooks[i]()
	}
}

type stores struct {
	dig.Out

	Ledger   domain.LedgerStore
	Policies domain.PolicyStore
}

type billingParams struct {
	dig.In

	Pricing     *domain.PricingTable
	Margins     *domain.MarginCalculator
	Policies    *domain.PolicyCache
	PolicyStore domain.PolicyStore
	Ledger      domain.LedgerStore
	Writer      *domain.LedgerWriter
	Cache       domain.BalanceCache
	Prices      domain.PriceSource
	Events      domain.EventPublisher
}

func buildContainer(ctx context.Context, hooks *lifecycle) *dig.Container {
	container := dig.New()

	if err := container.Provide(func() context.Context { return ctx }); err != nil {
		log.Fatalf("Failed to provide context: %v", err)
	}

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Invoke(func(_ *zap.Logger, cfg *observability.TracingConfig) error {
		shutdown, err := observability.InitTracer(cfg)
		if err != nil {
			return err
		}
		hooks.onClose(shutdown)
		return nil
	}); err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	if err := container.Provide(func(logger *zap.Logger) domain.EventPublisher {
		return observability.NewEventBus(logger)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Storage
	if err := container.Provide(func(
		ctx context.Context,
		billing *config.BillingConfig,
		cfg *postgres.Config,
	) (stores, error) {
		return openStores(ctx, hooks, billing, cfg)
	}); err != nil {
		log.Fatalf("Failed to provide storage: %v", err)
	}

	// Redis (optional)
	if err := container.Provide(func(ctx context.Context, cfg *redis.Config) (*goredis.Client, error) {
		if !cfg.Enabled {
			return nil, nil
		}
		client, err := redis.NewClient(ctx, *cfg)
		if err != nil {
			return nil, err
		}
		hooks.onClose(func() { _ = client.Close() })
		return client, nil
	}); err != nil {
		log.Fatalf("Failed to provide redis client: %v", err)
	}
	if err := container.Provide(func(client *goredis.Client, cfg *redis.Config) domain.BalanceCache {
		if client == nil {
			return nil
		}
		return redis.NewBalanceCache(client, cfg.KeyPrefix, cfg.BalanceTTL)
	}); err != nil {
		log.Fatalf("Failed to provide balance cache: %v", err)
	}
	if err := container.Provide(func(client *goredis.Client, cfg *redis.Config) domain.MarginResolver {
		if client == nil {
			return nil
		}
		return redis.NewMarginResolver(client, cfg.MarginKey)
	}); err != nil {
		log.Fatalf("Failed to provide margin resolver: %v", err)
	}

	// Pricing
	if err := container.Provide(func(cfg *config.BillingConfig) domain.PriceSource {
		if cfg.PricingFile == "" {
			return pricing.NewStaticSource(openai.DefaultPricesVersion, openai.DefaultPrices())
		}
		return pricing.NewFileSource(cfg.PricingFile)
	}); err != nil {
		log.Fatalf("Failed to provide price source: %v", err)
	}
	if err := container.Provide(func(ctx context.Context, source domain.PriceSource) (*domain.PricingTable, error) {
		sheet, err := source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load prices from %s: %w", source.Name(), err)
		}
		table := domain.NewPricingTable()
		if err := table.Swap(sheet); err != nil {
			return nil, fmt.Errorf("invalid prices from %s: %w", source.Name(), err)
		}
		observability.FromContext(ctx).Info("pricing table loaded",
			observability.String("source", source.Name()),
			observability.String("version", table.Version()),
			observability.Int("prices", table.Size()))
		return table, nil
	}); err != nil {
		log.Fatalf("Failed to provide pricing table: %v", err)
	}
	if err := container.Provide(func(resolver domain.MarginResolver, cfg *config.BillingConfig) *domain.MarginCalculator {
		return domain.NewMarginCalculator(resolver, cfg.MarginFailClosed)
	}); err != nil {
		log.Fatalf("Failed to provide margin calculator: %v", err)
	}

	// Rounding policy must be loaded before the first request is served.
	if err := container.Provide(func(
		ctx context.Context,
		store domain.PolicyStore,
		cfg *config.BillingConfig,
	) (*domain.PolicyCache, error) {
		seed, err := domain.ParseIncrement(cfg.DefaultIncrement)
		if err != nil {
			return nil, fmt.Errorf("invalid default increment: %w", err)
		}
		cache := domain.NewPolicyCache()
		if err := cache.Initialize(ctx, store, seed); err != nil {
			return nil, err
		}
		return cache, nil
	}); err != nil {
		log.Fatalf("Failed to provide rounding policy cache: %v", err)
	}

	// Domain Services
	if err := container.Provide(func(
		ledger domain.LedgerStore,
		cache domain.BalanceCache,
		cfg *config.BillingConfig,
	) *domain.LedgerWriter {
		return domain.NewLedgerWriter(ledger, cache, domain.LedgerWriterConfig{
			Timeout:     cfg.WriteTimeout,
			MaxAttempts: cfg.WriteRetries,
			BaseDelay:   cfg.WriteRetryDelay,
		})
	}); err != nil {
		log.Fatalf("Failed to provide ledger writer: %v", err)
	}
	if err := container.Provide(func(p billingParams) *domain.BillingService {
		return domain.NewBillingService(domain.BillingDeps{
			Pricing:     p.Pricing,
			Margins:     p.Margins,
			Policies:    p.Policies,
			PolicyStore: p.PolicyStore,
			Ledger:      p.Ledger,
			Writer:      p.Writer,
			Cache:       p.Cache,
			Prices:      p.Prices,
			Events:      p.Events,
		})
	}); err != nil {
		log.Fatalf("Failed to provide billing service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

func openStores(
	ctx context.Context,
	hooks *lifecycle,
	billing *config.BillingConfig,
	cfg *postgres.Config,
) (stores, error) {
	switch billing.StorageDriver {
	case config.StorageMemory, "":
		observability.FromContext(ctx).Warn("using in-memory ledger; balances are lost on restart")
		return stores{
			Ledger:   memory.NewLedgerStore(),
			Policies: memory.NewPolicyStore(),
		}, nil
	case config.StoragePostgres:
		pool, err := postgres.Open(ctx, *cfg)
		if err != nil {
			return stores{}, err
		}
		hooks.onClose(pool.Close)

		if cfg.MigrateOnStart {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return stores{}, err
			}
		}
		return stores{
			Ledger:   postgres.NewLedgerStore(pool, cfg.LockTimeout),
			Policies: postgres.NewPolicyStore(pool),
		}, nil
	default:
		return stores{}, errors.New("unknown storage driver: " + billing.StorageDriver)
	}
}
