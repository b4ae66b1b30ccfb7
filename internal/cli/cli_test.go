package cli_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/cli"
	"github.com/davidbz/creditmeter/internal/config"
	"github.com/davidbz/creditmeter/internal/domain"
	httpapi "github.com/davidbz/creditmeter/internal/http"
	"github.com/davidbz/creditmeter/internal/http/middleware"
	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/pricing"
	"github.com/davidbz/creditmeter/internal/storage/memory"
)

func newServer(t *testing.T) (*httptest.Server, *domain.BillingService) {
	t.Helper()
	ctx := context.Background()

	sheet := domain.PriceSheet{
		Version: "cli-test",
		Prices: []domain.UnitPrice{
			{Vendor: "openai", Model: "gpt-4o", InputPerMillion: money.MustMicros("10"), OutputPerMillion: money.MustMicros("30")},
		},
	}
	table := domain.NewPricingTable()
	require.NoError(t, table.Swap(sheet))

	ledger := memory.NewLedgerStore()
	policyStore := memory.NewPolicyStore()
	policies := domain.NewPolicyCache()
	require.NoError(t, policies.Initialize(ctx, policyStore, domain.IncrementTenth))

	service := domain.NewBillingService(domain.BillingDeps{
		Pricing:     table,
		Margins:     domain.NewMarginCalculator(nil, false),
		Policies:    policies,
		PolicyStore: policyStore,
		Ledger:      ledger,
		Writer:      domain.NewLedgerWriter(ledger, nil, domain.LedgerWriterConfig{}),
		Prices:      pricing.NewStaticSource("cli-test", sheet),
	})

	server := httpapi.NewServer(
		&config.ServerConfig{},
		httpapi.NewHandler(service),
		middleware.BuildMiddlewareChain(nil, &config.AuthConfig{
			UserHeader:   "X-Auth-User-Id",
			ScopesHeader: "X-Auth-Scopes",
		}),
	)
	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)

	return ts, service
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRoundingCommands(t *testing.T) {
	ts, _ := newServer(t)

	t.Run("should show the active increment", func(t *testing.T) {
		out, err := run(t, "--server", ts.URL, "rounding", "get")
		require.NoError(t, err)
		require.Contains(t, out, "increment: 0.1")
	})

	t.Run("should change the increment", func(t *testing.T) {
		out, err := run(t, "--server", ts.URL, "rounding", "set", "1.0")
		require.NoError(t, err)
		require.Contains(t, out, "increment set to 1")

		out, err = run(t, "--server", ts.URL, "rounding", "get")
		require.NoError(t, err)
		require.Contains(t, out, "increment: 1")
	})

	t.Run("should reject invalid increments before calling the server", func(t *testing.T) {
		_, err := run(t, "--server", "http://127.0.0.1:1", "rounding", "set", "0.5")
		require.ErrorIs(t, err, domain.ErrInvalidIncrement)
	})

	t.Run("should surface authorization failures", func(t *testing.T) {
		_, err := run(t, "--server", ts.URL, "--scopes", "billing:read", "rounding", "set", "0.1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "403")
	})
}

func TestBalanceAndLedgerCommands(t *testing.T) {
	ts, service := newServer(t)
	_, err := service.RecordUsage(context.Background(), domain.UsageEvent{
		UserID: "user-1", Vendor: "openai", Model: "gpt-4o", InputTokens: 250, OutputTokens: 150, RequestID: "req-1",
	})
	require.NoError(t, err)

	t.Run("should print the balance", func(t *testing.T) {
		out, err := run(t, "--server", ts.URL, "balance", "--user", "user-1")
		require.NoError(t, err)
		require.Contains(t, out, "user-1: -0.70 credits (1 entries)")
	})

	t.Run("should list ledger entries", func(t *testing.T) {
		out, err := run(t, "--server", ts.URL, "ledger", "--user", "user-1")
		require.NoError(t, err)
		require.Contains(t, out, "usage_deduction")
		require.Contains(t, out, "openai/gpt-4o")
		require.Contains(t, out, "req-1")
	})
}

func TestPricingCommands(t *testing.T) {
	t.Run("should validate a pricing file offline", func(t *testing.T) {
		out, err := run(t, "pricing", "check", "../pricing/testdata/prices.yaml")
		require.NoError(t, err)
		require.Contains(t, out, "version 2026-10: 3 prices OK")
		require.Contains(t, out, "tiered (2 brackets)")
		require.Contains(t, out, "dynamic, fallback 0.25")
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		_, err := run(t, "pricing", "check", "does-not-exist.yaml")
		require.Error(t, err)
	})

	t.Run("should reload server pricing", func(t *testing.T) {
		ts, _ := newServer(t)

		out, err := run(t, "--server", ts.URL, "pricing", "reload")
		require.NoError(t, err)
		require.Contains(t, out, "pricing version cli-test active")
	})
}

func TestProrateCommand(t *testing.T) {
	t.Run("should preview an upgrade", func(t *testing.T) {
		out, err := run(t, "prorate", "--old", "100", "--new", "200", "--days", "20", "--cycle", "30")
		require.NoError(t, err)
		require.Contains(t, out, "proration_charge: 66.67 USD, balance delta -6667.00 credits")
	})

	t.Run("should preview a downgrade", func(t *testing.T) {
		out, err := run(t, "prorate", "--old", "200", "--new", "100", "--days", "20", "--cycle", "30", "--increment", "1.0")
		require.NoError(t, err)
		require.Contains(t, out, "proration_refund: -66.67 USD, balance delta 6667.00 credits")
	})

	t.Run("should reject an invalid window", func(t *testing.T) {
		_, err := run(t, "prorate", "--old", "100", "--new", "200", "--days", "31", "--cycle", "30")
		require.ErrorIs(t, err, domain.ErrInvalidProrationWindow)
	})
}
