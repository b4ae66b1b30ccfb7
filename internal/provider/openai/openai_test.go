package openai_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/money"
	provideropenai "github.com/davidbz/creditmeter/internal/provider/openai"
)

const completionJSON = `{
	"id": "chatcmpl-123",
	"object": "chat.completion",
	"created": 1760000000,
	"model": "gpt-4o",
	"choices": [{
		"index": 0,
		"finish_reason": "stop",
		"logprobs": null,
		"message": {"role": "assistant", "content": "Hello!", "refusal": null}
	}],
	"usage": {"prompt_tokens": 250, "completion_tokens": 150, "total_tokens": 400}
}`

var datedCompletionJSON = strings.Replace(completionJSON, `"model": "gpt-4o"`, `"model": "gpt-4o-2024-08-06"`, 1)

type recorderFunc func(ctx context.Context, event domain.UsageEvent) (*domain.LedgerEntry, error)

func (f recorderFunc) RecordUsage(ctx context.Context, event domain.UsageEvent) (*domain.LedgerEntry, error) {
	return f(ctx, event)
}

func TestDefaultPrices(t *testing.T) {
	sheet := provideropenai.DefaultPrices()
	require.Equal(t, provideropenai.DefaultPricesVersion, sheet.Version)

	table := domain.NewPricingTable()
	require.NoError(t, table.Swap(sheet))

	price, err := table.Lookup("openai", "gpt-4o-mini")
	require.NoError(t, err)
	require.Equal(t, money.MustMicros("0.15"), price.InputPerMillion)
	require.Equal(t, money.MustMicros("0.6"), price.OutputPerMillion)
}

func TestUsageFromCompletion(t *testing.T) {
	var resp openai.ChatCompletion
	require.NoError(t, resp.UnmarshalJSON([]byte(completionJSON)))

	event, err := provideropenai.UsageFromCompletion("user-1", &resp)
	require.NoError(t, err)
	require.Equal(t, "user-1", event.UserID)
	require.Equal(t, "openai", event.Vendor)
	require.Equal(t, "gpt-4o", event.Model)
	require.Equal(t, int64(250), event.InputTokens)
	require.Equal(t, int64(150), event.OutputTokens)
	require.Equal(t, "chatcmpl-123", event.RequestID)
	require.Equal(t, int64(1760000000), event.Timestamp.Unix())

	_, err = provideropenai.UsageFromCompletion("", &resp)
	require.ErrorIs(t, err, domain.ErrInvalidUsage)

	_, err = provideropenai.UsageFromCompletion("user-1", nil)
	require.Error(t, err)

	t.Run("should record snapshot responses under the base model", func(t *testing.T) {
		var dated openai.ChatCompletion
		require.NoError(t, dated.UnmarshalJSON([]byte(datedCompletionJSON)))
		require.Equal(t, "gpt-4o-2024-08-06", dated.Model)

		event, err := provideropenai.UsageFromCompletion("user-1", &dated)
		require.NoError(t, err)
		require.Equal(t, "gpt-4o", event.Model)
	})
}

func TestBaseModel(t *testing.T) {
	require.Equal(t, "gpt-4o", provideropenai.BaseModel("gpt-4o-2024-08-06"))
	require.Equal(t, "gpt-4o-mini", provideropenai.BaseModel("gpt-4o-mini-2024-07-18"))
	require.Equal(t, "o3-mini", provideropenai.BaseModel("o3-mini-2025-01-31"))
	require.Equal(t, "gpt-4o", provideropenai.BaseModel("gpt-4o"))
	require.Equal(t, "gpt-4-0613", provideropenai.BaseModel("gpt-4-0613"))
}

func TestNewMeteredClient(t *testing.T) {
	recorder := recorderFunc(func(context.Context, domain.UsageEvent) (*domain.LedgerEntry, error) {
		return nil, nil
	})

	t.Run("should require an api key", func(t *testing.T) {
		client, err := provideropenai.NewMeteredClient(provideropenai.Config{}, recorder)
		require.Error(t, err)
		require.Nil(t, client)
		require.Contains(t, err.Error(), "OpenAI API key is required")
	})

	t.Run("should require a recorder", func(t *testing.T) {
		_, err := provideropenai.NewMeteredClient(provideropenai.Config{APIKey: "sk-test"}, nil)
		require.Error(t, err)
	})
}

func TestMeteredClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON))
	}))
	defer server.Close()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModelGPT4o,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage("Hello"),
		},
	}

	t.Run("should record the usage of the completion", func(t *testing.T) {
		var recorded domain.UsageEvent
		recorder := recorderFunc(func(_ context.Context, event domain.UsageEvent) (*domain.LedgerEntry, error) {
			recorded = event
			return &domain.LedgerEntry{ID: "entry-1", UserID: event.UserID, DeltaCredits: -70}, nil
		})

		client, err := provideropenai.NewMeteredClient(provideropenai.Config{
			APIKey: "sk-test", BaseURL: server.URL, MaxRetries: 1,
		}, recorder)
		require.NoError(t, err)

		resp, entry, err := client.Complete(context.Background(), "user-1", params)
		require.NoError(t, err)
		require.Equal(t, "chatcmpl-123", resp.ID)
		require.Equal(t, "entry-1", entry.ID)
		require.Equal(t, int64(250), recorded.InputTokens)
		require.Equal(t, int64(150), recorded.OutputTokens)
	})

	t.Run("should return the completion when recording fails", func(t *testing.T) {
		recorder := recorderFunc(func(context.Context, domain.UsageEvent) (*domain.LedgerEntry, error) {
			return nil, domain.ErrPriceNotFound
		})

		client, err := provideropenai.NewMeteredClient(provideropenai.Config{
			APIKey: "sk-test", BaseURL: server.URL, MaxRetries: 1,
		}, recorder)
		require.NoError(t, err)

		resp, entry, err := client.Complete(context.Background(), "user-1", params)
		require.ErrorIs(t, err, domain.ErrPriceNotFound)
		require.NotNil(t, resp)
		require.Nil(t, entry)
	})

	t.Run("should price snapshot responses with the built-in prices", func(t *testing.T) {
		dated := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(datedCompletionJSON))
		}))
		defer dated.Close()

		table := domain.NewPricingTable()
		require.NoError(t, table.Swap(provideropenai.DefaultPrices()))

		recorder := recorderFunc(func(_ context.Context, event domain.UsageEvent) (*domain.LedgerEntry, error) {
			if _, err := table.Lookup(event.Vendor, event.Model); err != nil {
				return nil, err
			}
			return &domain.LedgerEntry{ID: "entry-2", UserID: event.UserID, Model: event.Model}, nil
		})

		client, err := provideropenai.NewMeteredClient(provideropenai.Config{
			APIKey: "sk-test", BaseURL: dated.URL, MaxRetries: 1,
		}, recorder)
		require.NoError(t, err)

		resp, entry, err := client.Complete(context.Background(), "user-1", params)
		require.NoError(t, err)
		require.Equal(t, "gpt-4o-2024-08-06", resp.Model)
		require.Equal(t, "gpt-4o", entry.Model)
	})

	t.Run("should not record failed calls", func(t *testing.T) {
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "bad request", "type": "invalid_request_error"}}`))
		}))
		defer failing.Close()

		recorder := recorderFunc(func(context.Context, domain.UsageEvent) (*domain.LedgerEntry, error) {
			return nil, errors.New("should not be called")
		})

		client, err := provideropenai.NewMeteredClient(provideropenai.Config{
			APIKey: "sk-test", BaseURL: failing.URL, MaxRetries: 1,
		}, recorder)
		require.NoError(t, err)

		_, _, err = client.Complete(context.Background(), "user-1", params)
		require.Error(t, err)
		require.Contains(t, err.Error(), "OpenAI API call failed")
	})
}
