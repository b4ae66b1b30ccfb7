// Package openai meters OpenAI chat completions: it carries built-in prices,
// extracts usage from SDK responses and wraps the official client so every
// completion is recorded against the caller's balance.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/observability"
)

// Config selects the OpenAI endpoint used by MeteredClient. An empty APIKey
// disables metered calls.
type Config struct {
	APIKey     string        `env:"OPENAI_API_KEY"`
	BaseURL    string        `env:"OPENAI_BASE_URL"    envDefault:"https://api.openai.com/v1"`
	Timeout    time.Duration `env:"OPENAI_TIMEOUT"     envDefault:"60s"`
	MaxRetries int           `env:"OPENAI_MAX_RETRIES" envDefault:"3"`
}

// UsageRecorder records a usage event; domain.BillingService implements it.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, event domain.UsageEvent) (*domain.LedgerEntry, error)
}

// MeteredClient calls the OpenAI chat completions API and records the usage
// of every successful call.
type MeteredClient struct {
	client   openai.Client
	recorder UsageRecorder
}

// NewMeteredClient creates a metered client.
func NewMeteredClient(config Config, recorder UsageRecorder) (*MeteredClient, error) {
	if config.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if recorder == nil {
		return nil, errors.New("usage recorder cannot be nil")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	if config.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	return &MeteredClient{
		client:   openai.NewClient(opts...),
		recorder: recorder,
	}, nil
}

// Complete sends a chat completion for userID and records its usage. When
// recording fails the completion is still returned together with the error,
// so the caller can hold the usage for reprocessing.
func (m *MeteredClient) Complete(
	ctx context.Context,
	userID string,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, *domain.LedgerEntry, error) {
	if userID == "" {
		return nil, nil, errors.New("user id cannot be empty")
	}

	ctx = observability.WithUserID(ctx, userID)
	ctx = observability.WithVendor(ctx, Vendor)
	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI API")

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return nil, nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	logger.Debug("OpenAI API call succeeded",
		observability.String("model", resp.Model),
		observability.Int64("prompt_tokens", resp.Usage.PromptTokens),
		observability.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	event, err := UsageFromCompletion(userID, resp)
	if err != nil {
		return resp, nil, fmt.Errorf("failed to extract usage: %w", err)
	}

	entry, err := m.recorder.RecordUsage(ctx, event)
	if err != nil {
		return resp, nil, fmt.Errorf("failed to record usage: %w", err)
	}

	return resp, entry, nil
}
