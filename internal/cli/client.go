package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davidbz/creditmeter/internal/domain"
	httpapi "github.com/davidbz/creditmeter/internal/http"
)

const requestTimeout = 30 * time.Second

// apiClient calls the billing HTTP API with a fixed principal.
type apiClient struct {
	baseURL string
	user    string
	scopes  string
	http    *http.Client
}

func newAPIClient(baseURL, user, scopes string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		user:    user,
		scopes:  scopes,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-User-Id", c.user)
	req.Header.Set("X-Auth-Scopes", c.scopes)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr httpapi.ErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *apiClient) Rounding(ctx context.Context) (domain.RoundingPolicy, error) {
	var policy domain.RoundingPolicy
	err := c.do(ctx, http.MethodGet, "/admin/rounding", nil, &policy)
	return policy, err
}

func (c *apiClient) SetRounding(ctx context.Context, increment domain.Increment) (domain.RoundingPolicy, error) {
	var policy domain.RoundingPolicy
	body := map[string]string{"increment": increment.String()}
	err := c.do(ctx, http.MethodPut, "/admin/rounding", body, &policy)
	return policy, err
}

func (c *apiClient) Balance(ctx context.Context, userID string) (domain.Balance, error) {
	var balance domain.Balance
	err := c.do(ctx, http.MethodGet, "/v1/balance?user_id="+url.QueryEscape(userID), nil, &balance)
	return balance, err
}

func (c *apiClient) Ledger(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	var resp httpapi.LedgerResponse
	path := fmt.Sprintf("/v1/ledger?user_id=%s&limit=%d", url.QueryEscape(userID), limit)
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp.Entries, err
}

func (c *apiClient) ReloadPricing(ctx context.Context) (string, error) {
	var resp httpapi.PricingReloadResponse
	err := c.do(ctx, http.MethodPost, "/admin/pricing/reload", nil, &resp)
	return resp.Version, err
}

// RecordUsage posts a usage event, so the client can back a metered OpenAI
// client.
func (c *apiClient) RecordUsage(ctx context.Context, event domain.UsageEvent) (*domain.LedgerEntry, error) {
	var resp httpapi.UsageResponse
	if err := c.do(ctx, http.MethodPost, "/v1/usage", event, &resp); err != nil {
		return nil, err
	}
	return resp.Entry, nil
}
