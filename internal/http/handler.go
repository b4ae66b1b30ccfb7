package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/http/middleware"
	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/observability"
)

const maxBodyBytes = 1 << 20

// Handler handles HTTP requests.
type Handler struct {
	billing *domain.BillingService
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(billing *domain.BillingService) *Handler {
	return &Handler{
		billing: billing,
	}
}

// UsageResponse reports the entry written for a usage event. Entry is nil when
// the event carried no tokens.
type UsageResponse struct {
	Recorded bool                `json:"recorded"`
	Entry    *domain.LedgerEntry `json:"entry,omitempty"`
}

// RoundingRequest carries a new increment as a decimal string or number.
type RoundingRequest struct {
	Increment json.RawMessage `json:"increment"`
}

// AdjustmentRequest is a manual credit correction.
type AdjustmentRequest struct {
	UserID  string      `json:"user_id"`
	Credits money.Centi `json:"credits"`
	Note    string      `json:"note"`
}

// PricingReloadResponse reports the version now in effect.
type PricingReloadResponse struct {
	Version string `json:"version"`
}

// LedgerResponse lists a user's recent entries, newest first.
type LedgerResponse struct {
	UserID  string               `json:"user_id"`
	Entries []domain.LedgerEntry `json:"entries"`
}

// HandleUsage records one metered usage event.
func (h *Handler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.authorize(w, r, domain.ScopeBillingWrite); !ok {
		return
	}

	var event domain.UsageEvent
	if !decodeBody(w, r, &event) {
		return
	}
	if event.RequestID == "" {
		event.RequestID = observability.GetRequestID(ctx)
	}

	entry, err := h.billing.RecordUsage(ctx, event)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if entry == nil {
		writeJSON(ctx, w, http.StatusOK, UsageResponse{Recorded: false})
		return
	}

	writeJSON(ctx, w, http.StatusCreated, UsageResponse{Recorded: true, Entry: entry})
}

// HandleProration records the credit adjustment of a mid-cycle plan change.
func (h *Handler) HandleProration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.authorize(w, r, domain.ScopeBillingWrite); !ok {
		return
	}

	var req domain.ProrationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entry, err := h.billing.RecordProration(ctx, req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, entry)
}

// HandleBalance returns a balance. Without a user_id query parameter the
// caller's own balance is returned.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.readableUser(w, r)
	if !ok {
		return
	}

	balance, err := h.billing.Balance(ctx, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, balance)
}

// HandleLedger returns recent ledger entries for a user.
func (h *Handler) HandleLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.readableUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.billing.Entries(ctx, userID, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}

	writeJSON(ctx, w, http.StatusOK, LedgerResponse{UserID: userID, Entries: entries})
}

// HandleGetRounding returns the active rounding policy.
func (h *Handler) HandleGetRounding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.authorize(w, r, domain.ScopeBillingAdmin); !ok {
		return
	}

	policy, err := h.billing.RoundingPolicy(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, policy)
}

// HandlePutRounding replaces the rounding increment.
func (h *Handler) HandlePutRounding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.authorize(w, r, domain.ScopeBillingAdmin)
	if !ok {
		return
	}

	var req RoundingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	raw := strings.Trim(string(req.Increment), `"`)

	policy, err := h.billing.UpdateRoundingIncrement(ctx, principal, raw)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, policy)
}

// HandleReloadPricing reloads the pricing table from its source.
func (h *Handler) HandleReloadPricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.authorize(w, r, domain.ScopeBillingAdmin)
	if !ok {
		return
	}

	version, err := h.billing.ReloadPricing(ctx, principal)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, PricingReloadResponse{Version: version})
}

// HandleAdjustment posts a manual credit adjustment.
func (h *Handler) HandleAdjustment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.authorize(w, r, domain.ScopeBillingAdmin)
	if !ok {
		return
	}

	var req AdjustmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	entry, err := h.billing.RecordAdjustment(ctx, principal, req.UserID, req.Credits, req.Note)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, entry)
}

// HandleReconcile audits one user's balance against the ledger.
func (h *Handler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, ok := h.authorize(w, r, domain.ScopeBillingAdmin)
	if !ok {
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	rec, err := h.billing.Reconcile(ctx, principal, userID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, rec)
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		// Already written status, can't change it, just log.
		return
	}
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, scope string) (domain.Principal, bool) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal.UserID == "" {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return domain.Principal{}, false
	}
	if err := principal.Require(scope); err != nil {
		writeError(r.Context(), w, err)
		return domain.Principal{}, false
	}
	return principal, true
}

func (h *Handler) readableUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal.UserID == "" {
		http.Error(w, "missing principal", http.StatusUnauthorized)
		return "", false
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = principal.UserID
	}
	if !principal.CanRead(userID) {
		writeError(r.Context(), w, fmt.Errorf("%w: %q cannot read %q", domain.ErrForbidden, principal.UserID, userID))
		return "", false
	}
	return userID, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		observability.FromContext(ctx).Error("failed to encode response", observability.Error(err))
	}
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	logger := observability.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", observability.Error(err), observability.Int("status", status))
	} else {
		logger.Info("request rejected", observability.Error(err), observability.Int("status", status))
	}
	writeJSON(ctx, w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrPriceNotFound), errors.Is(err, domain.ErrAmountOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidUsage),
		errors.Is(err, domain.ErrInvalidEntry),
		errors.Is(err, domain.ErrInvalidProrationWindow),
		errors.Is(err, domain.ErrInvalidIncrement),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidMargin),
		errors.Is(err, money.ErrPrecision):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLedgerWriteConflict), errors.Is(err, domain.ErrCacheUninitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrMarginResolutionFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
