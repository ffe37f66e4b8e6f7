package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/idempotency"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/metrics"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/payment"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/service"
)

// webhookResultError labels failed notifications in webhook_events_total.
const webhookResultError = "error"

// WebhookServicer is satisfied by *service.WebhookService.
type WebhookServicer interface {
	Verify(n payment.Notification) error
	HandleNotification(ctx context.Context, n payment.Notification) (service.WebhookResult, error)
}

// WebhookGuard drops notifications that were already processed. Satisfied by
// *idempotency.Guard.
type WebhookGuard interface {
	CheckAndMark(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// PaymentHandler receives gateway notifications. It is mounted outside the
// authenticated group; notifications authenticate by signature.
type PaymentHandler struct {
	svc     WebhookServicer
	guard   WebhookGuard
	metrics *metrics.Fulfillment
	logg    *logger.Logger
}

// NewPaymentHandler creates a PaymentHandler. guard may be nil when no
// idempotency store is configured.
func NewPaymentHandler(svc WebhookServicer, guard WebhookGuard, m *metrics.Fulfillment, logg *logger.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, guard: guard, metrics: m, logg: orNop(logg)}
}

func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/payments/callback", h.Callback)
}

type webhookResponse struct {
	Success   bool   `json:"success"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Action    string `json:"action,omitempty"`
	OrderID   int64  `json:"order_id,omitempty"`
}

func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var n payment.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, r, h.logg, apperror.Wrap(apperror.CodeValidation, err, "invalid notification body"))
		return
	}

	ctx := h.logg.WithFields(r.Context(), map[string]any{
		"payment_order_id":   n.OrderID,
		"transaction_status": n.TransactionStatus,
	})
	status := strings.ToLower(strings.TrimSpace(n.TransactionStatus))

	// Unsigned notifications must not claim the idempotency key.
	if err := h.svc.Verify(n); err != nil {
		h.metrics.IncWebhook(status, webhookResultError)
		h.logg.Warn(ctx, "webhook.rejected")
		writeError(w, r.WithContext(ctx), h.logg, err)
		return
	}

	key := idempotency.WebhookKey(n.OrderID, status, n.TransactionID)
	guarded := false
	if h.guard != nil {
		seen, err := h.guard.CheckAndMark(ctx, key)
		switch {
		case err != nil:
			// Fall through to the database-level no-op.
			h.logg.Error(ctx, "webhook.idempotency_unavailable", err)
		case seen:
			h.metrics.IncWebhook(status, service.WebhookDuplicate)
			writeJSON(w, http.StatusOK, webhookResponse{Success: true, Duplicate: true})
			return
		default:
			guarded = true
		}
	}

	res, err := h.svc.HandleNotification(ctx, n)
	if err != nil {
		if guarded {
			if delErr := h.guard.Delete(ctx, key); delErr != nil {
				h.logg.Error(ctx, "webhook.idempotency_release_failed", delErr)
			}
		}
		h.metrics.IncWebhook(status, webhookResultError)
		if apperror.Is(err, apperror.CodeUnauthenticated) {
			h.logg.Warn(ctx, "webhook.rejected")
		}
		writeError(w, r.WithContext(ctx), h.logg, err)
		return
	}

	h.metrics.IncWebhook(status, res.Action)
	writeJSON(w, http.StatusOK, webhookResponse{
		Success:   true,
		Duplicate: res.Action == service.WebhookDuplicate,
		Action:    res.Action,
		OrderID:   res.OrderID,
	})
}
