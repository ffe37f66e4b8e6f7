package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/service"
)

// DeliveryServicer is satisfied by *service.DeliveryService.
type DeliveryServicer interface {
	ListPending(ctx context.Context, f service.PendingFilter) ([]service.PendingOrder, error)
	ValidateScan(ctx context.Context, orderID int64, barcodes []string) ([]service.ScanLine, error)
	CreateDelivery(ctx context.Context, req service.CreateDeliveryRequest) (*service.DeliveryDetail, error)
	MarkDelivered(ctx context.Context, id int64) (*service.DeliveryDetail, error)
	CancelDelivery(ctx context.Context, id int64) error
	GetDelivery(ctx context.Context, id int64) (*service.DeliveryDetail, error)
	ListDeliveriesByOrder(ctx context.Context, orderID int64) ([]service.DeliveryDetail, error)
}

type DeliveryHandler struct {
	svc  DeliveryServicer
	logg *logger.Logger
	now  func() time.Time
}

func NewDeliveryHandler(svc DeliveryServicer, logg *logger.Logger) *DeliveryHandler {
	return &DeliveryHandler{svc: svc, logg: orNop(logg), now: time.Now}
}

// RegisterRoutes also mounts the order-scoped delivery views. /orders/pending
// is static and takes precedence over /orders/{id}.
func (h *DeliveryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders/pending", h.ListPending)
	r.Get("/orders/{id}/deliveries", h.ListByOrder)
	r.Post("/deliveries/validate", h.Validate)
	r.Post("/deliveries", h.Create)
	r.Get("/deliveries/{id}", h.Get)
	r.Post("/deliveries/{id}/delivered", h.MarkDelivered)
	r.Delete("/deliveries/{id}", h.Cancel)
}

type validateScanRequest struct {
	OrderID  int64    `json:"order_id" validate:"required,gt=0"`
	Barcodes []string `json:"barcodes" validate:"required,min=1"`
}

type createDeliveryRequest struct {
	OrderID      int64    `json:"order_id" validate:"required,gt=0"`
	DeliveryDate *string  `json:"delivery_date"`
	Status       string   `json:"status" validate:"omitempty,oneof=pending delivered"`
	Barcodes     []string `json:"barcodes" validate:"required,min=1"`
	OngkirPlan   *int64   `json:"ongkir_plan" validate:"omitempty,gte=0"`
	OngkirActual *int64   `json:"ongkir_actual" validate:"omitempty,gte=0"`
}

type pendingListResponse struct {
	Orders []service.PendingOrder `json:"orders"`
	Limit  int32                  `json:"limit"`
	Offset int32                  `json:"offset"`
}

func (h *DeliveryHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	q := r.URL.Query()
	orders, err := h.svc.ListPending(r.Context(), service.PendingFilter{
		Location: q.Get("location"),
		Search:   q.Get("search"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	if orders == nil {
		orders = []service.PendingOrder{}
	}
	writeJSON(w, http.StatusOK, pendingListResponse{Orders: orders, Limit: limit, Offset: offset})
}

func (h *DeliveryHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateScanRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	lines, err := h.svc.ValidateScan(r.Context(), req.OrderID, req.Barcodes)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"valid": true, "lines": lines})
}

func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDeliveryRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	date, err := bodyDate("delivery_date", req.DeliveryDate)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	deliveryDate := h.now()
	if date != nil {
		deliveryDate = *date
	}

	detail, err := h.svc.CreateDelivery(r.Context(), service.CreateDeliveryRequest{
		OrderID:      req.OrderID,
		DeliveryDate: deliveryDate,
		Status:       req.Status,
		Barcodes:     req.Barcodes,
		OngkirPlan:   req.OngkirPlan,
		OngkirActual: req.OngkirActual,
	})
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	detail, err := h.svc.GetDelivery(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *DeliveryHandler) ListByOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	deliveries, err := h.svc.ListDeliveriesByOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	if deliveries == nil {
		deliveries = []service.DeliveryDetail{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deliveries": deliveries})
}

func (h *DeliveryHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	detail, err := h.svc.MarkDelivered(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	if err := h.svc.CancelDelivery(r.Context(), id); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
