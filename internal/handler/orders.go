package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/service"
)

// ActionManualPaid is the only PATCH action accepted on an order.
const ActionManualPaid = "manual-paid"

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.OrderDetail, error)
	UpdateOrder(ctx context.Context, id int64, req service.UpdateOrderRequest) (*service.OrderDetail, error)
	DeleteOrder(ctx context.Context, id int64) error
	MarkPaidManually(ctx context.Context, id int64) (*service.OrderDetail, error)
	GetOrder(ctx context.Context, id int64) (*service.OrderDetail, error)
	ListOrders(ctx context.Context, f service.OrderFilter) ([]service.OrderDetail, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc  OrderServicer
	logg *logger.Logger
}

func NewOrderHandler(svc OrderServicer, logg *logger.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logg: orNop(logg)}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Post("/orders", h.Create)
	r.Get("/orders/{id}", h.Get)
	r.Put("/orders/{id}", h.Update)
	r.Patch("/orders/{id}", h.Patch)
	r.Delete("/orders/{id}", h.Delete)
}

// --- Request / Response types ---

type orderRequest struct {
	Outlet       string             `json:"outlet" validate:"max=32"`
	Customer     *string            `json:"customer" validate:"omitempty,max=200"`
	Status       string             `json:"status" validate:"max=16"`
	Location     string             `json:"location" validate:"max=64"`
	OrderDate    string             `json:"order_date"`
	DeliveryDate *string            `json:"delivery_date"`
	Discount     *decimal.Decimal   `json:"discount"`
	OngkirPlan   *int64             `json:"ongkir_plan" validate:"omitempty,gte=0"`
	SelfPickup   *bool              `json:"self_pickup"`
	Items        []orderItemRequest `json:"items" validate:"dive"`
}

type orderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int32 `json:"quantity" validate:"required,gt=0"`
}

type patchOrderRequest struct {
	Action string `json:"action" validate:"required"`
}

type orderListResponse struct {
	Orders []service.OrderDetail `json:"orders"`
	Limit  int32                 `json:"limit"`
	Offset int32                 `json:"offset"`
}

// parsedOrderDates holds the converted date fields shared by create and update.
type parsedOrderDates struct {
	orderDate    time.Time
	deliveryDate *time.Time
}

func (req orderRequest) dates() (parsedOrderDates, error) {
	var out parsedOrderDates
	od, err := bodyDate("order_date", &req.OrderDate)
	if err != nil {
		return out, err
	}
	if od != nil {
		out.orderDate = *od
	}
	out.deliveryDate, err = bodyDate("delivery_date", req.DeliveryDate)
	return out, err
}

// clearsDeliveryDate reports an explicit empty delivery_date.
func (req orderRequest) clearsDeliveryDate() bool {
	return req.DeliveryDate != nil && strings.TrimSpace(*req.DeliveryDate) == ""
}

func (req orderRequest) itemInputs() []service.ItemInput {
	if req.Items == nil {
		return nil
	}
	items := make([]service.ItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return items
}

// --- Handlers ---

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	dates, err := req.dates()
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	var customer string
	if req.Customer != nil {
		customer = *req.Customer
	}
	detail, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		Outlet:       req.Outlet,
		Customer:     customer,
		Status:       req.Status,
		Location:     req.Location,
		OrderDate:    dates.orderDate,
		DeliveryDate: dates.deliveryDate,
		Discount:     req.Discount,
		OngkirPlan:   req.OngkirPlan,
		SelfPickup:   req.SelfPickup != nil && *req.SelfPickup,
		Items:        req.itemInputs(),
	})
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail)
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	var req orderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	dates, err := req.dates()
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	detail, err := h.svc.UpdateOrder(r.Context(), id, service.UpdateOrderRequest{
		Outlet:            req.Outlet,
		Customer:          req.Customer,
		Status:            req.Status,
		Location:          req.Location,
		OrderDate:         dates.orderDate,
		DeliveryDate:      dates.deliveryDate,
		ClearDeliveryDate: req.clearsDeliveryDate(),
		Discount:          req.Discount,
		OngkirPlan:        req.OngkirPlan,
		SelfPickup:        req.SelfPickup,
		Items:             req.itemInputs(),
	})
	if err != nil {
		// The edit is committed even when the new payment link could not be
		// issued; return it alongside the failure.
		if errors.Is(err, service.ErrPaymentRegeneration) && detail != nil {
			writeErrorWith(w, r, h.logg, err, http.StatusBadGateway, map[string]interface{}{
				"order":                       detail,
				"payment_regeneration_failed": true,
			})
			return
		}
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *OrderHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	var req patchOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	if strings.ToLower(strings.TrimSpace(req.Action)) != ActionManualPaid {
		writeError(w, r, h.logg, apperror.New(apperror.CodeValidation, "unsupported action").
			WithDetails(map[string]string{"action": "must be " + ActionManualPaid}))
		return
	}

	detail, err := h.svc.MarkPaidManually(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	if err := h.svc.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	detail, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePage(r)
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	from, err := queryTime(r, "from")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	q := r.URL.Query()
	orders, err := h.svc.ListOrders(r.Context(), service.OrderFilter{
		Outlet:   q.Get("outlet"),
		Location: q.Get("location"),
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		From:     from,
		To:       to,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	if orders == nil {
		orders = []service.OrderDetail{}
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: orders, Limit: limit, Offset: offset})
}
