package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/middleware"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/service"
)

// InventoryServicer is satisfied by *service.InventoryService.
type InventoryServicer interface {
	ScanIn(ctx context.Context, req service.ScanInRequest) (*service.ScanInResult, error)
	ReceiveManual(ctx context.Context, req service.ReceiveRequest) ([]database.InventoryItem, error)
	Move(ctx context.Context, req service.MoveRequest) (*database.InventoryItem, error)
	Get(ctx context.Context, barcode string) (*database.InventoryItem, error)
	Delete(ctx context.Context, barcode string) error
	Availability(ctx context.Context, location string) (*service.AvailabilityReport, error)
}

type InventoryHandler struct {
	svc  InventoryServicer
	logg *logger.Logger
}

func NewInventoryHandler(svc InventoryServicer, logg *logger.Logger) *InventoryHandler {
	return &InventoryHandler{svc: svc, logg: orNop(logg)}
}

func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Post("/inventory/in", h.StockIn)
	r.Post("/inventory/move", h.Move)
	r.Get("/inventory/availability", h.Availability)
	r.Get("/inventory/{barcode}", h.Get)
	r.With(middleware.RequireRole(enum.RoleAdmin)).Delete("/inventory/{barcode}", h.Delete)
}

// stockInRequest is either a scanned barcode or a manual receipt of
// quantity units of a product.
type stockInRequest struct {
	Barcode     string `json:"barcode" validate:"max=64"`
	ProductCode string `json:"product_code" validate:"max=32"`
	Quantity    int    `json:"quantity" validate:"omitempty,min=1,max=500"`
	Location    string `json:"location" validate:"required,max=64"`
}

type moveRequest struct {
	Barcode  string `json:"barcode" validate:"required,max=64"`
	Location string `json:"location" validate:"required,max=64"`
}

// StockIn responds 201 for new stock and 200 when a known barcode was
// moved to the requested location.
func (h *InventoryHandler) StockIn(w http.ResponseWriter, r *http.Request) {
	var req stockInRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}

	switch {
	case strings.TrimSpace(req.Barcode) != "":
		res, err := h.svc.ScanIn(r.Context(), service.ScanInRequest{Barcode: req.Barcode, Location: req.Location})
		if err != nil {
			writeError(w, r, h.logg, err)
			return
		}
		status := http.StatusCreated
		if res.Moved {
			status = http.StatusOK
		}
		writeJSON(w, status, res)

	case strings.TrimSpace(req.ProductCode) != "":
		items, err := h.svc.ReceiveManual(r.Context(), service.ReceiveRequest{
			ProductCode: req.ProductCode,
			Quantity:    req.Quantity,
			Location:    req.Location,
		})
		if err != nil {
			writeError(w, r, h.logg, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"items": items})

	default:
		writeError(w, r, h.logg, apperror.New(apperror.CodeValidation, "barcode or product_code is required").
			WithDetails(map[string]string{"barcode": "is required without product_code"}))
	}
}

func (h *InventoryHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	item, err := h.svc.Move(r.Context(), service.MoveRequest{Barcode: req.Barcode, Location: req.Location})
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "barcode"))
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "barcode")); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) Availability(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Availability(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
