package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/middleware"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/service"
)

// ProductServicer is satisfied by *service.ProductService.
type ProductServicer interface {
	List(ctx context.Context) ([]database.Product, error)
	GetByCode(ctx context.Context, code string) (*database.Product, error)
	Create(ctx context.Context, req service.CreateProductRequest) (*database.Product, error)
}

type ProductHandler struct {
	svc  ProductServicer
	logg *logger.Logger
}

func NewProductHandler(svc ProductServicer, logg *logger.Logger) *ProductHandler {
	return &ProductHandler{svc: svc, logg: orNop(logg)}
}

func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.List)
	r.Get("/products/{code}", h.Get)
	r.With(middleware.RequireRole(enum.RoleAdmin)).Post("/products", h.Create)
}

type createProductRequest struct {
	Code  string `json:"code" validate:"required,max=32"`
	Name  string `json:"name" validate:"required,max=200"`
	Price int64  `json:"price" validate:"gte=0"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	if products == nil {
		products = []database.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.GetByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	product, err := h.svc.Create(r.Context(), service.CreateProductRequest{
		Code:  req.Code,
		Name:  req.Name,
		Price: req.Price,
	})
	if err != nil {
		writeError(w, r, h.logg, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}
