package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
)

// ProductStore defines the catalog queries. Satisfied by *database.Queries.
type ProductStore interface {
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	GetProductByCode(ctx context.Context, code string) (database.Product, error)
	ListProducts(ctx context.Context) ([]database.Product, error)
}

type NewProductStore func(db database.DBTX) ProductStore

type CreateProductRequest struct {
	Code  string
	Name  string
	Price int64
}

// ProductService manages the catalog that barcodes and orders resolve against.
type ProductService struct {
	db       DB
	newStore NewProductStore
	deps     Deps
}

func NewProductService(db DB, newStore NewProductStore, deps Deps) *ProductService {
	return &ProductService{db: db, newStore: newStore, deps: deps.withDefaults()}
}

func (s *ProductService) List(ctx context.Context) ([]database.Product, error) {
	var out []database.Product
	err := s.deps.Retry.Do(ctx, "list_products", func(ctx context.Context) error {
		products, err := s.newStore(s.db).ListProducts(ctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		out = products
		return nil
	})
	return out, err
}

func (s *ProductService) GetByCode(ctx context.Context, code string) (*database.Product, error) {
	var out database.Product
	err := s.deps.Retry.Do(ctx, "get_product", func(ctx context.Context) error {
		p, err := s.newStore(s.db).GetProductByCode(ctx, NormalizeBarcode(code))
		if err != nil {
			if isNoRows(err) {
				return ErrProductCodeNotFound
			}
			return fmt.Errorf("get product: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create adds a catalog product. Codes are stored upper-cased so they match
// the master code parsed from barcodes.
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*database.Product, error) {
	code := NormalizeBarcode(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" || req.Price < 0 {
		return nil, ErrInvalidProduct
	}

	p, err := s.newStore(s.db).CreateProduct(ctx, database.CreateProductParams{
		Code:  code,
		Name:  name,
		Price: req.Price,
	})
	if err != nil {
		return nil, apperror.FromPg(fmt.Errorf("create product: %w", err), "product code already exists")
	}
	return &p, nil
}
