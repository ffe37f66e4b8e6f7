package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
)

// MaxManualReceive caps how many units one manual receipt may create.
const MaxManualReceive = 500

// AllLocations labels the per-product rollup rows in availability reports.
const AllLocations = "ALL"

// InventoryStore defines the DB methods needed by the inventory service.
// Satisfied by *database.Queries (and its WithTx variant).
type InventoryStore interface {
	GetProductByCode(ctx context.Context, code string) (database.Product, error)
	ListProducts(ctx context.Context) ([]database.Product, error)
	GetInventoryItem(ctx context.Context, barcode string) (database.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error)
	MoveInventoryItem(ctx context.Context, arg database.MoveInventoryItemParams) (database.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, barcode string) (int64, error)
	CountReadyStock(ctx context.Context, location pgtype.Text) ([]database.CountReadyStockRow, error)
	CountReservedStock(ctx context.Context, location pgtype.Text) ([]database.CountReservedStockRow, error)
}

type NewInventoryStore func(db database.DBTX) InventoryStore

type ScanInRequest struct {
	Barcode  string
	Location string
}

type ScanInResult struct {
	Item  database.InventoryItem `json:"item"`
	Moved bool                   `json:"moved"`
	From  string                 `json:"from,omitempty"`
}

type ReceiveRequest struct {
	ProductCode string
	Quantity    int
	Location    string
}

type MoveRequest struct {
	Barcode  string
	Location string
}

type AvailabilityRow struct {
	ProductID int64  `json:"product_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Location  string `json:"location"`
	Total     int64  `json:"total"`
	Reserved  int64  `json:"reserved"`
	Available int64  `json:"available"`
	Shortage  bool   `json:"shortage"`
}

type AvailabilityReport struct {
	Rows   []AvailabilityRow `json:"rows"`
	Totals []AvailabilityRow `json:"totals"`
}

// InventoryService tracks barcode-level stock per location.
type InventoryService struct {
	db        DB
	newStore  NewInventoryStore
	locations []string
	deps      Deps
}

func NewInventoryService(db DB, newStore NewInventoryStore, locations []string, deps Deps) *InventoryService {
	return &InventoryService{db: db, newStore: newStore, locations: locations, deps: deps.withDefaults()}
}

func (s *InventoryService) location(raw string) (string, error) {
	loc, ok := canonicalLocation(s.locations, raw)
	if !ok {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidLocation)
	}
	return loc, nil
}

// ScanIn records a scanned unit at a location. A barcode already known at
// another location is moved instead of rejected.
func (s *InventoryService) ScanIn(ctx context.Context, req ScanInRequest) (*ScanInResult, error) {
	parsed, err := ParseBarcode(req.Barcode)
	if err != nil {
		return nil, err
	}
	loc, err := s.location(req.Location)
	if err != nil {
		return nil, err
	}
	barcode := NormalizeBarcode(req.Barcode)

	var result ScanInResult
	err = s.deps.inTx(ctx, s.db, "inventory_scan_in", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		product, err := store.GetProductByCode(ctx, parsed.MasterCode)
		if err != nil {
			if isNoRows(err) {
				return fmt.Errorf("%s: %w", parsed.MasterCode, ErrMasterProductNotFound)
			}
			return fmt.Errorf("get product: %w", err)
		}

		existing, err := store.GetInventoryItem(ctx, barcode)
		switch {
		case err == nil:
			if strings.EqualFold(existing.Location, loc) {
				return ErrBarcodeExists
			}
			if existing.Status == enum.InventoryStatusSold {
				return ErrInventorySold
			}
			moved, err := store.MoveInventoryItem(ctx, database.MoveInventoryItemParams{Barcode: barcode, Location: loc})
			if err != nil {
				return fmt.Errorf("move inventory item: %w", err)
			}
			result = ScanInResult{Item: moved, Moved: true, From: existing.Location}
			return nil
		case !isNoRows(err):
			return fmt.Errorf("get inventory item: %w", err)
		}

		item, err := store.CreateInventoryItem(ctx, database.CreateInventoryItemParams{
			Barcode:   barcode,
			ProductID: product.ID,
			Location:  loc,
		})
		if err != nil {
			if isUniqueViolation(err) {
				return ErrBarcodeExists
			}
			return fmt.Errorf("create inventory item: %w", err)
		}
		result = ScanInResult{Item: item}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ReceiveManual adds unlabelled stock by product code, minting AUTO barcodes.
func (s *InventoryService) ReceiveManual(ctx context.Context, req ReceiveRequest) ([]database.InventoryItem, error) {
	if req.Quantity <= 0 || req.Quantity > MaxManualReceive {
		return nil, ErrInvalidReceiveQty
	}
	loc, err := s.location(req.Location)
	if err != nil {
		return nil, err
	}
	code := NormalizeBarcode(req.ProductCode)
	if code == "" {
		return nil, ErrProductCodeNotFound
	}

	var items []database.InventoryItem
	err = s.deps.inTx(ctx, s.db, "inventory_receive", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		product, err := store.GetProductByCode(ctx, code)
		if err != nil {
			if isNoRows(err) {
				return fmt.Errorf("%s: %w", code, ErrProductCodeNotFound)
			}
			return fmt.Errorf("get product: %w", err)
		}

		created := make([]database.InventoryItem, 0, req.Quantity)
		for i := 0; i < req.Quantity; i++ {
			item, err := store.CreateInventoryItem(ctx, database.CreateInventoryItemParams{
				Barcode:   autoBarcode(product.Code),
				ProductID: product.ID,
				Location:  loc,
			})
			if err != nil {
				return fmt.Errorf("unit[%d]: create inventory item: %w", i, err)
			}
			created = append(created, item)
		}
		items = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *InventoryService) Move(ctx context.Context, req MoveRequest) (*database.InventoryItem, error) {
	loc, err := s.location(req.Location)
	if err != nil {
		return nil, err
	}
	barcode := NormalizeBarcode(req.Barcode)

	var out database.InventoryItem
	err = s.deps.inTx(ctx, s.db, "inventory_move", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		existing, err := store.GetInventoryItem(ctx, barcode)
		if err != nil {
			if isNoRows(err) {
				return ErrInventoryNotFound
			}
			return fmt.Errorf("get inventory item: %w", err)
		}
		if strings.EqualFold(existing.Location, loc) {
			return ErrSameLocation
		}
		if existing.Status == enum.InventoryStatusSold {
			return ErrInventorySold
		}

		moved, err := store.MoveInventoryItem(ctx, database.MoveInventoryItemParams{Barcode: barcode, Location: loc})
		if err != nil {
			return fmt.Errorf("move inventory item: %w", err)
		}
		out = moved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *InventoryService) Get(ctx context.Context, barcode string) (*database.InventoryItem, error) {
	var out database.InventoryItem
	err := s.deps.Retry.Do(ctx, "inventory_get", func(ctx context.Context) error {
		item, err := s.newStore(s.db).GetInventoryItem(ctx, NormalizeBarcode(barcode))
		if err != nil {
			if isNoRows(err) {
				return ErrInventoryNotFound
			}
			return fmt.Errorf("get inventory item: %w", err)
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a unit that was never allocated.
func (s *InventoryService) Delete(ctx context.Context, barcode string) error {
	n, err := s.newStore(s.db).DeleteInventoryItem(ctx, NormalizeBarcode(barcode))
	if err != nil {
		if apperror.Is(apperror.FromPg(err, ""), apperror.CodeState) {
			return fmt.Errorf("%w: %w", ErrInventoryInUse, err)
		}
		return fmt.Errorf("delete inventory item: %w", err)
	}
	if n == 0 {
		return ErrInventoryNotFound
	}
	return nil
}

// Availability reports READY stock against what pending orders still need.
// Available may go negative; such rows are flagged as a shortage.
func (s *InventoryService) Availability(ctx context.Context, location string) (*AvailabilityReport, error) {
	filter := pgtype.Text{}
	if strings.TrimSpace(location) != "" {
		loc, err := s.location(location)
		if err != nil {
			return nil, err
		}
		filter = pgtype.Text{String: loc, Valid: true}
	}

	var (
		products []database.Product
		ready    []database.CountReadyStockRow
		reserved []database.CountReservedStockRow
	)
	err := s.deps.Retry.Do(ctx, "inventory_availability", func(ctx context.Context) error {
		store := s.newStore(s.db)
		var err error
		if products, err = store.ListProducts(ctx); err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		if ready, err = store.CountReadyStock(ctx, filter); err != nil {
			return fmt.Errorf("count ready stock: %w", err)
		}
		if reserved, err = store.CountReservedStock(ctx, filter); err != nil {
			return fmt.Errorf("count reserved stock: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return buildAvailability(products, ready, reserved), nil
}

type stockKey struct {
	productID int64
	location  string
}

func buildAvailability(products []database.Product, ready []database.CountReadyStockRow, reserved []database.CountReservedStockRow) *AvailabilityReport {
	catalog := make(map[int64]database.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	rows := make(map[stockKey]*AvailabilityRow)
	row := func(productID int64, location string) *AvailabilityRow {
		key := stockKey{productID, location}
		if r, ok := rows[key]; ok {
			return r
		}
		p := catalog[productID]
		r := &AvailabilityRow{ProductID: productID, Code: p.Code, Name: p.Name, Location: location}
		rows[key] = r
		return r
	}
	for _, r := range ready {
		row(r.ProductID, r.Location).Total += r.Total
	}
	for _, r := range reserved {
		row(r.ProductID, r.Location).Reserved += r.Reserved
	}

	report := &AvailabilityReport{Rows: []AvailabilityRow{}, Totals: []AvailabilityRow{}}
	rollup := make(map[int64]*AvailabilityRow)
	for _, r := range rows {
		r.Available = r.Total - r.Reserved
		r.Shortage = r.Available < 0
		report.Rows = append(report.Rows, *r)

		t, ok := rollup[r.ProductID]
		if !ok {
			t = &AvailabilityRow{ProductID: r.ProductID, Code: r.Code, Name: r.Name, Location: AllLocations}
			rollup[r.ProductID] = t
		}
		t.Total += r.Total
		t.Reserved += r.Reserved
	}
	for _, t := range rollup {
		t.Available = t.Total - t.Reserved
		t.Shortage = t.Available < 0
		report.Totals = append(report.Totals, *t)
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Location < b.Location
	})
	sort.Slice(report.Totals, func(i, j int) bool {
		return report.Totals[i].Code < report.Totals[j].Code
	})
	return report
}
