package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/events"
)

// DeliveryStore defines the DB methods needed by the delivery service.
// Satisfied by *database.Queries (and its WithTx variant).
type DeliveryStore interface {
	GetOrder(ctx context.Context, id int64) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error)
	ListPendingOrders(ctx context.Context, arg database.ListPendingOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	ListOrderItemsByOrders(ctx context.Context, orderIDs []int64) ([]database.OrderItem, error)
	ListInventoryItemsByBarcodes(ctx context.Context, barcodes []string) ([]database.InventoryItem, error)
	AllocateInventoryItem(ctx context.Context, arg database.AllocateInventoryItemParams) (int64, error)
	ReleaseInventoryItems(ctx context.Context, barcodes []string) (int64, error)
	CreateDelivery(ctx context.Context, arg database.CreateDeliveryParams) (database.Delivery, error)
	GetDelivery(ctx context.Context, id int64) (database.Delivery, error)
	ListDeliveriesByOrder(ctx context.Context, orderID int64) ([]database.Delivery, error)
	MarkDeliveryDelivered(ctx context.Context, id int64) (database.Delivery, error)
	DeleteDelivery(ctx context.Context, id int64) error
	CreateDeliveryItem(ctx context.Context, arg database.CreateDeliveryItemParams) (database.DeliveryItem, error)
	ListDeliveryItemsByDelivery(ctx context.Context, deliveryID int64) ([]database.DeliveryItem, error)
	ListDeliveryItemsByOrder(ctx context.Context, orderID int64) ([]database.DeliveryItem, error)
	ListDeliveryItemsByOrders(ctx context.Context, orderIDs []int64) ([]database.ListDeliveryItemsByOrdersRow, error)
	DeleteDeliveryItemsByDelivery(ctx context.Context, deliveryID int64) error
}

type NewDeliveryStore func(db database.DBTX) DeliveryStore

type PendingFilter struct {
	Location string
	Search   string
	Limit    int32
	Offset   int32
}

// PendingLine compares what was ordered with what is already allocated.
type PendingLine struct {
	ProductID int64 `json:"product_id"`
	Ordered   int64 `json:"ordered"`
	Allocated int64 `json:"allocated"`
}

type PendingOrder struct {
	Order database.Order `json:"order"`
	Lines []PendingLine  `json:"lines"`
}

// ScanLine is a validated barcode and the product it carries.
type ScanLine struct {
	Barcode   string `json:"barcode"`
	ProductID int64  `json:"product_id"`
}

type CreateDeliveryRequest struct {
	OrderID      int64
	DeliveryDate time.Time
	Status       string
	Barcodes     []string
	OngkirPlan   *int64
	OngkirActual *int64
}

type DeliveryDetail struct {
	Delivery database.Delivery       `json:"delivery"`
	Items    []database.DeliveryItem `json:"items"`
}

// DeliveryService allocates scanned barcodes to orders.
type DeliveryService struct {
	db        DB
	newStore  NewDeliveryStore
	locations []string
	deps      Deps
}

func NewDeliveryService(db DB, newStore NewDeliveryStore, locations []string, deps Deps) *DeliveryService {
	return &DeliveryService{db: db, newStore: newStore, locations: locations, deps: deps.withDefaults()}
}

func (s *DeliveryService) ListPending(ctx context.Context, f PendingFilter) ([]PendingOrder, error) {
	limit, offset := pageBounds(f.Limit, f.Offset)
	params := database.ListPendingOrdersParams{
		Search: textOrNull(f.Search),
		Limit:  limit,
		Offset: offset,
	}
	if strings.TrimSpace(f.Location) != "" {
		loc, ok := canonicalLocation(s.locations, f.Location)
		if !ok {
			return nil, fmt.Errorf("%q: %w", f.Location, ErrInvalidLocation)
		}
		params.Location = textOrNull(loc)
	}

	var out []PendingOrder
	err := s.deps.Retry.Do(ctx, "list_pending_deliveries", func(ctx context.Context) error {
		store := s.newStore(s.db)

		orders, err := store.ListPendingOrders(ctx, params)
		if err != nil {
			return fmt.Errorf("list pending orders: %w", err)
		}
		ids := make([]int64, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		items, err := store.ListOrderItemsByOrders(ctx, ids)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}
		allocated, err := store.ListDeliveryItemsByOrders(ctx, ids)
		if err != nil {
			return fmt.Errorf("list delivery items: %w", err)
		}
		out = buildPending(orders, items, allocated)
		return nil
	})
	return out, err
}

func buildPending(orders []database.Order, items []database.OrderItem, allocated []database.ListDeliveryItemsByOrdersRow) []PendingOrder {
	type key struct{ order, product int64 }
	used := make(map[key]int64, len(allocated))
	for _, a := range allocated {
		used[key{a.OrderID, a.ProductID}]++
	}
	lines := make(map[int64][]PendingLine, len(orders))
	for _, it := range items {
		lines[it.OrderID] = append(lines[it.OrderID], PendingLine{
			ProductID: it.ProductID,
			Ordered:   int64(it.Quantity),
			Allocated: used[key{it.OrderID, it.ProductID}],
		})
	}
	out := make([]PendingOrder, 0, len(orders))
	for _, o := range orders {
		l := lines[o.ID]
		if l == nil {
			l = []PendingLine{}
		}
		out = append(out, PendingOrder{Order: o, Lines: l})
	}
	return out
}

// ValidateScan checks a submission against the order without allocating.
func (s *DeliveryService) ValidateScan(ctx context.Context, orderID int64, barcodes []string) ([]ScanLine, error) {
	var lines []ScanLine
	err := s.deps.Retry.Do(ctx, "validate_scan", func(ctx context.Context) error {
		store := s.newStore(s.db)

		order, err := store.GetOrder(ctx, orderID)
		if err != nil {
			if isNoRows(err) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		lines, err = validateScan(ctx, store, order, barcodes)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// validateScan returns the first violation in submission order.
func validateScan(ctx context.Context, store DeliveryStore, order database.Order, barcodes []string) ([]ScanLine, error) {
	if len(barcodes) == 0 {
		return nil, ErrNoBarcodes
	}
	normalized := make([]string, 0, len(barcodes))
	for _, b := range barcodes {
		normalized = append(normalized, NormalizeBarcode(b))
	}

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	ordered := make(map[int64]int64, len(items))
	for _, it := range items {
		ordered[it.ProductID] += int64(it.Quantity)
	}

	existing, err := store.ListDeliveryItemsByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list delivery items: %w", err)
	}
	used := make(map[int64]int64, len(existing))
	for _, it := range existing {
		used[it.ProductID]++
	}

	found, err := store.ListInventoryItemsByBarcodes(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("list inventory items: %w", err)
	}
	byBarcode := make(map[string]database.InventoryItem, len(found))
	for _, it := range found {
		byBarcode[it.Barcode] = it
	}

	seen := make(map[string]bool, len(normalized))
	lines := make([]ScanLine, 0, len(normalized))
	for i, code := range normalized {
		if code == "" {
			return nil, fmt.Errorf("barcode[%d]: %w", i, ErrInvalidBarcode)
		}
		if seen[code] {
			return nil, fmt.Errorf("%s: %w", code, ErrDuplicateBarcode)
		}
		seen[code] = true

		item, ok := byBarcode[code]
		if !ok {
			return nil, fmt.Errorf("%s: %w", code, ErrInventoryNotFound)
		}
		if item.Status != enum.InventoryStatusReady {
			return nil, fmt.Errorf("%s: %w", code, ErrBarcodeNotReady)
		}
		if !strings.EqualFold(item.Location, order.Location) {
			return nil, fmt.Errorf("%s: %w", code, ErrBarcodeWrongLocation)
		}
		qty, ok := ordered[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%s: %w", code, ErrProductNotInOrder)
		}
		used[item.ProductID]++
		if used[item.ProductID] > qty {
			return nil, fmt.Errorf("%s: %w", code, ErrAllocationExceeded)
		}
		lines = append(lines, ScanLine{Barcode: code, ProductID: item.ProductID})
	}
	return lines, nil
}

func deliveryStatus(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", enum.DeliveryStatusDelivered:
		return enum.DeliveryStatusDelivered, nil
	case enum.DeliveryStatusPending:
		return enum.DeliveryStatusPending, nil
	}
	return "", ErrInvalidDeliveryStatus
}

// CreateDelivery allocates the scanned barcodes to the order. Each unit is
// flipped READY -> SOLD with a guarded update; losing a race aborts the
// whole delivery.
func (s *DeliveryService) CreateDelivery(ctx context.Context, req CreateDeliveryRequest) (*DeliveryDetail, error) {
	if len(req.Barcodes) == 0 {
		return nil, ErrNoBarcodes
	}
	status, err := deliveryStatus(req.Status)
	if err != nil {
		return nil, err
	}
	date := req.DeliveryDate
	if date.IsZero() {
		date = s.deps.Now()
	}

	var (
		detail DeliveryDetail
		order  database.Order
	)
	err = s.deps.inTx(ctx, s.db, "create_delivery", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		o, err := store.GetOrderForUpdate(ctx, req.OrderID)
		if err != nil {
			if isNoRows(err) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		if o.Outlet == enum.OutletWhatsApp &&
			(req.OngkirPlan == nil || *req.OngkirPlan <= 0 || req.OngkirActual == nil || *req.OngkirActual <= 0) {
			return ErrDeliveryOngkir
		}

		lines, err := validateScan(ctx, store, o, req.Barcodes)
		if err != nil {
			return err
		}

		delivery, err := store.CreateDelivery(ctx, database.CreateDeliveryParams{
			OrderID:      o.ID,
			Status:       status,
			DeliveryDate: date,
			OngkirPlan:   int8OrNull(req.OngkirPlan),
			OngkirActual: int8OrNull(req.OngkirActual),
		})
		if err != nil {
			return fmt.Errorf("create delivery: %w", err)
		}

		items := make([]database.DeliveryItem, 0, len(lines))
		for i, l := range lines {
			n, err := store.AllocateInventoryItem(ctx, database.AllocateInventoryItemParams{
				Barcode:  l.Barcode,
				Location: o.Location,
			})
			if err != nil {
				return fmt.Errorf("barcode[%d]: allocate: %w", i, err)
			}
			if n == 0 {
				return fmt.Errorf("%s: %w", l.Barcode, ErrAllocationConflict)
			}
			item, err := store.CreateDeliveryItem(ctx, database.CreateDeliveryItemParams{
				DeliveryID: delivery.ID,
				ProductID:  l.ProductID,
				Barcode:    l.Barcode,
			})
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%s: %w", l.Barcode, ErrAllocationConflict)
				}
				return fmt.Errorf("barcode[%d]: create delivery item: %w", i, err)
			}
			items = append(items, item)
		}

		detail = DeliveryDetail{Delivery: delivery, Items: items}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.publish(ctx, events.DeliveryCreated, order.Location, orderKey(order.ID), deliveryPayload(detail))
	return &detail, nil
}

// MarkDelivered completes a pending delivery.
func (s *DeliveryService) MarkDelivered(ctx context.Context, id int64) (*DeliveryDetail, error) {
	var (
		detail DeliveryDetail
		order  database.Order
	)
	err := s.deps.inTx(ctx, s.db, "mark_delivered", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		d, err := store.GetDelivery(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrDeliveryNotFound
			}
			return fmt.Errorf("get delivery: %w", err)
		}
		if d.Status == enum.DeliveryStatusDelivered {
			return ErrAlreadyDelivered
		}
		updated, err := store.MarkDeliveryDelivered(ctx, id)
		if err != nil {
			return fmt.Errorf("mark delivered: %w", err)
		}
		items, err := store.ListDeliveryItemsByDelivery(ctx, id)
		if err != nil {
			return fmt.Errorf("list delivery items: %w", err)
		}
		if order, err = store.GetOrder(ctx, d.OrderID); err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		detail = DeliveryDetail{Delivery: updated, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.publish(ctx, events.DeliveryCompleted, order.Location, orderKey(order.ID), deliveryPayload(detail))
	return &detail, nil
}

// CancelDelivery returns the delivery's barcodes to stock and removes it.
func (s *DeliveryService) CancelDelivery(ctx context.Context, id int64) error {
	var (
		detail DeliveryDetail
		order  database.Order
	)
	err := s.deps.inTx(ctx, s.db, "cancel_delivery", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		d, err := store.GetDelivery(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrDeliveryNotFound
			}
			return fmt.Errorf("get delivery: %w", err)
		}
		items, err := store.ListDeliveryItemsByDelivery(ctx, id)
		if err != nil {
			return fmt.Errorf("list delivery items: %w", err)
		}
		if len(items) > 0 {
			barcodes := make([]string, 0, len(items))
			for _, it := range items {
				barcodes = append(barcodes, it.Barcode)
			}
			if _, err := store.ReleaseInventoryItems(ctx, barcodes); err != nil {
				return fmt.Errorf("release inventory: %w", err)
			}
		}
		if err := store.DeleteDeliveryItemsByDelivery(ctx, id); err != nil {
			return fmt.Errorf("delete delivery items: %w", err)
		}
		if err := store.DeleteDelivery(ctx, id); err != nil {
			return fmt.Errorf("delete delivery: %w", err)
		}
		if order, err = store.GetOrder(ctx, d.OrderID); err != nil {
			return fmt.Errorf("get order: %w", err)
		}
		detail = DeliveryDetail{Delivery: d, Items: items}
		return nil
	})
	if err != nil {
		return err
	}

	detail.Delivery.Status = enum.DeliveryStatusCancelled
	s.deps.publish(ctx, events.DeliveryCancelled, order.Location, orderKey(order.ID), deliveryPayload(detail))
	return nil
}

func (s *DeliveryService) GetDelivery(ctx context.Context, id int64) (*DeliveryDetail, error) {
	var detail DeliveryDetail
	err := s.deps.Retry.Do(ctx, "get_delivery", func(ctx context.Context) error {
		store := s.newStore(s.db)

		d, err := store.GetDelivery(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrDeliveryNotFound
			}
			return fmt.Errorf("get delivery: %w", err)
		}
		items, err := store.ListDeliveryItemsByDelivery(ctx, id)
		if err != nil {
			return fmt.Errorf("list delivery items: %w", err)
		}
		detail = DeliveryDetail{Delivery: d, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *DeliveryService) ListDeliveriesByOrder(ctx context.Context, orderID int64) ([]DeliveryDetail, error) {
	var out []DeliveryDetail
	err := s.deps.Retry.Do(ctx, "list_deliveries", func(ctx context.Context) error {
		store := s.newStore(s.db)

		if _, err := store.GetOrder(ctx, orderID); err != nil {
			if isNoRows(err) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		deliveries, err := store.ListDeliveriesByOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list deliveries: %w", err)
		}
		items, err := store.ListDeliveryItemsByOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list delivery items: %w", err)
		}
		byDelivery := make(map[int64][]database.DeliveryItem, len(deliveries))
		for _, it := range items {
			byDelivery[it.DeliveryID] = append(byDelivery[it.DeliveryID], it)
		}
		out = make([]DeliveryDetail, 0, len(deliveries))
		for _, d := range deliveries {
			lines := byDelivery[d.ID]
			if lines == nil {
				lines = []database.DeliveryItem{}
			}
			out = append(out, DeliveryDetail{Delivery: d, Items: lines})
		}
		return nil
	})
	return out, err
}

func deliveryPayload(d DeliveryDetail) events.DeliveryPayload {
	p := events.DeliveryPayload{
		DeliveryID: d.Delivery.ID,
		OrderID:    d.Delivery.OrderID,
		Status:     d.Delivery.Status,
	}
	for _, it := range d.Items {
		p.Barcodes = append(p.Barcodes, it.Barcode)
	}
	return p
}
