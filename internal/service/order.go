package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/events"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/payment"
)

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	ListProductsByIDs(ctx context.Context, ids []int64) ([]database.Product, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id int64) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	SetOrderPaymentReference(ctx context.Context, arg database.SetOrderPaymentReferenceParams) (database.Order, error)
	MarkOrderPaidManual(ctx context.Context, id int64) (database.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	ListOrderItemsByOrders(ctx context.Context, orderIDs []int64) ([]database.OrderItem, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID int64) error
	ListDeliveriesByOrder(ctx context.Context, orderID int64) ([]database.Delivery, error)
	DeleteDeliveriesByOrder(ctx context.Context, orderID int64) error
	DeleteDeliveryItemsByOrder(ctx context.Context, orderID int64) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// Gateway creates hosted-checkout transactions. Satisfied by *payment.Client.
type Gateway interface {
	CreateTransaction(ctx context.Context, req payment.TransactionRequest) (*payment.Transaction, error)
}

// CreateOrderRequest is the input for creating an order.
type CreateOrderRequest struct {
	Outlet       string
	Customer     string
	Status       string
	Location     string
	OrderDate    time.Time
	DeliveryDate *time.Time
	Discount     *decimal.Decimal
	OngkirPlan   *int64
	SelfPickup   bool
	Items        []ItemInput
}

// UpdateOrderRequest replaces the editable fields of an order. A nil Items
// keeps the current lines and their price snapshots. Empty Outlet, Status and
// Location, a zero OrderDate and nil pointers keep the current values. An
// empty Customer or a zero Discount clears the field; ClearDeliveryDate drops
// the delivery date.
type UpdateOrderRequest struct {
	Outlet            string
	Customer          *string
	Status            string
	Location          string
	OrderDate         time.Time
	DeliveryDate      *time.Time
	ClearDeliveryDate bool
	Discount          *decimal.Decimal
	OngkirPlan        *int64
	SelfPickup        *bool
	Items             []ItemInput
}

// OrderDetail is an order with its lines and deliveries.
type OrderDetail struct {
	Order      database.Order       `json:"order"`
	Items      []database.OrderItem `json:"items"`
	Deliveries []database.Delivery  `json:"deliveries,omitempty"`
}

type OrderFilter struct {
	Outlet   string
	Location string
	Status   string
	Search   string
	From     *time.Time
	To       *time.Time
	Limit    int32
	Offset   int32
}

type OrderServiceConfig struct {
	Locations     []string
	ExpiryMinutes int
}

// OrderService handles order business logic.
type OrderService struct {
	db            DB
	newStore      NewOrderStore
	gateway       Gateway
	locations     []string
	expiryMinutes int
	deps          Deps
}

func NewOrderService(db DB, newStore NewOrderStore, gateway Gateway, cfg OrderServiceConfig, deps Deps) *OrderService {
	expiry := cfg.ExpiryMinutes
	if expiry <= 0 {
		expiry = payment.DefaultExpiryMinutes
	}
	return &OrderService{
		db:            db,
		newStore:      newStore,
		gateway:       gateway,
		locations:     cfg.Locations,
		expiryMinutes: expiry,
		deps:          deps.withDefaults(),
	}
}

// orderHeader is the validated, canonical form of the editable fields.
type orderHeader struct {
	Outlet       string
	Customer     pgtype.Text
	Location     string
	OrderDate    time.Time
	DeliveryDate pgtype.Timestamptz
	Discount     decimal.Decimal
	DiscountSet  bool
	OngkirPlan   *int64
	SelfPickup   bool
}

func (s *OrderService) validateHeader(outlet, customer, location string, orderDate time.Time, deliveryDate *time.Time, discount *decimal.Decimal, ongkirPlan *int64, selfPickup bool) (orderHeader, error) {
	h := orderHeader{Customer: textOrNull(customer), OngkirPlan: ongkirPlan, SelfPickup: selfPickup}

	canon, ok := enum.CanonicalOutlet(outlet)
	if !ok {
		return h, fmt.Errorf("%q: %w", outlet, ErrInvalidOutlet)
	}
	h.Outlet = canon

	loc, ok := canonicalLocation(s.locations, location)
	if !ok {
		return h, fmt.Errorf("%q: %w", location, ErrInvalidLocation)
	}
	h.Location = loc

	if orderDate.IsZero() {
		return h, ErrOrderDateRequired
	}
	h.OrderDate = orderDate
	if deliveryDate != nil && !deliveryDate.IsZero() {
		if deliveryDate.Before(orderDate) {
			return h, ErrDeliveryBeforeOrder
		}
		h.DeliveryDate = pgtype.Timestamptz{Time: *deliveryDate, Valid: true}
	}

	if discount != nil {
		if !validDiscount(*discount) {
			return h, ErrInvalidDiscount
		}
		h.Discount = *discount
		h.DiscountSet = true
	}

	if needsOngkir(h.Outlet, selfPickup) && (ongkirPlan == nil || *ongkirPlan <= 0) {
		return h, ErrOngkirRequired
	}
	if ongkirPlan != nil && *ongkirPlan > maxAmount {
		return h, ErrAmountTooLarge
	}
	return h, nil
}

func (h orderHeader) discountNumeric() pgtype.Numeric {
	if !h.DiscountSet {
		return pgtype.Numeric{}
	}
	return decimalToNumeric(h.Discount)
}

// CreateOrder validates, prices and stores an order. WhatsApp orders also get
// a payment link; if the gateway fails the order is removed again.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderDetail, error) {
	h, err := s.validateHeader(req.Outlet, req.Customer, req.Location, req.OrderDate, req.DeliveryDate, req.Discount, req.OngkirPlan, req.SelfPickup)
	if err != nil {
		return nil, err
	}
	items, err := mergeItems(req.Items)
	if err != nil {
		return nil, err
	}

	status := NormalizeStatus(req.Status)

	var (
		detail   OrderDetail
		products map[int64]database.Product
		sum      totals
	)
	err = s.deps.inTx(ctx, s.db, "create_order", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		found, err := store.ListProductsByIDs(ctx, productIDs(items))
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		lines, byID, err := priceItems(items, found)
		if err != nil {
			return err
		}
		totalsNow := computeTotals(lines, h.Discount, ongkirValue(h.Outlet, h.SelfPickup, h.OngkirPlan))

		// A free WhatsApp order has nothing to collect.
		initial := status
		if h.Outlet == enum.OutletWhatsApp {
			initial = enum.OrderStatusNotPaid
			if totalsNow.Total == 0 {
				initial = enum.OrderStatusPaid
			}
		}

		order, err := store.CreateOrder(ctx, database.CreateOrderParams{
			Outlet:       h.Outlet,
			Customer:     h.Customer,
			Status:       initial,
			Location:     h.Location,
			OrderDate:    h.OrderDate,
			DeliveryDate: h.DeliveryDate,
			Discount:     h.discountNumeric(),
			TotalAmount:  totalsNow.Total,
			OngkirPlan:   int8OrNull(h.OngkirPlan),
			SelfPickup:   h.SelfPickup,
		})
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		created, err := createItems(ctx, store, order.ID, lines)
		if err != nil {
			return err
		}

		detail = OrderDetail{Order: order, Items: created}
		products = byID
		sum = totalsNow
		return nil
	})
	if err != nil {
		return nil, err
	}

	if detail.Order.Outlet == enum.OutletWhatsApp && detail.Order.TotalAmount > 0 {
		order, err := s.attachPayment(ctx, detail.Order, detail.Items, products, sum)
		if err != nil {
			s.compensateCreate(ctx, detail.Order.ID, err)
			return nil, fmt.Errorf("%w: %w", ErrPaymentGateway, err)
		}
		detail.Order = order
	}

	s.deps.publish(ctx, events.OrderCreated, detail.Order.Location, orderKey(detail.Order.ID), orderPayload(detail.Order, detail.Items))
	return &detail, nil
}

func createItems(ctx context.Context, store OrderStore, orderID int64, lines []line) ([]database.OrderItem, error) {
	created := make([]database.OrderItem, 0, len(lines))
	for i, l := range lines {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:   orderID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
		if err != nil {
			return nil, fmt.Errorf("item[%d]: create order item: %w", i, err)
		}
		created = append(created, item)
	}
	return created, nil
}

// compensateCreate removes an order whose payment link could not be created.
// A failure here is logged next to the original error; the caller still
// reports the gateway failure.
func (s *OrderService) compensateCreate(ctx context.Context, orderID int64, cause error) {
	err := s.deps.inTx(ctx, s.db, "create_order_compensate", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)
		if err := store.DeleteDeliveryItemsByOrder(ctx, orderID); err != nil {
			return fmt.Errorf("delete delivery items: %w", err)
		}
		if err := store.DeleteDeliveriesByOrder(ctx, orderID); err != nil {
			return fmt.Errorf("delete deliveries: %w", err)
		}
		if err := store.DeleteOrderItemsByOrder(ctx, orderID); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		if err := store.DeleteOrder(ctx, orderID); err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
	if err != nil {
		logCtx := s.deps.Logger.WithFields(ctx, map[string]any{
			"order_id":      orderID,
			"gateway_error": cause.Error(),
		})
		s.deps.Logger.Error(logCtx, "order.compensation_failed", err)
	}
}

// UpdateOrder edits an order. Once a delivery exists the item set and the
// location are frozen and only header fields may change.
func (s *OrderService) UpdateOrder(ctx context.Context, id int64, req UpdateOrderRequest) (*OrderDetail, error) {
	var (
		items []ItemInput
		err   error
	)
	if req.Items != nil {
		if items, err = mergeItems(req.Items); err != nil {
			return nil, err
		}
	}

	var (
		detail        OrderDetail
		products      map[int64]database.Product
		sum           totals
		before, after regenState
	)
	err = s.deps.inTx(ctx, s.db, "update_order", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		current, err := store.GetOrderForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		currentItems, err := store.ListOrderItemsByOrder(ctx, id)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}
		deliveries, err := store.ListDeliveriesByOrder(ctx, id)
		if err != nil {
			return fmt.Errorf("list deliveries: %w", err)
		}

		outlet := current.Outlet
		if strings.TrimSpace(req.Outlet) != "" {
			canon, ok := enum.CanonicalOutlet(req.Outlet)
			if !ok {
				return fmt.Errorf("%q: %w", req.Outlet, ErrInvalidOutlet)
			}
			if canon != current.Outlet {
				return ErrOutletImmutable
			}
		}
		location := req.Location
		if strings.TrimSpace(location) == "" {
			location = current.Location
		}
		orderDate := req.OrderDate
		if orderDate.IsZero() {
			orderDate = current.OrderDate
		}
		customer := current.Customer.String
		if req.Customer != nil {
			customer = *req.Customer
		}
		deliveryDate := req.DeliveryDate
		if deliveryDate == nil && !req.ClearDeliveryDate && current.DeliveryDate.Valid {
			deliveryDate = &current.DeliveryDate.Time
		}
		discount := req.Discount
		if discount == nil && current.Discount.Valid {
			d := numericToDecimal(current.Discount)
			discount = &d
		}
		if discount != nil && discount.IsZero() {
			discount = nil
		}
		ongkirPlan := req.OngkirPlan
		if ongkirPlan == nil {
			ongkirPlan = int8Value(current.OngkirPlan)
		}
		selfPickup := current.SelfPickup
		if req.SelfPickup != nil {
			selfPickup = *req.SelfPickup
		}
		h, err := s.validateHeader(outlet, customer, location, orderDate, deliveryDate, discount, ongkirPlan, selfPickup)
		if err != nil {
			return err
		}

		status := current.Status
		if strings.TrimSpace(req.Status) != "" {
			status = NormalizeStatus(req.Status)
		}

		before = regenState{
			Outlet:        current.Outlet,
			Status:        current.Status,
			HasDeliveries: len(deliveries) > 0,
			Signature:     paymentSignature(linesFromItems(currentItems), current.TotalAmount, ongkirValue(current.Outlet, current.SelfPickup, int8Value(current.OngkirPlan))),
		}

		var (
			lines     []line
			byID      map[int64]database.Product
			nextItems = currentItems
		)
		switch {
		case len(deliveries) > 0:
			if items != nil && !sameMultiset(items, currentItems) {
				return ErrItemsFrozen
			}
			if h.Location != current.Location {
				return ErrLocationFrozen
			}
			lines = linesFromItems(currentItems)
		case items != nil:
			found, err := store.ListProductsByIDs(ctx, productIDs(items))
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			if lines, byID, err = priceItems(items, found); err != nil {
				return err
			}
			if err := store.DeleteOrderItemsByOrder(ctx, id); err != nil {
				return fmt.Errorf("delete order items: %w", err)
			}
			if nextItems, err = createItems(ctx, store, id, lines); err != nil {
				return err
			}
		default:
			lines = linesFromItems(currentItems)
		}

		if byID == nil {
			found, err := store.ListProductsByIDs(ctx, lineProductIDs(lines))
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}
			byID = make(map[int64]database.Product, len(found))
			for _, p := range found {
				byID[p.ID] = p
			}
		}

		ongkir := ongkirValue(h.Outlet, h.SelfPickup, h.OngkirPlan)
		totalsNow := computeTotals(lines, h.Discount, ongkir)

		order, err := store.UpdateOrder(ctx, database.UpdateOrderParams{
			ID:           id,
			Customer:     h.Customer,
			Status:       status,
			Location:     h.Location,
			OrderDate:    h.OrderDate,
			DeliveryDate: h.DeliveryDate,
			Discount:     h.discountNumeric(),
			TotalAmount:  totalsNow.Total,
			OngkirPlan:   int8OrNull(h.OngkirPlan),
			SelfPickup:   h.SelfPickup,
		})
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		after = regenState{
			Outlet:        order.Outlet,
			Status:        order.Status,
			HasDeliveries: len(deliveries) > 0,
			Signature:     paymentSignature(lines, order.TotalAmount, ongkir),
		}
		detail = OrderDetail{Order: order, Items: nextItems, Deliveries: deliveries}
		products = byID
		sum = totalsNow
		return nil
	})
	if err != nil {
		return nil, err
	}

	var regenErr error
	if shouldRegenerate(before, after) {
		order, err := s.regeneratePayment(ctx, detail.Order, detail.Items, products, sum)
		if err != nil {
			regenErr = fmt.Errorf("%w: %w", ErrPaymentRegeneration, err)
			logCtx := s.deps.Logger.WithField(ctx, "order_id", id)
			s.deps.Logger.Warn(s.deps.Logger.WithField(logCtx, "error", err.Error()), "order.payment_regeneration_failed")
		} else {
			detail.Order = order
		}
	}

	s.deps.publish(ctx, events.OrderUpdated, detail.Order.Location, orderKey(id), orderPayload(detail.Order, detail.Items))
	return &detail, regenErr
}

func lineProductIDs(lines []line) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

// DeleteOrder removes an order that has no deliveries.
func (s *OrderService) DeleteOrder(ctx context.Context, id int64) error {
	var deleted database.Order
	err := s.deps.inTx(ctx, s.db, "delete_order", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		order, err := store.GetOrderForUpdate(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		deliveries, err := store.ListDeliveriesByOrder(ctx, id)
		if err != nil {
			return fmt.Errorf("list deliveries: %w", err)
		}
		if len(deliveries) > 0 {
			return ErrOrderHasDeliveries
		}
		if err := store.DeleteOrderItemsByOrder(ctx, id); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		if err := store.DeleteOrder(ctx, id); err != nil {
			return apperror.FromPg(fmt.Errorf("delete order: %w", err), "order is still referenced")
		}
		deleted = order
		return nil
	})
	if err != nil {
		return err
	}

	s.deps.publish(ctx, events.OrderDeleted, deleted.Location, orderKey(id), orderPayload(deleted, nil))
	return nil
}

// MarkPaidManually records an off-gateway payment (cash, transfer) and
// detaches the payment link.
func (s *OrderService) MarkPaidManually(ctx context.Context, id int64) (*OrderDetail, error) {
	var detail OrderDetail
	err := s.deps.inTx(ctx, s.db, "mark_paid_manual", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		if _, err := store.GetOrderForUpdate(ctx, id); err != nil {
			if isNoRows(err) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		order, err := store.MarkOrderPaidManual(ctx, id)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		items, err := store.ListOrderItemsByOrder(ctx, id)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}
		detail = OrderDetail{Order: order, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deps.publish(ctx, events.OrderPaid, detail.Order.Location, orderKey(id), orderPayload(detail.Order, detail.Items))
	return &detail, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*OrderDetail, error) {
	var detail OrderDetail
	err := s.deps.Retry.Do(ctx, "get_order", func(ctx context.Context) error {
		store := s.newStore(s.db)

		order, err := store.GetOrder(ctx, id)
		if err != nil {
			if isNoRows(err) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		items, err := store.ListOrderItemsByOrder(ctx, id)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}
		deliveries, err := store.ListDeliveriesByOrder(ctx, id)
		if err != nil {
			return fmt.Errorf("list deliveries: %w", err)
		}
		detail = OrderDetail{Order: order, Items: items, Deliveries: deliveries}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f OrderFilter) ([]OrderDetail, error) {
	limit, offset := pageBounds(f.Limit, f.Offset)
	params := database.ListOrdersParams{
		Search: textOrNull(f.Search),
		Limit:  limit,
		Offset: offset,
	}
	if strings.TrimSpace(f.Outlet) != "" {
		canon, ok := enum.CanonicalOutlet(f.Outlet)
		if !ok {
			return nil, fmt.Errorf("%q: %w", f.Outlet, ErrInvalidOutlet)
		}
		params.Outlet = textOrNull(canon)
	}
	if strings.TrimSpace(f.Location) != "" {
		loc, ok := canonicalLocation(s.locations, f.Location)
		if !ok {
			return nil, fmt.Errorf("%q: %w", f.Location, ErrInvalidLocation)
		}
		params.Location = textOrNull(loc)
	}
	if strings.TrimSpace(f.Status) != "" {
		params.Status = textOrNull(NormalizeStatus(f.Status))
	}
	if f.From != nil {
		params.FromDate = pgtype.Timestamptz{Time: *f.From, Valid: true}
	}
	if f.To != nil {
		params.ToDate = pgtype.Timestamptz{Time: *f.To, Valid: true}
	}

	var out []OrderDetail
	err := s.deps.Retry.Do(ctx, "list_orders", func(ctx context.Context) error {
		store := s.newStore(s.db)

		orders, err := store.ListOrders(ctx, params)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		ids := make([]int64, 0, len(orders))
		for _, o := range orders {
			ids = append(ids, o.ID)
		}
		items, err := store.ListOrderItemsByOrders(ctx, ids)
		if err != nil {
			return fmt.Errorf("list order items: %w", err)
		}
		byOrder := make(map[int64][]database.OrderItem, len(orders))
		for _, it := range items {
			byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
		}

		out = make([]OrderDetail, 0, len(orders))
		for _, o := range orders {
			lines := byOrder[o.ID]
			if lines == nil {
				lines = []database.OrderItem{}
			}
			out = append(out, OrderDetail{Order: o, Items: lines})
		}
		return nil
	})
	return out, err
}

// --- payment link ---

func (s *OrderService) transactionRequest(order database.Order, items []database.OrderItem, products map[int64]database.Product, sum totals, gatewayOrderID string) payment.TransactionRequest {
	lines := make([]payment.Item, 0, len(items))
	for _, it := range items {
		name := products[it.ProductID].Name
		if name == "" {
			name = "Product " + strconv.FormatInt(it.ProductID, 10)
		}
		lines = append(lines, payment.Item{
			ID:       strconv.FormatInt(it.ProductID, 10),
			Name:     name,
			Price:    it.Price,
			Quantity: it.Quantity,
		})
	}
	customer := "Customer"
	if order.Customer.Valid && order.Customer.String != "" {
		customer = order.Customer.String
	}
	return payment.TransactionRequest{
		OrderID:       gatewayOrderID,
		GrossAmount:   order.TotalAmount,
		Customer:      customer,
		Items:         lines,
		Discount:      sum.DiscountAmount(),
		Shipping:      sum.Ongkir,
		ExpiryMinutes: s.expiryMinutes,
	}
}

// attachPayment opens a gateway transaction and stores its reference. The
// gateway call itself is never retried.
func (s *OrderService) attachPayment(ctx context.Context, order database.Order, items []database.OrderItem, products map[int64]database.Product, sum totals) (database.Order, error) {
	if s.gateway == nil {
		return order, apperror.New(apperror.CodeExternalDependency, "payment gateway not configured")
	}
	gatewayOrderID := payment.NewGatewayOrderID(order.Outlet, order.ID, s.deps.Now())
	txn, err := s.gateway.CreateTransaction(ctx, s.transactionRequest(order, items, products, sum, gatewayOrderID))
	if err != nil {
		return order, err
	}

	var updated database.Order
	err = s.deps.Retry.Do(ctx, "set_payment_reference", func(ctx context.Context) error {
		o, err := s.newStore(s.db).SetOrderPaymentReference(ctx, database.SetOrderPaymentReferenceParams{
			ID:             order.ID,
			PaymentLink:    textOrNull(txn.RedirectURL),
			PaymentOrderID: textOrNull(gatewayOrderID),
			PaymentToken:   textOrNull(txn.Token),
		})
		if err != nil {
			return fmt.Errorf("set payment reference: %w", err)
		}
		updated = o
		return nil
	})
	if err != nil {
		return order, err
	}
	return updated, nil
}

func orderKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func orderPayload(o database.Order, items []database.OrderItem) events.OrderPayload {
	p := events.OrderPayload{
		OrderID:     o.ID,
		Outlet:      o.Outlet,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		ActPayout:   int8Value(o.ActPayout),
	}
	if o.Customer.Valid {
		p.Customer = o.Customer.String
	}
	if o.PaymentLink.Valid {
		p.PaymentLink = o.PaymentLink.String
	}
	for _, it := range items {
		p.Items = append(p.Items, events.OrderItemPayload{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return p
}
