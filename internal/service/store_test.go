package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/events"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/payment"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/retry"
)

// --- Mock implementations ---

// mockTx implements pgx.Tx with only the methods we need.
// The unused methods panic so we catch accidental calls.
// Rollback without a prior Commit restores the store snapshot taken at Begin.
type mockTx struct {
	store     *memStore
	snapshot  memState
	committed bool
	commitErr error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.committed = true
	return nil
}
func (m *mockTx) Rollback(ctx context.Context) error {
	if !m.committed {
		m.store.state = m.snapshot
		m.committed = true
	}
	return nil
}
func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (m *mockTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (m *mockTx) Conn() *pgx.Conn { panic("not implemented") }

// mockDB implements DB. Queries go through the store factory, never the pool.
type mockDB struct {
	store    *memStore
	beginErr error
	begins   int
}

func (m *mockDB) Begin(ctx context.Context) (pgx.Tx, error) {
	m.begins++
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return &mockTx{store: m.store, snapshot: m.store.state.clone()}, nil
}
func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}

// --- In-memory store ---

type memState struct {
	nextID        int64
	products      map[int64]database.Product
	orders        map[int64]database.Order
	orderItems    []database.OrderItem
	inventory     map[string]database.InventoryItem
	deliveries    map[int64]database.Delivery
	deliveryItems []database.DeliveryItem
}

func (s memState) clone() memState {
	c := memState{
		nextID:        s.nextID,
		products:      make(map[int64]database.Product, len(s.products)),
		orders:        make(map[int64]database.Order, len(s.orders)),
		orderItems:    append([]database.OrderItem(nil), s.orderItems...),
		inventory:     make(map[string]database.InventoryItem, len(s.inventory)),
		deliveries:    make(map[int64]database.Delivery, len(s.deliveries)),
		deliveryItems: append([]database.DeliveryItem(nil), s.deliveryItems...),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	for k, v := range s.deliveries {
		c.deliveries[k] = v
	}
	return c
}

// memStore implements every store interface of this package against plain
// maps. failOn injects an error for the named method.
type memStore struct {
	state  memState
	failOn map[string]error
	now    time.Time

	// lostRace makes AllocateInventoryItem report zero rows for a barcode.
	lostRace map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		state: memState{
			products:   map[int64]database.Product{},
			orders:     map[int64]database.Order{},
			inventory:  map[string]database.InventoryItem{},
			deliveries: map[int64]database.Delivery{},
		},
		failOn:   map[string]error{},
		now:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		lostRace: map[string]bool{},
	}
}

func (m *memStore) fail(method string) error {
	return m.failOn[method]
}

func (m *memStore) id() int64 {
	m.state.nextID++
	return m.state.nextID
}

var (
	errUnique = &pgconn.PgError{Code: "23505", ConstraintName: "unique"}
	errFK     = &pgconn.PgError{Code: "23503", ConstraintName: "fk"}
)

// ── Seed helpers ──

func (m *memStore) addProduct(code, name string, price int64) database.Product {
	p := database.Product{ID: m.id(), Code: code, Name: name, Price: price, CreatedAt: m.now}
	m.state.products[p.ID] = p
	return p
}

func (m *memStore) addStock(barcode string, productID int64, location, status string) {
	m.state.inventory[barcode] = database.InventoryItem{
		Barcode: barcode, ProductID: productID, Location: location, Status: status,
		CreatedAt: m.now, UpdatedAt: m.now,
	}
}

// ── Products ──

func (m *memStore) CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error) {
	if err := m.fail("CreateProduct"); err != nil {
		return database.Product{}, err
	}
	for _, p := range m.state.products {
		if p.Code == arg.Code {
			return database.Product{}, errUnique
		}
	}
	return m.addProduct(arg.Code, arg.Name, arg.Price), nil
}

func (m *memStore) GetProductByCode(ctx context.Context, code string) (database.Product, error) {
	for _, p := range m.state.products {
		if p.Code == code {
			return p, nil
		}
	}
	return database.Product{}, pgx.ErrNoRows
}

func (m *memStore) ListProducts(ctx context.Context) ([]database.Product, error) {
	out := make([]database.Product, 0, len(m.state.products))
	for _, p := range m.state.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *memStore) ListProductsByIDs(ctx context.Context, ids []int64) ([]database.Product, error) {
	var out []database.Product
	for _, id := range ids {
		if p, ok := m.state.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// ── Inventory ──

func (m *memStore) GetInventoryItem(ctx context.Context, barcode string) (database.InventoryItem, error) {
	if it, ok := m.state.inventory[barcode]; ok {
		return it, nil
	}
	return database.InventoryItem{}, pgx.ErrNoRows
}

func (m *memStore) ListInventoryItemsByBarcodes(ctx context.Context, barcodes []string) ([]database.InventoryItem, error) {
	var out []database.InventoryItem
	for _, b := range barcodes {
		if it, ok := m.state.inventory[b]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) CreateInventoryItem(ctx context.Context, arg database.CreateInventoryItemParams) (database.InventoryItem, error) {
	if _, ok := m.state.inventory[arg.Barcode]; ok {
		return database.InventoryItem{}, errUnique
	}
	m.addStock(arg.Barcode, arg.ProductID, arg.Location, enum.InventoryStatusReady)
	return m.state.inventory[arg.Barcode], nil
}

func (m *memStore) MoveInventoryItem(ctx context.Context, arg database.MoveInventoryItemParams) (database.InventoryItem, error) {
	it, ok := m.state.inventory[arg.Barcode]
	if !ok {
		return database.InventoryItem{}, pgx.ErrNoRows
	}
	it.Location = arg.Location
	m.state.inventory[arg.Barcode] = it
	return it, nil
}

func (m *memStore) AllocateInventoryItem(ctx context.Context, arg database.AllocateInventoryItemParams) (int64, error) {
	if err := m.fail("AllocateInventoryItem"); err != nil {
		return 0, err
	}
	it, ok := m.state.inventory[arg.Barcode]
	if !ok || m.lostRace[arg.Barcode] || it.Location != arg.Location || it.Status != enum.InventoryStatusReady {
		return 0, nil
	}
	it.Status = enum.InventoryStatusSold
	m.state.inventory[arg.Barcode] = it
	return 1, nil
}

func (m *memStore) ReleaseInventoryItems(ctx context.Context, barcodes []string) (int64, error) {
	var n int64
	for _, b := range barcodes {
		if it, ok := m.state.inventory[b]; ok {
			it.Status = enum.InventoryStatusReady
			m.state.inventory[b] = it
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteInventoryItem(ctx context.Context, barcode string) (int64, error) {
	if _, ok := m.state.inventory[barcode]; !ok {
		return 0, nil
	}
	for _, di := range m.state.deliveryItems {
		if di.Barcode == barcode {
			return 0, errFK
		}
	}
	delete(m.state.inventory, barcode)
	return 1, nil
}

func matchLocation(filter pgtype.Text, loc string) bool {
	return !filter.Valid || filter.String == loc
}

func (m *memStore) CountReadyStock(ctx context.Context, location pgtype.Text) ([]database.CountReadyStockRow, error) {
	counts := map[stockKey]int64{}
	for _, it := range m.state.inventory {
		if it.Status == enum.InventoryStatusReady && matchLocation(location, it.Location) {
			counts[stockKey{it.ProductID, it.Location}]++
		}
	}
	var out []database.CountReadyStockRow
	for k, n := range counts {
		p := m.state.products[k.productID]
		out = append(out, database.CountReadyStockRow{ProductID: k.productID, Code: p.Code, Name: p.Name, Location: k.location, Total: n})
	}
	return out, nil
}

func (m *memStore) hasDelivered(orderID int64) bool {
	for _, d := range m.state.deliveries {
		if d.OrderID == orderID && d.Status == enum.DeliveryStatusDelivered {
			return true
		}
	}
	return false
}

func (m *memStore) CountReservedStock(ctx context.Context, location pgtype.Text) ([]database.CountReservedStockRow, error) {
	need := map[stockKey]int64{}
	for _, o := range m.state.orders {
		if m.hasDelivered(o.ID) || !matchLocation(location, o.Location) {
			continue
		}
		for _, it := range m.state.orderItems {
			if it.OrderID == o.ID {
				need[stockKey{it.ProductID, o.Location}] += int64(it.Quantity)
			}
		}
		for _, di := range m.state.deliveryItems {
			if m.state.deliveries[di.DeliveryID].OrderID == o.ID {
				need[stockKey{di.ProductID, o.Location}]--
			}
		}
	}
	var out []database.CountReservedStockRow
	for k, n := range need {
		if n < 0 {
			n = 0
		}
		out = append(out, database.CountReservedStockRow{ProductID: k.productID, Location: k.location, Reserved: n})
	}
	return out, nil
}

// ── Orders ──

func (m *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if err := m.fail("CreateOrder"); err != nil {
		return database.Order{}, err
	}
	o := database.Order{
		ID:           m.id(),
		Outlet:       arg.Outlet,
		Customer:     arg.Customer,
		Status:       arg.Status,
		Location:     arg.Location,
		OrderDate:    arg.OrderDate,
		DeliveryDate: arg.DeliveryDate,
		Discount:     arg.Discount,
		TotalAmount:  arg.TotalAmount,
		OngkirPlan:   arg.OngkirPlan,
		SelfPickup:   arg.SelfPickup,
		CreatedAt:    m.now,
		UpdatedAt:    m.now,
	}
	m.state.orders[o.ID] = o
	return o, nil
}

func (m *memStore) GetOrder(ctx context.Context, id int64) (database.Order, error) {
	if o, ok := m.state.orders[id]; ok {
		return o, nil
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error) {
	return m.GetOrder(ctx, id)
}

func (m *memStore) GetOrderByPaymentOrderID(ctx context.Context, paymentOrderID string) (database.Order, error) {
	for _, o := range m.state.orders {
		if o.PaymentOrderID.Valid && o.PaymentOrderID.String == paymentOrderID {
			return o, nil
		}
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *memStore) UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error) {
	o, ok := m.state.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Customer = arg.Customer
	o.Status = arg.Status
	o.Location = arg.Location
	o.OrderDate = arg.OrderDate
	o.DeliveryDate = arg.DeliveryDate
	o.Discount = arg.Discount
	o.TotalAmount = arg.TotalAmount
	o.OngkirPlan = arg.OngkirPlan
	o.SelfPickup = arg.SelfPickup
	m.state.orders[o.ID] = o
	return o, nil
}

func (m *memStore) SetOrderPaymentReference(ctx context.Context, arg database.SetOrderPaymentReferenceParams) (database.Order, error) {
	if err := m.fail("SetOrderPaymentReference"); err != nil {
		return database.Order{}, err
	}
	o, ok := m.state.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.PaymentLink = arg.PaymentLink
	o.PaymentOrderID = arg.PaymentOrderID
	o.PaymentToken = arg.PaymentToken
	m.state.orders[o.ID] = o
	return o, nil
}

func (m *memStore) MarkOrderPaid(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error) {
	o, ok := m.state.orders[arg.ID]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = enum.OrderStatusPaid
	o.ActPayout = arg.ActPayout
	o.PaymentTransactionID = arg.PaymentTransactionID
	m.state.orders[o.ID] = o
	return o, nil
}

func (m *memStore) MarkOrderPaidManual(ctx context.Context, id int64) (database.Order, error) {
	o, ok := m.state.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	o.Status = enum.OrderStatusPaid
	if !o.ActPayout.Valid {
		o.ActPayout = pgtype.Int8{Int64: o.TotalAmount, Valid: true}
	}
	o.PaymentLink = pgtype.Text{}
	o.PaymentOrderID = pgtype.Text{}
	o.PaymentToken = pgtype.Text{}
	o.PaymentTransactionID = pgtype.Text{}
	m.state.orders[id] = o
	return o, nil
}

func (m *memStore) DeleteOrder(ctx context.Context, id int64) error {
	if err := m.fail("DeleteOrder"); err != nil {
		return err
	}
	delete(m.state.orders, id)
	return nil
}

func (m *memStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	var out []database.Order
	for _, o := range m.state.orders {
		if arg.Outlet.Valid && o.Outlet != arg.Outlet.String {
			continue
		}
		if !matchLocation(arg.Location, o.Location) {
			continue
		}
		if arg.Status.Valid && o.Status != arg.Status.String {
			continue
		}
		if arg.Search.Valid && !strings.Contains(strings.ToLower(o.Customer.String), strings.ToLower(arg.Search.String)) &&
			strconv.FormatInt(o.ID, 10) != arg.Search.String {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) ListPendingOrders(ctx context.Context, arg database.ListPendingOrdersParams) ([]database.Order, error) {
	var out []database.Order
	for _, o := range m.state.orders {
		if m.hasDelivered(o.ID) || !matchLocation(arg.Location, o.Location) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── Order items ──

func (m *memStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	it := database.OrderItem{ID: m.id(), OrderID: arg.OrderID, ProductID: arg.ProductID, Quantity: arg.Quantity, Price: arg.Price}
	m.state.orderItems = append(m.state.orderItems, it)
	return it, nil
}

func (m *memStore) ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error) {
	return m.ListOrderItemsByOrders(ctx, []int64{orderID})
}

func (m *memStore) ListOrderItemsByOrders(ctx context.Context, orderIDs []int64) ([]database.OrderItem, error) {
	want := map[int64]bool{}
	for _, id := range orderIDs {
		want[id] = true
	}
	var out []database.OrderItem
	for _, it := range m.state.orderItems {
		if want[it.OrderID] {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) DeleteOrderItemsByOrder(ctx context.Context, orderID int64) error {
	kept := m.state.orderItems[:0:0]
	for _, it := range m.state.orderItems {
		if it.OrderID != orderID {
			kept = append(kept, it)
		}
	}
	m.state.orderItems = kept
	return nil
}

// ── Deliveries ──

func (m *memStore) CreateDelivery(ctx context.Context, arg database.CreateDeliveryParams) (database.Delivery, error) {
	d := database.Delivery{
		ID: m.id(), OrderID: arg.OrderID, Status: arg.Status, DeliveryDate: arg.DeliveryDate,
		OngkirPlan: arg.OngkirPlan, OngkirActual: arg.OngkirActual, CreatedAt: m.now,
	}
	m.state.deliveries[d.ID] = d
	return d, nil
}

func (m *memStore) GetDelivery(ctx context.Context, id int64) (database.Delivery, error) {
	if d, ok := m.state.deliveries[id]; ok {
		return d, nil
	}
	return database.Delivery{}, pgx.ErrNoRows
}

func (m *memStore) ListDeliveriesByOrder(ctx context.Context, orderID int64) ([]database.Delivery, error) {
	var out []database.Delivery
	for _, d := range m.state.deliveries {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) MarkDeliveryDelivered(ctx context.Context, id int64) (database.Delivery, error) {
	d, ok := m.state.deliveries[id]
	if !ok {
		return database.Delivery{}, pgx.ErrNoRows
	}
	d.Status = enum.DeliveryStatusDelivered
	m.state.deliveries[id] = d
	return d, nil
}

func (m *memStore) DeleteDelivery(ctx context.Context, id int64) error {
	delete(m.state.deliveries, id)
	return nil
}

func (m *memStore) DeleteDeliveriesByOrder(ctx context.Context, orderID int64) error {
	for id, d := range m.state.deliveries {
		if d.OrderID == orderID {
			delete(m.state.deliveries, id)
		}
	}
	return nil
}

func (m *memStore) CreateDeliveryItem(ctx context.Context, arg database.CreateDeliveryItemParams) (database.DeliveryItem, error) {
	for _, di := range m.state.deliveryItems {
		if di.Barcode == arg.Barcode {
			return database.DeliveryItem{}, errUnique
		}
	}
	di := database.DeliveryItem{ID: m.id(), DeliveryID: arg.DeliveryID, ProductID: arg.ProductID, Barcode: arg.Barcode}
	m.state.deliveryItems = append(m.state.deliveryItems, di)
	return di, nil
}

func (m *memStore) ListDeliveryItemsByDelivery(ctx context.Context, deliveryID int64) ([]database.DeliveryItem, error) {
	var out []database.DeliveryItem
	for _, di := range m.state.deliveryItems {
		if di.DeliveryID == deliveryID {
			out = append(out, di)
		}
	}
	return out, nil
}

func (m *memStore) ListDeliveryItemsByOrder(ctx context.Context, orderID int64) ([]database.DeliveryItem, error) {
	var out []database.DeliveryItem
	for _, di := range m.state.deliveryItems {
		if d, ok := m.state.deliveries[di.DeliveryID]; ok && d.OrderID == orderID {
			out = append(out, di)
		}
	}
	return out, nil
}

func (m *memStore) ListDeliveryItemsByOrders(ctx context.Context, orderIDs []int64) ([]database.ListDeliveryItemsByOrdersRow, error) {
	want := map[int64]bool{}
	for _, id := range orderIDs {
		want[id] = true
	}
	var out []database.ListDeliveryItemsByOrdersRow
	for _, di := range m.state.deliveryItems {
		d, ok := m.state.deliveries[di.DeliveryID]
		if !ok || !want[d.OrderID] {
			continue
		}
		out = append(out, database.ListDeliveryItemsByOrdersRow{
			ID: di.ID, DeliveryID: di.DeliveryID, ProductID: di.ProductID, Barcode: di.Barcode, OrderID: d.OrderID,
		})
	}
	return out, nil
}

func (m *memStore) DeleteDeliveryItemsByDelivery(ctx context.Context, deliveryID int64) error {
	kept := m.state.deliveryItems[:0:0]
	for _, di := range m.state.deliveryItems {
		if di.DeliveryID != deliveryID {
			kept = append(kept, di)
		}
	}
	m.state.deliveryItems = kept
	return nil
}

func (m *memStore) DeleteDeliveryItemsByOrder(ctx context.Context, orderID int64) error {
	kept := m.state.deliveryItems[:0:0]
	for _, di := range m.state.deliveryItems {
		if m.state.deliveries[di.DeliveryID].OrderID != orderID {
			kept = append(kept, di)
		}
	}
	m.state.deliveryItems = kept
	return nil
}

// --- Collaborators ---

type mockGateway struct {
	calls []payment.TransactionRequest
	err   error
}

func (g *mockGateway) CreateTransaction(ctx context.Context, req payment.TransactionRequest) (*payment.Transaction, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	n := strconv.Itoa(len(g.calls))
	return &payment.Transaction{
		Token:       "tok-" + n,
		RedirectURL: "https://pay.example/" + n,
		OrderID:     req.OrderID,
	}, nil
}

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

var testLocations = []string{"Bandung", "Jakarta"}

type testEnv struct {
	store *memStore
	db    *mockDB
	pub   *recordingPublisher
	deps  Deps
}

func newTestEnv() *testEnv {
	store := newMemStore()
	pub := &recordingPublisher{}
	clock := store.now
	return &testEnv{
		store: store,
		db:    &mockDB{store: store},
		pub:   pub,
		deps: Deps{
			Publisher: pub,
			Retry:     retry.Policy{MaxRetries: 0, Backoff: time.Millisecond},
			Now: func() time.Time {
				clock = clock.Add(time.Second)
				return clock
			},
		},
	}
}

func (e *testEnv) orderService(gw Gateway) *OrderService {
	newStore := func(db database.DBTX) OrderStore { return e.store }
	return NewOrderService(e.db, newStore, gw, OrderServiceConfig{Locations: testLocations, ExpiryMinutes: 60}, e.deps)
}

func (e *testEnv) inventoryService() *InventoryService {
	newStore := func(db database.DBTX) InventoryStore { return e.store }
	return NewInventoryService(e.db, newStore, testLocations, e.deps)
}

func (e *testEnv) deliveryService() *DeliveryService {
	newStore := func(db database.DBTX) DeliveryStore { return e.store }
	return NewDeliveryService(e.db, newStore, testLocations, e.deps)
}

func (e *testEnv) webhookService(serverKey string) *WebhookService {
	newStore := func(db database.DBTX) WebhookStore { return e.store }
	return NewWebhookService(e.db, newStore, nil, serverKey, e.deps)
}

func (e *testEnv) productService() *ProductService {
	newStore := func(db database.DBTX) ProductStore { return e.store }
	return NewProductService(e.db, newStore, e.deps)
}

var errBoom = errors.New("boom")
