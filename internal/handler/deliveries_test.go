package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/handler"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/service"
)

type mockDeliveryService struct {
	listPendingFn func(ctx context.Context, f service.PendingFilter) ([]service.PendingOrder, error)
	validateFn    func(ctx context.Context, orderID int64, barcodes []string) ([]service.ScanLine, error)
	createFn      func(ctx context.Context, req service.CreateDeliveryRequest) (*service.DeliveryDetail, error)
	deliveredFn   func(ctx context.Context, id int64) (*service.DeliveryDetail, error)
	cancelFn      func(ctx context.Context, id int64) error
	getFn         func(ctx context.Context, id int64) (*service.DeliveryDetail, error)
	listByOrderFn func(ctx context.Context, orderID int64) ([]service.DeliveryDetail, error)
}

func (m *mockDeliveryService) ListPending(ctx context.Context, f service.PendingFilter) ([]service.PendingOrder, error) {
	if m.listPendingFn == nil {
		return nil, errUnexpectedCall
	}
	return m.listPendingFn(ctx, f)
}

func (m *mockDeliveryService) ValidateScan(ctx context.Context, orderID int64, barcodes []string) ([]service.ScanLine, error) {
	if m.validateFn == nil {
		return nil, errUnexpectedCall
	}
	return m.validateFn(ctx, orderID, barcodes)
}

func (m *mockDeliveryService) CreateDelivery(ctx context.Context, req service.CreateDeliveryRequest) (*service.DeliveryDetail, error) {
	if m.createFn == nil {
		return nil, errUnexpectedCall
	}
	return m.createFn(ctx, req)
}

func (m *mockDeliveryService) MarkDelivered(ctx context.Context, id int64) (*service.DeliveryDetail, error) {
	if m.deliveredFn == nil {
		return nil, errUnexpectedCall
	}
	return m.deliveredFn(ctx, id)
}

func (m *mockDeliveryService) CancelDelivery(ctx context.Context, id int64) error {
	if m.cancelFn == nil {
		return errUnexpectedCall
	}
	return m.cancelFn(ctx, id)
}

func (m *mockDeliveryService) GetDelivery(ctx context.Context, id int64) (*service.DeliveryDetail, error) {
	if m.getFn == nil {
		return nil, errUnexpectedCall
	}
	return m.getFn(ctx, id)
}

func (m *mockDeliveryService) ListDeliveriesByOrder(ctx context.Context, orderID int64) ([]service.DeliveryDetail, error) {
	if m.listByOrderFn == nil {
		return nil, errUnexpectedCall
	}
	return m.listByOrderFn(ctx, orderID)
}

// deliveryRouter mounts the order routes too, as the server does, so the
// /orders/pending and /orders/{id}/deliveries patterns are exercised next to
// /orders/{id}.
func deliveryRouter(svc handler.DeliveryServicer, orders handler.OrderServicer) http.Handler {
	return newAuthedRouter(registrars{
		handler.NewOrderHandler(orders, testLogger()),
		handler.NewDeliveryHandler(svc, testLogger()),
	})
}

func sampleDelivery(id, orderID int64, status string, barcodes ...string) *service.DeliveryDetail {
	d := &service.DeliveryDetail{Delivery: database.Delivery{
		ID:           id,
		OrderID:      orderID,
		Status:       status,
		DeliveryDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}}
	for i, b := range barcodes {
		d.Items = append(d.Items, database.DeliveryItem{ID: int64(i + 1), DeliveryID: id, ProductID: 1, Barcode: b})
	}
	return d
}

func TestListPending_StaticRouteWins(t *testing.T) {
	var got service.PendingFilter
	svc := &mockDeliveryService{
		listPendingFn: func(ctx context.Context, f service.PendingFilter) ([]service.PendingOrder, error) {
			got = f
			return []service.PendingOrder{{
				Order: sampleOrder(4, enum.OutletCafe, enum.OrderStatusPaid, 20000).Order,
				Lines: []service.PendingLine{{ProductID: 1, Ordered: 2, Allocated: 1}},
			}}, nil
		},
	}
	router := deliveryRouter(svc, &mockOrderService{})

	rr := doAuthRequest(t, router, http.MethodGet, "/orders/pending?location=Bandung&search=rina&limit=10", nil, staffClaims)
	assertStatus(t, rr, http.StatusOK)

	if got.Location != "Bandung" || got.Search != "rina" || got.Limit != 10 {
		t.Errorf("filter: got %+v", got)
	}
	orders, _ := decodeResponse(t, rr)["orders"].([]interface{})
	if len(orders) != 1 {
		t.Fatalf("orders: got %d, want 1", len(orders))
	}
}

func TestListDeliveriesByOrder(t *testing.T) {
	svc := &mockDeliveryService{
		listByOrderFn: func(ctx context.Context, orderID int64) ([]service.DeliveryDetail, error) {
			if orderID != 4 {
				t.Errorf("order id: got %d", orderID)
			}
			return []service.DeliveryDetail{*sampleDelivery(1, 4, enum.DeliveryStatusDelivered, "B1-CRS-L")}, nil
		},
	}
	router := deliveryRouter(svc, &mockOrderService{})

	rr := doAuthRequest(t, router, http.MethodGet, "/orders/4/deliveries", nil, staffClaims)
	assertStatus(t, rr, http.StatusOK)
	if deliveries, _ := decodeResponse(t, rr)["deliveries"].([]interface{}); len(deliveries) != 1 {
		t.Errorf("deliveries: got %v", deliveries)
	}
}

func TestValidateScan(t *testing.T) {
	svc := &mockDeliveryService{
		validateFn: func(ctx context.Context, orderID int64, barcodes []string) ([]service.ScanLine, error) {
			if len(barcodes) == 2 {
				return nil, service.ErrAllocationExceeded
			}
			return []service.ScanLine{{Barcode: barcodes[0], ProductID: 1}}, nil
		},
	}
	router := deliveryRouter(svc, &mockOrderService{})

	rr := doAuthRequest(t, router, http.MethodPost, "/deliveries/validate",
		map[string]interface{}{"order_id": 4, "barcodes": []string{"B1-CRS-L"}}, staffClaims)
	assertStatus(t, rr, http.StatusOK)
	if resp := decodeResponse(t, rr); resp["valid"] != true {
		t.Errorf("valid: got %v", resp["valid"])
	}

	rr = doAuthRequest(t, router, http.MethodPost, "/deliveries/validate",
		map[string]interface{}{"order_id": 4, "barcodes": []string{"B1-CRS-L", "B2-CRS-L"}}, staffClaims)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = doAuthRequest(t, router, http.MethodPost, "/deliveries/validate",
		map[string]interface{}{"order_id": 4, "barcodes": []string{}}, staffClaims)
	assertStatus(t, rr, http.StatusBadRequest)
	if d := details(t, decodeResponse(t, rr)); d["barcodes"] != "must have at least 1 entries" {
		t.Errorf("barcodes: got %v", d["barcodes"])
	}
}

func TestCreateDelivery_DefaultsDate(t *testing.T) {
	var got service.CreateDeliveryRequest
	svc := &mockDeliveryService{
		createFn: func(ctx context.Context, req service.CreateDeliveryRequest) (*service.DeliveryDetail, error) {
			got = req
			return sampleDelivery(8, req.OrderID, enum.DeliveryStatusDelivered, req.Barcodes...), nil
		},
	}
	router := deliveryRouter(svc, &mockOrderService{})

	before := time.Now()
	rr := doAuthRequest(t, router, http.MethodPost, "/deliveries", map[string]interface{}{
		"order_id":      4,
		"barcodes":      []string{"B1-CRS-L", "B2-CRS-L"},
		"ongkir_plan":   10000,
		"ongkir_actual": 12000,
	}, staffClaims)
	assertStatus(t, rr, http.StatusCreated)

	if got.DeliveryDate.Before(before) {
		t.Errorf("delivery date: got %v, want now", got.DeliveryDate)
	}
	if got.OngkirPlan == nil || *got.OngkirPlan != 10000 || got.OngkirActual == nil || *got.OngkirActual != 12000 {
		t.Errorf("ongkir: got %v / %v", got.OngkirPlan, got.OngkirActual)
	}
	items, _ := decodeResponse(t, rr)["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("items: got %d, want 2", len(items))
	}
}

func TestCreateDelivery_Errors(t *testing.T) {
	tests := []struct {
		name string
		body map[string]interface{}
		err  error
		want int
		code string
	}{
		{
			name: "bad status",
			body: map[string]interface{}{"order_id": 4, "barcodes": []string{"B1"}, "status": "shipped"},
			want: http.StatusBadRequest,
			code: "VALIDATION_ERROR",
		},
		{
			name: "lost race",
			body: map[string]interface{}{"order_id": 4, "barcodes": []string{"B1-CRS-L"}},
			err:  service.ErrAllocationConflict,
			want: http.StatusConflict,
			code: "CONFLICT",
		},
		{
			name: "not ready",
			body: map[string]interface{}{"order_id": 4, "barcodes": []string{"S1-CRS-L"}},
			err:  service.ErrBarcodeNotReady,
			want: http.StatusBadRequest,
			code: "STATE_ERROR",
		},
		{
			name: "unknown order",
			body: map[string]interface{}{"order_id": 404, "barcodes": []string{"B1-CRS-L"}},
			err:  service.ErrOrderNotFound,
			want: http.StatusNotFound,
			code: "NOT_FOUND",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockDeliveryService{
				createFn: func(ctx context.Context, req service.CreateDeliveryRequest) (*service.DeliveryDetail, error) {
					return nil, tt.err
				},
			}
			rr := doAuthRequest(t, deliveryRouter(svc, &mockOrderService{}), http.MethodPost, "/deliveries", tt.body, staffClaims)
			assertStatus(t, rr, tt.want)
			assertErrorCode(t, decodeResponse(t, rr), tt.code)
		})
	}
}

func TestMarkDeliveredAndCancel(t *testing.T) {
	cancelled := int64(0)
	svc := &mockDeliveryService{
		deliveredFn: func(ctx context.Context, id int64) (*service.DeliveryDetail, error) {
			if id == 2 {
				return nil, service.ErrAlreadyDelivered
			}
			return sampleDelivery(id, 4, enum.DeliveryStatusDelivered), nil
		},
		cancelFn: func(ctx context.Context, id int64) error {
			cancelled = id
			return nil
		},
	}
	router := deliveryRouter(svc, &mockOrderService{})

	rr := doAuthRequest(t, router, http.MethodPost, "/deliveries/1/delivered", nil, staffClaims)
	assertStatus(t, rr, http.StatusOK)

	rr = doAuthRequest(t, router, http.MethodPost, "/deliveries/2/delivered", nil, staffClaims)
	assertStatus(t, rr, http.StatusBadRequest)
	assertErrorCode(t, decodeResponse(t, rr), "STATE_ERROR")

	rr = doAuthRequest(t, router, http.MethodDelete, "/deliveries/3", nil, staffClaims)
	assertStatus(t, rr, http.StatusNoContent)
	if cancelled != 3 {
		t.Errorf("cancelled: got %d, want 3", cancelled)
	}
}
