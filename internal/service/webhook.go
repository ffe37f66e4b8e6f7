package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/events"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/payment"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/payout"
)

// WebhookStore defines the DB methods needed to apply gateway notifications.
type WebhookStore interface {
	GetOrderByPaymentOrderID(ctx context.Context, paymentOrderID string) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id int64) (database.Order, error)
	MarkOrderPaid(ctx context.Context, arg database.MarkOrderPaidParams) (database.Order, error)
	ListDeliveryItemsByOrder(ctx context.Context, orderID int64) ([]database.DeliveryItem, error)
	ReleaseInventoryItems(ctx context.Context, barcodes []string) (int64, error)
	DeleteDeliveryItemsByOrder(ctx context.Context, orderID int64) error
	DeleteDeliveriesByOrder(ctx context.Context, orderID int64) error
	DeleteOrderItemsByOrder(ctx context.Context, orderID int64) error
	DeleteOrder(ctx context.Context, id int64) error
}

type NewWebhookStore func(db database.DBTX) WebhookStore

// Webhook outcomes, also used as the result label of webhook_events_total.
const (
	WebhookPaid      = "paid"
	WebhookDuplicate = "duplicate"
	WebhookDeleted   = "deleted"
	WebhookPending   = "pending"
	WebhookIgnored   = "ignored"
)

type WebhookResult struct {
	OrderID   int64  `json:"order_id"`
	Status    string `json:"status"`
	Action    string `json:"action"`
	ActPayout *int64 `json:"act_payout,omitempty"`
}

// WebhookService applies asynchronous payment notifications to orders.
type WebhookService struct {
	db        DB
	newStore  NewWebhookStore
	fees      *payout.Table
	serverKey string
	deps      Deps
}

func NewWebhookService(db DB, newStore NewWebhookStore, fees *payout.Table, serverKey string, deps Deps) *WebhookService {
	if fees == nil {
		fees = payout.DefaultTable()
	}
	return &WebhookService{
		db:        db,
		newStore:  newStore,
		fees:      fees,
		serverKey: serverKey,
		deps:      deps.withDefaults(),
	}
}

// Verify checks that n is complete and signed with the merchant server key.
// It reads no state.
func (s *WebhookService) Verify(n payment.Notification) error {
	if missing := n.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if !payment.VerifySignature(n, s.serverKey) {
		return ErrInvalidSignature
	}
	return nil
}

// HandleNotification verifies n and applies the transition it reports.
// Nothing is read or written before the signature checks out.
func (s *WebhookService) HandleNotification(ctx context.Context, n payment.Notification) (WebhookResult, error) {
	if err := s.Verify(n); err != nil {
		return WebhookResult{}, err
	}

	status := strings.ToLower(strings.TrimSpace(n.TransactionStatus))
	switch status {
	case payment.StatusCapture, payment.StatusSettlement:
		return s.settle(ctx, n, status)
	case payment.StatusExpire, payment.StatusCancel:
		return s.release(ctx, n, status)
	}

	order, err := s.lookup(ctx, n.OrderID)
	if err != nil {
		return WebhookResult{}, err
	}
	action := WebhookIgnored
	if status == payment.StatusPending {
		action = WebhookPending
	}
	return WebhookResult{OrderID: order.ID, Status: status, Action: action}, nil
}

func (s *WebhookService) lookup(ctx context.Context, paymentOrderID string) (database.Order, error) {
	var order database.Order
	err := s.deps.Retry.Do(ctx, "webhook_lookup", func(ctx context.Context) error {
		o, err := s.newStore(s.db).GetOrderByPaymentOrderID(ctx, paymentOrderID)
		if err != nil {
			if isNoRows(err) {
				return fmt.Errorf("%s: %w", paymentOrderID, ErrOrderNotFound)
			}
			return fmt.Errorf("get order by payment id: %w", err)
		}
		order = o
		return nil
	})
	return order, err
}

// lockByPaymentID resolves the gateway order id and locks the order row.
func lockByPaymentID(ctx context.Context, store WebhookStore, paymentOrderID string) (database.Order, error) {
	found, err := store.GetOrderByPaymentOrderID(ctx, paymentOrderID)
	if err != nil {
		if isNoRows(err) {
			return database.Order{}, fmt.Errorf("%s: %w", paymentOrderID, ErrOrderNotFound)
		}
		return database.Order{}, fmt.Errorf("get order by payment id: %w", err)
	}
	order, err := store.GetOrderForUpdate(ctx, found.ID)
	if err != nil {
		if isNoRows(err) {
			return database.Order{}, fmt.Errorf("%s: %w", paymentOrderID, ErrOrderNotFound)
		}
		return database.Order{}, fmt.Errorf("lock order: %w", err)
	}
	return order, nil
}

func (s *WebhookService) settle(ctx context.Context, n payment.Notification, status string) (WebhookResult, error) {
	var (
		result WebhookResult
		paid   database.Order
	)
	err := s.deps.inTx(ctx, s.db, "webhook_settle", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		order, err := lockByPaymentID(ctx, store, n.OrderID)
		if err != nil {
			return err
		}
		result = WebhookResult{OrderID: order.ID, Status: status}

		if order.Status == enum.OrderStatusPaid &&
			order.PaymentTransactionID.Valid &&
			order.PaymentTransactionID.String == n.TransactionID {
			result.Action = WebhookDuplicate
			result.ActPayout = int8Value(order.ActPayout)
			return nil
		}

		net := s.NetPayout(n, order.TotalAmount)
		updated, err := store.MarkOrderPaid(ctx, database.MarkOrderPaidParams{
			ID:                   order.ID,
			ActPayout:            pgtype.Int8{Int64: net, Valid: true},
			PaymentTransactionID: textOrNull(n.TransactionID),
		})
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		result.Action = WebhookPaid
		result.ActPayout = &net
		paid = updated
		return nil
	})
	if err != nil {
		return WebhookResult{}, err
	}

	if result.Action == WebhookPaid {
		s.deps.publish(ctx, events.OrderPaid, paid.Location, orderKey(paid.ID), orderPayload(paid, nil))
	}
	return result, nil
}

// NetPayout picks the settled amount in order of trust: the provider's
// settlement figure, gross minus the provider's fee, the local fee table,
// the raw gross, and finally the order total when gross is unreadable.
func (s *WebhookService) NetPayout(n payment.Notification, orderTotal int64) int64 {
	if v, ok := payment.ParseAmount(n.SettlementAmount); ok {
		return v
	}
	gross, grossOK := payment.ParseAmount(n.GrossAmount)
	if !grossOK {
		return orderTotal
	}
	if fee, ok := payment.ParseAmount(n.MerchantFee); ok {
		net := gross - fee
		if net < 0 {
			net = 0
		}
		return net
	}
	if net, ok := s.fees.NetPayout(gross, payout.DeriveMethod(n)); ok {
		return net
	}
	return gross
}

func (s *WebhookService) release(ctx context.Context, n payment.Notification, status string) (WebhookResult, error) {
	var (
		result  WebhookResult
		removed database.Order
	)
	err := s.deps.inTx(ctx, s.db, "webhook_release", func(ctx context.Context, tx pgx.Tx) error {
		store := s.newStore(tx)

		order, err := lockByPaymentID(ctx, store, n.OrderID)
		if err != nil {
			return err
		}
		if err := purgeOrder(ctx, store, order.ID); err != nil {
			return err
		}
		result = WebhookResult{OrderID: order.ID, Status: status, Action: WebhookDeleted}
		removed = order
		return nil
	})
	if err != nil {
		return WebhookResult{}, err
	}

	s.deps.publish(ctx, events.OrderExpired, removed.Location, orderKey(removed.ID), orderPayload(removed, nil))
	return result, nil
}

// purgeOrder returns allocated barcodes to stock and removes the order with
// everything that hangs off it.
func purgeOrder(ctx context.Context, store WebhookStore, orderID int64) error {
	allocated, err := store.ListDeliveryItemsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("list delivery items: %w", err)
	}
	if len(allocated) > 0 {
		barcodes := make([]string, 0, len(allocated))
		for _, it := range allocated {
			barcodes = append(barcodes, it.Barcode)
		}
		if _, err := store.ReleaseInventoryItems(ctx, barcodes); err != nil {
			return fmt.Errorf("release inventory: %w", err)
		}
	}
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
}
