package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type Delivery struct {
	ID           int64       `json:"id"`
	OrderID      int64       `json:"order_id"`
	Status       string      `json:"status"`
	DeliveryDate time.Time   `json:"delivery_date"`
	OngkirPlan   pgtype.Int8 `json:"ongkir_plan"`
	OngkirActual pgtype.Int8 `json:"ongkir_actual"`
	CreatedAt    time.Time   `json:"created_at"`
}

type DeliveryItem struct {
	ID         int64  `json:"id"`
	DeliveryID int64  `json:"delivery_id"`
	ProductID  int64  `json:"product_id"`
	Barcode    string `json:"barcode"`
}

type InventoryItem struct {
	Barcode   string    `json:"barcode"`
	ProductID int64     `json:"product_id"`
	Location  string    `json:"location"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Order struct {
	ID                   int64              `json:"id"`
	Outlet               string             `json:"outlet"`
	Customer             pgtype.Text        `json:"customer"`
	Status               string             `json:"status"`
	Location             string             `json:"location"`
	OrderDate            time.Time          `json:"order_date"`
	DeliveryDate         pgtype.Timestamptz `json:"delivery_date"`
	Discount             pgtype.Numeric     `json:"discount"`
	TotalAmount          int64              `json:"total_amount"`
	ActPayout            pgtype.Int8        `json:"act_payout"`
	OngkirPlan           pgtype.Int8        `json:"ongkir_plan"`
	SelfPickup           bool               `json:"self_pickup"`
	PaymentLink          pgtype.Text        `json:"payment_link"`
	PaymentOrderID       pgtype.Text        `json:"payment_order_id"`
	PaymentToken         pgtype.Text        `json:"payment_token"`
	PaymentTransactionID pgtype.Text        `json:"payment_transaction_id"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

type OrderItem struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
	Price     int64 `json:"price"`
}

type Product struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}
