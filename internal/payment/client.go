// Package payment talks to the hosted-checkout payment gateway: creating
// Snap transactions, verifying notifications and formatting gateway order ids.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/metrics"
	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL              = "https://app.sandbox.midtrans.com"
	DefaultExpiryMinutes        = 24 * 60
	transactionsPath            = "/snap/v1/transactions"
	maxItemNameLength           = 50
	responseBodyReadLimit int64 = 4096
)

var errServerKeyRequired = errors.New("payment gateway server key is required")

// Client creates Snap transactions over the gateway REST API.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	serverKey     string
	callbacks     Callbacks
	expiryMinutes int
	metrics       *metrics.Fulfillment
	now           func() time.Time
}

// Callbacks are the post-payment redirect targets shown to the customer.
type Callbacks struct {
	Finish  string `json:"finish,omitempty"`
	Pending string `json:"unfinish,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Option configures optional client behavior.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

func WithCallbacks(cb Callbacks) Option {
	return func(c *Client) {
		c.callbacks = cb
	}
}

func WithExpiryMinutes(minutes int) Option {
	return func(c *Client) {
		if minutes > 0 {
			c.expiryMinutes = minutes
		}
	}
}

func WithMetrics(m *metrics.Fulfillment) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a gateway client authenticated with the merchant server key.
func NewClient(serverKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(serverKey)
	if trimmedKey == "" {
		return nil, errServerKeyRequired
	}

	client := &Client{
		serverKey:     trimmedKey,
		baseURL:       DefaultBaseURL,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		expiryMinutes: DefaultExpiryMinutes,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ServerKey is needed by the notification verifier.
func (c *Client) ServerKey() string {
	return c.serverKey
}

// Item is one order line sent to the gateway.
type Item struct {
	ID       string
	Name     string
	Price    int64
	Quantity int32
}

// TransactionRequest describes a transaction to create. Discount is the
// rupiah amount removed from the item subtotal; Shipping is added on top.
type TransactionRequest struct {
	OrderID       string
	GrossAmount   int64
	Customer      string
	Items         []Item
	Discount      int64
	Shipping      int64
	ExpiryMinutes int
}

// Transaction is the gateway's hosted-checkout reference.
type Transaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	OrderID     string `json:"order_id"`
}

type snapItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int32  `json:"quantity"`
}

type snapRequest struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount int64  `json:"gross_amount"`
	} `json:"transaction_details"`
	ItemDetails     []snapItem `json:"item_details"`
	CustomerDetails *struct {
		FirstName string `json:"first_name"`
	} `json:"customer_details,omitempty"`
	Expiry struct {
		Unit     string `json:"unit"`
		Duration int    `json:"duration"`
	} `json:"expiry"`
	Callbacks *Callbacks `json:"callbacks,omitempty"`
}

func (c *Client) buildSnapRequest(req TransactionRequest) snapRequest {
	var body snapRequest
	body.TransactionDetails.OrderID = req.OrderID
	body.TransactionDetails.GrossAmount = req.GrossAmount

	for _, item := range req.Items {
		body.ItemDetails = append(body.ItemDetails, snapItem{
			ID:       item.ID,
			Name:     truncate(item.Name, maxItemNameLength),
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}
	if req.Discount > 0 {
		body.ItemDetails = append(body.ItemDetails, snapItem{ID: "DISCOUNT", Name: "Discount", Price: -req.Discount, Quantity: 1})
	}
	if req.Shipping > 0 {
		body.ItemDetails = append(body.ItemDetails, snapItem{ID: "SHIPPING", Name: "Shipping", Price: req.Shipping, Quantity: 1})
	}

	if name := strings.TrimSpace(req.Customer); name != "" {
		body.CustomerDetails = &struct {
			FirstName string `json:"first_name"`
		}{FirstName: truncate(name, maxItemNameLength)}
	}

	expiry := req.ExpiryMinutes
	if expiry <= 0 {
		expiry = c.expiryMinutes
	}
	body.Expiry.Unit = "minute"
	body.Expiry.Duration = expiry

	if c.callbacks != (Callbacks{}) {
		cb := c.callbacks
		body.Callbacks = &cb
	}
	return body
}

// CreateTransaction requests a new Snap transaction. It is never retried: a
// repeated call could open a second transaction at the gateway.
func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	if c == nil {
		return nil, apperror.New(apperror.CodeExternalDependency, "payment gateway not configured")
	}
	if req.OrderID == "" || req.GrossAmount <= 0 {
		return nil, apperror.New(apperror.CodeValidation, "payment transaction needs an order id and a positive amount")
	}

	start := c.now()
	tx, err := c.createTransaction(ctx, req)
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.metrics.ObserveGateway(result, c.now().Sub(start))
	return tx, err
}

func (c *Client) createTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	payload, err := json.Marshal(c.buildSnapRequest(req))
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeExternalDependency, err, "marshal payment request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transactionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeExternalDependency, err, "build payment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.serverKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperror.Wrap(apperror.CodeExternalDependency, err, "payment gateway unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperror.Wrap(apperror.CodeExternalDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, gatewayMessage(body)),
			"payment gateway rejected transaction")
	}

	var out struct {
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperror.Wrap(apperror.CodeExternalDependency, err, "decode payment response")
	}
	if out.Token == "" || out.RedirectURL == "" {
		return nil, apperror.New(apperror.CodeExternalDependency, "payment gateway returned an empty transaction")
	}

	return &Transaction{Token: out.Token, RedirectURL: out.RedirectURL, OrderID: req.OrderID}, nil
}

// gatewayMessage extracts error_messages from a failure body, falling back to the raw text.
func gatewayMessage(body []byte) string {
	var parsed struct {
		ErrorMessages []string `json:"error_messages"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.ErrorMessages) > 0 {
		return strings.Join(parsed.ErrorMessages, "; ")
	}
	return strings.TrimSpace(string(body))
}

// ParseAmount reads a gateway amount such as "23000.00" as whole rupiah.
func ParseAmount(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return 0, false
	}
	return d.Round(0).IntPart(), true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
