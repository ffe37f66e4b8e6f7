package payment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestCreateTransaction_RequestShape(t *testing.T) {
	var captured map[string]any
	var capturedURL, capturedAuth string

	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuth = req.Header.Get("Authorization")
		body, err := io.ReadAll(req.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}
		return jsonResponse(http.StatusCreated, `{"token":"tok-1","redirect_url":"https://pay.test/tok-1"}`), nil
	})

	client, err := NewClient("SB-server-key",
		WithBaseURL("http://gateway.test/"),
		WithHTTPClient(&http.Client{Transport: rt}),
		WithCallbacks(Callbacks{Finish: "https://shop.test/finish"}),
	)
	require.NoError(t, err)

	tx, err := client.CreateTransaction(context.Background(), TransactionRequest{
		OrderID:     "WA-7-1700000000000",
		GrossAmount: 23000,
		Customer:    "Budi",
		Items: []Item{
			{ID: "1", Name: "Hokkaido Original Large", Price: 10000, Quantity: 2},
		},
		Discount:      2000,
		Shipping:      5000,
		ExpiryMinutes: 60,
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tx.Token)
	assert.Equal(t, "https://pay.test/tok-1", tx.RedirectURL)
	assert.Equal(t, "WA-7-1700000000000", tx.OrderID)

	assert.Equal(t, "http://gateway.test/snap/v1/transactions", capturedURL)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("SB-server-key:")), capturedAuth)

	details := captured["transaction_details"].(map[string]any)
	assert.Equal(t, "WA-7-1700000000000", details["order_id"])
	assert.Equal(t, float64(23000), details["gross_amount"])

	items := captured["item_details"].([]any)
	require.Len(t, items, 3)
	discount := items[1].(map[string]any)
	assert.Equal(t, "DISCOUNT", discount["id"])
	assert.Equal(t, float64(-2000), discount["price"])
	shipping := items[2].(map[string]any)
	assert.Equal(t, "SHIPPING", shipping["id"])
	assert.Equal(t, float64(5000), shipping["price"])

	// line items must add up to the gross amount
	var sum float64
	for _, raw := range items {
		item := raw.(map[string]any)
		sum += item["price"].(float64) * item["quantity"].(float64)
	}
	assert.Equal(t, float64(23000), sum)

	expiry := captured["expiry"].(map[string]any)
	assert.Equal(t, float64(60), expiry["duration"])
	callbacks := captured["callbacks"].(map[string]any)
	assert.Equal(t, "https://shop.test/finish", callbacks["finish"])
}

func TestCreateTransaction_NoDiscountOrShippingLines(t *testing.T) {
	var captured map[string]any
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(body, &captured)
		return jsonResponse(http.StatusCreated, `{"token":"t","redirect_url":"u"}`), nil
	})
	client, err := NewClient("key", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.CreateTransaction(context.Background(), TransactionRequest{
		OrderID:     "WA-1-1",
		GrossAmount: 10000,
		Items:       []Item{{ID: "1", Name: "X", Price: 10000, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Len(t, captured["item_details"].([]any), 1)
	assert.Nil(t, captured["customer_details"])
	assert.Equal(t, float64(DefaultExpiryMinutes), captured["expiry"].(map[string]any)["duration"])
}

func TestCreateTransaction_Non2xxIsExternalDependencyError(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"error_messages":["transaction_details.gross_amount is not equal to the sum of item_details"]}`), nil
	})
	client, err := NewClient("key", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.CreateTransaction(context.Background(), TransactionRequest{OrderID: "WA-1-1", GrossAmount: 1})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeExternalDependency, apperror.CodeOf(err))
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "gross_amount is not equal")
}

func TestCreateTransaction_TransportFailure(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	client, err := NewClient("key", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.CreateTransaction(context.Background(), TransactionRequest{OrderID: "WA-1-1", GrossAmount: 1})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeExternalDependency, apperror.CodeOf(err))
}

func TestCreateTransaction_EmptyBody(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusCreated, `{}`), nil
	})
	client, err := NewClient("key", WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = client.CreateTransaction(context.Background(), TransactionRequest{OrderID: "WA-1-1", GrossAmount: 1})
	assert.Equal(t, apperror.CodeExternalDependency, apperror.CodeOf(err))
}

func TestNewClient_RequiresServerKey(t *testing.T) {
	_, err := NewClient("  ")
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"23000.00", 23000, true},
		{"23000", 23000, true},
		{"22839.50", 22840, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-5", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
