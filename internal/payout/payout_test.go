package payout

import (
	"testing"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetPayout_DefaultTable(t *testing.T) {
	table := DefaultTable()
	tests := []struct {
		name   string
		paid   int64
		method string
		want   int64
	}{
		{"qris percent", 23000, "qris", 22839},
		{"bca flat", 23000, "va_bca", 19000},
		{"card percent plus flat", 100000, "credit_card", 95100},
		{"unknown falls back to default", 10000, "alfamart_special", 9800},
		{"flat larger than paid clamps at zero", 3000, "va_bni", 0},
		{"method is case insensitive", 23000, "QRIS", 22839},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.NetPayout(tt.paid, tt.method)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNetPayout_RoundsHalfAwayFromZero(t *testing.T) {
	table := NewTable(map[string]Rule{"qris": {Percent: decimal.RequireFromString("0.5")}})
	// 0.5% of 1100 = 5.5 -> 6
	got, ok := table.NetPayout(1100, "qris")
	require.True(t, ok)
	assert.Equal(t, int64(1094), got)
}

func TestNetPayout_NoRule(t *testing.T) {
	table := &Table{rules: map[string]Rule{"qris": {Percent: decimal.NewFromInt(1)}}}
	got, ok := table.NetPayout(5000, "gopay")
	assert.False(t, ok)
	assert.Equal(t, int64(5000), got)

	var nilTable *Table
	got, ok = nilTable.NetPayout(5000, "qris")
	assert.False(t, ok)
	assert.Equal(t, int64(5000), got)
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable(`{"QRIS":{"percent":1},"va_bca":{"flat":2500}}`)
	require.NoError(t, err)

	got, _ := table.NetPayout(10000, "qris")
	assert.Equal(t, int64(9900), got)
	got, _ = table.NetPayout(10000, "va_bca")
	assert.Equal(t, int64(7500), got)
	// untouched defaults survive the overlay
	got, _ = table.NetPayout(10000, "gopay")
	assert.Equal(t, int64(9800), got)

	empty, err := ParseTable("  ")
	require.NoError(t, err)
	got, _ = empty.NetPayout(23000, "qris")
	assert.Equal(t, int64(22839), got)

	_, err = ParseTable(`{"qris":`)
	assert.Error(t, err)
	_, err = ParseTable(`{"qris":{"flat":-1}}`)
	assert.Error(t, err)
}

func TestDeriveMethod(t *testing.T) {
	tests := []struct {
		name string
		n    payment.Notification
		want string
	}{
		{"bank transfer with va", payment.Notification{PaymentType: "bank_transfer", VANumbers: []payment.VANumber{{Bank: "BCA", VANumber: "123"}}}, "va_bca"},
		{"permata", payment.Notification{PaymentType: "bank_transfer", PermataVANumber: "8778"}, "va_permata"},
		{"bank transfer without bank", payment.Notification{PaymentType: "bank_transfer"}, DefaultMethod},
		{"mandiri bill", payment.Notification{PaymentType: "echannel"}, "va_mandiri"},
		{"qris", payment.Notification{PaymentType: "qris"}, "qris"},
		{"gopay upper", payment.Notification{PaymentType: "GOPAY"}, "gopay"},
		{"empty", payment.Notification{}, DefaultMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveMethod(tt.n))
		})
	}
}
