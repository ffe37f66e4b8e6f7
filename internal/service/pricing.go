package service

import (
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/database"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
)

var hundred = decimal.NewFromInt(100)

// maxAmount bounds subtotals and ongkir so that totals cannot overflow int64.
const maxAmount int64 = 1_000_000_000_000_000

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID int64
	Quantity  int32
}

// line is an order line with its price snapshot.
type line struct {
	ProductID int64
	Quantity  int32
	Price     int64
}

type totals struct {
	Subtotal      int64
	AfterDiscount int64
	Ongkir        int64
	Total         int64
}

// DiscountAmount is the rupiah amount removed by the percentage discount.
func (t totals) DiscountAmount() int64 {
	return t.Subtotal - t.AfterDiscount
}

// mergeItems validates quantities and folds duplicate products together,
// keeping the order in which products first appear.
func mergeItems(items []ItemInput) ([]ItemInput, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}
	index := make(map[int64]int, len(items))
	merged := make([]ItemInput, 0, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		if item.ProductID <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrProductNotFound)
		}
		if pos, ok := index[item.ProductID]; ok {
			sum := int64(merged[pos].Quantity) + int64(item.Quantity)
			if sum > math.MaxInt32 {
				return nil, fmt.Errorf("item[%d]: merged quantity %d: %w", i, sum, ErrInvalidQuantity)
			}
			merged[pos].Quantity = int32(sum)
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

// priceItems attaches current product prices. Unknown products are reported
// by their position in the merged list. The subtotal may not exceed maxAmount.
func priceItems(items []ItemInput, products []database.Product) ([]line, map[int64]database.Product, error) {
	byID := make(map[int64]database.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	lines := make([]line, 0, len(items))
	var subtotal int64
	for i, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, nil, fmt.Errorf("item[%d]: %w", i, ErrProductNotFound)
		}
		if p.Price > 0 && int64(item.Quantity) > (maxAmount-subtotal)/p.Price {
			return nil, nil, fmt.Errorf("item[%d]: %w", i, ErrAmountTooLarge)
		}
		subtotal += p.Price * int64(item.Quantity)
		lines = append(lines, line{ProductID: item.ProductID, Quantity: item.Quantity, Price: p.Price})
	}
	return lines, byID, nil
}

func linesFromItems(items []database.OrderItem) []line {
	lines := make([]line, 0, len(items))
	for _, it := range items {
		lines = append(lines, line{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return lines
}

func productIDs(items []ItemInput) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

// computeTotals prices an order:
// total = round(subtotal * (1 - discount/100)) + ongkir.
func computeTotals(lines []line, discount decimal.Decimal, ongkir int64) totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.Price * int64(l.Quantity)
	}
	factor := hundred.Sub(discount).Div(hundred)
	after := decimal.NewFromInt(subtotal).Mul(factor).Round(0).IntPart()
	return totals{
		Subtotal:      subtotal,
		AfterDiscount: after,
		Ongkir:        ongkir,
		Total:         after + ongkir,
	}
}

// ongkirValue is the planned shipping charged to the customer. Only WhatsApp
// orders delivered by us carry it.
func ongkirValue(outlet string, selfPickup bool, plan *int64) int64 {
	if outlet != enum.OutletWhatsApp || selfPickup || plan == nil {
		return 0
	}
	return *plan
}

func needsOngkir(outlet string, selfPickup bool) bool {
	return outlet == enum.OutletWhatsApp && !selfPickup
}

func validDiscount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// NormalizeStatus folds user input into PAID or NOT PAID. Unrecognized
// values are treated as PAID.
func NormalizeStatus(s string) string {
	folded := strings.ToLower(strings.Join(strings.Fields(s), " "))
	switch folded {
	case "not paid", "not_paid", "notpaid":
		return enum.OrderStatusNotPaid
	}
	return enum.OrderStatusPaid
}

// sameMultiset reports whether two item sets contain the same quantities per product.
func sameMultiset(a []ItemInput, b []database.OrderItem) bool {
	counts := make(map[int64]int64)
	for _, it := range a {
		counts[it.ProductID] += int64(it.Quantity)
	}
	for _, it := range b {
		counts[it.ProductID] -= int64(it.Quantity)
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

// --- pgtype helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}

func textOrNull(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func int8OrNull(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

func int8Value(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}
