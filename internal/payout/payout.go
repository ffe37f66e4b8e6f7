// Package payout estimates the net amount settled by the payment gateway
// when a notification does not carry the provider's own figure.
package payout

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultMethod = "default"

// Rule is a settlement fee: a flat amount plus a percentage of the paid amount.
type Rule struct {
	Flat    int64           `json:"flat"`
	Percent decimal.Decimal `json:"percent"`
}

// Table maps derived payment methods to fee rules. It is immutable once built.
type Table struct {
	rules map[string]Rule
}

func defaultRules() map[string]Rule {
	vaFlat := Rule{Flat: 4000}
	return map[string]Rule{
		"va_bca":      vaFlat,
		"va_bni":      vaFlat,
		"va_bri":      vaFlat,
		"va_permata":  vaFlat,
		"va_mandiri":  vaFlat,
		"va_cimb":     vaFlat,
		"qris":        {Percent: decimal.RequireFromString("0.7")},
		"gopay":       {Percent: decimal.NewFromInt(2)},
		"shopeepay":   {Percent: decimal.NewFromInt(2)},
		"credit_card": {Flat: 2000, Percent: decimal.RequireFromString("2.9")},
		"cstore":      {Flat: 5000},
		DefaultMethod: {Percent: decimal.NewFromInt(2)},
	}
}

// DefaultTable returns the built-in fee rules.
func DefaultTable() *Table {
	return &Table{rules: defaultRules()}
}

// NewTable overlays overrides on the built-in rules. Keys are case-insensitive.
func NewTable(overrides map[string]Rule) *Table {
	rules := defaultRules()
	for method, rule := range overrides {
		rules[normalizeMethod(method)] = rule
	}
	return &Table{rules: rules}
}

// ParseTable decodes a JSON override object such as
// {"qris":{"percent":0.7},"va_bca":{"flat":4000}} and overlays it on the defaults.
func ParseTable(raw string) (*Table, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultTable(), nil
	}
	var overrides map[string]Rule
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return nil, fmt.Errorf("parse fee rules: %w", err)
	}
	for method, rule := range overrides {
		if rule.Flat < 0 || rule.Percent.IsNegative() {
			return nil, fmt.Errorf("parse fee rules: %s: negative fee", method)
		}
	}
	return NewTable(overrides), nil
}

// Rule returns the rule for method, falling back to the default rule.
func (t *Table) Rule(method string) (Rule, bool) {
	if t == nil {
		return Rule{}, false
	}
	if rule, ok := t.rules[normalizeMethod(method)]; ok {
		return rule, true
	}
	rule, ok := t.rules[DefaultMethod]
	return rule, ok
}

// NetPayout returns max(0, paid - flat - round(percent/100 * paid)). When no
// rule applies it returns paid unchanged and false.
func (t *Table) NetPayout(paid int64, method string) (int64, bool) {
	rule, ok := t.Rule(method)
	if !ok {
		return paid, false
	}
	percentFee := rule.Percent.
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromInt(paid)).
		Round(0).
		IntPart()

	net := paid - rule.Flat - percentFee
	if net < 0 {
		net = 0
	}
	return net, true
}

func normalizeMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}
