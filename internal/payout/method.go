package payout

import (
	"strings"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/payment"
)

// DeriveMethod maps a gateway notification to a fee-table key. Bank transfers
// are keyed by virtual-account bank, e.g. "va_bca".
func DeriveMethod(n payment.Notification) string {
	paymentType := normalizeMethod(n.PaymentType)
	switch paymentType {
	case "":
		return DefaultMethod
	case "bank_transfer":
		if len(n.VANumbers) > 0 && n.VANumbers[0].Bank != "" {
			return "va_" + strings.ToLower(n.VANumbers[0].Bank)
		}
		if n.PermataVANumber != "" {
			return "va_permata"
		}
		return DefaultMethod
	case "echannel":
		return "va_mandiri"
	}
	return paymentType
}
