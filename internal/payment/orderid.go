package payment

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var outletPrefixes = map[string]string{
	"whatsapp":  "WA",
	"cafe":      "CAFE",
	"wholesale": "WHS",
	"tokopedia": "TKP",
	"shopee":    "SHP",
	"free":      "FREE",
}

const fallbackPrefix = "ORD"

// OutletPrefix returns the short code used in gateway order ids.
func OutletPrefix(outlet string) string {
	if p, ok := outletPrefixes[strings.ToLower(strings.TrimSpace(outlet))]; ok {
		return p
	}
	return fallbackPrefix
}

// NewGatewayOrderID builds "{PREFIX}-{orderID}-{unixMillis}". The timestamp
// keeps ids unique when a transaction is regenerated for the same order.
func NewGatewayOrderID(outlet string, orderID int64, now time.Time) string {
	return fmt.Sprintf("%s-%d-%d", OutletPrefix(outlet), orderID, now.UnixMilli())
}

// ParseGatewayOrderID splits a gateway order id into prefix and internal id.
func ParseGatewayOrderID(id string) (prefix string, orderID int64, ok bool) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 || parts[0] == "" {
		return "", 0, false
	}
	orderID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || orderID <= 0 {
		return "", 0, false
	}
	if _, err := strconv.ParseInt(parts[2], 10, 64); err != nil {
		return "", 0, false
	}
	return parts[0], orderID, true
}

// DisplayReference renders "WA-123" for "WA-123-1717000000000". Unrecognized
// ids are returned unchanged.
func DisplayReference(id string) string {
	prefix, orderID, ok := ParseGatewayOrderID(id)
	if !ok {
		return id
	}
	return fmt.Sprintf("%s-%d", prefix, orderID)
}
