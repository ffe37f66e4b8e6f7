package enum

import "strings"

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusPaid    = "PAID"
	OrderStatusNotPaid = "NOT PAID"
)

const (
	InventoryStatusReady = "READY"
	InventoryStatusSold  = "SOLD"
)

const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusDelivered = "delivered"

	// Only reported in events; cancelled deliveries are deleted.
	DeliveryStatusCancelled = "cancelled"
)

// ── Sales channels ──

const (
	OutletWhatsApp  = "WhatsApp"
	OutletTokopedia = "Tokopedia"
	OutletShopee    = "Shopee"
	OutletCafe      = "Cafe"
	OutletWholesale = "Wholesale"
	OutletFree      = "Free"
)

var outlets = []string{
	OutletWhatsApp,
	OutletTokopedia,
	OutletShopee,
	OutletCafe,
	OutletWholesale,
	OutletFree,
}

// CanonicalOutlet matches an outlet name case-insensitively.
func CanonicalOutlet(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	for _, o := range outlets {
		if strings.EqualFold(o, trimmed) {
			return o, true
		}
	}
	return "", false
}

// ── Unit sizes parsed from barcodes ──

const (
	SizeLarge   = "LARGE"
	SizeRegular = "REGULAR"
	SizePcs     = "PCS"
)

// ── Roles carried in access tokens ──

const (
	RoleAdmin = "ADMIN"
	RoleStaff = "STAFF"
)
