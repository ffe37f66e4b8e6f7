package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/enum"
)

// ParsedBarcode is the product information encoded in a printed barcode.
type ParsedBarcode struct {
	Menu       string `json:"menu"`
	Size       string `json:"size"`
	MasterCode string `json:"master_code"`
}

// NormalizeBarcode trims and upper-cases a scanned value.
func NormalizeBarcode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ParseBarcode reads "<batch>-<menu>-<L|R>" (sized units) or "<batch>-<menu>"
// (pieces). The master code identifies the catalog product.
func ParseBarcode(raw string) (ParsedBarcode, error) {
	code := NormalizeBarcode(raw)
	parts := strings.Split(code, "-")
	for _, p := range parts {
		if p == "" {
			return ParsedBarcode{}, fmt.Errorf("%q: %w", raw, ErrInvalidBarcode)
		}
	}

	switch len(parts) {
	case 3:
		var size string
		switch parts[2] {
		case "L":
			size = enum.SizeLarge
		case "R":
			size = enum.SizeRegular
		default:
			return ParsedBarcode{}, fmt.Errorf("%q: size must be L or R: %w", raw, ErrInvalidBarcode)
		}
		return ParsedBarcode{
			Menu:       parts[1],
			Size:       size,
			MasterCode: parts[1] + "-" + parts[2],
		}, nil
	case 2:
		return ParsedBarcode{Menu: parts[1], Size: enum.SizePcs, MasterCode: parts[1]}, nil
	}
	return ParsedBarcode{}, fmt.Errorf("%q: %w", raw, ErrInvalidBarcode)
}

// autoBarcode synthesizes a unique barcode for manually received stock.
func autoBarcode(productCode string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("AUTO-%s-%s", NormalizeBarcode(productCode), strings.ToUpper(id[:12]))
}
