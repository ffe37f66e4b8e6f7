package service

import "github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"

// Errors returned by the order service.
var (
	ErrOrderNotFound       = apperror.New(apperror.CodeNotFound, "order not found")
	ErrEmptyItems          = apperror.New(apperror.CodeValidation, "items are required")
	ErrInvalidQuantity     = apperror.New(apperror.CodeValidation, "quantity must be > 0")
	ErrProductNotFound     = apperror.New(apperror.CodeValidation, "product not found")
	ErrInvalidOutlet       = apperror.New(apperror.CodeValidation, "invalid outlet")
	ErrOutletImmutable     = apperror.New(apperror.CodeValidation, "outlet cannot be changed")
	ErrInvalidLocation     = apperror.New(apperror.CodeValidation, "invalid location")
	ErrOrderDateRequired   = apperror.New(apperror.CodeValidation, "order_date is required")
	ErrDeliveryBeforeOrder = apperror.New(apperror.CodeValidation, "delivery_date must not be before order_date")
	ErrInvalidDiscount     = apperror.New(apperror.CodeValidation, "discount must be between 0 and 100")
	ErrOngkirRequired      = apperror.New(apperror.CodeValidation, "ongkir_plan must be > 0 for WhatsApp orders without self pickup")
	ErrAmountTooLarge      = apperror.New(apperror.CodeValidation, "order amount is too large")
	ErrItemsFrozen         = apperror.New(apperror.CodeState, "items cannot change after a delivery was recorded")
	ErrLocationFrozen      = apperror.New(apperror.CodeState, "location cannot change after a delivery was recorded")
	ErrOrderHasDeliveries  = apperror.New(apperror.CodeState, "order has deliveries")
	ErrPaymentGateway      = apperror.New(apperror.CodeExternalDependency, "payment gateway failed, order was rolled back")
	ErrPaymentRegeneration = apperror.New(apperror.CodeExternalDependency, "payment regeneration failed")
)

// Errors returned by the inventory service.
var (
	ErrInvalidBarcode        = apperror.New(apperror.CodeValidation, "invalid barcode")
	ErrBarcodeExists         = apperror.New(apperror.CodeConflict, "barcode already scanned at this location")
	ErrInventoryNotFound     = apperror.New(apperror.CodeNotFound, "barcode not found")
	ErrMasterProductNotFound = apperror.New(apperror.CodeNotFound, "no product matches barcode")
	ErrProductCodeNotFound   = apperror.New(apperror.CodeNotFound, "product not found")
	ErrInvalidReceiveQty     = apperror.New(apperror.CodeValidation, "quantity must be between 1 and 500")
	ErrSameLocation          = apperror.New(apperror.CodeValidation, "barcode is already at this location")
	ErrInventorySold         = apperror.New(apperror.CodeState, "barcode is already sold")
	ErrInventoryInUse        = apperror.New(apperror.CodeState, "barcode is referenced by a delivery")
	ErrInvalidProduct        = apperror.New(apperror.CodeValidation, "code, name and a non-negative price are required")
)

// Errors returned by the delivery service.
var (
	ErrDeliveryNotFound      = apperror.New(apperror.CodeNotFound, "delivery not found")
	ErrNoBarcodes            = apperror.New(apperror.CodeValidation, "at least one barcode is required")
	ErrBarcodeNotReady       = apperror.New(apperror.CodeState, "barcode is not READY")
	ErrBarcodeWrongLocation  = apperror.New(apperror.CodeState, "barcode is not at the order location")
	ErrProductNotInOrder     = apperror.New(apperror.CodeValidation, "product is not part of the order")
	ErrAllocationExceeded    = apperror.New(apperror.CodeValidation, "scanned quantity exceeds ordered quantity")
	ErrDuplicateBarcode      = apperror.New(apperror.CodeValidation, "barcode scanned twice")
	ErrAllocationConflict    = apperror.New(apperror.CodeConflict, "barcode was allocated concurrently")
	ErrDeliveryOngkir        = apperror.New(apperror.CodeValidation, "ongkir_plan and ongkir_actual must be > 0 for WhatsApp deliveries")
	ErrAlreadyDelivered      = apperror.New(apperror.CodeState, "delivery is already delivered")
	ErrInvalidDeliveryStatus = apperror.New(apperror.CodeValidation, "status must be pending or delivered")
)

// Errors returned by the webhook service.
var (
	ErrMissingFields    = apperror.New(apperror.CodeUnauthenticated, "missing required fields")
	ErrInvalidSignature = apperror.New(apperror.CodeUnauthenticated, "invalid signature")
)
