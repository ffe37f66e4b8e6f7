package payment

// Transaction statuses reported by the gateway.
const (
	StatusCapture    = "capture"
	StatusSettlement = "settlement"
	StatusPending    = "pending"
	StatusExpire     = "expire"
	StatusCancel     = "cancel"
)

type VANumber struct {
	Bank     string `json:"bank"`
	VANumber string `json:"va_number"`
}

// Notification is the asynchronous HTTP notification body posted by the gateway.
type Notification struct {
	OrderID           string     `json:"order_id"`
	TransactionStatus string     `json:"transaction_status"`
	StatusCode        string     `json:"status_code"`
	GrossAmount       string     `json:"gross_amount"`
	SignatureKey      string     `json:"signature_key"`
	TransactionID     string     `json:"transaction_id"`
	TransactionTime   string     `json:"transaction_time,omitempty"`
	PaymentType       string     `json:"payment_type"`
	FraudStatus       string     `json:"fraud_status,omitempty"`
	SettlementAmount  string     `json:"settlement_amount,omitempty"`
	MerchantFee       string     `json:"merchant_fee,omitempty"`
	VANumbers         []VANumber `json:"va_numbers,omitempty"`
	PermataVANumber   string     `json:"permata_va_number,omitempty"`
	BillerCode        string     `json:"biller_code,omitempty"`
	BillKey           string     `json:"bill_key,omitempty"`
	Store             string     `json:"store,omitempty"`
	Issuer            string     `json:"issuer,omitempty"`
	Acquirer          string     `json:"acquirer,omitempty"`
	Currency          string     `json:"currency,omitempty"`
}

// Missing lists the required fields absent from the notification.
func (n Notification) Missing() []string {
	var missing []string
	if n.OrderID == "" {
		missing = append(missing, "order_id")
	}
	if n.TransactionStatus == "" {
		missing = append(missing, "transaction_status")
	}
	if n.StatusCode == "" {
		missing = append(missing, "status_code")
	}
	if n.GrossAmount == "" {
		missing = append(missing, "gross_amount")
	}
	if n.SignatureKey == "" {
		missing = append(missing, "signature_key")
	}
	return missing
}
