package entities

import "github.com/shopspring/decimal"

// GatewayDepositRequest is the payload submitted to the upstream payment
// gateway to create a deposit transaction.
type GatewayDepositRequest struct {
	Amount              decimal.Decimal   `json:"amount"`
	PaymentMethodID     string            `json:"payment_method_id"`
	UserID              string            `json:"user_id"`
	User                string            `json:"user"` // display name, required by the gateway contract
	UserEmail           string            `json:"user_email"`
	ReturnURL           string            `json:"return_url"`
	CallbackURL         string            `json:"callback_url"`
	SiteReferenceNumber string            `json:"site_reference_number"`
	UseBonus            bool              `json:"use_bonus"`
	TCNumber            string            `json:"tc_number,omitempty"`
	Fields              map[string]string `json:"fields,omitempty"` // provider identifier fields
}

// GatewayDepositResponse is the gateway's reply to a deposit creation.
// Both fields are mandatory; a reply missing either is treated as a
// submission failure.
type GatewayDepositResponse struct {
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url"`
}

// Gateway transaction status values
const (
	GatewayStatusPending  = "pending"
	GatewayStatusApproved = "approved"
	GatewayStatusDeclined = "declined"
	GatewayStatusExpired  = "expired"
)

// GatewayTransactionStatus is the gateway's view of a transaction,
// polled by the reconciliation worker.
type GatewayTransactionStatus struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
}
