package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MethodID is a closed enumeration of supported payment method identifiers.
// Raw catalog ids are parsed once at the adapter boundary; everything past
// it dispatches on this type instead of raw strings.
type MethodID string

const (
	MethodPapara     MethodID = "papara"
	MethodParatim    MethodID = "paratim"
	MethodPayCo      MethodID = "pay_co"
	MethodPep        MethodID = "pep"
	MethodPayfix     MethodID = "payfix"
	MethodKrediKarti MethodID = "kredikarti"
	MethodHavale     MethodID = "havale"
	MethodCrypto     MethodID = "crypto"
	MethodOther      MethodID = "other"
)

var knownMethodIDs = map[MethodID]bool{
	MethodPapara:     true,
	MethodParatim:    true,
	MethodPayCo:      true,
	MethodPep:        true,
	MethodPayfix:     true,
	MethodKrediKarti: true,
	MethodHavale:     true,
	MethodCrypto:     true,
}

// ParseMethodID maps a raw catalog id onto the closed enumeration,
// falling back to MethodOther for anything unrecognized.
func ParseMethodID(raw string) MethodID {
	id := MethodID(strings.ToLower(strings.TrimSpace(raw)))
	if knownMethodIDs[id] {
		return id
	}
	return MethodOther
}

// IsKnown reports whether the id names a specifically supported provider
func (m MethodID) IsKnown() bool {
	return knownMethodIDs[m]
}

// PaymentMethodDescriptor is the normalized payment method record served
// to the wizard. Built once per catalog fetch, immutable afterwards.
type PaymentMethodDescriptor struct {
	ID                  MethodID        `json:"id"`
	RawID               string          `json:"raw_id"`
	Name                string          `json:"name"`
	MinAmount           decimal.Decimal `json:"min_amount"`
	MaxAmount           decimal.Decimal `json:"max_amount"`
	FeePercent          int             `json:"fee_percent"`
	BonusPercent        int             `json:"bonus_percent"`
	ProcessingTimeLabel string          `json:"processing_time"`
	Popular             bool            `json:"popular"`
	Disabled            bool            `json:"disabled"`
}

// AmountInRange reports whether amount is within the method's limits,
// boundaries inclusive.
func (d PaymentMethodDescriptor) AmountInRange(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(d.MinAmount) && amount.LessThanOrEqual(d.MaxAmount)
}

// DepositDraft is the mutable wizard state. Created when a session opens,
// reset on every open, discarded on close.
type DepositDraft struct {
	SelectedMethodID MethodID          `json:"selected_method_id"`
	Amount           decimal.Decimal   `json:"amount"`
	UseBonus         bool              `json:"use_bonus"`
	GeneratedFields  map[string]string `json:"generated_fields"`
}

// NewDepositDraft returns an empty draft
func NewDepositDraft() *DepositDraft {
	return &DepositDraft{GeneratedFields: make(map[string]string)}
}

// OutcomeKind classifies a terminal payment outcome
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeCancelled OutcomeKind = "cancelled"
)

// PaymentOutcome is the terminal value of a wizard session. Set at most
// once; once set, no further external signal is processed.
type PaymentOutcome struct {
	Kind      OutcomeKind `json:"kind"`
	Reason    string      `json:"reason,omitempty"`
	ReachedAt time.Time   `json:"reached_at"`
}

// Provider message types received on the payment callback channel
const (
	MessagePaymentSuccess   = "PAYMENT_SUCCESS"
	MessagePaymentFailed    = "PAYMENT_FAILED"
	MessagePaymentCancelled = "PAYMENT_CANCELLED"
)

// ProviderMessage is a payment-outcome signal from the provider page.
// Either Type carries one of the PAYMENT_* constants or Status carries
// the short form ("success", "failed", "cancelled").
type ProviderMessage struct {
	Type          string `json:"type,omitempty"`
	Status        string `json:"status,omitempty"`
	Message       string `json:"message,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
	Origin        string `json:"-"`
}

// Normalize collapses the two accepted payload shapes onto the Type form.
// Unrecognized payloads normalize to the empty string and must be ignored.
func (m ProviderMessage) Normalize() string {
	switch m.Type {
	case MessagePaymentSuccess, MessagePaymentFailed, MessagePaymentCancelled:
		return m.Type
	}
	switch strings.ToLower(m.Status) {
	case "success":
		return MessagePaymentSuccess
	case "failed":
		return MessagePaymentFailed
	case "cancelled", "canceled":
		return MessagePaymentCancelled
	}
	return ""
}

// Deposit is the persisted deposit transaction row
type Deposit struct {
	ID            uuid.UUID       `db:"id"`
	UserID        uuid.UUID       `db:"user_id"`
	MethodID      MethodID        `db:"method_id"`
	Amount        decimal.Decimal `db:"amount"`
	UseBonus      bool            `db:"use_bonus"`
	TransactionID string          `db:"transaction_id"`
	PaymentURL    string          `db:"payment_url"`
	Status        DepositStatus   `db:"status"`
	FailureReason *string         `db:"failure_reason"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// UserProfile carries the identity fields the deposit flow needs. Injected
// explicitly so the wizard never reads ambient session state.
type UserProfile struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
}

// ErrorResponse is the standard API error envelope
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
