package catalog

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/grandbet/deposit-service/internal/domain/entities"
)

// Default limits applied when a provider record omits them
var (
	DefaultMinAmount = decimal.NewFromInt(50)
	DefaultMaxAmount = decimal.NewFromInt(10000)
)

// RawMethodRecord is a provider record as served by the catalog source
type RawMethodRecord struct {
	ID             string   `json:"id" db:"id"`
	Name           string   `json:"name" db:"name"`
	MinAmount      *float64 `json:"min_amount" db:"min_amount"`
	MaxAmount      *float64 `json:"max_amount" db:"max_amount"`
	CommissionRate *float64 `json:"commission_rate" db:"commission_rate"`
	EstimatedTime  *string  `json:"estimated_time" db:"estimated_time"`
	Enabled        *bool    `json:"enabled" db:"enabled"`
	Disabled       bool     `json:"disabled" db:"disabled"`
}

// MethodPolicy carries per-method presentation policy (popular badge,
// deposit bonus). Policy, not business law: deployments override it.
type MethodPolicy struct {
	Popular      bool
	BonusPercent int
}

// DefaultMethodPolicies mirrors the current marketing configuration
var DefaultMethodPolicies = map[entities.MethodID]MethodPolicy{
	entities.MethodPapara: {Popular: true, BonusPercent: 10},
	entities.MethodPayCo:  {Popular: true},
	entities.MethodCrypto: {BonusPercent: 15},
}

// Adapter normalizes raw provider records into method descriptors
type Adapter struct {
	policies map[entities.MethodID]MethodPolicy
}

// NewAdapter creates an adapter with the given policy table; nil uses
// the defaults.
func NewAdapter(policies map[entities.MethodID]MethodPolicy) *Adapter {
	if policies == nil {
		policies = DefaultMethodPolicies
	}
	return &Adapter{policies: policies}
}

// Normalize converts raw records into descriptors, order preserved.
// A nil or empty input yields an empty slice: the wizard shows "no
// methods" rather than erroring.
func (a *Adapter) Normalize(records []RawMethodRecord) []entities.PaymentMethodDescriptor {
	descriptors := make([]entities.PaymentMethodDescriptor, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		descriptors = append(descriptors, a.normalizeOne(rec))
	}
	return descriptors
}

func (a *Adapter) normalizeOne(rec RawMethodRecord) entities.PaymentMethodDescriptor {
	id := entities.ParseMethodID(rec.ID)

	min := DefaultMinAmount
	if rec.MinAmount != nil {
		min = decimal.NewFromFloat(*rec.MinAmount)
	}
	max := DefaultMaxAmount
	if rec.MaxAmount != nil {
		max = decimal.NewFromFloat(*rec.MaxAmount)
	}

	fee := 0
	if rec.CommissionRate != nil {
		fee = int(math.Round(*rec.CommissionRate * 100))
	}

	processing := "5-15 min"
	if rec.EstimatedTime != nil && *rec.EstimatedTime != "" {
		processing = *rec.EstimatedTime
	}

	policy := a.policies[id]

	return entities.PaymentMethodDescriptor{
		ID:                  id,
		RawID:               rec.ID,
		Name:                rec.Name,
		MinAmount:           min,
		MaxAmount:           max,
		FeePercent:          fee,
		BonusPercent:        policy.BonusPercent,
		ProcessingTimeLabel: processing,
		Popular:             policy.Popular,
		Disabled:            rec.Disabled || (rec.Enabled != nil && !*rec.Enabled),
	}
}
