package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wanderly/travel-agency-backend/pkg/money"
)

// CommissionRule is a per service type (and optionally per agent) commission.
// A nil AgentID is the default rule for every agent of that service type.
type CommissionRule struct {
	ID                uuid.UUID           `json:"id" db:"id"`
	ServiceType       ServiceType         `json:"service_type" db:"service_type"`
	AgentID           *uuid.UUID          `json:"agent_id,omitempty" db:"agent_id"`
	CommissionPercent decimal.NullDecimal `json:"commission_percent" db:"commission_percent"`
	FixedAmount       decimal.NullDecimal `json:"fixed_amount" db:"fixed_amount"`
	IsActive          bool                `json:"is_active" db:"is_active"`
	CreatedAt         time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" db:"updated_at"`
}

var (
	ErrCommissionRateMissing   = errors.New("either commission_percent or fixed_amount is required")
	ErrCommissionRateAmbiguous = errors.New("only one of commission_percent or fixed_amount may be set")
	ErrCommissionPercentRange  = errors.New("commission_percent must be between 0 and 100")
)

// Validate checks the rule carries exactly one well-formed rate
func (r *CommissionRule) Validate() error {
	switch {
	case !r.CommissionPercent.Valid && !r.FixedAmount.Valid:
		return ErrCommissionRateMissing
	case r.CommissionPercent.Valid && r.FixedAmount.Valid:
		return ErrCommissionRateAmbiguous
	}

	if r.CommissionPercent.Valid {
		p := r.CommissionPercent.Decimal
		if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
			return ErrCommissionPercentRange
		}
		return nil
	}
	return money.Validate(r.FixedAmount.Decimal)
}

// CommissionFor returns the commission owed on a selling price under this rule
func (r *CommissionRule) CommissionFor(sellingPrice decimal.Decimal) decimal.Decimal {
	if r.CommissionPercent.Valid {
		return money.PercentOf(sellingPrice, r.CommissionPercent.Decimal)
	}
	return money.Round2(r.FixedAmount.Decimal)
}

// CommissionQuote is the agent pricing derived from a commission rule
type CommissionQuote struct {
	RuleID           uuid.UUID           `json:"rule_id"`
	ServiceType      ServiceType         `json:"service_type"`
	AgentID          *uuid.UUID          `json:"agent_id,omitempty"`
	IsDefaultRule    bool                `json:"is_default_rule"`
	Percent          decimal.NullDecimal `json:"percent"`
	FixedAmount      decimal.NullDecimal `json:"fixed_amount"`
	SellingPrice     decimal.Decimal     `json:"selling_price"`
	CommissionAmount decimal.Decimal     `json:"commission_amount"`
	AgentCostPrice   decimal.Decimal     `json:"agent_cost_price"`
}

// QuoteAgentPrice computes commission and agent cost price for a selling price
func (r *CommissionRule) QuoteAgentPrice(agentID *uuid.UUID, sellingPrice decimal.Decimal) CommissionQuote {
	commission := r.CommissionFor(sellingPrice)
	costPrice := money.ClampZero(money.Round2(sellingPrice.Sub(commission)))
	if r.CommissionPercent.Valid {
		costPrice = money.ApplyPercentDiscount(sellingPrice, r.CommissionPercent.Decimal)
	}
	return CommissionQuote{
		RuleID:           r.ID,
		ServiceType:      r.ServiceType,
		AgentID:          agentID,
		IsDefaultRule:    r.AgentID == nil,
		Percent:          r.CommissionPercent,
		FixedAmount:      r.FixedAmount,
		SellingPrice:     sellingPrice,
		CommissionAmount: commission,
		AgentCostPrice:   costPrice,
	}
}

// UpsertCommissionRuleRequest creates or replaces the rule for a (service type, agent) pair
type UpsertCommissionRuleRequest struct {
	ServiceType       ServiceType      `json:"service_type" binding:"required"`
	AgentID           *uuid.UUID       `json:"agent_id,omitempty"`
	CommissionPercent *decimal.Decimal `json:"commission_percent,omitempty"`
	FixedAmount       *decimal.Decimal `json:"fixed_amount,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
}

// ToRule converts the request into a rule, active unless stated otherwise
func (r *UpsertCommissionRuleRequest) ToRule() *CommissionRule {
	rule := &CommissionRule{
		ServiceType: r.ServiceType,
		AgentID:     r.AgentID,
		IsActive:    true,
	}
	if r.CommissionPercent != nil {
		rule.CommissionPercent = decimal.NewNullDecimal(*r.CommissionPercent)
	}
	if r.FixedAmount != nil {
		rule.FixedAmount = decimal.NewNullDecimal(*r.FixedAmount)
	}
	if r.IsActive != nil {
		rule.IsActive = *r.IsActive
	}
	return rule
}
