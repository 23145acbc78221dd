package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/database"
	"github.com/wanderly/travel-agency-backend/internal/models"
	"github.com/wanderly/travel-agency-backend/pkg/money"
)

// CommissionService manages commission rules and agent price quotes
type CommissionService struct {
	tx     Transactor
	rules  CommissionStore
	clock  Clock
	logger *logrus.Logger
}

// NewCommissionService creates a new CommissionService
func NewCommissionService(tx Transactor, rules CommissionStore, clock Clock, logger *logrus.Logger) *CommissionService {
	return &CommissionService{
		tx:     tx,
		rules:  rules,
		clock:  clock,
		logger: logger,
	}
}

// UpsertRule creates or replaces the rule for a (service type, agent) pair
func (s *CommissionService) UpsertRule(ctx context.Context, actor Actor, req *models.UpsertCommissionRuleRequest) (*models.CommissionRule, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !req.ServiceType.Valid() {
		return nil, validationError("service_type", "unknown service type %q", req.ServiceType)
	}

	rule := req.ToRule()
	if err := rule.Validate(); err != nil {
		return nil, &ValidationError{Field: "commission", Message: err.Error()}
	}

	now := s.clock.Now()
	rule.ID = uuid.New()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := s.rules.Upsert(ctx, s.tx.Querier(), rule); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"rule_id":      rule.ID,
		"service_type": rule.ServiceType,
		"agent_id":     rule.AgentID,
		"actor_id":     actor.ID,
	}).Info("Commission rule saved")

	return rule, nil
}

// DeleteRule removes a rule
func (s *CommissionService) DeleteRule(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.rules.Delete(ctx, s.tx.Querier(), id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"rule_id":  id,
		"actor_id": actor.ID,
	}).Info("Commission rule deleted")
	return nil
}

// ListRules returns all rules, optionally for one service type
func (s *CommissionService) ListRules(ctx context.Context, serviceType *models.ServiceType) ([]models.CommissionRule, error) {
	if serviceType != nil && !serviceType.Valid() {
		return nil, validationError("service_type", "unknown service type %q", *serviceType)
	}
	return s.rules.List(ctx, s.tx.Querier(), serviceType)
}

// QuoteCommission returns the rule that applies to an agent: the agent's own rule,
// else the service type's default rule
func (s *CommissionService) QuoteCommission(ctx context.Context, serviceType models.ServiceType, agentID *uuid.UUID) (*models.CommissionRule, error) {
	return s.quoteCommission(ctx, s.tx.Querier(), serviceType, agentID)
}

func (s *CommissionService) quoteCommission(ctx context.Context, q database.Querier, serviceType models.ServiceType, agentID *uuid.UUID) (*models.CommissionRule, error) {
	if !serviceType.Valid() {
		return nil, validationError("service_type", "unknown service type %q", serviceType)
	}
	return s.rules.FindForQuote(ctx, q, serviceType, agentID)
}

// QuoteAgentPrice computes the commission and agent cost price for a selling price
func (s *CommissionService) QuoteAgentPrice(ctx context.Context, serviceType models.ServiceType, agentID *uuid.UUID, sellingPrice decimal.Decimal) (*models.CommissionQuote, error) {
	if err := money.Validate(sellingPrice); err != nil {
		return nil, &ValidationError{Field: "selling_price", Message: err.Error()}
	}

	rule, err := s.QuoteCommission(ctx, serviceType, agentID)
	if err != nil {
		return nil, err
	}

	quote := rule.QuoteAgentPrice(agentID, sellingPrice)
	return &quote, nil
}

// agentPricing fills agent_discount_percent and agent_cost_price on a new agent booking.
// Without any applicable rule the agent pays the selling price.
func (s *CommissionService) agentPricing(ctx context.Context, b *models.Booking) error {
	rule, err := s.QuoteCommission(ctx, b.ServiceType, b.AgentID)
	if errors.Is(err, ErrCommissionRuleNotFound) {
		s.logger.WithFields(logrus.Fields{
			"service_type": b.ServiceType,
			"agent_id":     b.AgentID,
		}).Warn("No commission rule for agent booking, using selling price as agent cost")
		b.AgentDiscountPercent = decimal.Zero
		b.AgentCostPrice = b.SellingPrice
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to quote agent price: %w", err)
	}

	quote := rule.QuoteAgentPrice(b.AgentID, b.SellingPrice)
	b.AgentCostPrice = quote.AgentCostPrice
	switch {
	case quote.Percent.Valid:
		b.AgentDiscountPercent = quote.Percent.Decimal
	case money.IsPositive(b.SellingPrice):
		b.AgentDiscountPercent = money.Percent(quote.CommissionAmount, b.SellingPrice)
	default:
		b.AgentDiscountPercent = decimal.Zero
	}
	return nil
}
