package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

func TestUpsertRule(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(testNow)

	_, err := l.commissions.UpsertRule(ctx, staffActor, &models.UpsertCommissionRuleRequest{
		ServiceType: models.ServiceTour, CommissionPercent: decPtr("10"),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	invalid := []*models.UpsertCommissionRuleRequest{
		{ServiceType: models.ServiceTour},
		{ServiceType: models.ServiceTour, CommissionPercent: decPtr("10"), FixedAmount: decPtr("100")},
		{ServiceType: models.ServiceTour, CommissionPercent: decPtr("100.5")},
		{ServiceType: "spa", CommissionPercent: decPtr("10")},
	}
	for _, req := range invalid {
		_, err := l.commissions.UpsertRule(ctx, adminActor, req)
		assert.True(t, IsValidation(err), "%+v", req)
	}

	first, err := l.commissions.UpsertRule(ctx, adminActor, &models.UpsertCommissionRuleRequest{
		ServiceType: models.ServiceHotel, CommissionPercent: decPtr("8"),
	})
	require.NoError(t, err)
	second, err := l.commissions.UpsertRule(ctx, adminActor, &models.UpsertCommissionRuleRequest{
		ServiceType: models.ServiceHotel, FixedAmount: decPtr("150"),
	})
	require.NoError(t, err)

	// Same (service type, agent) pair replaces the rule
	assert.Equal(t, first.ID, second.ID)
	rules, err := l.commissions.ListRules(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].FixedAmount.Valid)
	assert.False(t, rules[0].CommissionPercent.Valid)
}

func TestQuoteAgentPrice(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(testNow)
	agentID := uuid.New()

	_, err := l.commissions.QuoteAgentPrice(ctx, models.ServiceCruise, &agentID, dec("1000"))
	assert.ErrorIs(t, err, ErrCommissionRuleNotFound)

	_, err = l.commissions.UpsertRule(ctx, adminActor, &models.UpsertCommissionRuleRequest{
		ServiceType: models.ServiceCruise, CommissionPercent: decPtr("12.5"),
	})
	require.NoError(t, err)

	quote, err := l.commissions.QuoteAgentPrice(ctx, models.ServiceCruise, &agentID, dec("1999.99"))
	require.NoError(t, err)
	assert.True(t, quote.IsDefaultRule)
	assert.True(t, dec("250").Equal(quote.CommissionAmount))
	assert.True(t, dec("1749.99").Equal(quote.AgentCostPrice))

	_, err = l.commissions.UpsertRule(ctx, adminActor, &models.UpsertCommissionRuleRequest{
		ServiceType: models.ServiceCruise, AgentID: &agentID, FixedAmount: decPtr("3000"),
	})
	require.NoError(t, err)

	quote, err = l.commissions.QuoteAgentPrice(ctx, models.ServiceCruise, &agentID, dec("1000"))
	require.NoError(t, err)
	assert.False(t, quote.IsDefaultRule)
	assert.True(t, quote.AgentCostPrice.IsZero(), "agent cost never goes below zero")

	_, err = l.commissions.QuoteAgentPrice(ctx, models.ServiceCruise, &agentID, dec("-5"))
	assert.True(t, IsValidation(err))
}

func TestDeleteRule(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(testNow)

	rule, err := l.commissions.UpsertRule(ctx, adminActor, &models.UpsertCommissionRuleRequest{
		ServiceType: models.ServiceVisa, FixedAmount: decPtr("20"),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, l.commissions.DeleteRule(ctx, staffActor, rule.ID), ErrForbidden)
	require.NoError(t, l.commissions.DeleteRule(ctx, adminActor, rule.ID))
	assert.ErrorIs(t, l.commissions.DeleteRule(ctx, adminActor, rule.ID), ErrCommissionRuleNotFound)
}
