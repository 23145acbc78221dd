package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

const commissionColumns = `id, service_type, agent_id, commission_percent, fixed_amount, is_active, created_at, updated_at`

// CommissionRepository handles commission rule persistence
type CommissionRepository struct{}

// NewCommissionRepository creates a new CommissionRepository
func NewCommissionRepository() *CommissionRepository {
	return &CommissionRepository{}
}

// Upsert creates the rule for (service_type, agent_id) or replaces the existing one.
// The null agent is a distinct key via the COALESCE unique index.
func (r *CommissionRepository) Upsert(ctx context.Context, q Querier, rule *models.CommissionRule) error {
	query := `
		INSERT INTO commission_rules (
			id, service_type, agent_id, commission_percent, fixed_amount, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (service_type, (COALESCE(agent_id, '00000000-0000-0000-0000-000000000000'::uuid)))
		DO UPDATE SET
			commission_percent = EXCLUDED.commission_percent,
			fixed_amount = EXCLUDED.fixed_amount,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`

	err := q.QueryRowxContext(ctx, query,
		rule.ID, rule.ServiceType, rule.AgentID,
		rule.CommissionPercent, rule.FixedAmount, rule.IsActive, rule.UpdatedAt,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert commission rule: %w", MapError(err))
	}
	return nil
}

// FindForQuote returns the agent-specific active rule, falling back to the
// service type's default rule
func (r *CommissionRepository) FindForQuote(ctx context.Context, q Querier, serviceType models.ServiceType, agentID *uuid.UUID) (*models.CommissionRule, error) {
	var rule models.CommissionRule
	query := `
		SELECT ` + commissionColumns + ` FROM commission_rules
		WHERE service_type = $1
		AND is_active = TRUE
		AND (agent_id = $2 OR agent_id IS NULL)
		ORDER BY agent_id NULLS LAST
		LIMIT 1`

	if err := q.GetContext(ctx, &rule, query, serviceType, agentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCommissionRuleNotFound
		}
		return nil, fmt.Errorf("failed to find commission rule: %w", err)
	}
	return &rule, nil
}

// List returns all rules, optionally for one service type
func (r *CommissionRepository) List(ctx context.Context, q Querier, serviceType *models.ServiceType) ([]models.CommissionRule, error) {
	rules := []models.CommissionRule{}
	query := `SELECT ` + commissionColumns + ` FROM commission_rules`
	args := []interface{}{}
	if serviceType != nil {
		query += ` WHERE service_type = $1`
		args = append(args, *serviceType)
	}
	query += ` ORDER BY service_type, agent_id NULLS FIRST`

	if err := q.SelectContext(ctx, &rules, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list commission rules: %w", err)
	}
	return rules, nil
}

// Delete removes a rule
func (r *CommissionRepository) Delete(ctx context.Context, q Querier, id uuid.UUID) error {
	result, err := q.ExecContext(ctx, `DELETE FROM commission_rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete commission rule: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCommissionRuleNotFound
	}
	return nil
}
