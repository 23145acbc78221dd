package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/models"
	"github.com/wanderly/travel-agency-backend/internal/services"
	"github.com/wanderly/travel-agency-backend/pkg/money"
)

// CommissionHandler serves commission rules and agent quotes
type CommissionHandler struct {
	commissions CommissionManager
	logger      *logrus.Logger
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(commissions CommissionManager, logger *logrus.Logger) *CommissionHandler {
	return &CommissionHandler{commissions: commissions, logger: logger}
}

// ListRules lists commission rules
// @Router /api/v1/commissions [get]
func (h *CommissionHandler) ListRules(c *gin.Context) {
	var serviceType *models.ServiceType
	if st := c.Query("service_type"); st != "" {
		v := models.ServiceType(st)
		serviceType = &v
	}

	rules, err := h.commissions.ListRules(c.Request.Context(), serviceType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if rules == nil {
		rules = []models.CommissionRule{}
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules, "count": len(rules)})
}

// UpsertRule creates or replaces a commission rule
// @Summary Upsert commission rule
// @Tags Commissions
// @Accept json
// @Produce json
// @Param request body models.UpsertCommissionRuleRequest true "Rule"
// @Success 200 {object} models.CommissionRule
// @Security BearerAuth
// @Router /api/v1/commissions [put]
func (h *CommissionHandler) UpsertRule(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req models.UpsertCommissionRuleRequest
	if !bindJSON(c, &req) {
		return
	}

	rule, err := h.commissions.UpsertRule(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule removes a commission rule
// @Router /api/v1/commissions/{id} [delete]
func (h *CommissionHandler) DeleteRule(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.commissions.DeleteRule(c.Request.Context(), actor, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "commission rule deleted"})
}

// QuoteAgentPrice quotes the commission and agent cost price for a selling price.
// Agents are always quoted under their own identity.
// @Router /api/v1/commissions/quote [get]
func (h *CommissionHandler) QuoteAgentPrice(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	serviceType := models.ServiceType(c.Query("service_type"))
	sellingPrice, err := money.Parse(c.Query("selling_price"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "selling_price: " + err.Error()})
		return
	}

	var agentID *uuid.UUID
	if actor.Role == services.RoleAgent {
		id := actor.ID
		if actor.AgentID != nil {
			id = *actor.AgentID
		}
		agentID = &id
	} else if raw := c.Query("agent_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id", "message": "Invalid agent_id"})
			return
		}
		agentID = &id
	}

	quote, err := h.commissions.QuoteAgentPrice(c.Request.Context(), serviceType, agentID, sellingPrice)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}
