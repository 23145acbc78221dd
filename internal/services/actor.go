package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/wanderly/travel-agency-backend/internal/models"
)

// Role is an actor's role as asserted by the identity service
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated caller of a mutating operation
type Actor struct {
	ID      uuid.UUID
	Role    Role
	AgentID *uuid.UUID
	Email   string
	Meta    models.AuditMetadata
}

// SystemActor is used by background jobs and gateway callbacks
var SystemActor = Actor{Role: RoleAdmin}

// IsStaff reports whether the actor works for the agency
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// IsAdmin reports whether the actor may use admin overrides
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// agentIdentity returns the agent id the actor books under
func (a Actor) agentIdentity() uuid.UUID {
	if a.AgentID != nil {
		return *a.AgentID
	}
	return a.ID
}

// CanAccess reports whether the actor may see the booking
func (a Actor) CanAccess(b *models.Booking) bool {
	switch a.Role {
	case RoleStaff, RoleAdmin:
		return true
	case RoleCustomer:
		return b.CustomerID != nil && *b.CustomerID == a.ID
	case RoleAgent:
		return b.AgentID != nil && *b.AgentID == a.agentIdentity()
	}
	return false
}

// PayerRole maps the actor's role onto a ledger payer role
func (a Actor) PayerRole() models.PayerRole {
	switch a.Role {
	case RoleCustomer:
		return models.PayerCustomer
	case RoleAgent:
		return models.PayerAgent
	default:
		return models.PayerAdmin
	}
}

// ProcessedBy returns the actor id for audit columns, nil for the system actor
func (a Actor) ProcessedBy() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}
