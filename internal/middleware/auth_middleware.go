package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wanderly/travel-agency-backend/internal/services"
	"github.com/wanderly/travel-agency-backend/pkg/jwt"
)

// ActorContextKey is the key used to store the caller in Gin context
const ActorContextKey = "actor"

// ActorContext represents the authenticated caller's information
type ActorContext struct {
	ActorID uuid.UUID  `json:"actor_id"`
	Email   string     `json:"email"`
	Roles   []string   `json:"roles"`
	AgentID *uuid.UUID `json:"agent_id,omitempty"`
}

// rolePrecedence orders roles from most to least privileged
var rolePrecedence = []services.Role{
	services.RoleAdmin,
	services.RoleStaff,
	services.RoleAgent,
	services.RoleCustomer,
}

// PrimaryRole returns the most privileged known role on the token
func (a ActorContext) PrimaryRole() (services.Role, bool) {
	for _, role := range rolePrecedence {
		if a.HasRole(string(role)) {
			return role, true
		}
	}
	return "", false
}

// HasRole reports whether the token carries the role
func (a ActorContext) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Actor converts the token identity into a service-layer actor
func (a ActorContext) Actor() services.Actor {
	role, _ := a.PrimaryRole()
	return services.Actor{
		ID:      a.ActorID,
		Role:    role,
		AgentID: a.AgentID,
		Email:   a.Email,
	}
}

// AuthMiddleware creates a middleware that validates JWT tokens
func AuthMiddleware(jwtService *jwt.Service, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := logger.WithFields(logrus.Fields{
			"path": c.Request.URL.Path,
			"ip":   c.ClientIP(),
		})

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			entry.Warn("AUTH FAILED: missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization header is required",
				"code":    "MISSING_AUTH_HEADER",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			entry.Warn("AUTH FAILED: invalid auth format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid authorization header format. Expected: Bearer <token>",
				"code":    "INVALID_AUTH_FORMAT",
			})
			return
		}
		tokenString := strings.TrimSpace(parts[1])

		claims, err := jwtService.ValidateAccessToken(tokenString)
		if err != nil {
			if jwt.IsExpiredError(err) {
				entry.WithError(err).Warn("AUTH FAILED: token expired")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "token_expired",
					"message": "Access token has expired. Please refresh your token.",
					"code":    "TOKEN_EXPIRED",
				})
			} else {
				entry.WithError(err).Warn("AUTH FAILED: invalid token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "invalid_token",
					"message": "Invalid access token",
					"code":    "INVALID_TOKEN",
				})
			}
			return
		}

		actor := ActorContext{
			ActorID: claims.ActorID,
			Email:   claims.Email,
			Roles:   claims.Roles,
			AgentID: claims.AgentID,
		}
		if _, ok := actor.PrimaryRole(); !ok {
			entry.WithField("roles", claims.Roles).Warn("AUTH FAILED: token carries no known role")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Token carries no role recognised by this service",
				"code":    "INSUFFICIENT_PERMISSIONS",
			})
			return
		}

		c.Set(ActorContextKey, actor)
		c.Next()
	}
}

// RequireRole creates a middleware that checks the caller has one of the roles
func RequireRole(roles ...services.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := GetActorContext(c)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Actor context not found. Auth middleware may not be applied.",
				"code":    "MISSING_USER_CONTEXT",
			})
			return
		}

		for _, role := range roles {
			if actor.HasRole(string(role)) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to access this resource",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
	}
}

// GetActorContext retrieves the caller from Gin context
func GetActorContext(c *gin.Context) (ActorContext, bool) {
	value, exists := c.Get(ActorContextKey)
	if !exists {
		return ActorContext{}, false
	}
	actor, ok := value.(ActorContext)
	return actor, ok
}

// MustGetActorContext retrieves the caller or panics if not found
func MustGetActorContext(c *gin.Context) ActorContext {
	actor, exists := GetActorContext(c)
	if !exists {
		panic("actor context not found - auth middleware not applied")
	}
	return actor
}
