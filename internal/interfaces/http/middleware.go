package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finops/budget-approval/internal/application/port"
	"github.com/finops/budget-approval/internal/domain/entity"
)

// actorHeader identifies the acting user. There is no credential check;
// role gating downstream is advisory.
const actorHeader = "X-Actor-ID"

const actorContextKey = "actor"

// actorMiddleware resolves the acting user from the request header. A
// missing header leaves the actor unset so read endpoints stay open; an
// unknown actor id is rejected outright.
func actorMiddleware(identity port.IdentityProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(actorHeader)
		if actorID == "" {
			c.Next()
			return
		}

		actor, err := identity.Authenticate(c.Request.Context(), actorID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "unknown actor",
			})
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// currentActor returns the resolved actor, or nil when none was supplied
func currentActor(c *gin.Context) *entity.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(*entity.Actor); ok {
			return actor
		}
	}
	return nil
}
