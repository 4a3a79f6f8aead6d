package v1

import (
	"net/http"

	"github.com/cofrinho/backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const actorKey = "actor"

// RequireActor resolves the X-Actor header to a user and stores it in
// the request context. Requests without a valid, active actor get 401.
func (co *Controller) RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Actor")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpError{Error: "the X-Actor header must be set"})
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpError{Error: "the X-Actor header is not a valid UUID"})
			return
		}

		var user models.User
		err = co.DB.First(&user, "id = ?", id).Error
		if err != nil || !user.Active {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpError{Error: "the actor does not exist or is inactive"})
			return
		}

		c.Set(actorKey, user)
		c.Next()
	}
}

// actor returns the resolved user for the request.
func actor(c *gin.Context) models.User {
	return c.MustGet(actorKey).(models.User)
}

// bindID parses the :id path parameter. On failure the response has
// already been written.
func bindID(c *gin.Context) (uuid.UUID, bool) {
	var uri URIID
	err := c.ShouldBindUri(&uri)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
		return uuid.Nil, false
	}
	return uri.ID.UUID, true
}
