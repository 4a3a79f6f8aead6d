package v1

import (
	"net/http"
	"time"

	"github.com/cofrinho/backend/internal/models"
	"github.com/gin-gonic/gin"
)

func (co *Controller) registerNotificationRoutes(r *gin.RouterGroup) {
	r.GET("", co.ListNotifications)
	r.POST("/:id/read", co.MarkNotificationRead)
}

// ListNotifications returns the actor's notifications, newest first.
// Passing unread=true filters to unread ones.
func (co *Controller) ListNotifications(c *gin.Context) {
	q := co.DB.Where("user_id = ?", actor(c).ID)
	if c.Query("unread") == "true" {
		q = q.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	err := q.Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.Notification]{Data: notifications})
}

func (co *Controller) MarkNotificationRead(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var notification models.Notification
	err := co.DB.First(&notification, "id = ? AND user_id = ?", id, actor(c).ID).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	now := time.Now().In(time.UTC)
	notification.ReadAt = &now
	err = co.DB.Save(&notification).Error
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.Notification]{Data: notification})
}
