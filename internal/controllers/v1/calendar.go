package v1

import (
	"net/http"
	"time"

	"github.com/cofrinho/backend/internal/calendar"
	"github.com/cofrinho/backend/internal/httputil"
	"github.com/cofrinho/backend/internal/models"
	"github.com/gin-gonic/gin"
)

func (co *Controller) registerCalendarRoutes(r *gin.RouterGroup) {
	r.GET("/events", co.ListCalendarEvents)
	r.POST("/events", co.CreateCalendarEvent)
	r.GET("/events/:id", co.GetCalendarEvent)
	r.PATCH("/events/:id", co.UpdateCalendarEvent)
	r.DELETE("/events/:id", co.DeleteCalendarEvent)
	r.POST("/sync", co.SyncFinancialEvents)
}

// CalendarEventEditable are the event fields settable through the API.
// Financial projections cannot be created or edited here.
type CalendarEventEditable struct {
	Type      models.EventType `json:"type" example:"reminder"`
	Title     string           `json:"title" example:"Renovar seguro"`
	StartDate time.Time        `json:"startDate"`
	EndDate   *time.Time       `json:"endDate"`
	AllDay    bool             `json:"allDay"`
	Color     string           `json:"color" example:"#3F51B5"`
	Icon      string           `json:"icon"`
	Location  string           `json:"location"`
	IsShared  bool             `json:"isShared"`
}

func (co *Controller) CreateCalendarEvent(c *gin.Context) {
	var editable CalendarEventEditable
	if httputil.BindData(c, &editable) != nil {
		return
	}

	event, err := co.Calendar.Create(actor(c), calendar.EventCreate{
		Type:      editable.Type,
		Title:     editable.Title,
		StartDate: editable.StartDate,
		EndDate:   editable.EndDate,
		AllDay:    editable.AllDay,
		Color:     editable.Color,
		Icon:      editable.Icon,
		Location:  editable.Location,
		IsShared:  editable.IsShared,
	})
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, ResourceResponse[models.CalendarEvent]{Data: event})
}

// ListCalendarEvents returns events in [from, until). The range
// defaults to the current month.
func (co *Controller) ListCalendarEvents(c *gin.Context) {
	now := time.Now().In(time.UTC)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	until := from.AddDate(0, 1, 0)

	var err error
	if raw := c.Query("from"); raw != "" {
		from, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
			return
		}
	}
	if raw := c.Query("until"); raw != "" {
		until, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
			return
		}
	}

	events, err := co.Calendar.Range(actor(c), from, until)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ListResponse[models.CalendarEvent]{Data: events})
}

func (co *Controller) GetCalendarEvent(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	event, err := co.Calendar.Get(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.CalendarEvent]{Data: event})
}

// CalendarEventUpdateBody is the PATCH body; absent fields stay unchanged.
type CalendarEventUpdateBody struct {
	Title     *string    `json:"title"`
	StartDate *time.Time `json:"startDate"`
	EndDate   *time.Time `json:"endDate"`
	AllDay    *bool      `json:"allDay"`
	Color     *string    `json:"color"`
	Icon      *string    `json:"icon"`
	Location  *string    `json:"location"`
	IsShared  *bool      `json:"isShared"`
}

func (co *Controller) UpdateCalendarEvent(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	var body CalendarEventUpdateBody
	if httputil.BindData(c, &body) != nil {
		return
	}

	event, err := co.Calendar.Update(actor(c), id, calendar.EventUpdate{
		Title:     body.Title,
		StartDate: body.StartDate,
		EndDate:   body.EndDate,
		AllDay:    body.AllDay,
		Color:     body.Color,
		Icon:      body.Icon,
		Location:  body.Location,
		IsShared:  body.IsShared,
	})
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ResourceResponse[models.CalendarEvent]{Data: event})
}

func (co *Controller) DeleteCalendarEvent(c *gin.Context) {
	id, ok := bindID(c)
	if !ok {
		return
	}

	err := co.Calendar.Delete(actor(c), id)
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// SyncFinancialEvents backfills missing financial projections.
// The operation is idempotent.
func (co *Controller) SyncFinancialEvents(c *gin.Context) {
	err := co.Calendar.SyncFinancialEvents(actor(c))
	if err != nil {
		c.JSON(status(err), httpError{Error: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
