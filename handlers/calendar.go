package handlers

import (
	"context"
	"fmt"
	"net/http"

	"selftape/utils"

	"github.com/gin-gonic/gin"
)

// FeedProvider returns a rendered iCalendar feed for a reader.
type FeedProvider interface {
	Feed(ctx context.Context, readerID string) (string, error)
}

type CalendarHandler struct {
	Feeds FeedProvider
}

func NewCalendarHandler(feeds FeedProvider) *CalendarHandler {
	return &CalendarHandler{Feeds: feeds}
}

// ICal handles GET /api/calendar/ical/:readerId.
func (h *CalendarHandler) ICal(c *gin.Context) {
	readerID := c.Param("readerId")
	feed, err := h.Feeds.Feed(c.Request.Context(), readerID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="reader-%s.ics"`, readerID))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}
