package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scrimworks/scrimplan/internal/service"
	appErrors "github.com/scrimworks/scrimplan/pkg/errors"
	"github.com/scrimworks/scrimplan/pkg/response"
)

// ExportHandler serves week sheet downloads and the overlap calendar feed.
type ExportHandler struct {
	exports *service.ExportService
	feed    *service.FeedService
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports *service.ExportService, feed *service.FeedService) *ExportHandler {
	return &ExportHandler{exports: exports, feed: feed}
}

func requireWeekID(c *gin.Context) (string, bool) {
	weekID := c.Query("week_id")
	if weekID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week_id is required"))
		return "", false
	}
	return weekID, true
}

// WeekSheet downloads the week availability grid. ?format=csv|pdf selects
// the rendering, defaulting to csv.
func (h *ExportHandler) WeekSheet(c *gin.Context) {
	weekID, ok := requireWeekID(c)
	if !ok {
		return
	}

	var (
		data        []byte
		filename    string
		contentType string
		err         error
	)
	switch format := c.DefaultQuery("format", "csv"); format {
	case "csv":
		data, filename, err = h.exports.WeekSheetCSV(c.Request.Context(), weekID)
		contentType = "text/csv"
	case "pdf":
		data, filename, err = h.exports.WeekSheetPDF(c.Request.Context(), weekID)
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format)))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// OverlapFeed serves the team overlap windows as an iCalendar document.
func (h *ExportHandler) OverlapFeed(c *gin.Context) {
	weekID, ok := requireWeekID(c)
	if !ok {
		return
	}
	data, err := h.feed.OverlapCalendar(c.Request.Context(), weekID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar", data)
}
