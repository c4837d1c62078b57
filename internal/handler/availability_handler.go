package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/scrimworks/scrimplan/internal/dto"
	"github.com/scrimworks/scrimplan/internal/service"
	appErrors "github.com/scrimworks/scrimplan/pkg/errors"
	"github.com/scrimworks/scrimplan/pkg/response"
)

// AvailabilityHandler exposes week and availability endpoints.
type AvailabilityHandler struct {
	weeks        *service.WeekService
	availability *service.AvailabilityService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(weeks *service.WeekService, availability *service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{weeks: weeks, availability: availability}
}

// ListWeeks returns known weeks. ?active_only=true restricts to active ones.
func (h *AvailabilityHandler) ListWeeks(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active_only"); raw != "" {
		if val, err := strconv.ParseBool(raw); err == nil {
			activeOnly = val
		}
	}
	weeks, err := h.weeks.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, weeks)
}

// EnsureWeek gets or creates the week for the posted ISO coordinates.
// Repeated calls return the same row.
func (h *AvailabilityHandler) EnsureWeek(c *gin.Context) {
	var req dto.CreateWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	week, err := h.weeks.Ensure(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, week)
}

// GetWeekAvailability returns the authoritative payload for one week: its
// entries plus the derived per-day team overlaps.
func (h *AvailabilityHandler) GetWeekAvailability(c *gin.Context) {
	weekID := c.Query("week_id")
	if weekID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week_id is required"))
		return
	}
	payload, err := h.availability.GetWeek(c.Request.Context(), weekID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payload)
}

// UpsertAvailability creates or replaces the entry for one
// (week, date, participant) key.
func (h *AvailabilityHandler) UpsertAvailability(c *gin.Context) {
	var req dto.UpsertAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.availability.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateAvailability patches an existing entry by id.
func (h *AvailabilityHandler) UpdateAvailability(c *gin.Context) {
	var req dto.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.availability.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry)
}

// DeleteAvailability removes an entry by id.
func (h *AvailabilityHandler) DeleteAvailability(c *gin.Context) {
	if err := h.availability.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
