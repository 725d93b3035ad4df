package handlers

import (
	"net/http"

	"selftape/models"
	"selftape/services/booking"
	"selftape/utils"

	"github.com/gin-gonic/gin"
)

// ScheduleHandler serves weekly availability and slot search.
type ScheduleHandler struct {
	AvailabilitySvc booking.AvailabilityService
}

func NewScheduleHandler(svc booking.AvailabilityService) *ScheduleHandler {
	return &ScheduleHandler{AvailabilitySvc: svc}
}

// GetAvailability handles GET /api/readers/:id/availability.
func (h *ScheduleHandler) GetAvailability(c *gin.Context) {
	slots, err := h.AvailabilitySvc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// SaveAvailability handles PUT /api/readers/:id/availability.
func (h *ScheduleHandler) SaveAvailability(c *gin.Context) {
	var req models.SaveAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.BindingError(err))
		return
	}
	slots, err := h.AvailabilitySvc.Save(c.Request.Context(), c.Param("id"), req.Slots)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// AvailableDays handles GET /api/schedule/available-days.
func (h *ScheduleHandler) AvailableDays(c *gin.Context) {
	var q models.DaysQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondError(c, utils.BindingError(err))
		return
	}
	days, err := h.AvailabilitySvc.AvailableDays(c.Request.Context(), q)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

// AvailableSlots handles GET /api/schedule/available-slots.
func (h *ScheduleHandler) AvailableSlots(c *gin.Context) {
	var q models.SlotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.RespondError(c, utils.BindingError(err))
		return
	}
	slots, err := h.AvailabilitySvc.Slots(c.Request.Context(), q)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}
