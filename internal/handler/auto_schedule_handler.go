package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emrs-app/exam-timetable-api/internal/dto"
	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
	"github.com/emrs-app/exam-timetable-api/pkg/response"
)

type autoScheduler interface {
	Run(ctx context.Context, timetableID string, req dto.AutoScheduleRequest) (*dto.AutoScheduleResponse, error)
}

// AutoScheduleHandler exposes the exam auto-scheduler.
type AutoScheduleHandler struct {
	service autoScheduler
}

// NewAutoScheduleHandler constructs the handler.
func NewAutoScheduleHandler(svc autoScheduler) *AutoScheduleHandler {
	return &AutoScheduleHandler{service: svc}
}

// Run godoc
// @Summary Auto-schedule exams for departments and levels
// @Description Places every course of the selected department-levels into the timetable. Courses that do not fit are returned in unscheduled.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.AutoScheduleRequest true "Departments and levels"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/auto-schedule [post]
func (h *AutoScheduleHandler) Run(c *gin.Context) {
	var req dto.AutoScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid auto-schedule payload"))
		return
	}
	result, err := h.service.Run(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
