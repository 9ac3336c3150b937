package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emrs-app/exam-timetable-api/internal/dto"
	"github.com/emrs-app/exam-timetable-api/internal/models"
	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
	"github.com/emrs-app/exam-timetable-api/pkg/response"
)

type examSlotService interface {
	List(ctx context.Context, timetableID string) ([]models.ExamSlotDetail, error)
	Add(ctx context.Context, timetableID string, req dto.AddExamSlotRequest) (*models.ExamSlotDetail, error)
	Remove(ctx context.Context, timetableID, slotID string) error
}

// ExamSlotHandler exposes manual exam placement endpoints.
type ExamSlotHandler struct {
	service examSlotService
}

// NewExamSlotHandler constructs the handler.
func NewExamSlotHandler(svc examSlotService) *ExamSlotHandler {
	return &ExamSlotHandler{service: svc}
}

// List godoc
// @Summary List exam slots of a timetable
// @Tags Exam Slots
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/exam-slots [get]
func (h *ExamSlotHandler) List(c *gin.Context) {
	slots, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Add godoc
// @Summary Place an exam manually
// @Tags Exam Slots
// @Accept json
// @Produce json
// @Param id path string true "Timetable ID"
// @Param payload body dto.AddExamSlotRequest true "Exam slot payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetables/{id}/exam-slots [post]
func (h *ExamSlotHandler) Add(c *gin.Context) {
	var req dto.AddExamSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid exam slot payload"))
		return
	}
	slot, err := h.service.Add(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Remove godoc
// @Summary Remove an exam slot
// @Tags Exam Slots
// @Param id path string true "Timetable ID"
// @Param slotId path string true "Exam slot ID"
// @Success 204
// @Router /timetables/{id}/exam-slots/{slotId} [delete]
func (h *ExamSlotHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("id"), c.Param("slotId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
