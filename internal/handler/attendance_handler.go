package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/pkg/response"
)

type attendanceService interface {
	AttendAppointment(ctx context.Context, req dto.AttendAppointmentRequest, actor *models.Claims) (*models.VaccinationRecord, error)
}

// AttendanceHandler records administered doses.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler builds the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Attend godoc
// @Summary Record a dose against a confirmed appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.AttendAppointmentRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /attend-appointment [post]
func (h *AttendanceHandler) Attend(c *gin.Context) {
	var req dto.AttendAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "invalid attendance payload")
		return
	}
	record, err := h.service.AttendAppointment(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}
