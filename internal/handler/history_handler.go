package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/pkg/response"
)

type historyService interface {
	FullHistory(ctx context.Context, req dto.PatientHistoryRequest, actor *models.Claims) (*models.PatientFullHistory, error)
	Create(ctx context.Context, req dto.CreatePatientHistoryRequest, actor *models.Claims) (*models.MedicalHistory, error)
}

// HistoryHandler exposes patient history endpoints.
type HistoryHandler struct {
	service historyService
}

// NewHistoryHandler builds the handler.
func NewHistoryHandler(service historyService) *HistoryHandler {
	return &HistoryHandler{service: service}
}

// FullHistory godoc
// @Summary Medical header and vaccination history of a patient account
// @Tags History
// @Accept json
// @Produce json
// @Param payload body dto.PatientHistoryRequest true "Patient"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /patient-full-history [post]
func (h *HistoryHandler) FullHistory(c *gin.Context) {
	var req dto.PatientHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "invalid patient history request")
		return
	}
	history, err := h.service.FullHistory(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Create godoc
// @Summary Open a medical history header
// @Tags History
// @Accept json
// @Produce json
// @Param payload body dto.CreatePatientHistoryRequest true "Medical history"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /create-patient-history [post]
func (h *HistoryHandler) Create(c *gin.Context) {
	var req dto.CreatePatientHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "invalid patient history payload")
		return
	}
	history, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, history)
}
