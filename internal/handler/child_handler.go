package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/internal/service"
	"github.com/noah-isme/vaccination-api/pkg/response"
)

type childService interface {
	Register(ctx context.Context, req dto.RegisterChildRequest, actor *models.Claims) (*models.RegisteredChild, error)
	Delete(ctx context.Context, childID string, actor *models.Claims) error
	ListForTutor(ctx context.Context, tutorUserID string, actor *models.Claims) ([]models.ChildDetail, error)
}

type scheduleService interface {
	ForChild(ctx context.Context, childID string, actor *models.Claims) ([]models.ScheduleEntry, error)
}

type cardService interface {
	Render(ctx context.Context, childID, format string, actor *models.Claims) (*service.Document, error)
}

// ChildHandler exposes child registration and per-child views.
type ChildHandler struct {
	children childService
	schedule scheduleService
	cards    cardService
}

// NewChildHandler builds the handler.
func NewChildHandler(children childService, schedule scheduleService, cards cardService) *ChildHandler {
	return &ChildHandler{children: children, schedule: schedule, cards: cards}
}

// Register godoc
// @Summary Register a child
// @Description Returns the child with its activation code. A registering tutor becomes the child's tutor.
// @Tags Children
// @Accept json
// @Produce json
// @Param payload body dto.RegisterChildRequest true "Child payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /children [post]
func (h *ChildHandler) Register(c *gin.Context) {
	var req dto.RegisterChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "invalid child payload")
		return
	}
	child, err := h.children.Register(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, child)
}

// ListForTutor godoc
// @Summary List the children linked to a tutor
// @Description Tutors may only list their own children; admins may list any tutor's.
// @Tags Children
// @Produce json
// @Param tutorId path string true "Tutor user ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /children/tutor/{tutorId}/detailed [get]
func (h *ChildHandler) ListForTutor(c *gin.Context) {
	items, err := h.children.ListForTutor(c.Request.Context(), c.Param("tutorId"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Schedule godoc
// @Summary Compute a child's vaccination schedule
// @Tags Children
// @Produce json
// @Param id path string true "Child ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /children/{id}/vaccination-schedule [get]
func (h *ChildHandler) Schedule(c *gin.Context) {
	entries, err := h.schedule.ForChild(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Card godoc
// @Summary Download a child's vaccination card
// @Tags Children
// @Produce octet-stream
// @Param id path string true "Child ID"
// @Param format query string false "csv, pdf or xlsx (default pdf)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /children/{id}/vaccination-card [get]
func (h *ChildHandler) Card(c *gin.Context) {
	var query dto.VaccinationCardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		bindError(c, err, "invalid query parameters")
		return
	}
	doc, err := h.cards.Render(c.Request.Context(), c.Param("id"), query.Format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, doc.Filename, doc.ContentType, doc.Payload)
}

// Delete godoc
// @Summary Delete a child without vaccination history
// @Tags Children
// @Param id path string true "Child ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /children/{id} [delete]
func (h *ChildHandler) Delete(c *gin.Context) {
	if err := h.children.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
