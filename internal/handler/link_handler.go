package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-api/internal/dto"
	"github.com/noah-isme/vaccination-api/internal/models"
	"github.com/noah-isme/vaccination-api/pkg/response"
)

type linkingService interface {
	RequestLink(ctx context.Context, req dto.RequestLinkRequest, actor *models.Claims) (*models.LinkRequest, error)
	RespondToLink(ctx context.Context, requestID, action string, actor *models.Claims) (*models.LinkRequest, error)
	ListPending(ctx context.Context, actor *models.Claims) ([]models.LinkRequestDetail, error)
}

// LinkHandler exposes the tutor linking workflow.
type LinkHandler struct {
	service linkingService
}

// NewLinkHandler builds the handler.
func NewLinkHandler(service linkingService) *LinkHandler {
	return &LinkHandler{service: service}
}

// Request godoc
// @Summary Request to become a child's tutor
// @Tags Linking
// @Accept json
// @Produce json
// @Param payload body dto.RequestLinkRequest true "Activation code"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /children/request-link [post]
func (h *LinkHandler) Request(c *gin.Context) {
	var req dto.RequestLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "invalid link request payload")
		return
	}
	created, err := h.service.RequestLink(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Respond godoc
// @Summary Accept or reject a pending link request
// @Tags Linking
// @Accept json
// @Produce json
// @Param id path string true "Link request ID"
// @Param payload body dto.RespondLinkRequest true "Aceptar or Rechazar"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /children/respond-link-request/{id} [post]
func (h *LinkHandler) Respond(c *gin.Context) {
	var req dto.RespondLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "invalid link response payload")
		return
	}
	resolved, err := h.service.RespondToLink(c.Request.Context(), c.Param("id"), req.Action, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	status := strings.ToLower(string(resolved.Status))
	response.Message(c, http.StatusOK, "link request "+status, dto.LinkResolution{
		RequestID: resolved.ID,
		Status:    string(resolved.Status),
		Message:   "link request " + status,
	})
}

// ListPending godoc
// @Summary List pending link requests the caller can resolve
// @Tags Linking
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /children/link-requests [get]
func (h *LinkHandler) ListPending(c *gin.Context) {
	items, err := h.service.ListPending(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
