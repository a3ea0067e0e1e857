package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
	"github.com/soadesk/billing_backoffice/internal/middleware"
)

// registerEngagementRoutes wires the engagement endpoints.
func registerEngagementRoutes(rg *gin.RouterGroup, engagementService portssvc.EngagementSvcFacade, caps portssvc.CapabilityResolver) {
	h := newEngagementHandler(engagementService)
	manage := middleware.RequireCapability(caps, domain.CapManageEngagements)

	engagements := rg.Group("/engagements")
	{
		engagements.POST("", manage, h.createEngagement)
		engagements.GET("/:id", h.getEngagement)
		engagements.PUT("/:id", manage, h.updateEngagement)
		engagements.DELETE("/:id", manage, h.deleteEngagement)
	}
	rg.GET("/clients/:id/engagements", h.listEngagements)
}

// engagementHandler handles HTTP requests related to engagements.
type engagementHandler struct {
	engagementService portssvc.EngagementSvcFacade
}

func newEngagementHandler(es portssvc.EngagementSvcFacade) *engagementHandler {
	return &engagementHandler{engagementService: es}
}

// createEngagement godoc
// @Summary Open a new engagement
// @Tags engagements
// @Accept  json
// @Produce  json
// @Param   engagement body dto.CreateEngagementRequest true "Engagement details"
// @Success 201 {object} dto.EngagementResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Duplicate engagement title for client"
// @Security BearerAuth
// @Router /engagements [post]
func (h *engagementHandler) createEngagement(c *gin.Context) {
	var req dto.CreateEngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	engagement, err := h.engagementService.CreateEngagement(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to create engagement")
		return
	}
	c.JSON(http.StatusCreated, dto.ToEngagementResponse(engagement))
}

// getEngagement godoc
// @Summary Get an engagement by ID
// @Tags engagements
// @Produce  json
// @Param   id path string true "Engagement ID"
// @Success 200 {object} dto.EngagementResponse
// @Failure 404 {object} map[string]string "Engagement not found"
// @Security BearerAuth
// @Router /engagements/{id} [get]
func (h *engagementHandler) getEngagement(c *gin.Context) {
	engagement, err := h.engagementService.GetEngagementByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve engagement")
		return
	}
	c.JSON(http.StatusOK, dto.ToEngagementResponse(engagement))
}

// listEngagements godoc
// @Summary List a client's engagements
// @Tags engagements
// @Produce  json
// @Param   id path string true "Client ID"
// @Success 200 {array} dto.EngagementResponse
// @Security BearerAuth
// @Router /clients/{id}/engagements [get]
func (h *engagementHandler) listEngagements(c *gin.Context) {
	engagements, err := h.engagementService.ListEngagementsByClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to list engagements")
		return
	}
	c.JSON(http.StatusOK, dto.ToEngagementResponses(engagements))
}

// updateEngagement godoc
// @Summary Update an engagement
// @Tags engagements
// @Accept  json
// @Produce  json
// @Param   id path string true "Engagement ID"
// @Param   engagement body dto.UpdateEngagementRequest true "Fields to update"
// @Success 200 {object} dto.EngagementResponse
// @Failure 404 {object} map[string]string "Engagement not found"
// @Security BearerAuth
// @Router /engagements/{id} [put]
func (h *engagementHandler) updateEngagement(c *gin.Context) {
	var req dto.UpdateEngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	engagement, err := h.engagementService.UpdateEngagement(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to update engagement")
		return
	}
	c.JSON(http.StatusOK, dto.ToEngagementResponse(engagement))
}

// deleteEngagement godoc
// @Summary Delete an engagement
// @Tags engagements
// @Param   id path string true "Engagement ID"
// @Success 204 "No Content"
// @Failure 409 {object} map[string]string "Engagement has statements"
// @Security BearerAuth
// @Router /engagements/{id} [delete]
func (h *engagementHandler) deleteEngagement(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.engagementService.DeleteEngagement(c.Request.Context(), c.Param("id"), actorID); err != nil {
		respondError(c, err, "Failed to delete engagement")
		return
	}
	c.Status(http.StatusNoContent)
}
