package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
	"github.com/soadesk/billing_backoffice/internal/middleware"
)

// registerRetainerRoutes wires the retainer cycle trigger.
func registerRetainerRoutes(rg *gin.RouterGroup, cycleService portssvc.RetainerCycleSvcFacade, caps portssvc.CapabilityResolver) {
	h := newRetainerHandler(cycleService)
	rg.POST("/retainer-cycles/run", middleware.RequireCapability(caps, domain.CapRunRetainerCycle), h.runCycle)
}

type retainerHandler struct {
	cycleService portssvc.RetainerCycleSvcFacade
}

func newRetainerHandler(cs portssvc.RetainerCycleSvcFacade) *retainerHandler {
	return &retainerHandler{cycleService: cs}
}

// runCycle godoc
// @Summary Run the retainer billing cycle for a period
// @Description Generates one draft statement per active retainer engagement; re-runs skip engagements already billed for the period
// @Tags retainer
// @Accept  json
// @Produce  json
// @Param   cycle body dto.RunRetainerCycleRequest true "Billing period (YYYY-MM)"
// @Success 200 {object} dto.RetainerCycleResponse
// @Failure 400 {object} map[string]string "Invalid period"
// @Security BearerAuth
// @Router /retainer-cycles/run [post]
func (h *retainerHandler) runCycle(c *gin.Context) {
	var req dto.RunRetainerCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	resp, err := h.cycleService.Run(c.Request.Context(), req.Period, actorID)
	if err != nil {
		respondError(c, err, "Failed to run retainer cycle")
		return
	}
	c.JSON(http.StatusOK, resp)
}
