package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
	"github.com/soadesk/billing_backoffice/internal/middleware"
)

// registerPaymentRoutes wires the payment, allocation and credit
// endpoints. Each mutation class carries its own capability.
func registerPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade, caps portssvc.CapabilityResolver) {
	h := newPaymentHandler(paymentService)
	record := middleware.RequireCapability(caps, domain.CapRecordPayments)
	allocate := middleware.RequireCapability(caps, domain.CapAllocatePayments)
	verify := middleware.RequireCapability(caps, domain.CapVerifyPayments)
	void := middleware.RequireCapability(caps, domain.CapVoidPayments)
	remove := middleware.RequireCapability(caps, domain.CapDeletePayments)
	credits := middleware.RequireCapability(caps, domain.CapManageCredits)

	payments := rg.Group("/payments")
	{
		payments.POST("", record, h.createPayment)
		payments.GET("", h.listPayments)
		payments.GET("/:id", h.getPayment)
		payments.PUT("/:id", record, h.updatePayment)
		payments.DELETE("/:id", remove, h.deletePayment)

		payments.POST("/:id/post", record, h.postPayment)
		payments.POST("/:id/verify", verify, h.verifyPayment)
		payments.POST("/:id/void", void, h.voidPayment)
		payments.POST("/:id/allocate", allocate, h.allocatePayment)
		payments.POST("/:id/allocations", allocate, h.addAllocation)
		payments.PUT("/:id/allocations/:allocationID", allocate, h.updateAllocation)
	}
	rg.DELETE("/allocations/:allocationID", allocate, h.removeAllocation)

	rg.GET("/clients/:id/credits", h.listClientCredits)
	rg.POST("/credits/:creditID/apply", credits, h.applyCredit)
	rg.POST("/credits/:creditID/refund", credits, h.refundCredit)
}

// paymentHandler handles HTTP requests for payments, allocations and
// unapplied credits.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{paymentService: ps}
}

// createPayment godoc
// @Summary Record a payment
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.CreatePaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Security BearerAuth
// @Router /payments [post]
func (h *paymentHandler) createPayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to record payment")
		return
	}
	c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment, nil))
}

// getPayment godoc
// @Summary Get a payment with its allocations
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} map[string]string "Payment not found"
// @Security BearerAuth
// @Router /payments/{id} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	payment, allocations, err := h.paymentService.GetPaymentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment, allocations))
}

// listPayments godoc
// @Summary List payments
// @Tags payments
// @Produce  json
// @Param   clientID query string false "Filter by client"
// @Param   status query string false "Filter by status"
// @Success 200 {array} dto.PaymentResponse
// @Security BearerAuth
// @Router /payments [get]
func (h *paymentHandler) listPayments(c *gin.Context) {
	var filter dto.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to list payments")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponses(payments))
}

// updatePayment godoc
// @Summary Update a payment's descriptive fields
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   id path string true "Payment ID"
// @Param   payment body dto.UpdatePaymentRequest true "Fields to update"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} map[string]string "Payment is void"
// @Security BearerAuth
// @Router /payments/{id} [put]
func (h *paymentHandler) updatePayment(c *gin.Context) {
	var req dto.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.UpdatePayment(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to update payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment, nil))
}

// postPayment godoc
// @Summary Post a draft payment
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} map[string]string "Payment is not a draft"
// @Security BearerAuth
// @Router /payments/{id}/post [post]
func (h *paymentHandler) postPayment(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	payment, err := h.paymentService.MarkPosted(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		respondError(c, err, "Failed to post payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment, nil))
}

// verifyPayment godoc
// @Summary Mark a payment as verified
// @Tags payments
// @Produce  json
// @Param   id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} map[string]string "Payment is void"
// @Security BearerAuth
// @Router /payments/{id}/verify [post]
func (h *paymentHandler) verifyPayment(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	payment, err := h.paymentService.MarkVerified(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		respondError(c, err, "Failed to verify payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment, nil))
}

// voidPayment godoc
// @Summary Void a payment and roll back its allocations
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   id path string true "Payment ID"
// @Param   void body dto.VoidRequest true "Void reason"
// @Success 200 {object} dto.PaymentResponse
// @Security BearerAuth
// @Router /payments/{id}/void [post]
func (h *paymentHandler) voidPayment(c *gin.Context) {
	var req dto.VoidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.Void(c.Request.Context(), c.Param("id"), req.Reason, actorID)
	if err != nil {
		respondError(c, err, "Failed to void payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment, nil))
}

// allocatePayment godoc
// @Summary Replace a payment's allocation set
// @Description Applies the full allocation set atomically and records any remainder as an open credit
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   id path string true "Payment ID"
// @Param   allocations body dto.AllocateRequest true "Allocation set"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} map[string]string "Allocations exceed the payment amount"
// @Security BearerAuth
// @Router /payments/{id}/allocate [post]
func (h *paymentHandler) allocatePayment(c *gin.Context) {
	var req dto.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.Allocate(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to allocate payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment, nil))
}

// addAllocation godoc
// @Summary Add a single allocation to a payment
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   id path string true "Payment ID"
// @Param   allocation body dto.AllocationInput true "Allocation details"
// @Success 201 {object} dto.AllocationResponse
// @Security BearerAuth
// @Router /payments/{id}/allocations [post]
func (h *paymentHandler) addAllocation(c *gin.Context) {
	var input dto.AllocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	allocation, err := h.paymentService.SaveAllocation(c.Request.Context(), c.Param("id"), input, nil, actorID)
	if err != nil {
		respondError(c, err, "Failed to add allocation")
		return
	}
	c.JSON(http.StatusCreated, dto.ToAllocationResponse(allocation))
}

// updateAllocation godoc
// @Summary Resize or retarget an existing allocation
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   id path string true "Payment ID"
// @Param   allocationID path string true "Allocation ID"
// @Param   allocation body dto.AllocationInput true "Allocation details"
// @Success 200 {object} dto.AllocationResponse
// @Security BearerAuth
// @Router /payments/{id}/allocations/{allocationID} [put]
func (h *paymentHandler) updateAllocation(c *gin.Context) {
	var input dto.AllocationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	allocationID := c.Param("allocationID")
	allocation, err := h.paymentService.SaveAllocation(c.Request.Context(), c.Param("id"), input, &allocationID, actorID)
	if err != nil {
		respondError(c, err, "Failed to update allocation")
		return
	}
	c.JSON(http.StatusOK, dto.ToAllocationResponse(allocation))
}

// removeAllocation godoc
// @Summary Remove an allocation
// @Tags payments
// @Param   allocationID path string true "Allocation ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /allocations/{allocationID} [delete]
func (h *paymentHandler) removeAllocation(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.paymentService.RemoveAllocation(c.Request.Context(), c.Param("allocationID"), actorID); err != nil {
		respondError(c, err, "Failed to remove allocation")
		return
	}
	c.Status(http.StatusNoContent)
}

// deletePayment godoc
// @Summary Delete a payment and all its downstream traces
// @Description Removes the payment, its allocations and its credits, then restores statement balances
// @Tags payments
// @Param   id path string true "Payment ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /payments/{id} [delete]
func (h *paymentHandler) deletePayment(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.paymentService.DeleteWithCascadeCleanup(c.Request.Context(), c.Param("id"), actorID); err != nil {
		respondError(c, err, "Failed to delete payment")
		return
	}
	c.Status(http.StatusNoContent)
}

// listClientCredits godoc
// @Summary List a client's unapplied credits
// @Tags credits
// @Produce  json
// @Param   id path string true "Client ID"
// @Success 200 {array} dto.CreditResponse
// @Security BearerAuth
// @Router /clients/{id}/credits [get]
func (h *paymentHandler) listClientCredits(c *gin.Context) {
	credits, err := h.paymentService.ListCreditsByClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to list credits")
		return
	}
	c.JSON(http.StatusOK, dto.ToCreditResponses(credits))
}

// applyCredit godoc
// @Summary Mark an open credit as applied
// @Tags credits
// @Produce  json
// @Param   creditID path string true "Credit ID"
// @Success 200 {object} dto.CreditResponse
// @Failure 409 {object} map[string]string "Credit is not open"
// @Security BearerAuth
// @Router /credits/{creditID}/apply [post]
func (h *paymentHandler) applyCredit(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	credit, err := h.paymentService.MarkCreditApplied(c.Request.Context(), c.Param("creditID"), actorID)
	if err != nil {
		respondError(c, err, "Failed to apply credit")
		return
	}
	c.JSON(http.StatusOK, dto.ToCreditResponse(credit))
}

// refundCredit godoc
// @Summary Mark an open credit as refunded
// @Tags credits
// @Produce  json
// @Param   creditID path string true "Credit ID"
// @Success 200 {object} dto.CreditResponse
// @Failure 409 {object} map[string]string "Credit is not open"
// @Security BearerAuth
// @Router /credits/{creditID}/refund [post]
func (h *paymentHandler) refundCredit(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	credit, err := h.paymentService.MarkCreditRefunded(c.Request.Context(), c.Param("creditID"), actorID)
	if err != nil {
		respondError(c, err, "Failed to refund credit")
		return
	}
	c.JSON(http.StatusOK, dto.ToCreditResponse(credit))
}
