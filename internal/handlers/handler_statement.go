package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
	"github.com/soadesk/billing_backoffice/internal/middleware"
)

// registerStatementRoutes wires the statement lifecycle endpoints.
// Drafting uses the manage capability; issue and void are held back for
// reviewers.
func registerStatementRoutes(rg *gin.RouterGroup, statementService portssvc.StatementSvcFacade, caps portssvc.CapabilityResolver) {
	h := newStatementHandler(statementService)
	manage := middleware.RequireCapability(caps, domain.CapManageStatements)
	issue := middleware.RequireCapability(caps, domain.CapIssueStatements)
	void := middleware.RequireCapability(caps, domain.CapVoidStatements)

	statements := rg.Group("/statements")
	{
		statements.POST("", manage, h.createStatement)
		statements.GET("", h.listStatements)
		statements.GET("/:id", h.getStatement)
		statements.PUT("/:id", manage, h.updateStatement)
		statements.DELETE("/:id", manage, h.deleteStatement)

		statements.POST("/:id/items", manage, h.addItem)
		statements.POST("/:id/submit", manage, h.submitForReview)
		statements.POST("/:id/issue", issue, h.issueStatement)
		statements.POST("/:id/void", void, h.voidStatement)
		statements.POST("/:id/refresh-pdf", issue, h.refreshPDF)
		statements.POST("/batch-issue", issue, h.batchIssue)
	}

	items := rg.Group("/items")
	{
		items.PUT("/:itemID", manage, h.updateItem)
		items.DELETE("/:itemID", manage, h.removeItem)
	}
}

// statementHandler handles HTTP requests for the statement lifecycle.
type statementHandler struct {
	statementService portssvc.StatementSvcFacade
}

func newStatementHandler(ss portssvc.StatementSvcFacade) *statementHandler {
	return &statementHandler{statementService: ss}
}

// createStatement godoc
// @Summary Create a draft billing statement
// @Tags statements
// @Accept  json
// @Produce  json
// @Param   statement body dto.CreateStatementRequest true "Statement details"
// @Success 201 {object} dto.StatementResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Statement already exists for the period"
// @Security BearerAuth
// @Router /statements [post]
func (h *statementHandler) createStatement(c *gin.Context) {
	var req dto.CreateStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	statement, err := h.statementService.CreateStatement(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to create statement")
		return
	}
	c.JSON(http.StatusCreated, dto.ToStatementResponse(statement, nil))
}

// getStatement godoc
// @Summary Get a statement with its items
// @Tags statements
// @Produce  json
// @Param   id path string true "Statement ID"
// @Success 200 {object} dto.StatementResponse
// @Failure 404 {object} map[string]string "Statement not found"
// @Security BearerAuth
// @Router /statements/{id} [get]
func (h *statementHandler) getStatement(c *gin.Context) {
	statement, items, err := h.statementService.GetStatementByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve statement")
		return
	}
	c.JSON(http.StatusOK, dto.ToStatementResponse(statement, items))
}

// listStatements godoc
// @Summary List statements
// @Tags statements
// @Produce  json
// @Param   clientID query string false "Filter by client"
// @Param   engagementID query string false "Filter by engagement"
// @Param   status query string false "Filter by status"
// @Param   period query string false "Filter by period (YYYY-MM)"
// @Success 200 {array} dto.StatementResponse
// @Security BearerAuth
// @Router /statements [get]
func (h *statementHandler) listStatements(c *gin.Context) {
	var filter dto.StatementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	statements, err := h.statementService.ListStatements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to list statements")
		return
	}
	c.JSON(http.StatusOK, dto.ToStatementResponses(statements))
}

// updateStatement godoc
// @Summary Update a draft statement's header
// @Tags statements
// @Accept  json
// @Produce  json
// @Param   id path string true "Statement ID"
// @Param   statement body dto.UpdateStatementRequest true "Fields to update"
// @Success 200 {object} dto.StatementResponse
// @Failure 409 {object} map[string]string "Statement is issued and cannot be edited"
// @Security BearerAuth
// @Router /statements/{id} [put]
func (h *statementHandler) updateStatement(c *gin.Context) {
	var req dto.UpdateStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	statement, err := h.statementService.UpdateStatement(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to update statement")
		return
	}
	c.JSON(http.StatusOK, dto.ToStatementResponse(statement, nil))
}

// deleteStatement godoc
// @Summary Delete a draft statement
// @Tags statements
// @Param   id path string true "Statement ID"
// @Success 204 "No Content"
// @Failure 409 {object} map[string]string "Statement is not a deletable draft"
// @Security BearerAuth
// @Router /statements/{id} [delete]
func (h *statementHandler) deleteStatement(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.statementService.DeleteStatement(c.Request.Context(), c.Param("id"), actorID); err != nil {
		respondError(c, err, "Failed to delete statement")
		return
	}
	c.Status(http.StatusNoContent)
}

// addItem godoc
// @Summary Add a line item to a statement
// @Tags statements
// @Accept  json
// @Produce  json
// @Param   id path string true "Statement ID"
// @Param   item body dto.SaveItemRequest true "Item details"
// @Success 201 {object} dto.BillingItemResponse
// @Failure 409 {object} map[string]string "Statement is issued and cannot be edited"
// @Security BearerAuth
// @Router /statements/{id}/items [post]
func (h *statementHandler) addItem(c *gin.Context) {
	var req dto.SaveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	item, err := h.statementService.AddItem(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to add item")
		return
	}
	c.JSON(http.StatusCreated, dto.ToBillingItemResponse(item))
}

// updateItem godoc
// @Summary Update a line item
// @Tags statements
// @Accept  json
// @Produce  json
// @Param   itemID path string true "Item ID"
// @Param   item body dto.SaveItemRequest true "Item details"
// @Success 200 {object} dto.BillingItemResponse
// @Security BearerAuth
// @Router /items/{itemID} [put]
func (h *statementHandler) updateItem(c *gin.Context) {
	var req dto.SaveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	item, err := h.statementService.UpdateItem(c.Request.Context(), c.Param("itemID"), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to update item")
		return
	}
	c.JSON(http.StatusOK, dto.ToBillingItemResponse(item))
}

// removeItem godoc
// @Summary Remove a line item
// @Tags statements
// @Param   itemID path string true "Item ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /items/{itemID} [delete]
func (h *statementHandler) removeItem(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.statementService.RemoveItem(c.Request.Context(), c.Param("itemID"), actorID); err != nil {
		respondError(c, err, "Failed to remove item")
		return
	}
	c.Status(http.StatusNoContent)
}

// submitForReview godoc
// @Summary Move a draft statement to pending review
// @Tags statements
// @Produce  json
// @Param   id path string true "Statement ID"
// @Success 200 {object} dto.StatementResponse
// @Failure 409 {object} map[string]string "Statement is not a draft"
// @Security BearerAuth
// @Router /statements/{id}/submit [post]
func (h *statementHandler) submitForReview(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	statement, err := h.statementService.SubmitForReview(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		respondError(c, err, "Failed to submit statement for review")
		return
	}
	c.JSON(http.StatusOK, dto.ToStatementResponse(statement, nil))
}

// issueStatement godoc
// @Summary Issue a statement
// @Description Assigns the SOA number, stamps dates and renders the PDF
// @Tags statements
// @Accept  json
// @Produce  json
// @Param   id path string true "Statement ID"
// @Param   issue body dto.IssueStatementRequest true "Issue details"
// @Success 200 {object} dto.StatementResponse
// @Failure 409 {object} map[string]string "Statement cannot be issued"
// @Security BearerAuth
// @Router /statements/{id}/issue [post]
func (h *statementHandler) issueStatement(c *gin.Context) {
	var req dto.IssueStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	statement, err := h.statementService.Issue(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to issue statement")
		return
	}
	c.JSON(http.StatusOK, dto.ToStatementResponse(statement, nil))
}

// voidStatement godoc
// @Summary Void a statement
// @Tags statements
// @Accept  json
// @Produce  json
// @Param   id path string true "Statement ID"
// @Param   void body dto.VoidRequest true "Void reason"
// @Success 200 {object} dto.StatementResponse
// @Security BearerAuth
// @Router /statements/{id}/void [post]
func (h *statementHandler) voidStatement(c *gin.Context) {
	var req dto.VoidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	statement, err := h.statementService.Void(c.Request.Context(), c.Param("id"), req.Reason, actorID)
	if err != nil {
		respondError(c, err, "Failed to void statement")
		return
	}
	c.JSON(http.StatusOK, dto.ToStatementResponse(statement, nil))
}

// batchIssue godoc
// @Summary Issue a batch of statements
// @Description Issues each statement independently; failures are reported as skipped
// @Tags statements
// @Accept  json
// @Produce  json
// @Param   batch body dto.BatchIssueRequest true "Statement IDs and dates"
// @Success 200 {object} dto.BatchIssueResponse
// @Security BearerAuth
// @Router /statements/batch-issue [post]
func (h *statementHandler) batchIssue(c *gin.Context) {
	var req dto.BatchIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	resp, err := h.statementService.BatchIssue(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to issue statements")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// refreshPDF godoc
// @Summary Re-render an issued statement's PDF
// @Tags statements
// @Produce  json
// @Param   id path string true "Statement ID"
// @Success 200 {object} map[string]string "pdfPath"
// @Failure 409 {object} map[string]string "Statement has no PDF"
// @Security BearerAuth
// @Router /statements/{id}/refresh-pdf [post]
func (h *statementHandler) refreshPDF(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	pdfPath, err := h.statementService.RefreshPDF(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		respondError(c, err, "Failed to refresh PDF")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pdfPath": pdfPath})
}
