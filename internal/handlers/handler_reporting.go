package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/middleware"
)

// registerReportingRoutes wires the read-only reports behind the view
// capability.
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade, caps portssvc.CapabilityResolver) {
	h := newReportingHandler(reportingService)

	reports := rg.Group("/reports", middleware.RequireCapability(caps, domain.CapViewReports))
	{
		reports.GET("/aging", h.agingReport)
		reports.GET("/collections", h.collectionsRegister)
		reports.GET("/unapplied-credits", h.unappliedCreditReport)
		reports.GET("/audit-trail", h.auditTrail)
	}
}

type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

func newReportingHandler(rs portssvc.ReportingSvcFacade) *reportingHandler {
	return &reportingHandler{reportingService: rs}
}

// parseDateQuery reads an optional YYYY-MM-DD query parameter.
func parseDateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " date, expected YYYY-MM-DD"})
		return nil, false
	}
	return &t, true
}

// agingReport godoc
// @Summary Receivables aging report
// @Description Buckets outstanding balances by days past due as of a reference date
// @Tags reports
// @Produce  json
// @Param   asOf query string false "Reference date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.AgingReportResponse
// @Security BearerAuth
// @Router /reports/aging [get]
func (h *reportingHandler) agingReport(c *gin.Context) {
	asOf, ok := parseDateQuery(c, "asOf")
	if !ok {
		return
	}
	ref := time.Now().UTC()
	if asOf != nil {
		ref = *asOf
	}

	report, err := h.reportingService.AgingReport(c.Request.Context(), ref)
	if err != nil {
		respondError(c, err, "Failed to build aging report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// collectionsRegister godoc
// @Summary Collections register
// @Description Sums posted and verified payments grouped by date and method
// @Tags reports
// @Produce  json
// @Param   start query string false "Start date (YYYY-MM-DD)"
// @Param   end query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} dto.CollectionsRegisterResponse
// @Security BearerAuth
// @Router /reports/collections [get]
func (h *reportingHandler) collectionsRegister(c *gin.Context) {
	start, ok := parseDateQuery(c, "start")
	if !ok {
		return
	}
	end, ok := parseDateQuery(c, "end")
	if !ok {
		return
	}

	register, err := h.reportingService.CollectionsRegister(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err, "Failed to build collections register")
		return
	}
	c.JSON(http.StatusOK, register)
}

// unappliedCreditReport godoc
// @Summary Open credit balances per client
// @Tags reports
// @Produce  json
// @Success 200 {object} dto.UnappliedCreditReportResponse
// @Security BearerAuth
// @Router /reports/unapplied-credits [get]
func (h *reportingHandler) unappliedCreditReport(c *gin.Context) {
	report, err := h.reportingService.UnappliedCreditReport(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to build credit report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// auditTrail godoc
// @Summary Recent audit trail entries
// @Tags reports
// @Produce  json
// @Param   limit query int false "Maximum entries to return" default(100)
// @Success 200 {array} dto.AuditEntryResponse
// @Security BearerAuth
// @Router /reports/audit-trail [get]
func (h *reportingHandler) auditTrail(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}

	entries, svcErr := h.reportingService.AuditTrail(c.Request.Context(), limit)
	if svcErr != nil {
		respondError(c, svcErr, "Failed to load audit trail")
		return
	}
	c.JSON(http.StatusOK, entries)
}
