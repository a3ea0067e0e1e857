package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portssvc "github.com/soadesk/billing_backoffice/internal/core/ports/services"
	"github.com/soadesk/billing_backoffice/internal/dto"
	"github.com/soadesk/billing_backoffice/internal/middleware"
)

// registerClientRoutes wires the client and contact endpoints. Reads
// require only authentication; mutations require the manage capability.
func registerClientRoutes(rg *gin.RouterGroup, clientService portssvc.ClientSvcFacade, caps portssvc.CapabilityResolver) {
	h := newClientHandler(clientService)
	manage := middleware.RequireCapability(caps, domain.CapManageClients)

	clients := rg.Group("/clients")
	{
		clients.POST("", manage, h.createClient)
		clients.GET("", h.listClients)
		clients.GET("/:id", h.getClient)
		clients.PUT("/:id", manage, h.updateClient)
		clients.DELETE("/:id", manage, h.deleteClient)

		clients.POST("/:id/contacts", manage, h.addContact)
		clients.GET("/:id/contacts", h.listContacts)
		clients.DELETE("/:id/contacts/:contactID", manage, h.removeContact)
	}
}

// clientHandler handles HTTP requests related to clients.
type clientHandler struct {
	clientService portssvc.ClientSvcFacade
}

func newClientHandler(cs portssvc.ClientSvcFacade) *clientHandler {
	return &clientHandler{clientService: cs}
}

// createClient godoc
// @Summary Create a new client
// @Description Registers a new billable client
// @Tags clients
// @Accept  json
// @Produce  json
// @Param   client body dto.CreateClientRequest true "Client details"
// @Success 201 {object} dto.ClientResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 409 {object} map[string]string "Duplicate client name"
// @Security BearerAuth
// @Router /clients [post]
func (h *clientHandler) createClient(c *gin.Context) {
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to create client")
		return
	}
	c.JSON(http.StatusCreated, dto.ToClientResponse(client))
}

// getClient godoc
// @Summary Get a client by ID
// @Tags clients
// @Produce  json
// @Param   id path string true "Client ID"
// @Success 200 {object} dto.ClientResponse
// @Failure 404 {object} map[string]string "Client not found"
// @Security BearerAuth
// @Router /clients/{id} [get]
func (h *clientHandler) getClient(c *gin.Context) {
	client, err := h.clientService.GetClientByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve client")
		return
	}
	c.JSON(http.StatusOK, dto.ToClientResponse(client))
}

// listClients godoc
// @Summary List clients
// @Tags clients
// @Produce  json
// @Param   status query string false "Filter by status (active|inactive)"
// @Param   limit query int false "Page size"
// @Param   offset query int false "Page offset"
// @Success 200 {array} dto.ClientResponse
// @Security BearerAuth
// @Router /clients [get]
func (h *clientHandler) listClients(c *gin.Context) {
	var status *domain.ClientStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.ClientStatus(raw)
		status = &s
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	clients, err := h.clientService.ListClients(c.Request.Context(), status, limit, offset)
	if err != nil {
		respondError(c, err, "Failed to list clients")
		return
	}
	c.JSON(http.StatusOK, dto.ToClientResponses(clients))
}

// updateClient godoc
// @Summary Update a client
// @Tags clients
// @Accept  json
// @Produce  json
// @Param   id path string true "Client ID"
// @Param   client body dto.UpdateClientRequest true "Fields to update"
// @Success 200 {object} dto.ClientResponse
// @Failure 404 {object} map[string]string "Client not found"
// @Security BearerAuth
// @Router /clients/{id} [put]
func (h *clientHandler) updateClient(c *gin.Context) {
	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to update client")
		return
	}
	c.JSON(http.StatusOK, dto.ToClientResponse(client))
}

// deleteClient godoc
// @Summary Delete a client without financial history
// @Tags clients
// @Param   id path string true "Client ID"
// @Success 204 "No Content"
// @Failure 409 {object} map[string]string "Client has statements or payments"
// @Security BearerAuth
// @Router /clients/{id} [delete]
func (h *clientHandler) deleteClient(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.clientService.DeleteClient(c.Request.Context(), c.Param("id"), actorID); err != nil {
		respondError(c, err, "Failed to delete client")
		return
	}
	c.Status(http.StatusNoContent)
}

// addContact godoc
// @Summary Add a contact to a client
// @Tags clients
// @Accept  json
// @Produce  json
// @Param   id path string true "Client ID"
// @Param   contact body dto.CreateContactRequest true "Contact details"
// @Success 201 {object} domain.Contact
// @Security BearerAuth
// @Router /clients/{id}/contacts [post]
func (h *clientHandler) addContact(c *gin.Context) {
	var req dto.CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	contact, err := h.clientService.AddContact(c.Request.Context(), c.Param("id"), req, actorID)
	if err != nil {
		respondError(c, err, "Failed to add contact")
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// listContacts godoc
// @Summary List a client's contacts
// @Tags clients
// @Produce  json
// @Param   id path string true "Client ID"
// @Success 200 {array} domain.Contact
// @Security BearerAuth
// @Router /clients/{id}/contacts [get]
func (h *clientHandler) listContacts(c *gin.Context) {
	contacts, err := h.clientService.ListContacts(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to list contacts")
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// removeContact godoc
// @Summary Remove a contact
// @Tags clients
// @Param   contactID path string true "Contact ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /contacts/{contactID} [delete]
func (h *clientHandler) removeContact(c *gin.Context) {
	actorID, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.clientService.RemoveContact(c.Request.Context(), c.Param("contactID"), actorID); err != nil {
		respondError(c, err, "Failed to remove contact")
		return
	}
	c.Status(http.StatusNoContent)
}
