package ticket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ticketnest/ticketing-api/internal/handler"
	"github.com/ticketnest/ticketing-api/internal/middleware"
	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/service/ticket"
)

// Handler is a thin shim over the ticket service: binding, tenant resolution
// and status mapping only. All transactional behavior lives in the service.
type Handler struct {
	service *ticket.Service
}

func NewHandler(service *ticket.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	tickets := r.Group("/tickets")
	{
		tickets.POST("", h.CreateTicket)
		tickets.POST("/validate", h.ValidateTicket)
		tickets.GET("/:uuid", h.GetTicket)
		tickets.DELETE("/:uuid", h.DeleteTicket)
	}
}

func (h *Handler) CreateTicket(c *gin.Context) {
	provider, ok := middleware.ProviderFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.Fail("missing tenant"))
		return
	}

	var input model.CreateTicketInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, handler.Fail(err.Error()))
		return
	}

	created, err := h.service.Create(c.Request.Context(), provider, input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.OK(created))
}

type validateTicketRequest struct {
	TicketUUID uuid.UUID `json:"ticketUuid" binding:"required"`
}

func (h *Handler) ValidateTicket(c *gin.Context) {
	provider, ok := middleware.ProviderFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.Fail("missing tenant"))
		return
	}

	var req validateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.Fail(err.Error()))
		return
	}

	validated, err := h.service.Validate(c.Request.Context(), provider, req.TicketUUID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.OK(validated))
}

func (h *Handler) GetTicket(c *gin.Context) {
	provider, ok := middleware.ProviderFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.Fail("missing tenant"))
		return
	}

	ticketUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.Fail("invalid ticket uuid"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), provider, ticketUUID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.OK(found))
}

func (h *Handler) DeleteTicket(c *gin.Context) {
	provider, ok := middleware.ProviderFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.Fail("missing tenant"))
		return
	}

	ticketUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.Fail("invalid ticket uuid"))
		return
	}

	// The ticket must belong to the caller's tenant before the tenant-less
	// terminal transition runs.
	if _, err := h.service.Get(c.Request.Context(), provider, ticketUUID); err != nil {
		c.Error(err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), ticketUUID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
