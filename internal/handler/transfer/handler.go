package transfer

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ticketnest/ticketing-api/internal/handler"
	"github.com/ticketnest/ticketing-api/internal/middleware"
	"github.com/ticketnest/ticketing-api/internal/model"
	"github.com/ticketnest/ticketing-api/internal/service/transfer"
)

type Handler struct {
	service *transfer.Service
}

func NewHandler(service *transfer.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	transfers := r.Group("/ticket-transfers")
	{
		transfers.POST("", h.CreateTransfer)
		transfers.GET("/:uuid", h.GetTransfer)
	}
}

func (h *Handler) CreateTransfer(c *gin.Context) {
	provider, ok := middleware.ProviderFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.Fail("missing tenant"))
		return
	}

	var input model.CreateTransferInput
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

func (h *Handler) GetTransfer(c *gin.Context) {
	provider, ok := middleware.ProviderFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.Fail("missing tenant"))
		return
	}

	transferUUID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.Fail("invalid transfer uuid"))
		return
	}

	found, err := h.service.Get(c.Request.Context(), provider, transferUUID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.OK(found))
}
