package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ignatzorin/offer-engine/internal/interface/http/dto"
	"github.com/ignatzorin/offer-engine/internal/interface/http/response"
	"github.com/ignatzorin/offer-engine/internal/usecase/order"
)

type OrderHandler struct {
	updateStatusUC *order.UpdateOrderStatusUseCase
	cancelOrderUC  *order.CancelOrderUseCase
	archiveUC      *order.ArchiveSellerUseCase
}

func NewOrderHandler(
	updateStatusUC *order.UpdateOrderStatusUseCase,
	cancelOrderUC *order.CancelOrderUseCase,
	archiveUC *order.ArchiveSellerUseCase,
) *OrderHandler {
	return &OrderHandler{
		updateStatusUC: updateStatusUC,
		cancelOrderUC:  cancelOrderUC,
		archiveUC:      archiveUC,
	}
}

// UpdateStatus обрабатывает PUT /api/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	result, err := h.updateStatusUC.Execute(c.Request.Context(), order.UpdateOrderStatusInput{
		OrderID: orderID,
		ActorID: userID,
		Status:  req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOrderResponse(result))
}

// Cancel обрабатывает POST /api/orders/:id/cancel. Тело запроса необязательно.
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}

	result, err := h.cancelOrderUC.Execute(c.Request.Context(), order.CancelOrderInput{
		OrderID: orderID,
		ActorID: userID,
		Reason:  req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToOrderResponse(result))
}

// ArchiveOrganization обрабатывает POST /api/organizations/:id/archive.
func (h *OrderHandler) ArchiveOrganization(c *gin.Context) {
	userID, ok := actor(c)
	if !ok {
		return
	}
	orgID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.archiveUC.Execute(c.Request.Context(), order.ArchiveSellerInput{
		OrganizationID: orgID,
		ActorID:        userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToArchiveSellerResponse(result))
}
