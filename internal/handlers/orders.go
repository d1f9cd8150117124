package handlers

import (
	"net/http"

	"event-registration-platform/internal/middleware"
	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	order, err := h.orderService.GetOrder(user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// UpdateStatus handles PUT /api/v1/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req orderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	order, err := h.orderService.UpdateOrderStatus(user, id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
