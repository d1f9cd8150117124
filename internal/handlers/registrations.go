package handlers

import (
	"net/http"

	"event-registration-platform/internal/middleware"
	"event-registration-platform/internal/models"
	"event-registration-platform/internal/orders"
	"event-registration-platform/internal/services"
)

// RegistrationHandler handles registration endpoints, including the order
// surface of a registration
type RegistrationHandler struct {
	registrationService *services.RegistrationService
	orderService        *services.OrderService
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(
	registrationService *services.RegistrationService,
	orderService *services.OrderService,
) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
		orderService:        orderService,
	}
}

// Create handles POST /api/v1/registrations
func (h *RegistrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	var req models.RegistrationCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	reg, err := h.registrationService.Register(user, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reg)
}

// Get handles GET /api/v1/registrations/{id}
func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	reg, err := h.registrationService.GetRegistration(user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

// Patch handles PATCH /api/v1/registrations/{id}
func (h *RegistrationHandler) Patch(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req models.RegistrationPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	reg, err := h.registrationService.Patch(user, id, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

type statusRequest struct {
	Status models.RegistrationStatus `json:"status"`
}

// UpdateStatus handles PUT /api/v1/registrations/{id}/status
func (h *RegistrationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	reg, err := h.registrationService.UpdateStatus(user, id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

// GetLog handles GET /api/v1/registrations/{id}/log
func (h *RegistrationHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.registrationService.GetLog(user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"log": entries})
}

// ListByEvent handles GET /api/v1/events/{id}/registrations
func (h *RegistrationHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	eventID, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	regs, total, err := h.registrationService.ListByEvent(user, eventID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"registrations": regs,
		"total":         total,
	})
}

type productLine struct {
	ProductID int  `json:"product_id"`
	VariantID *int `json:"variant_id,omitempty"`
	Quantity  int  `json:"quantity"`
}

type setProductsRequest struct {
	Products []productLine `json:"products"`
}

func toTargetLines(lines []productLine) []orders.TargetLine {
	target := make([]orders.TargetLine, 0, len(lines))
	for _, l := range lines {
		target = append(target, orders.TargetLine{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
		})
	}
	return target
}

// SetProducts handles POST /api/v1/registrations/{id}/products. The body is
// the full desired product state; the server computes the difference against
// existing orders and books only that.
func (h *RegistrationHandler) SetProducts(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req setProductsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.orderService.SetProducts(user, id, toTargetLines(req.Products))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order":        result.Order,
		"created":      result.Created,
		"deltas":       result.Deltas,
		"registration": result.Registration,
	})
}

// GetProducts handles GET /api/v1/registrations/{id}/products, returning the
// net quantity per product across all non-cancelled orders
func (h *RegistrationHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	products, err := h.orderService.GetNetProducts(user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

type createOrderRequest struct {
	Lines []productLine `json:"lines"`
}

// CreateOrder handles POST /api/v1/registrations/{id}/orders. Unlike
// SetProducts, the lines are booked exactly as given; negative quantities
// record refunds.
func (h *RegistrationHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	order, err := h.orderService.CreateOrder(user, id, toTargetLines(req.Lines))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// ListOrders handles GET /api/v1/registrations/{id}/orders
func (h *RegistrationHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	list, err := h.orderService.ListOrders(user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": list})
}
