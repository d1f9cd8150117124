package handlers

import (
	"net/http"

	"event-registration-platform/internal/middleware"
	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService *services.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Create handles POST /api/v1/events/{id}/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	eventID, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req models.ProductCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	req.EventID = eventID

	product, err := h.productService.CreateProduct(user, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// ListByEvent handles GET /api/v1/events/{id}/products
func (h *ProductHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	eventID, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	products, err := h.productService.ListProducts(user, eventID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// Get handles GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	product, err := h.productService.GetProduct(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Update handles PUT /api/v1/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req models.ProductUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	product, err := h.productService.UpdateProduct(user, id, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Archive handles DELETE /api/v1/products/{id}
func (h *ProductHandler) Archive(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.productService.ArchiveProduct(user, id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

// AddVariant handles POST /api/v1/products/{id}/variants
func (h *ProductHandler) AddVariant(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	productID, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req models.ProductVariantCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	variant, err := h.productService.AddVariant(user, productID, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, variant)
}
