package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"event-registration-platform/internal/middleware"
	"event-registration-platform/internal/models"
	"event-registration-platform/internal/services"
)

// CertificateHandler handles certificate endpoints
type CertificateHandler struct {
	certService *services.CertificateService
	pdfService  *services.PDFService
}

// NewCertificateHandler creates a new certificate handler
func NewCertificateHandler(certService *services.CertificateService, pdfService *services.PDFService) *CertificateHandler {
	return &CertificateHandler{
		certService: certService,
		pdfService:  pdfService,
	}
}

// Issue handles POST /api/v1/registrations/{id}/certificate
func (h *CertificateHandler) Issue(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	registrationID, err := urlParamInt(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	cert, err := h.certService.Issue(user, registrationID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, cert)
}

// Download handles GET /api/v1/certificates/{id}/download
func (h *CertificateHandler) Download(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, models.NewValidationError("invalid id"))
		return
	}

	cert, data, err := h.certService.Download(user, id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", h.pdfService.FileName(cert)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Verify handles GET /api/v1/certificates/verify/{code}. Public; anyone
// scanning the QR code lands here.
func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, models.NewValidationError("invalid code"))
		return
	}

	cert, err := h.certService.Verify(code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":          true,
		"recipient_name": cert.RecipientName,
		"event_title":    cert.EventTitle,
		"title":          cert.Title,
		"issued_at":      cert.IssuedAt,
	})
}
