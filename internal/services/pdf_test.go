package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-registration-platform/internal/models"
)

func testCertificate() *models.Certificate {
	return &models.Certificate{
		ID:               "7b6fe2f7-1c4f-4f7a-9d80-000000000001",
		RegistrationID:   1,
		Title:            "Certificate of Attendance",
		Description:      "Awarded for attending all three days of the conference.",
		RecipientName:    "Alice Smith",
		EventTitle:       "Go Conference",
		VerificationCode: "abc123def456",
		IssuedAt:         time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestPDFService_GenerateCertificatePDF(t *testing.T) {
	service := NewPDFService()

	data, err := service.GenerateCertificatePDF(testCertificate(), "http://localhost:8080/api/v1/certificates/verify/abc123def456")
	require.NoError(t, err)

	content := string(data)
	assert.True(t, strings.HasPrefix(content, "%PDF-1.4"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(content), "%%EOF"))
	assert.Contains(t, content, "Alice Smith")
	assert.Contains(t, content, "Go Conference")
	assert.Contains(t, content, "abc123def456")
	// QR modules are drawn as filled rectangles
	assert.Contains(t, content, "re f")
}

func TestPDFService_EscapesSpecialCharacters(t *testing.T) {
	service := NewPDFService()

	cert := testCertificate()
	cert.RecipientName = "Alice (Smith)"

	data, err := service.GenerateCertificatePDF(cert, "http://localhost:8080/verify")
	require.NoError(t, err)
	assert.Contains(t, string(data), `Alice \(Smith\)`)
}

func TestPDFService_FileName(t *testing.T) {
	service := NewPDFService()

	name := service.FileName(testCertificate())
	assert.Equal(t, "certificate-alice-smith-20260615.pdf", name)
}

func TestPDFService_GenerateQRCodePNG(t *testing.T) {
	service := NewPDFService()

	png, err := service.GenerateQRCodePNG("http://localhost:8080/verify/abc")
	require.NoError(t, err)
	assert.True(t, len(png) > 0)
	// PNG magic bytes
	assert.Equal(t, byte(0x89), png[0])
	assert.Equal(t, "PNG", string(png[1:4]))
}

func TestPDFService_WrapText(t *testing.T) {
	service := NewPDFService()

	lines := service.wrapText("one two three four five six seven", 12)
	require.True(t, len(lines) > 1)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 12)
	}
	assert.Equal(t, "one two", lines[0])
}
