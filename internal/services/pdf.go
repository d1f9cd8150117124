package services

import (
	"bytes"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"event-registration-platform/internal/models"
)

// PDFService renders certificate PDFs. The writer emits the PDF objects by
// hand; the only external piece is the QR matrix, which comes from
// go-qrcode and is drawn as filled rectangles in the content stream.
type PDFService struct{}

// NewPDFService creates a new PDF service
func NewPDFService() *PDFService {
	return &PDFService{}
}

// GenerateCertificatePDF renders a single-page A4-landscape certificate. The
// QR code in the corner encodes verifyURL so the certificate can be checked
// without an account.
func (s *PDFService) GenerateCertificatePDF(cert *models.Certificate, verifyURL string) ([]byte, error) {
	qr, err := qrcode.New(verifyURL, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build QR code: %w", err)
	}

	contentStream := s.buildContentStream(cert, qr.Bitmap())

	var buffer bytes.Buffer
	offsets := make([]int, 0, 7)
	writeObj := func(body string) {
		offsets = append(offsets, buffer.Len())
		buffer.WriteString(body)
	}

	buffer.WriteString("%PDF-1.4\n")

	writeObj("1 0 obj\n<<\n/Type /Catalog\n/Pages 2 0 R\n>>\nendobj\n\n")
	writeObj("2 0 obj\n<<\n/Type /Pages\n/Kids [3 0 R]\n/Count 1\n>>\nendobj\n\n")

	// A4 landscape
	writeObj("3 0 obj\n<<\n/Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 842 595]\n" +
		"/Contents 4 0 R\n/Resources <<\n/Font <<\n/F1 5 0 R\n/F2 6 0 R\n>>\n>>\n>>\nendobj\n\n")

	writeObj(fmt.Sprintf("4 0 obj\n<<\n/Length %d\n>>\nstream\n%s\nendstream\nendobj\n\n",
		len(contentStream), contentStream))

	writeObj("5 0 obj\n<<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica\n>>\nendobj\n\n")
	writeObj("6 0 obj\n<<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica-Bold\n>>\nendobj\n\n")

	xrefStart := buffer.Len()
	buffer.WriteString(fmt.Sprintf("xref\n0 %d\n", len(offsets)+1))
	buffer.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		buffer.WriteString(fmt.Sprintf("%010d 00000 n \n", offset))
	}
	buffer.WriteString(fmt.Sprintf("trailer\n<<\n/Size %d\n/Root 1 0 R\n>>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefStart))

	return buffer.Bytes(), nil
}

// buildContentStream lays out the certificate text and the QR matrix
func (s *PDFService) buildContentStream(cert *models.Certificate, qrBitmap [][]bool) string {
	var stream strings.Builder

	stream.WriteString("BT\n")

	stream.WriteString("/F2 28 Tf\n")
	stream.WriteString(fmt.Sprintf("100 480 Td\n(%s) Tj\n", s.escapePDFString(s.certificateTitle(cert))))

	stream.WriteString("/F1 14 Tf\n")
	stream.WriteString("0 -50 Td\n(This certifies that) Tj\n")

	stream.WriteString("/F2 22 Tf\n")
	stream.WriteString(fmt.Sprintf("0 -36 Td\n(%s) Tj\n", s.escapePDFString(cert.RecipientName)))

	stream.WriteString("/F1 14 Tf\n")
	stream.WriteString(fmt.Sprintf("0 -36 Td\n(participated in %s) Tj\n", s.escapePDFString(cert.EventTitle)))

	if cert.Description != "" {
		stream.WriteString("/F1 11 Tf\n")
		for _, line := range s.wrapText(cert.Description, 90) {
			stream.WriteString(fmt.Sprintf("0 -18 Td\n(%s) Tj\n", s.escapePDFString(line)))
		}
	}

	stream.WriteString("/F1 10 Tf\n")
	stream.WriteString(fmt.Sprintf("0 -40 Td\n(Issued on %s) Tj\n",
		cert.IssuedAt.Format("January 2, 2006")))
	stream.WriteString(fmt.Sprintf("0 -16 Td\n(Verification code: %s) Tj\n",
		s.escapePDFString(cert.VerificationCode)))

	stream.WriteString("ET\n")

	s.drawQRCode(&stream, qrBitmap, 680, 60, 110)

	return stream.String()
}

// drawQRCode paints the QR matrix as filled squares. x,y is the lower-left
// corner in page units; size is the total edge length.
func (s *PDFService) drawQRCode(stream *strings.Builder, bitmap [][]bool, x, y, size float64) {
	if len(bitmap) == 0 {
		return
	}

	module := size / float64(len(bitmap))
	stream.WriteString("0 0 0 rg\n")
	for row := range bitmap {
		for col := range bitmap[row] {
			if !bitmap[row][col] {
				continue
			}
			// PDF y axis points up, bitmap rows go down
			px := x + float64(col)*module
			py := y + size - float64(row+1)*module
			stream.WriteString(fmt.Sprintf("%.2f %.2f %.2f %.2f re f\n", px, py, module, module))
		}
	}
}

func (s *PDFService) certificateTitle(cert *models.Certificate) string {
	if cert.Title != "" {
		return cert.Title
	}
	return "Certificate of Participation"
}

// wrapText splits text into lines of at most maxLen characters on word
// boundaries
func (s *PDFService) wrapText(text string, maxLen int) []string {
	words := strings.Fields(text)
	var lines []string
	var current strings.Builder

	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > maxLen {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// escapePDFString escapes special characters for PDF
func (s *PDFService) escapePDFString(str string) string {
	str = strings.ReplaceAll(str, "\\", "\\\\")
	str = strings.ReplaceAll(str, "(", "\\(")
	str = strings.ReplaceAll(str, ")", "\\)")
	str = strings.ReplaceAll(str, "\r", "")
	return str
}

// GenerateQRCodePNG renders a standalone QR PNG, used when a client wants
// the verification code outside the PDF
func (s *PDFService) GenerateQRCodePNG(verifyURL string) ([]byte, error) {
	png, err := qrcode.Encode(verifyURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}

// FileName returns the download name for a certificate PDF
func (s *PDFService) FileName(cert *models.Certificate) string {
	name := strings.ToLower(strings.ReplaceAll(cert.RecipientName, " ", "-"))
	return fmt.Sprintf("certificate-%s-%s.pdf", name, cert.IssuedAt.Format("20060102"))
}
