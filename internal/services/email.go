package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appconfig "event-registration-platform/internal/config"
)

// EmailService defines the interface for outgoing mail
type EmailService interface {
	SendRegistrationConfirmation(email, name, eventTitle string) error
	SendWaitingListNotice(email, name, eventTitle string) error
	SendWaitingListPromotion(email, name, eventTitle string) error
	SendOrderConfirmation(email, name, orderNumber, eventTitle string, totalCents int) error
	SendCertificateIssued(email, name, eventTitle, downloadURL string) error
}

// ResendEmailService handles email sending via the Resend API
type ResendEmailService struct {
	config appconfig.ResendConfig
	client *http.Client
}

// NewResendEmailService creates a new Resend email service
func NewResendEmailService(config appconfig.ResendConfig) *ResendEmailService {
	return &ResendEmailService{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ResendEmailRequest represents the request structure for the Resend API
type ResendEmailRequest struct {
	From    string      `json:"from"`
	To      []string    `json:"to"`
	Subject string      `json:"subject"`
	HTML    string      `json:"html,omitempty"`
	Text    string      `json:"text,omitempty"`
	Tags    []ResendTag `json:"tags,omitempty"`
}

// ResendTag represents a tag for email categorization
type ResendTag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ResendEmailResponse represents the response from the Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from the Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

func (s *ResendEmailService) getFromField() string {
	if s.config.FromName != "" {
		return fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	}
	return s.config.FromEmail
}

// SendRegistrationConfirmation notifies a participant that their registration
// was accepted
func (s *ResendEmailService) SendRegistrationConfirmation(email, name, eventTitle string) error {
	text := fmt.Sprintf(`Hello %s,

Your registration for %s has been confirmed.

You can review your registration and order anything the event offers from your account.

See you there!`, name, eventTitle)

	return s.sendEmail(ResendEmailRequest{
		From:    s.getFromField(),
		To:      []string{email},
		Subject: fmt.Sprintf("Registration confirmed: %s", eventTitle),
		Text:    text,
		Tags:    []ResendTag{{Name: "category", Value: "registration-confirmation"}},
	})
}

// SendWaitingListNotice notifies a participant that the event is full and
// they were placed on the waiting list
func (s *ResendEmailService) SendWaitingListNotice(email, name, eventTitle string) error {
	text := fmt.Sprintf(`Hello %s,

%s has reached its participant limit, so your registration was placed on the waiting list.

We will email you as soon as a spot opens up. You do not need to do anything else.`, name, eventTitle)

	return s.sendEmail(ResendEmailRequest{
		From:    s.getFromField(),
		To:      []string{email},
		Subject: fmt.Sprintf("You are on the waiting list for %s", eventTitle),
		Text:    text,
		Tags:    []ResendTag{{Name: "category", Value: "waiting-list"}},
	})
}

// SendWaitingListPromotion notifies a participant that a spot opened up
func (s *ResendEmailService) SendWaitingListPromotion(email, name, eventTitle string) error {
	text := fmt.Sprintf(`Hello %s,

Good news: a spot opened up for %s and your registration has been confirmed.

See you there!`, name, eventTitle)

	return s.sendEmail(ResendEmailRequest{
		From:    s.getFromField(),
		To:      []string{email},
		Subject: fmt.Sprintf("A spot opened up: %s", eventTitle),
		Text:    text,
		Tags:    []ResendTag{{Name: "category", Value: "waiting-list-promotion"}},
	})
}

// SendOrderConfirmation sends a summary after an order is committed
func (s *ResendEmailService) SendOrderConfirmation(email, name, orderNumber, eventTitle string, totalCents int) error {
	text := fmt.Sprintf(`Hello %s,

Thank you for your order for %s.

Order number: %s
Total: %.2f

You can review the full order from your account.`, name, eventTitle, orderNumber, float64(totalCents)/100)

	return s.sendEmail(ResendEmailRequest{
		From:    s.getFromField(),
		To:      []string{email},
		Subject: fmt.Sprintf("Order %s confirmed", orderNumber),
		Text:    text,
		Tags:    []ResendTag{{Name: "category", Value: "order-confirmation"}},
	})
}

// SendCertificateIssued sends the download link for an issued certificate
func (s *ResendEmailService) SendCertificateIssued(email, name, eventTitle, downloadURL string) error {
	text := fmt.Sprintf(`Hello %s,

Your certificate for %s is ready.

Download it here: %s

The certificate contains a QR code that anyone can scan to verify it.`, name, eventTitle, downloadURL)

	return s.sendEmail(ResendEmailRequest{
		From:    s.getFromField(),
		To:      []string{email},
		Subject: fmt.Sprintf("Your certificate for %s", eventTitle),
		Text:    text,
		Tags:    []ResendTag{{Name: "category", Value: "certificate"}},
	})
}

func (s *ResendEmailService) sendEmail(request ResendEmailRequest) error {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorResp ResendErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
			return fmt.Errorf("failed to send email, status: %d", resp.StatusCode)
		}
		return fmt.Errorf("failed to send email: %s", errorResp.Message)
	}

	var response ResendEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
