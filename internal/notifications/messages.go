package notifications

import "encoding/json"

// Message kinds carried over the notification queue
const (
	KindRegistrationConfirmed = "registration.confirmed"
	KindRegistrationWaiting   = "registration.waiting_list"
	KindRegistrationPromoted  = "registration.promoted"
	KindOrderCommitted        = "order.committed"
	KindCertificateIssued     = "certificate.issued"
)

// Message is the envelope published for every notification
type Message struct {
	Kind           string `json:"kind"`
	RegistrationID int    `json:"registration_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	EventTitle     string `json:"event_title"`
	OrderNumber    string `json:"order_number,omitempty"`
	TotalCents     int    `json:"total_cents,omitempty"`
	DownloadURL    string `json:"download_url,omitempty"`
}

// Encode marshals the message for publishing
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
