package notifications

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Mailer is the outgoing-mail surface the worker needs. Satisfied by
// services.ResendEmailService.
type Mailer interface {
	SendRegistrationConfirmation(email, name, eventTitle string) error
	SendWaitingListNotice(email, name, eventTitle string) error
	SendWaitingListPromotion(email, name, eventTitle string) error
	SendOrderConfirmation(email, name, orderNumber, eventTitle string, totalCents int) error
	SendCertificateIssued(email, name, eventTitle, downloadURL string) error
}

// Worker consumes notification messages and turns them into emails. Email
// failures are logged but acked so a flaky mail provider cannot wedge the
// queue; handler errors before the email step requeue the message.
type Worker struct {
	client *Client
	email  Mailer
	log    zerolog.Logger
	done   chan struct{}
	cancel context.CancelFunc
}

// NewWorker creates a notification worker
func NewWorker(client *Client, email Mailer, log zerolog.Logger) *Worker {
	return &Worker{
		client: client,
		email:  email,
		log:    log,
		done:   make(chan struct{}),
	}
}

// Start begins consuming in the background until ctx is cancelled or Stop is
// called
func (w *Worker) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.log.Info().Msg("notification worker started")

	go func() {
		defer close(w.done)

		if err := w.client.Consume(w.handle); err != nil {
			w.log.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		w.log.Info().Msg("notification worker stopped")
	}()
}

// Stop cancels consumption and waits for the worker goroutine to exit
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
}

func (w *Worker) handle(body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		w.log.Error().Err(err).Str("body", string(body)).Msg("failed to unmarshal message")
		// Malformed messages can never succeed; drop rather than requeue.
		return nil
	}

	w.log.Info().
		Str("kind", msg.Kind).
		Int("registration_id", msg.RegistrationID).
		Msg("received notification message")

	var err error
	switch msg.Kind {
	case KindRegistrationConfirmed:
		err = w.email.SendRegistrationConfirmation(msg.Email, msg.Name, msg.EventTitle)
	case KindRegistrationWaiting:
		err = w.email.SendWaitingListNotice(msg.Email, msg.Name, msg.EventTitle)
	case KindRegistrationPromoted:
		err = w.email.SendWaitingListPromotion(msg.Email, msg.Name, msg.EventTitle)
	case KindOrderCommitted:
		err = w.email.SendOrderConfirmation(msg.Email, msg.Name, msg.OrderNumber, msg.EventTitle, msg.TotalCents)
	case KindCertificateIssued:
		err = w.email.SendCertificateIssued(msg.Email, msg.Name, msg.EventTitle, msg.DownloadURL)
	default:
		w.log.Warn().Str("kind", msg.Kind).Msg("unknown message kind, dropping")
		return nil
	}

	if err != nil {
		w.log.Warn().
			Err(err).
			Str("kind", msg.Kind).
			Str("email", msg.Email).
			Msg("failed to send notification email")
		return nil
	}

	w.log.Info().
		Str("kind", msg.Kind).
		Str("email", msg.Email).
		Msg("notification email sent")
	return nil
}
