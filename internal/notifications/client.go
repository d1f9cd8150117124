package notifications

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"event-registration-platform/internal/config"
)

// Client wraps a RabbitMQ connection with a durable exchange/queue pair used
// for registration and order notifications.
type Client struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	log      zerolog.Logger
}

// NewClient connects to RabbitMQ and declares the notification exchange and
// queue
func NewClient(cfg config.RabbitConfig, log zerolog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect to RabbitMQ")
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		log.Error().Err(err).Msg("failed to open RabbitMQ channel")
		return nil, err
	}

	client := &Client{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
		log:      log,
	}

	if err := ch.ExchangeDeclare(
		cfg.Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		log.Error().Err(err).Msg("failed to declare exchange")
		return nil, err
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		log.Error().Err(err).Msg("failed to declare queue")
		return nil, err
	}

	if err := ch.QueueBind(
		cfg.Queue,
		"",
		cfg.Exchange,
		false,
		nil,
	); err != nil {
		log.Error().Err(err).Msg("failed to bind queue")
		return nil, err
	}

	log.Info().
		Str("exchange", cfg.Exchange).
		Str("queue", cfg.Queue).
		Msg("RabbitMQ initialized")

	return client, nil
}

// Close shuts down the channel and connection
func (c *Client) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.log.Info().Msg("RabbitMQ connection closed")
}

// Publish sends a message to the notification exchange
func (c *Client) Publish(message []byte) error {
	err := c.channel.Publish(
		c.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        message,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to publish message to RabbitMQ")
		return err
	}

	c.log.Debug().Str("exchange", c.exchange).Msg("message published")
	return nil
}

// Consume starts delivering queue messages to handler. A handler error nacks
// and requeues the message.
func (c *Client) Consume(handler func([]byte) error) error {
	msgs, err := c.channel.Consume(
		c.queue,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to start consuming messages")
		return err
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				c.log.Warn().Err(err).Msg("failed to process message")
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}()

	c.log.Info().Str("queue", c.queue).Msg("started consuming")
	return nil
}
