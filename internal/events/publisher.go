package events

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RetryConfig carries the backoff parameters from the spec's per-hop
// delay formula: min(maxDelay, baseDelay*2^n).
type RetryConfig struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	MaxRetries int
}

// Publisher declares the full event-bus topology once at construction and
// publishes persistent messages to it. Publishing is fire-and-forget from
// the caller's perspective: a crash between DB commit and Publish can
// lose the event, an acknowledged limitation of the core.
type Publisher struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	retry  RetryConfig
}

// NewPublisher opens a channel on conn and declares exchanges/queues.
func NewPublisher(conn *amqp.Connection, retry RetryConfig) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	p := &Publisher{conn: conn, ch: ch, retry: retry}
	if err := p.declareTopology(); err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func (p *Publisher) declareTopology() error {
	if err := p.ch.ExchangeDeclare(ExchangeEvents, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := p.ch.ExchangeDeclare(ExchangeRetry, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := p.ch.ExchangeDeclare(ExchangeDLQ, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	eventQueues := map[string]string{
		QueueReservationCreated: RoutingReservationCreated,
		QueueEmailNotification:  "payment.confirmed",
		QueueAnalytics:          "#",
		QueueSeatReleased:       RoutingSeatReleased,
	}
	for name, routingKey := range eventQueues {
		if _, err := p.ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return err
		}
		if err := p.ch.QueueBind(name, routingKey, ExchangeEvents, false, nil); err != nil {
			return err
		}
	}

	// The retry queue has no consumer: it exists purely to hold a message
	// for its computed delay and dead-letter it back to cinema_events
	// with the original routing key once that TTL elapses.
	if _, err := p.ch.QueueDeclare(QueueRetry, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": ExchangeEvents,
	}); err != nil {
		return err
	}
	if err := p.ch.QueueBind(QueueRetry, "#", ExchangeRetry, false, nil); err != nil {
		return err
	}

	if _, err := p.ch.QueueDeclare(QueueDLQ, true, false, false, false, nil); err != nil {
		return err
	}
	return p.ch.QueueBind(QueueDLQ, "#", ExchangeDLQ, false, nil)
}

// Publish sends a persistent JSON message with routingKey on the
// cinema_events exchange.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: marshal failed for %s: %v", routingKey, err)
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, ExchangeEvents, routingKey, false, false, msg); err != nil {
		log.Printf("events: publish failed for %s: %v", routingKey, err)
		return err
	}
	return nil
}

// Redeliver routes a failed delivery to the retry exchange with a
// per-message TTL computed from its current x-retry-count header, or to
// the DLQ once MaxRetries has been exceeded. Headers are copied per the
// spec's per-hop table; contentType/contentEncoding/correlationId/
// messageId/timestamp/type/appId are copied field by field from the
// delivery into the new Publishing, unchanged.
func (p *Publisher) Redeliver(ctx context.Context, d amqp.Delivery, lastErr error) error {
	n := retryCountOf(d.Headers)

	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[HeaderRetryCount] = n + 1
	headers[HeaderOriginalExchange] = d.Exchange
	headers[HeaderOriginalRouting] = d.RoutingKey
	if lastErr != nil {
		headers[HeaderLastError] = lastErr.Error()
	}

	msg := amqp.Publishing{
		Headers:         headers,
		ContentType:     d.ContentType,
		ContentEncoding: d.ContentEncoding,
		CorrelationId:   d.CorrelationId,
		MessageId:       d.MessageId,
		Timestamp:       d.Timestamp,
		Type:            d.Type,
		AppId:           d.AppId,
		DeliveryMode:    amqp.Persistent,
		Body:            d.Body,
	}

	if n >= int64(p.retry.MaxRetries) {
		return p.ch.PublishWithContext(ctx, ExchangeDLQ, d.RoutingKey, false, false, msg)
	}

	delay := p.nextDelay(n)
	msg.Expiration = msgTTL(delay)
	return p.ch.PublishWithContext(ctx, ExchangeRetry, d.RoutingKey, false, false, msg)
}

// nextDelay implements min(maxDelay, baseDelay*2^n).
func (p *Publisher) nextDelay(n int64) time.Duration {
	d := p.retry.BaseDelay
	for i := int64(0); i < n; i++ {
		d *= 2
		if d >= p.retry.MaxDelay {
			return p.retry.MaxDelay
		}
	}
	if d > p.retry.MaxDelay {
		return p.retry.MaxDelay
	}
	return d
}

func msgTTL(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return strconv.FormatInt(ms, 10)
}

func retryCountOf(headers amqp.Table) int64 {
	if headers == nil {
		return 0
	}
	switch v := headers[HeaderRetryCount].(type) {
	case int64:
		return v
	case int32:
		return int64(v)
	case int:
		return int64(v)
	}
	return 0
}

// Close releases the underlying channel. The connection is owned by the
// caller (cmd/server), which closes it at shutdown.
func (p *Publisher) Close() error {
	return p.ch.Close()
}
