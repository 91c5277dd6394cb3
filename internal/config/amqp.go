package config

// This file dials the AMQP broker used by internal/events. The teacher's
// queue_publisher dialed a fresh connection per publish; the Event
// Publisher instead dials once at startup and keeps the connection for
// the process lifetime. Neither this constructor nor the Publisher
// reconnects if the connection drops.

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// NewAMQPConnection dials the broker at cfg.RabbitMQURI.
func NewAMQPConnection(cfg Config) (*amqp.Connection, error) {
	return amqp.Dial(cfg.RabbitMQURI)
}
