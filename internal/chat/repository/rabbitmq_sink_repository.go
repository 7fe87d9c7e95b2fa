package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gig_chat_service/internal/chat/domain"
	errprocess "gig_chat_service/pkg/err"

	"github.com/streadway/amqp"
)

// AMQPChannel the part of *amqp.Channel the sink uses
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitMQSink struct {
	ch       AMQPChannel
	exchange string
}

// NewRabbitMQSink EventSink on a durable topic exchange, routing key message.created.<kind>
func NewRabbitMQSink(ch AMQPChannel, exchange string) (EventSink, error) {
	if exchange == "" {
		return nil, errprocess.Set("rabbitmq exchange is required")
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &rabbitMQSink{ch: ch, exchange: exchange}, nil
}

// RoutingKey routing key of a message kind
func RoutingKey(k domain.Kind) string {
	return domain.MessageCreatedType + "." + string(k)
}

func (s *rabbitMQSink) Emit(ctx context.Context, m domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(newMessageCreated(m))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", domain.MessageCreatedType, err)
	}

	return s.ch.Publish(s.exchange, RoutingKey(m.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    m.ID,
		Timestamp:    time.Now(),
		Type:         domain.MessageCreatedType,
		Body:         body,
	})
}

func (s *rabbitMQSink) Close() error {
	return s.ch.Close()
}
