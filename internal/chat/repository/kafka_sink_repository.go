package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gig_chat_service/internal/chat/domain"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter the part of *kafka.Writer the sink uses
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaSink struct {
	writer KafkaWriter
}

// NewKafkaSink EventSink on a kafka topic, keyed by pair key so one pair stays on one partition
func NewKafkaSink(writer KafkaWriter) EventSink {
	return &kafkaSink{writer: writer}
}

func (s *kafkaSink) Emit(ctx context.Context, m domain.Message) error {
	ev := newMessageCreated(m)
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", domain.MessageCreatedType, err)
	}

	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.PairKey),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(domain.MessageCreatedType)},
			{Key: "kind", Value: []byte(m.Kind)},
		},
	})
}

func (s *kafkaSink) Close() error {
	return s.writer.Close()
}
