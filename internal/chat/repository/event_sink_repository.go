package repository

import (
	"context"
	"time"

	"gig_chat_service/internal/chat/domain"
)

// EventSink receives message.created for every stored message
type EventSink interface {
	Emit(ctx context.Context, m domain.Message) error
	Close() error
}

func newMessageCreated(m domain.Message) domain.MessageCreated {
	return domain.MessageCreated{
		Type:       domain.MessageCreatedType,
		PairKey:    domain.NewPairKey(m.SenderID, m.ReceiverID),
		Message:    m,
		OccurredAt: time.Now().UnixMilli(),
	}
}

type noopSink struct{}

// NewNoopSink EventSink that drops everything
func NewNoopSink() EventSink {
	return noopSink{}
}

func (noopSink) Emit(context.Context, domain.Message) error { return nil }

func (noopSink) Close() error { return nil }
