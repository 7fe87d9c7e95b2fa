package hub

import (
	"context"
	"errors"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// Relay carries live events between service nodes
type Relay interface {
	Publish(ctx context.Context, ev domain.LiveEvent) error
	// Subscribe call handler for every event published by any node until ctx is done
	Subscribe(ctx context.Context, handler func(domain.LiveEvent)) error
}

// Router resolves a pair key to its live sessions
type Router interface {
	Route(key domain.PairKey) []Session
}

// Broker fans live events out to the sessions of a pair
type Broker struct {
	router Router
	relay  Relay
}

// NewBroker create Broker, relay nil keeps delivery on this node
func NewBroker(router Router, relay Relay) *Broker {
	return &Broker{router: router, relay: relay}
}

// Start subscribe the relay, every node delivers what it receives to its own sessions
func (b *Broker) Start(ctx context.Context) error {
	if b.relay == nil {
		return nil
	}
	return b.relay.Subscribe(ctx, func(ev domain.LiveEvent) {
		b.Deliver(ev)
	})
}

// Publish hand ev to the relay, or deliver it here when there is none.
// A relay failure still delivers to this node's sessions and returns the error.
func (b *Broker) Publish(ctx context.Context, ev domain.LiveEvent) error {
	if b.relay == nil {
		b.Deliver(ev)
		return nil
	}

	if err := b.relay.Publish(ctx, ev); err != nil {
		b.Deliver(ev)
		return err
	}
	return nil
}

// Deliver enqueue ev on every session of its pair except the origin, returns how many accepted it
func (b *Broker) Deliver(ev domain.LiveEvent) int {
	sessions := b.router.Route(ev.PairKey)
	if len(sessions) == 0 {
		logger.Log.Debug("no live session", zap.String("pairKey", string(ev.PairKey)))
		return 0
	}

	frame := ev.Frame()
	delivered := 0
	for _, s := range sessions {
		if s.ID() == ev.OriginSessionID {
			continue
		}
		if err := s.Send(frame); err != nil {
			if !errors.Is(err, ErrSessionClosed) {
				logger.Log.Warn("deliver", zap.String("sessionID", s.ID()), zap.Error(err))
			}
			continue
		}
		delivered++
	}
	return delivered
}
