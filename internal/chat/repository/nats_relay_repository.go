package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/pkg/logger"

	"github.com/cespare/xxhash/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const natsSubjectPrefix = "chat.pair"

// NATSRelay live event relay over core NATS subjects
type NATSRelay struct {
	nc *nats.Conn
}

// NewNATSRelay create NATSRelay
func NewNATSRelay(nc *nats.Conn) *NATSRelay {
	return &NATSRelay{nc: nc}
}

// PairSubject pair keys may hold '.', '*' or '>' so the subject carries their hash
func PairSubject(key domain.PairKey) string {
	return fmt.Sprintf("%s.%s", natsSubjectPrefix, strconv.FormatUint(xxhash.Sum64String(string(key)), 16))
}

// Publish serialize ev onto the pair subject
func (r *NATSRelay) Publish(_ context.Context, ev domain.LiveEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal live event: %w", err)
	}
	subject := PairSubject(ev.PairKey)
	if err := r.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to subject '%s': %w", subject, err)
	}
	return nil
}

// Subscribe every pair subject until ctx is done
func (r *NATSRelay) Subscribe(ctx context.Context, handler func(domain.LiveEvent)) error {
	sub, err := r.nc.Subscribe(natsSubjectPrefix+".*", func(msg *nats.Msg) {
		var ev domain.LiveEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Log.Error("unmarshal live event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		handler(ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s.*: %w", natsSubjectPrefix, err)
	}
	if err := r.nc.Flush(); err != nil {
		sub.Unsubscribe()
		return fmt.Errorf("flush subscription: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			logger.Log.Warn("nats unsubscribe", zap.Error(err))
		}
		logger.Log.Info("nats relay subscription closed")
	}()
	return nil
}
